// fundcast forecasts household cash flow from accounts, bills and income.
package main

import "github.com/theirongolddev/fundcast/cmd"

func main() {
	cmd.Execute()
}
