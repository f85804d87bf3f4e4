package envelope

import (
	"strings"

	"github.com/theirongolddev/fundcast/internal/model"
)

// MatchEnvelope returns the envelope of the first active rule whose keyword
// occurs in description, ignoring case. Rules are tried in slice order.
func MatchEnvelope(description string, rules []model.CategorizationRule) (string, bool) {
	desc := strings.ToLower(description)
	for _, r := range rules {
		if !r.IsActive || r.Keyword == "" {
			continue
		}
		if strings.Contains(desc, strings.ToLower(r.Keyword)) {
			return r.EnvelopeID, true
		}
	}
	return "", false
}
