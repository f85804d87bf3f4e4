package model

import "errors"

// Storage errors shared by every package that reads or writes records.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)
