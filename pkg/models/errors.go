package models

import "errors"

// Sentinel errors shared by the tracker, importers and hosts.
var (
	ErrNotFound               = errors.New("item not found")
	ErrParseFailure           = errors.New("failed to parse import file")
	ErrEmptyImport            = errors.New("nothing to import")
	ErrUnsupportedEnvironment = errors.New("speech capability is not available")
	ErrValidation             = errors.New("validation error")
)
