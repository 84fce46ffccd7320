package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCatalogNotFound     = errors.New("catalog not found for territory")
	ErrTerritoryRequired   = errors.New("territory is required")
	ErrNoBillText          = errors.New("no bill text supplied")
	ErrNoIntervalData      = errors.New("no interval data available")
	ErrProviderUnavailable = errors.New("collaborator not configured")
)

// ValidationError reports a malformed input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}
