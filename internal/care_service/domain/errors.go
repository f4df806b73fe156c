package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrNoDueMessages indicates that no care messages are currently due.
	ErrNoDueMessages = errors.New("no due care messages found")
)

// DraftFailureReason classifies why a draft attempt failed.
type DraftFailureReason string

const (
	DraftUnauthorized         DraftFailureReason = "unauthorized"
	DraftAlreadyScheduled     DraftFailureReason = "already_scheduled"
	DraftNotConfigured        DraftFailureReason = "not_configured"
	DraftCustomerNotFound     DraftFailureReason = "customer_not_found"
	DraftUpstreamCallFailed   DraftFailureReason = "upstream_call_failed"
	DraftUnparseableResponse  DraftFailureReason = "unparseable_response"
	DraftInvalidResponseShape DraftFailureReason = "invalid_response_shape"
)

// DraftError is the user-facing failure of a Drafter invocation.
type DraftError struct {
	Reason DraftFailureReason
	// Setting names the missing configuration when Reason is
	// DraftNotConfigured ("ai_endpoint_url" or "prompt_template").
	Setting string
	Err     error
}

func (e *DraftError) Error() string {
	switch {
	case e.Reason == DraftNotConfigured && e.Setting != "":
		return fmt.Sprintf("draft failed: %s (%s)", e.Reason, e.Setting)
	case e.Err != nil:
		return fmt.Sprintf("draft failed: %s: %v", e.Reason, e.Err)
	default:
		return fmt.Sprintf("draft failed: %s", e.Reason)
	}
}

func (e *DraftError) Unwrap() error { return e.Err }

// NewDraftError builds a DraftError wrapping an optional cause.
func NewDraftError(reason DraftFailureReason, err error) *DraftError {
	return &DraftError{Reason: reason, Err: err}
}

// NewNotConfiguredError names the setting that is missing.
func NewNotConfiguredError(setting string) *DraftError {
	return &DraftError{Reason: DraftNotConfigured, Setting: setting}
}
