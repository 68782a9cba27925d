package models

import (
	"errors"
	"fmt"
	"strings"
)

// User-visible failure text. It never names the field or system that failed.
const (
	MsgTransferFailed     = "Transfer failed. Please check your information and try again."
	MsgSwapFailed         = "Swap failed. Please check your information and try again."
	MsgPINFailed          = "We could not verify your transaction PIN. Please try again."
	MsgAdjudicationFailed = "The action could not be completed. Please try again."
)

// ValidationError is a local, field-specific problem found before any network
// call.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one build.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether a problem was recorded for field.
func (v ValidationErrors) Has(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

// ErrAuthorization is the single outcome of a failed PIN check, whatever the
// underlying reason.
var ErrAuthorization = errors.New("transaction pin verification failed")

// SubmissionError wraps a failure of a mutating call made after confirmation.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// AdjudicationError wraps a refusal of an administrator action by the remote
// service.
type AdjudicationError struct {
	TransferID string
	Action     string
	Err        error
}

func (e *AdjudicationError) Error() string {
	return fmt.Sprintf("failed to %s transfer %s: %v", e.Action, e.TransferID, e.Err)
}

func (e *AdjudicationError) Unwrap() error { return e.Err }

// UserMessage maps any error to the generic text that may be shown to a user.
func UserMessage(err error) string {
	var adj *AdjudicationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthorization):
		return MsgPINFailed
	case errors.As(err, &adj):
		return MsgAdjudicationFailed
	default:
		return MsgTransferFailed
	}
}
