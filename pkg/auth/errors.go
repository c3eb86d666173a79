package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlatform is returned for platforms that are not configured.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrNoPendingRequest is returned when a callback arrives without a prior Begin.
	ErrNoPendingRequest = errors.New("no pending authorization request")
	// ErrStateMismatch is returned when the returned state differs from the stored one.
	ErrStateMismatch = errors.New("authorization state mismatch")
	// ErrMissingCode is returned when the callback carries no authorization code.
	ErrMissingCode = errors.New("missing authorization code")
	// ErrAccessDenied is returned when the provider redirected back with an error.
	ErrAccessDenied = errors.New("authorization denied by provider")
)

// ProviderRejectedError is returned when the token endpoint answers with an error payload.
type ProviderRejectedError struct {
	StatusCode  int
	Code        string
	Description string
	Body        []byte
}

func (e *ProviderRejectedError) Error() string {
	msg := fmt.Sprintf("token endpoint rejected exchange (status %d)", e.StatusCode)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}
