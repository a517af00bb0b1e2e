package services

import (
	"errors"
	"fmt"
)

// Expected failures of the match engine. Callers test them with errors.Is;
// every error returned by a service wraps at most one of these.
var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrSelfInterest          = errors.New("cannot express interest in yourself")
	ErrNotCheckedIn          = errors.New("not checked in")
	ErrExpired               = errors.New("match expired")
	ErrQuotaExceeded         = errors.New("message quota exceeded")
	ErrAlreadyRematched      = errors.New("already rematched")
	ErrNotExpired            = errors.New("match not expired")
	ErrBlocked               = errors.New("blocked")
	ErrValidationFailed      = errors.New("validation failed")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrConflict              = errors.New("concurrent update conflict")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrNotFound, "NotFound"},
	{ErrForbidden, "Forbidden"},
	{ErrSelfInterest, "SelfInterest"},
	{ErrNotCheckedIn, "NotCheckedIn"},
	{ErrExpired, "Expired"},
	{ErrQuotaExceeded, "QuotaExceeded"},
	{ErrAlreadyRematched, "AlreadyRematched"},
	{ErrNotExpired, "NotExpired"},
	{ErrBlocked, "Blocked"},
	{ErrValidationFailed, "ValidationFailed"},
	{ErrDependencyUnavailable, "DependencyUnavailable"},
	{ErrConflict, "Conflict"},
}

// KindOf names the engine error kind wrapped by err, or "Internal".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}

// unavailable wraps a collaborator failure so it reads as DependencyUnavailable.
func unavailable(what string, err error) error {
	return fmt.Errorf("%s: %w: %v", what, ErrDependencyUnavailable, err)
}
