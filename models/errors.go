// models/errors.go
package models

import (
	"fmt"
	"strings"
)

// ValidationError means the caller sent malformed input. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConfigurationError means the operator misconfigured the system
// (missing provider credentials, missing default account). Not retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ProviderError is a transient failure from an OTP provider. It triggers
// exactly one cross-provider fallback attempt before being surfaced.
type ProviderError struct {
	Provider string
	Reason   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Reason)
}

// DuplicateError means the email, phone or username is already registered.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("an account with this %s already exists", e.Field)
}

// PartialSendError means one of the two registration channels failed to
// send. The whole operation fails; no half-issued flow is left dangling.
type PartialSendError struct {
	FailedChannel Channel
	Reason        string
}

func (e *PartialSendError) Error() string {
	return fmt.Sprintf("OTP send failed on %s channel: %s", e.FailedChannel, e.Reason)
}

// OTPVerificationError names the channel(s) whose codes failed to
// verify. Nothing is created when it is returned.
type OTPVerificationError struct {
	Channels []Channel
}

func (e *OTPVerificationError) Error() string {
	names := make([]string, len(e.Channels))
	for i, ch := range e.Channels {
		names[i] = string(ch)
	}
	return fmt.Sprintf("OTP verification failed for channel(s): %s", strings.Join(names, ", "))
}

// InvalidReferralError means the supplied referral token resolved to
// nothing.
type InvalidReferralError struct {
	Token string
}

func (e *InvalidReferralError) Error() string {
	return fmt.Sprintf("referral token %q does not match any account", e.Token)
}

// NoPlacementAvailableError means the matrix has no free slot under the
// resolved referrer.
type NoPlacementAvailableError struct {
	ReferrerID string
}

func (e *NoPlacementAvailableError) Error() string {
	return fmt.Sprintf("no placement slot available under referrer %s", e.ReferrerID)
}

// AllocationExhaustedError means identifier generation kept colliding past
// the retry cap. Operational alert condition.
type AllocationExhaustedError struct {
	Kind    string
	Retries int
}

func (e *AllocationExhaustedError) Error() string {
	return fmt.Sprintf("could not allocate a unique %s after %d attempts", e.Kind, e.Retries)
}
