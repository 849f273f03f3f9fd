// models/otp.go
package models

import (
	"time"
)

// Channel is the delivery medium for an OTP.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// Purpose determines code length and TTL. Policy is derived from the
// purpose, never supplied by the caller.
type Purpose string

const (
	PurposeRegistration   Purpose = "REGISTRATION"
	PurposeLogin2FA       Purpose = "LOGIN_2FA"
	PurposeForgotPassword Purpose = "FORGOT_PASSWORD"
)

// OTPRequest is one outstanding verification attempt held by the local
// fallback provider. The external gateway keeps its own state; only
// locally-served sends are stored here.
type OTPRequest struct {
	RequestID   string    `json:"requestId" bson:"requestId"`
	Channel     Channel   `json:"channel" bson:"channel"`
	Purpose     Purpose   `json:"purpose" bson:"purpose"`
	Destination string    `json:"destination" bson:"destination"`
	Code        string    `json:"-" bson:"code"`
	CodeLength  int       `json:"codeLength" bson:"codeLength"`
	ExpiresAt   time.Time `json:"expiresAt" bson:"expiresAt"`
	Verified    bool      `json:"verified" bson:"verified"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// Expired reports whether the request is past its TTL.
func (r *OTPRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// SendOTPResult is the uniform shape callers see regardless of which
// provider ultimately served the send.
type SendOTPResult struct {
	RequestID string    `json:"requestId"`
	Channel   Channel   `json:"channel"`
	ExpiresAt time.Time `json:"expiresAt"`
}
