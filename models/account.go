// models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is the durable entity created after dual-channel verification.
// SponsorID and TraceID are human-facing referral handles; uniqueness is
// enforced by unique indexes on the accounts collection.
type Account struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	SponsorID     string              `json:"sponsorId" bson:"sponsorId"`
	TraceID       string              `json:"traceId" bson:"traceId"`
	Username      string              `json:"username" bson:"username"`
	Email         string              `json:"email" bson:"email"`
	Phone         string              `json:"phone" bson:"phone"`
	Password      string              `json:"-" bson:"password"`
	FullName      string              `json:"fullName" bson:"fullName"`
	Country       string              `json:"country,omitempty" bson:"country,omitempty"`
	ReferrerID    *primitive.ObjectID `json:"referrerId,omitempty" bson:"referrerId,omitempty"`
	PlacementID   string              `json:"placementId,omitempty" bson:"placementId,omitempty"`
	IsDefault     bool                `json:"isDefault,omitempty" bson:"isDefault,omitempty"`
	EmailVerified bool                `json:"emailVerified" bson:"emailVerified"`
	PhoneVerified bool                `json:"phoneVerified" bson:"phoneVerified"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Response is the uniform JSON envelope for all endpoints.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RegistrationProfile is the provisional profile carried by a registration
// attempt. Nothing is persisted until both channels verify.
type RegistrationProfile struct {
	FullName      string `json:"fullName" validate:"required"`
	Username      string `json:"username" validate:"required,min=3"`
	Password      string `json:"password" validate:"required,min=8"`
	Country       string `json:"country"`
	ReferralToken string `json:"referralToken"`
}

// SendRegistrationOTPsRequest starts a dual-channel registration attempt.
type SendRegistrationOTPsRequest struct {
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

// VerifyAndProvisionRequest completes a registration attempt. The two
// request ids correlate this call with the earlier sends.
type VerifyAndProvisionRequest struct {
	Email           string              `json:"email" validate:"required,email"`
	Phone           string              `json:"phone" validate:"required"`
	EmailOTP        string              `json:"emailOtp" validate:"required"`
	MobileOTP       string              `json:"mobileOtp" validate:"required"`
	EmailRequestID  string              `json:"emailRequestId" validate:"required"`
	MobileRequestID string              `json:"mobileRequestId" validate:"required"`
	Profile         RegistrationProfile `json:"profile" validate:"required"`
}

// ResendOTPRequest re-issues the OTP for one channel of a pending attempt.
type ResendOTPRequest struct {
	Destination string  `json:"destination" validate:"required"`
	Channel     Channel `json:"channel" validate:"required,oneof=EMAIL SMS"`
}

// LoginRequest is step one of login: password check, then a 2FA OTP send.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyLoginOTPRequest completes the 2FA step and mints tokens.
type VerifyLoginOTPRequest struct {
	Email     string `json:"email" validate:"required,email"`
	OTP       string `json:"otp" validate:"required"`
	RequestID string `json:"requestId" validate:"required"`
}

// ForgetPasswordRequest starts a password reset over the email channel.
type ForgetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest finishes a password reset with the verified OTP.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	RequestID   string `json:"requestId" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}
