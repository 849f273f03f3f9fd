package services

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"

	"github.com/hsrobot/hsrobot_backend/models"
	"github.com/hsrobot/hsrobot_backend/utils"
)

// SMSSender delivers a code to a phone number. Implemented by
// utils.SMSService.
type SMSSender interface {
	SendOTP(phoneNumber, otp string, ttl time.Duration) error
}

// EmailSender delivers a code to an email address. Implemented by
// utils.EmailService.
type EmailSender interface {
	SendOTP(to, otp string, ttl time.Duration) error
}

// FallbackProvider generates and verifies OTPs locally when the
// external gateway is unavailable. Codes are stored in the OTP store
// and delivered through the configured local transports.
type FallbackProvider struct {
	store OTPStore
	sms   SMSSender
	email EmailSender
}

func NewFallbackProvider(store OTPStore, sms SMSSender, email EmailSender) *FallbackProvider {
	return &FallbackProvider{
		store: store,
		sms:   sms,
		email: email,
	}
}

func (p *FallbackProvider) Name() string { return "fallback" }

// Send mints a local request id, stores the generated code and delivers
// it. Any previous unconsumed code for the same destination, channel and
// purpose is invalidated first.
func (p *FallbackProvider) Send(ctx context.Context, req ProviderSendRequest) (string, error) {
	code, err := utils.GenerateNumericOTP(req.CodeLength)
	if err != nil {
		return "", &models.ProviderError{Provider: p.Name(), Reason: "failed to generate code: " + err.Error()}
	}

	if err := p.store.InvalidatePending(ctx, req.Destination, req.Channel, req.Purpose); err != nil {
		return "", &models.ProviderError{Provider: p.Name(), Reason: "failed to invalidate pending codes: " + err.Error()}
	}

	now := time.Now()
	record := &models.OTPRequest{
		RequestID:   uuid.New().String(),
		Channel:     req.Channel,
		Purpose:     req.Purpose,
		Destination: req.Destination,
		Code:        code,
		CodeLength:  req.CodeLength,
		ExpiresAt:   now.Add(req.TTL),
		Verified:    false,
		CreatedAt:   now,
	}
	if err := p.store.Insert(ctx, record); err != nil {
		return "", &models.ProviderError{Provider: p.Name(), Reason: "failed to store code: " + err.Error()}
	}

	var deliverErr error
	switch req.Channel {
	case models.ChannelSMS:
		deliverErr = p.sms.SendOTP(req.Destination, code, req.TTL)
	case models.ChannelEmail:
		deliverErr = p.email.SendOTP(req.Destination, code, req.TTL)
	default:
		return "", &models.ValidationError{Msg: "unsupported channel: " + string(req.Channel)}
	}
	if deliverErr != nil {
		return "", &models.ProviderError{Provider: p.Name(), Reason: "delivery failed: " + deliverErr.Error()}
	}

	return record.RequestID, nil
}

// Verify compares the supplied code against the stored one and consumes
// the request on success. The consume is an atomic false-to-true flip at
// the store, so two racing verifies resolve to exactly one success.
func (p *FallbackProvider) Verify(ctx context.Context, requestID, code string) (bool, error) {
	record, err := p.store.Find(ctx, requestID)
	if err != nil {
		return false, &models.ProviderError{Provider: p.Name(), Reason: err.Error()}
	}
	if record == nil {
		return false, nil
	}

	// Re-check expiry even though expired records may still exist: the
	// store's TTL sweep is lazy.
	if record.Verified || record.Expired(time.Now()) {
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		return false, nil
	}

	won, err := p.store.MarkVerified(ctx, requestID)
	if err != nil {
		return false, &models.ProviderError{Provider: p.Name(), Reason: err.Error()}
	}
	return won, nil
}

// Handles reports whether this provider issued the request id.
func (p *FallbackProvider) Handles(ctx context.Context, requestID string) (bool, error) {
	record, err := p.store.Find(ctx, requestID)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}
