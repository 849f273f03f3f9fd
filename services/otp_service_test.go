package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hsrobot/hsrobot_backend/models"
)

func TestOTPServicePurposePolicy(t *testing.T) {
	tests := []struct {
		purpose    models.Purpose
		codeLength int
		ttl        time.Duration
	}{
		{models.PurposeRegistration, 4, 300 * time.Second},
		{models.PurposeLogin2FA, 6, 180 * time.Second},
		{models.PurposeForgotPassword, 6, 600 * time.Second},
	}

	for _, tt := range tests {
		t.Run(string(tt.purpose), func(t *testing.T) {
			provider := &scriptedProvider{
				name:   "gateway",
				sendFn: func(ctx context.Context, req ProviderSendRequest) (string, error) { return "req-1", nil },
			}
			service := NewOTPService([]OTPProvider{provider}, nil)

			_, err := service.Send(context.Background(), "a@x.com", models.ChannelEmail, tt.purpose)
			if err != nil {
				t.Fatalf("send failed: %v", err)
			}

			sent := provider.sends[0]
			if sent.CodeLength != tt.codeLength || sent.TTL != tt.ttl {
				t.Errorf("policy for %s: got %d digits/%s, want %d digits/%s",
					tt.purpose, sent.CodeLength, sent.TTL, tt.codeLength, tt.ttl)
			}
		})
	}
}

func TestOTPServiceSendValidation(t *testing.T) {
	service := NewOTPService(nil, nil)

	_, err := service.Send(context.Background(), "not-an-email", models.ChannelEmail, models.PurposeRegistration)
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("email without @: want ValidationError, got %v", err)
	}

	_, err = service.Send(context.Background(), "  ", models.ChannelSMS, models.PurposeRegistration)
	if !errors.As(err, &validationErr) {
		t.Errorf("blank phone: want ValidationError, got %v", err)
	}
}

func TestOTPServiceFallbackOnProviderError(t *testing.T) {
	gateway := &scriptedProvider{
		name: "gateway",
		sendFn: func(ctx context.Context, req ProviderSendRequest) (string, error) {
			return "", &models.ProviderError{Provider: "gateway", Reason: "connection refused"}
		},
	}
	fallback := &scriptedProvider{
		name:   "fallback",
		sendFn: func(ctx context.Context, req ProviderSendRequest) (string, error) { return "local-1", nil },
	}
	service := NewOTPService([]OTPProvider{gateway, fallback}, nil)

	result, err := service.Send(context.Background(), "a@x.com", models.ChannelEmail, models.PurposeRegistration)
	if err != nil {
		t.Fatalf("send should have fallen back: %v", err)
	}
	if result.RequestID != "local-1" {
		t.Errorf("requestID = %q, want the fallback's", result.RequestID)
	}
	if len(fallback.sends) != 1 {
		t.Errorf("fallback saw %d sends, want 1", len(fallback.sends))
	}
	// Identical parameters must reach the fallback.
	if fallback.sends[0] != gateway.sends[0] {
		t.Errorf("fallback send %+v differs from gateway send %+v", fallback.sends[0], gateway.sends[0])
	}
}

func TestOTPServiceConfigurationErrorIsNotRetried(t *testing.T) {
	gateway := &scriptedProvider{
		name: "gateway",
		sendFn: func(ctx context.Context, req ProviderSendRequest) (string, error) {
			return "", &models.ConfigurationError{Msg: "credentials missing"}
		},
	}
	fallback := &scriptedProvider{
		name:   "fallback",
		sendFn: func(ctx context.Context, req ProviderSendRequest) (string, error) { return "local-1", nil },
	}
	service := NewOTPService([]OTPProvider{gateway, fallback}, nil)

	_, err := service.Send(context.Background(), "a@x.com", models.ChannelEmail, models.PurposeRegistration)
	var confErr *models.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("want ConfigurationError surfaced, got %v", err)
	}
	if len(fallback.sends) != 0 {
		t.Error("configuration errors must not trigger provider fallback")
	}
}

func TestOTPServiceVerifyValidation(t *testing.T) {
	service := NewOTPService(nil, nil)

	var validationErr *models.ValidationError
	if _, err := service.Verify(context.Background(), "", "req-1"); !errors.As(err, &validationErr) {
		t.Errorf("empty code: want ValidationError, got %v", err)
	}
	if _, err := service.Verify(context.Background(), "1234", ""); !errors.As(err, &validationErr) {
		t.Errorf("empty request id: want ValidationError, got %v", err)
	}
}

func TestOTPServiceVerifyRoutesToIssuer(t *testing.T) {
	gatewayVerifies := 0
	gateway := &scriptedProvider{
		name: "gateway",
		verifyFn: func(ctx context.Context, requestID, code string) (bool, error) {
			gatewayVerifies++
			return true, nil
		},
	}
	fallback := &scriptedProvider{
		name: "fallback",
		verifyFn: func(ctx context.Context, requestID, code string) (bool, error) {
			return requestID == "local-1" && code == "1234", nil
		},
		handlesFn: func(ctx context.Context, requestID string) (bool, error) {
			return requestID == "local-1", nil
		},
	}
	service := NewOTPService([]OTPProvider{gateway, fallback}, nil)

	// A locally-issued id must never reach the gateway.
	verified, err := service.Verify(context.Background(), "1234", "local-1")
	if err != nil || !verified {
		t.Fatalf("local verify: verified=%v err=%v", verified, err)
	}
	if gatewayVerifies != 0 {
		t.Error("locally-issued request id was verified against the gateway")
	}

	// Unknown ids fall through to the gateway catch-all.
	verified, err = service.Verify(context.Background(), "1234", "gw-9")
	if err != nil || !verified {
		t.Fatalf("gateway verify: verified=%v err=%v", verified, err)
	}
	if gatewayVerifies != 1 {
		t.Errorf("gateway saw %d verifies, want 1", gatewayVerifies)
	}
}

func TestOTPServiceGatewayVerifyErrorIsSurfaced(t *testing.T) {
	gateway := &scriptedProvider{
		name: "gateway",
		verifyFn: func(ctx context.Context, requestID, code string) (bool, error) {
			return false, &models.ProviderError{Provider: "gateway", Reason: "timeout"}
		},
	}
	fallbackVerifies := 0
	fallback := &scriptedProvider{
		name: "fallback",
		verifyFn: func(ctx context.Context, requestID, code string) (bool, error) {
			fallbackVerifies++
			return true, nil
		},
		handlesFn: func(ctx context.Context, requestID string) (bool, error) { return false, nil },
	}
	service := NewOTPService([]OTPProvider{gateway, fallback}, nil)

	verified, err := service.Verify(context.Background(), "1234", "gw-9")
	if verified {
		t.Error("errored verify reported success")
	}
	var provErr *models.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("want ProviderError surfaced, got %v", err)
	}
	if fallbackVerifies != 0 {
		t.Error("gateway verify error must not be second-guessed against the fallback")
	}
}
