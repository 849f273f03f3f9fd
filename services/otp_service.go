package services

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hsrobot/hsrobot_backend/models"
	"github.com/hsrobot/hsrobot_backend/utils"
)

// otpPolicy is derived from the purpose, never from the caller.
type otpPolicy struct {
	codeLength int
	ttl        time.Duration
}

var purposePolicies = map[models.Purpose]otpPolicy{
	models.PurposeRegistration:   {codeLength: 4, ttl: 300 * time.Second},
	models.PurposeLogin2FA:       {codeLength: 6, ttl: 180 * time.Second},
	models.PurposeForgotPassword: {codeLength: 6, ttl: 600 * time.Second},
}

// OTPService is the channel-agnostic OTP orchestrator. It holds an
// ordered provider list: sends go to the first provider that succeeds,
// verifies go to the provider that issued the request id. The service
// keeps no mutable state of its own.
type OTPService struct {
	providers []OTPProvider
	redis     *redis.Client
	logger    *log.Logger
}

func NewOTPService(providers []OTPProvider, rdb *redis.Client) *OTPService {
	return &OTPService{
		providers: providers,
		redis:     rdb,
		logger:    log.New(os.Stdout, "[OTP] ", log.LstdFlags),
	}
}

// Send validates the destination, derives code length and TTL from the
// purpose and walks the provider list. A provider outage moves to the
// next provider exactly once per element; the substitution is invisible
// to the caller. Configuration errors are surfaced immediately, they are
// the operator's fault and retrying another provider would hide them.
func (s *OTPService) Send(ctx context.Context, destination string, channel models.Channel, purpose models.Purpose) (*models.SendOTPResult, error) {
	policy, ok := purposePolicies[purpose]
	if !ok {
		return nil, &models.ValidationError{Msg: "unknown OTP purpose: " + string(purpose)}
	}

	switch channel {
	case models.ChannelEmail:
		if !strings.Contains(destination, "@") {
			return nil, &models.ValidationError{Msg: "destination is not a valid email address"}
		}
	case models.ChannelSMS:
		if strings.TrimSpace(destination) == "" {
			return nil, &models.ValidationError{Msg: "destination phone number is empty"}
		}
	default:
		return nil, &models.ValidationError{Msg: "unknown channel: " + string(channel)}
	}

	req := ProviderSendRequest{
		Destination: destination,
		Channel:     channel,
		Purpose:     purpose,
		CodeLength:  policy.codeLength,
		TTL:         policy.ttl,
	}

	var lastErr error
	for _, provider := range s.providers {
		requestID, err := provider.Send(ctx, req)
		if err == nil {
			return &models.SendOTPResult{
				RequestID: requestID,
				Channel:   channel,
				ExpiresAt: time.Now().Add(policy.ttl),
			}, nil
		}

		var confErr *models.ConfigurationError
		if errors.As(err, &confErr) {
			return nil, err
		}

		s.logger.Printf("provider %s send failed for %s channel: %v", provider.Name(), channel, err)
		lastErr = err
	}

	if lastErr == nil {
		lastErr = &models.ConfigurationError{Msg: "no OTP providers configured"}
	}
	return nil, lastErr
}

// Verify routes to the provider that issued the request id. Providers
// are consulted in reverse list order: the local fallback recognizes its
// own ids precisely, the gateway is the catch-all. A gateway verify
// error is surfaced, never second-guessed against another provider,
// because only the issuer knows the code.
func (s *OTPService) Verify(ctx context.Context, code, requestID string) (bool, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(requestID) == "" {
		return false, &models.ValidationError{Msg: "code and request id are both required"}
	}

	if err := utils.ValidateOTPAttempts(requestID, s.redis); err != nil {
		return false, &models.ValidationError{Msg: err.Error()}
	}

	for i := len(s.providers) - 1; i >= 0; i-- {
		provider := s.providers[i]
		handles, err := provider.Handles(ctx, requestID)
		if err != nil {
			s.logger.Printf("provider %s routing check failed: %v", provider.Name(), err)
			continue
		}
		if !handles {
			continue
		}

		verified, err := provider.Verify(ctx, requestID, code)
		if err != nil {
			s.logger.Printf("provider %s verify failed for request %s: %v", provider.Name(), requestID, err)
			return false, err
		}
		return verified, nil
	}

	return false, nil
}
