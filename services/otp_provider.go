package services

import (
	"context"
	"time"

	"github.com/hsrobot/hsrobot_backend/models"
)

// ProviderSendRequest carries everything a provider needs to issue one
// OTP. Code length and TTL are already derived from the purpose by the
// orchestrator; providers never decide policy.
type ProviderSendRequest struct {
	Destination string
	Channel     models.Channel
	Purpose     models.Purpose
	CodeLength  int
	TTL         time.Duration
}

// OTPProvider is one element of the orchestrator's ordered provider
// list. Send is tried in list order; Verify is routed to the provider
// that issued the request id (Handles). Adding a provider is a wiring
// change, not a code change.
type OTPProvider interface {
	Name() string
	Send(ctx context.Context, req ProviderSendRequest) (string, error)
	Verify(ctx context.Context, requestID, code string) (bool, error)
	Handles(ctx context.Context, requestID string) (bool, error)
}
