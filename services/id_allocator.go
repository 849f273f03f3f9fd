package services

import (
	"context"

	"github.com/hsrobot/hsrobot_backend/models"
	"github.com/hsrobot/hsrobot_backend/utils"
)

// maxAllocationRetries caps the collision pre-check loop. Hitting it
// means the identifier space is close to exhausted, which is an
// operational alert, not a user error.
const maxAllocationRetries = 20

// IDAllocator generates collision-checked sponsor and trace IDs. The
// existence check here is advisory: two concurrent registrations can
// still pick the same candidate, and the unique index on the accounts
// collection is what actually guarantees uniqueness. Callers that hit a
// duplicate key at insert time must re-run the whole allocation.
type IDAllocator struct {
	store AccountStore
}

func NewIDAllocator(store AccountStore) *IDAllocator {
	return &IDAllocator{store: store}
}

// NewSponsorID returns a fresh "HS" + 5 digit sponsor ID not currently
// present in the account store.
func (a *IDAllocator) NewSponsorID(ctx context.Context) (string, error) {
	for i := 0; i < maxAllocationRetries; i++ {
		candidate, err := utils.GenerateSponsorID()
		if err != nil {
			return "", err
		}
		exists, err := a.store.SponsorIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", &models.AllocationExhaustedError{Kind: "sponsor ID", Retries: maxAllocationRetries}
}

// NewTraceID returns a fresh "ROB" + 5 alphanumeric trace ID not
// currently present in the account store.
func (a *IDAllocator) NewTraceID(ctx context.Context) (string, error) {
	for i := 0; i < maxAllocationRetries; i++ {
		candidate, err := utils.GenerateTraceID()
		if err != nil {
			return "", err
		}
		exists, err := a.store.TraceIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", &models.AllocationExhaustedError{Kind: "trace ID", Retries: maxAllocationRetries}
}
