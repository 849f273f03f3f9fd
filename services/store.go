package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hsrobot/hsrobot_backend/models"
)

// AccountStore is the account persistence contract consumed by the
// referral resolver, the identifier allocator and the registration
// orchestrator. Implemented by repositories.AccountRepository.
type AccountStore interface {
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	FindBySponsorID(ctx context.Context, sponsorID string) (*models.Account, error)
	FindByTraceID(ctx context.Context, traceID string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindDefault(ctx context.Context) (*models.Account, error)
	SponsorIDExists(ctx context.Context, sponsorID string) (bool, error)
	TraceIDExists(ctx context.Context, traceID string) (bool, error)
	Insert(ctx context.Context, account *models.Account) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

// OTPStore holds requests issued by the local fallback provider.
// Implemented by repositories.OTPRepository.
type OTPStore interface {
	Insert(ctx context.Context, req *models.OTPRequest) error
	Find(ctx context.Context, requestID string) (*models.OTPRequest, error)
	MarkVerified(ctx context.Context, requestID string) (bool, error)
	InvalidatePending(ctx context.Context, destination string, channel models.Channel, purpose models.Purpose) error
}
