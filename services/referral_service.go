package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hsrobot/hsrobot_backend/models"
	"github.com/hsrobot/hsrobot_backend/utils"
)

// defaultReferralToken is substituted when the registrant supplies no
// referral token at all.
const defaultReferralToken = "admin"

// ReferralService resolves a human-supplied referral token to the
// account that will sponsor a new registration. The system default
// account is resolved once at startup and injected, not scanned per
// call: it never changes at runtime.
type ReferralService struct {
	store     AccountStore
	defaultID primitive.ObjectID
}

// NewReferralService looks up the default account and fails with
// ConfigurationError when it is missing: the platform cannot provision
// anyone without it.
func NewReferralService(ctx context.Context, store AccountStore) (*ReferralService, error) {
	def, err := store.FindDefault(ctx)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, &models.ConfigurationError{Msg: "no default account is configured"}
	}
	return &ReferralService{store: store, defaultID: def.ID}, nil
}

// DefaultAccountID returns the injected default account id.
func (s *ReferralService) DefaultAccountID() primitive.ObjectID {
	return s.defaultID
}

// Resolve maps a referral token to the sponsoring account. Resolution
// order: sponsor-ID-shaped token, trace-ID-shaped token, username,
// the "admin" sentinel, otherwise InvalidReferralError. An empty token
// is treated as the sentinel.
func (s *ReferralService) Resolve(ctx context.Context, token string) (*models.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		token = defaultReferralToken
	}

	if strings.HasPrefix(token, utils.SponsorIDPrefix) {
		account, err := s.store.FindBySponsorID(ctx, token)
		if err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
	}

	if strings.HasPrefix(token, utils.TraceIDPrefix) {
		account, err := s.store.FindByTraceID(ctx, token)
		if err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
	}

	account, err := s.store.FindByUsername(ctx, token)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	if token == defaultReferralToken {
		def, err := s.store.FindByID(ctx, s.defaultID)
		if err != nil {
			return nil, err
		}
		if def == nil {
			return nil, &models.ConfigurationError{Msg: "default account has disappeared"}
		}
		return def, nil
	}

	return nil, &models.InvalidReferralError{Token: token}
}
