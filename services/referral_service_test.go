package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hsrobot/hsrobot_backend/models"
)

func newTestReferral(t *testing.T) (*ReferralService, *fakeAccountStore, *models.Account) {
	t.Helper()
	store := newFakeAccountStore()
	def := store.addDefault()
	service, err := NewReferralService(context.Background(), store)
	if err != nil {
		t.Fatalf("referral service init: %v", err)
	}
	return service, store, def
}

func TestReferralMissingDefaultAccount(t *testing.T) {
	_, err := NewReferralService(context.Background(), newFakeAccountStore())
	var confErr *models.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
}

func TestReferralEmptyTokenResolvesDefault(t *testing.T) {
	service, _, def := newTestReferral(t)

	for _, token := range []string{"", "   ", "admin"} {
		account, err := service.Resolve(context.Background(), token)
		if err != nil {
			t.Fatalf("token %q: %v", token, err)
		}
		if account.ID != def.ID {
			t.Errorf("token %q resolved to %s, want the default account", token, account.ID.Hex())
		}
	}
}

func TestReferralResolveBySponsorID(t *testing.T) {
	service, store, _ := newTestReferral(t)
	member := &models.Account{
		ID:        primitive.NewObjectID(),
		SponsorID: "HS12345",
		TraceID:   "ROBA1B2C",
		Username:  "karim",
		Email:     "karim@x.com",
		Phone:     "+15550000001",
	}
	store.accounts = append(store.accounts, member)

	account, err := service.Resolve(context.Background(), "HS12345")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if account.ID != member.ID {
		t.Errorf("resolved %s, want the sponsor ID owner", account.ID.Hex())
	}
}

func TestReferralResolveByTraceID(t *testing.T) {
	service, store, _ := newTestReferral(t)
	member := &models.Account{
		ID:        primitive.NewObjectID(),
		SponsorID: "HS12345",
		TraceID:   "ROBA1B2C",
		Username:  "karim",
		Email:     "karim@x.com",
		Phone:     "+15550000001",
	}
	store.accounts = append(store.accounts, member)

	account, err := service.Resolve(context.Background(), "ROBA1B2C")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if account.ID != member.ID {
		t.Errorf("resolved %s, want the trace ID owner", account.ID.Hex())
	}
}

func TestReferralResolveByUsername(t *testing.T) {
	service, store, _ := newTestReferral(t)
	member := &models.Account{
		ID:        primitive.NewObjectID(),
		SponsorID: "HS12345",
		TraceID:   "ROBA1B2C",
		Username:  "karim",
		Email:     "karim@x.com",
		Phone:     "+15550000001",
	}
	store.accounts = append(store.accounts, member)

	account, err := service.Resolve(context.Background(), "karim")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if account.ID != member.ID {
		t.Errorf("resolved %s, want the username owner", account.ID.Hex())
	}
}

func TestReferralIDShapedTokenFallsThroughToUsername(t *testing.T) {
	service, store, _ := newTestReferral(t)
	// A member whose chosen username happens to look like a sponsor ID.
	member := &models.Account{
		ID:        primitive.NewObjectID(),
		SponsorID: "HS77777",
		TraceID:   "ROBZZ999",
		Username:  "HS99999",
		Email:     "odd@x.com",
		Phone:     "+15550000002",
	}
	store.accounts = append(store.accounts, member)

	account, err := service.Resolve(context.Background(), "HS99999")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if account.ID != member.ID {
		t.Errorf("resolved %s, want the username match", account.ID.Hex())
	}
}

func TestReferralUnknownToken(t *testing.T) {
	service, _, _ := newTestReferral(t)

	_, err := service.Resolve(context.Background(), "zzz-not-real")
	var refErr *models.InvalidReferralError
	if !errors.As(err, &refErr) {
		t.Fatalf("want InvalidReferralError, got %v", err)
	}
	if refErr.Token != "zzz-not-real" {
		t.Errorf("error carries token %q", refErr.Token)
	}
}
