package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hsrobot/hsrobot_backend/models"
)

// fakeAccountStore is an in-memory AccountStore enforcing the same
// uniqueness the Mongo indexes enforce.
type fakeAccountStore struct {
	mu       sync.Mutex
	accounts []*models.Account

	// forceSponsorCollisions makes the next n Inserts fail with a
	// sponsorId duplicate key, simulating a concurrent allocation race.
	forceSponsorCollisions int
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{}
}

func (s *fakeAccountStore) addDefault() *models.Account {
	def := &models.Account{
		ID:        primitive.NewObjectID(),
		SponsorID: "HS00000",
		TraceID:   "ROBADMIN",
		Username:  "admin",
		Email:     "admin@hsrobot.io",
		Phone:     "+10000000000",
		IsDefault: true,
	}
	s.accounts = append(s.accounts, def)
	return def
}

func (s *fakeAccountStore) find(match func(*models.Account) bool) *models.Account {
	for _, a := range s.accounts {
		if match(a) {
			copied := *a
			return &copied
		}
	}
	return nil
}

func (s *fakeAccountStore) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(a *models.Account) bool { return a.Email == email || a.Phone == phone }), nil
}

func (s *fakeAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(a *models.Account) bool { return a.Email == email }), nil
}

func (s *fakeAccountStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(a *models.Account) bool { return a.ID == id }), nil
}

func (s *fakeAccountStore) FindBySponsorID(ctx context.Context, sponsorID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(a *models.Account) bool { return a.SponsorID == sponsorID }), nil
}

func (s *fakeAccountStore) FindByTraceID(ctx context.Context, traceID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(a *models.Account) bool { return a.TraceID == traceID }), nil
}

func (s *fakeAccountStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(a *models.Account) bool { return a.Username == username }), nil
}

func (s *fakeAccountStore) FindDefault(ctx context.Context) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(a *models.Account) bool { return a.IsDefault }), nil
}

func (s *fakeAccountStore) SponsorIDExists(ctx context.Context, sponsorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(a *models.Account) bool { return a.SponsorID == sponsorID }) != nil, nil
}

func (s *fakeAccountStore) TraceIDExists(ctx context.Context, traceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(a *models.Account) bool { return a.TraceID == traceID }) != nil, nil
}

func (s *fakeAccountStore) Insert(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forceSponsorCollisions > 0 {
		s.forceSponsorCollisions--
		return &models.DuplicateError{Field: "sponsorId"}
	}

	for _, a := range s.accounts {
		switch {
		case a.Email == account.Email:
			return &models.DuplicateError{Field: "email"}
		case a.Phone == account.Phone:
			return &models.DuplicateError{Field: "phone"}
		case a.Username == account.Username:
			return &models.DuplicateError{Field: "username"}
		case a.SponsorID == account.SponsorID:
			return &models.DuplicateError{Field: "sponsorId"}
		case a.TraceID == account.TraceID:
			return &models.DuplicateError{Field: "traceId"}
		}
	}

	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	account.CreatedAt = time.Now()
	copied := *account
	s.accounts = append(s.accounts, &copied)
	return nil
}

func (s *fakeAccountStore) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id {
			a.Password = passwordHash
			return nil
		}
	}
	return fmt.Errorf("account %s not found", id.Hex())
}

// fakeOTPStore is an in-memory OTPStore with the same atomic
// false-to-true consume the Mongo repository provides.
type fakeOTPStore struct {
	mu       sync.Mutex
	requests map[string]*models.OTPRequest
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{requests: make(map[string]*models.OTPRequest)}
}

func (s *fakeOTPStore) Insert(ctx context.Context, req *models.OTPRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *req
	s.requests[req.RequestID] = &copied
	return nil
}

func (s *fakeOTPStore) Find(ctx context.Context, requestID string) (*models.OTPRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (s *fakeOTPStore) MarkVerified(ctx context.Context, requestID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok || req.Verified {
		return false, nil
	}
	req.Verified = true
	return true, nil
}

func (s *fakeOTPStore) InvalidatePending(ctx context.Context, destination string, channel models.Channel, purpose models.Purpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, req := range s.requests {
		if req.Destination == destination && req.Channel == channel && req.Purpose == purpose && !req.Verified {
			delete(s.requests, id)
		}
	}
	return nil
}

// fakeSMS and fakeEmail record the last delivered code per destination.
type fakeSMS struct {
	mu    sync.Mutex
	codes map[string]string
	fail  bool
}

func newFakeSMS() *fakeSMS { return &fakeSMS{codes: make(map[string]string)} }

func (f *fakeSMS) SendOTP(phoneNumber, otp string, ttl time.Duration) error {
	if f.fail {
		return fmt.Errorf("sms transport down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[phoneNumber] = otp
	return nil
}

func (f *fakeSMS) lastCode(destination string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[destination]
}

type fakeEmail struct {
	mu       sync.Mutex
	codes    map[string]string
	welcomes []string
	fail     bool
	failWelc bool
}

func newFakeEmail() *fakeEmail { return &fakeEmail{codes: make(map[string]string)} }

func (f *fakeEmail) SendOTP(to, otp string, ttl time.Duration) error {
	if f.fail {
		return fmt.Errorf("email transport down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[to] = otp
	return nil
}

func (f *fakeEmail) SendWelcome(to, fullName, sponsorID, traceID string) error {
	if f.failWelc {
		return fmt.Errorf("smtp rejected welcome mail")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, to)
	return nil
}

func (f *fakeEmail) lastCode(destination string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[destination]
}

// scriptedProvider lets orchestrator tests control each provider hook.
type scriptedProvider struct {
	name      string
	sendFn    func(ctx context.Context, req ProviderSendRequest) (string, error)
	verifyFn  func(ctx context.Context, requestID, code string) (bool, error)
	handlesFn func(ctx context.Context, requestID string) (bool, error)

	sends []ProviderSendRequest
	mu    sync.Mutex
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Send(ctx context.Context, req ProviderSendRequest) (string, error) {
	p.mu.Lock()
	p.sends = append(p.sends, req)
	p.mu.Unlock()
	return p.sendFn(ctx, req)
}

func (p *scriptedProvider) Verify(ctx context.Context, requestID, code string) (bool, error) {
	return p.verifyFn(ctx, requestID, code)
}

func (p *scriptedProvider) Handles(ctx context.Context, requestID string) (bool, error) {
	if p.handlesFn == nil {
		return true, nil
	}
	return p.handlesFn(ctx, requestID)
}

// fakePlacement returns a fixed slot, or none when empty.
type fakePlacement struct {
	slot    string
	lastRef string
	arity   int
}

func (f *fakePlacement) GetPlacementSlot(ctx context.Context, referrerID string, arity int) (string, error) {
	f.lastRef = referrerID
	f.arity = arity
	return f.slot, nil
}
