package services

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hsrobot/hsrobot_backend/models"
	"github.com/hsrobot/hsrobot_backend/utils"
)

// matrixArity is the fixed arity of the referral matrix.
const matrixArity = 3

// insert retries when a concurrent registration grabbed the same
// sponsor or trace ID between the allocator pre-check and the insert.
const maxInsertRetries = 3

// WelcomeSender sends the post-registration welcome notification.
// Implemented by utils.EmailService.
type WelcomeSender interface {
	SendWelcome(to, fullName, sponsorID, traceID string) error
}

// DualSendResult carries the two correlation ids the client must hold
// on to for the verify step.
type DualSendResult struct {
	Email  models.SendOTPResult `json:"email"`
	Mobile models.SendOTPResult `json:"mobile"`
}

// RegistrationService is the dual-channel registration orchestrator:
// it fans OTP sends out to the email and SMS channels, fans their
// verifications back in, and only on full success provisions the
// account. No account state exists until both channels verified, so
// there is nothing to roll back on failure.
type RegistrationService struct {
	accounts  AccountStore
	otp       *OTPService
	referral  *ReferralService
	allocator *IDAllocator
	placement PlacementGateway
	welcome   WelcomeSender
	logger    *log.Logger
}

func NewRegistrationService(accounts AccountStore, otp *OTPService, referral *ReferralService, allocator *IDAllocator, placement PlacementGateway, welcome WelcomeSender) *RegistrationService {
	return &RegistrationService{
		accounts:  accounts,
		otp:       otp,
		referral:  referral,
		allocator: allocator,
		placement: placement,
		welcome:   welcome,
		logger:    log.New(os.Stdout, "[REGISTRATION] ", log.LstdFlags),
	}
}

// SendRegistrationOTPs starts a registration attempt: one OTP per
// channel, both or neither. An already-registered identity is rejected
// before anything is sent.
func (s *RegistrationService) SendRegistrationOTPs(ctx context.Context, email, phone string) (*DualSendResult, error) {
	email, err := utils.SanitizeEmail(email)
	if err != nil {
		return nil, &models.ValidationError{Msg: "invalid email format"}
	}
	phone, err = utils.SanitizePhone(phone)
	if err != nil {
		return nil, &models.ValidationError{Msg: "invalid phone number format"}
	}

	existing, err := s.accounts.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		field := "phone"
		if existing.Email == email {
			field = "email"
		}
		return nil, &models.DuplicateError{Field: field}
	}

	emailResult, err := s.otp.Send(ctx, email, models.ChannelEmail, models.PurposeRegistration)
	if err != nil {
		return nil, err
	}

	mobileResult, err := s.otp.Send(ctx, phone, models.ChannelSMS, models.PurposeRegistration)
	if err != nil {
		// The email OTP is already out; a half-issued flow must not be
		// left for the client to silently retry.
		return nil, &models.PartialSendError{FailedChannel: models.ChannelSMS, Reason: err.Error()}
	}

	return &DualSendResult{Email: *emailResult, Mobile: *mobileResult}, nil
}

// ResendOTP re-issues the registration OTP for one channel. The prior
// request id is invalidated by the fallback provider's send path; for
// gateway-issued codes the new request id simply supersedes the old one
// on the client side.
func (s *RegistrationService) ResendOTP(ctx context.Context, destination string, channel models.Channel) (*models.SendOTPResult, error) {
	switch channel {
	case models.ChannelEmail:
		sanitized, err := utils.SanitizeEmail(destination)
		if err != nil {
			return nil, &models.ValidationError{Msg: "invalid email format"}
		}
		destination = sanitized
	case models.ChannelSMS:
		sanitized, err := utils.SanitizePhone(destination)
		if err != nil {
			return nil, &models.ValidationError{Msg: "invalid phone number format"}
		}
		destination = sanitized
	default:
		return nil, &models.ValidationError{Msg: "unknown channel: " + string(channel)}
	}

	return s.otp.Send(ctx, destination, channel, models.PurposeRegistration)
}

// VerifyAndProvision completes a registration attempt. Both channels are
// verified independently; a failure on either creates nothing. Referral
// resolution deliberately runs after verification: failing late is
// cheaper than burning a provider send on a doomed attempt, but it still
// fails before any account is created.
func (s *RegistrationService) VerifyAndProvision(ctx context.Context, req *models.VerifyAndProvisionRequest) (*models.Account, error) {
	if err := validateProvisionRequest(req); err != nil {
		return nil, err
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return nil, &models.ValidationError{Msg: "invalid email format"}
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return nil, &models.ValidationError{Msg: "invalid phone number format"}
	}

	var failed []models.Channel

	emailOK, err := s.otp.Verify(ctx, req.EmailOTP, req.EmailRequestID)
	if err != nil {
		s.logger.Printf("email channel verify error: %v", err)
	}
	if !emailOK {
		failed = append(failed, models.ChannelEmail)
	}

	mobileOK, err := s.otp.Verify(ctx, req.MobileOTP, req.MobileRequestID)
	if err != nil {
		s.logger.Printf("mobile channel verify error: %v", err)
	}
	if !mobileOK {
		failed = append(failed, models.ChannelSMS)
	}

	if len(failed) > 0 {
		return nil, &models.OTPVerificationError{Channels: failed}
	}

	// Re-check for a racing registration since the send step.
	existing, err := s.accounts.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		field := "phone"
		if existing.Email == email {
			field = "email"
		}
		return nil, &models.DuplicateError{Field: field}
	}

	referrer, err := s.referral.Resolve(ctx, req.Profile.ReferralToken)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Profile.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	slot, err := s.placement.GetPlacementSlot(ctx, referrer.ID.Hex(), matrixArity)
	if err != nil {
		return nil, err
	}
	if slot == "" {
		return nil, &models.NoPlacementAvailableError{ReferrerID: referrer.ID.Hex()}
	}

	account, err := s.insertWithFreshIdentifiers(ctx, func(sponsorID, traceID string) *models.Account {
		referrerID := referrer.ID
		return &models.Account{
			SponsorID:     sponsorID,
			TraceID:       traceID,
			Username:      req.Profile.Username,
			Email:         email,
			Phone:         phone,
			Password:      string(hashedPassword),
			FullName:      req.Profile.FullName,
			Country:       req.Profile.Country,
			ReferrerID:    &referrerID,
			PlacementID:   slot,
			EmailVerified: true,
			PhoneVerified: true,
		}
	})
	if err != nil {
		return nil, err
	}

	// Best-effort: a failed welcome mail never rolls back a registration.
	if s.welcome != nil {
		if err := s.welcome.SendWelcome(account.Email, account.FullName, account.SponsorID, account.TraceID); err != nil {
			s.logger.Printf("welcome notification failed for %s: %v", account.Email, err)
		}
	}

	account.Password = ""
	return account, nil
}

// insertWithFreshIdentifiers runs the allocate-then-insert cycle. The
// allocator's existence check is only a pre-check; when the unique index
// rejects a sponsor or trace ID at insert time the whole allocation is
// redone with fresh candidates, never reused.
func (s *RegistrationService) insertWithFreshIdentifiers(ctx context.Context, build func(sponsorID, traceID string) *models.Account) (*models.Account, error) {
	var lastErr error
	for i := 0; i < maxInsertRetries; i++ {
		sponsorID, err := s.allocator.NewSponsorID(ctx)
		if err != nil {
			return nil, err
		}
		traceID, err := s.allocator.NewTraceID(ctx)
		if err != nil {
			return nil, err
		}

		account := build(sponsorID, traceID)
		err = s.accounts.Insert(ctx, account)
		if err == nil {
			return account, nil
		}

		var dupErr *models.DuplicateError
		if errors.As(err, &dupErr) {
			if dupErr.Field == "sponsorId" || dupErr.Field == "traceId" {
				s.logger.Printf("identifier collision on %s, reallocating", dupErr.Field)
				lastErr = err
				continue
			}
		}
		return nil, err
	}
	return nil, lastErr
}

func validateProvisionRequest(req *models.VerifyAndProvisionRequest) error {
	fields := map[string]string{
		"email":           req.Email,
		"phone":           req.Phone,
		"emailOtp":        req.EmailOTP,
		"mobileOtp":       req.MobileOTP,
		"emailRequestId":  req.EmailRequestID,
		"mobileRequestId": req.MobileRequestID,
		"username":        req.Profile.Username,
		"password":        req.Profile.Password,
	}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return &models.ValidationError{Msg: name + " is required"}
		}
	}
	return nil
}
