// controllers/auth_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/hsrobot/hsrobot_backend/middleware"
	"github.com/hsrobot/hsrobot_backend/models"
	"github.com/hsrobot/hsrobot_backend/services"
	"github.com/hsrobot/hsrobot_backend/utils"
)

// AuthController exposes the registration and login surface. All the
// orchestration lives in the services; handlers parse, delegate and
// render the envelope.
type AuthController struct {
	accounts     services.AccountStore
	registration *services.RegistrationService
	otp          *services.OTPService
	logger       *log.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(accounts services.AccountStore, registration *services.RegistrationService, otp *services.OTPService) *AuthController {
	return &AuthController{
		accounts:     accounts,
		registration: registration,
		otp:          otp,
		logger:       log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
	}
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 90*time.Second)
}

// SendRegistrationOTPs starts a dual-channel registration attempt and
// returns one correlation id per channel.
func (ac *AuthController) SendRegistrationOTPs(c echo.Context) error {
	var req models.SendRegistrationOTPsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and phone are both required",
		})
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := ac.registration.SendRegistrationOTPs(ctx, req.Email, req.Phone)
	if err != nil {
		ac.logger.Printf("send registration OTPs failed for %s: %v", req.Email, err)
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Verification codes sent to both channels",
		Data:    result,
	})
}

// VerifyAndProvision verifies both channels and, on full success,
// creates the account and mints the token pair.
func (ac *AuthController) VerifyAndProvision(c echo.Context) error {
	var req models.VerifyAndProvisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "All registration fields are required",
		})
	}

	ctx, cancel := requestContext()
	defer cancel()

	account, err := ac.registration.VerifyAndProvision(ctx, &req)
	if err != nil {
		ac.logger.Printf("verify and provision failed for %s: %v", req.Email, err)
		return errorResponse(c, err)
	}

	token, refreshToken, err := middleware.GenerateJWT(account.ID.Hex(), account.Email, account.SponsorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate authentication tokens",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Account created successfully",
		Data: map[string]interface{}{
			"account":      account,
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

// ResendOTP re-issues the registration OTP for one channel.
func (ac *AuthController) ResendOTP(c echo.Context) error {
	var req models.ResendOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Destination and channel are required",
		})
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := ac.registration.ResendOTP(ctx, req.Destination, req.Channel)
	if err != nil {
		ac.logger.Printf("resend OTP failed for %s channel: %v", req.Channel, err)
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Verification code resent",
		Data:    result,
	})
}

// Login checks the password and sends a 2FA code to the account's
// phone. Tokens are only minted after VerifyLoginOTP.
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	ctx, cancel := requestContext()
	defer cancel()

	account, err := ac.accounts.FindByEmail(ctx, email)
	if err != nil {
		return errorResponse(c, err)
	}
	if account == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	result, err := ac.otp.Send(ctx, account.Phone, models.ChannelSMS, models.PurposeLogin2FA)
	if err != nil {
		ac.logger.Printf("2FA OTP send failed for %s: %v", email, err)
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Verification code sent. Complete login with the code.",
		Data: map[string]interface{}{
			"requestId": result.RequestID,
			"expiresAt": result.ExpiresAt,
		},
	})
}

// VerifyLoginOTP completes the 2FA step and mints the token pair.
func (ac *AuthController) VerifyLoginOTP(c echo.Context) error {
	var req models.VerifyLoginOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email, code and request id are required",
		})
	}

	ctx, cancel := requestContext()
	defer cancel()

	account, err := ac.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return errorResponse(c, err)
	}
	if account == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid login session",
		})
	}

	verified, err := ac.otp.Verify(ctx, req.OTP, req.RequestID)
	if err != nil {
		ac.logger.Printf("2FA verify failed for %s: %v", req.Email, err)
		return errorResponse(c, err)
	}
	if !verified {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired verification code",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(account.ID.Hex(), account.Email, account.SponsorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate authentication tokens",
		})
	}

	account.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"account":      account,
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

// GetCurrentAccount returns the authenticated account's profile.
func (ac *AuthController) GetCurrentAccount(c echo.Context) error {
	accountID, _ := c.Get("accountId").(string)
	objID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid session",
		})
	}

	ctx, cancel := requestContext()
	defer cancel()

	account, err := ac.accounts.FindByID(ctx, objID)
	if err != nil {
		return errorResponse(c, err)
	}
	if account == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Account not found",
		})
	}

	account.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Account retrieved successfully",
		Data:    account,
	})
}
