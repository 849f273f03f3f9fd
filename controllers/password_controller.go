// controllers/password_controller.go
package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/hsrobot/hsrobot_backend/models"
	"github.com/hsrobot/hsrobot_backend/services"
	"github.com/hsrobot/hsrobot_backend/utils"
)

// PasswordController handles password reset over the email channel.
type PasswordController struct {
	accounts services.AccountStore
	otp      *services.OTPService
	logger   *log.Logger
}

// NewPasswordController creates a new password controller
func NewPasswordController(accounts services.AccountStore, otp *services.OTPService) *PasswordController {
	return &PasswordController{
		accounts: accounts,
		otp:      otp,
		logger:   log.New(os.Stdout, "[PASSWORD] ", log.LstdFlags),
	}
}

// ForgetPassword initiates the password reset process
func (pc *PasswordController) ForgetPassword(c echo.Context) error {
	var req models.ForgetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email is required",
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

	account, err := pc.accounts.FindByEmail(ctx, email)
	if err != nil {
		return errorResponse(c, err)
	}
	if account == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No account associated with this email",
		})
	}

	result, err := pc.otp.Send(ctx, email, models.ChannelEmail, models.PurposeForgotPassword)
	if err != nil {
		pc.logger.Printf("forgot-password OTP send failed for %s: %v", email, err)
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset code sent to your email",
		Data: map[string]interface{}{
			"requestId": result.RequestID,
			"expiresAt": result.ExpiresAt,
		},
	})
}

// ResetPassword completes the reset with the verified OTP.
func (pc *PasswordController) ResetPassword(c echo.Context) error {
	var req models.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email, code, request id and new password are required",
		})
	}

	ctx, cancel := requestContext()
	defer cancel()

	account, err := pc.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return errorResponse(c, err)
	}
	if account == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No account associated with this email",
		})
	}

	verified, err := pc.otp.Verify(ctx, req.OTP, req.RequestID)
	if err != nil {
		pc.logger.Printf("reset verify failed for %s: %v", req.Email, err)
		return errorResponse(c, err)
	}
	if !verified {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired verification code",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error hashing password",
		})
	}

	if err := pc.accounts.UpdatePassword(ctx, account.ID, string(hashedPassword)); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update password",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset successfully",
	})
}
