package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/hsrobot/hsrobot_backend/controllers"
)

// RegisterAuthRoutes sets up all authentication and public routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController, passwordController *controllers.PasswordController, referralController *controllers.ReferralController) {
	// Dual-channel registration
	e.POST("/api/auth/registration/send-otps", authController.SendRegistrationOTPs)
	e.POST("/api/auth/registration/verify", authController.VerifyAndProvision)
	e.POST("/api/auth/registration/resend-otp", authController.ResendOTP)

	// Login with 2FA
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/login/verify-otp", authController.VerifyLoginOTP)

	// Password reset
	e.POST("/api/auth/forget-password", passwordController.ForgetPassword)
	e.POST("/api/auth/reset-password", passwordController.ResetPassword)

	// Referral sharing
	e.GET("/api/qrcode/referral/:traceId", referralController.GenerateReferralQRCode)
}
