package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/hsrobot/hsrobot_backend/config"
	"github.com/hsrobot/hsrobot_backend/controllers"
	"github.com/hsrobot/hsrobot_backend/middleware"
	"github.com/hsrobot/hsrobot_backend/repositories"
	"github.com/hsrobot/hsrobot_backend/routes"
	"github.com/hsrobot/hsrobot_backend/services"
	"github.com/hsrobot/hsrobot_backend/utils"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis
	rdb := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "HSRobot Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(client)
	otpRepo := repositories.NewOTPRepository(client)

	// OTP providers: external gateway first, local fallback second.
	gateway := services.NewGatewayProvider()
	fallback := services.NewFallbackProvider(otpRepo, utils.NewSMSService(), utils.NewEmailService())
	otpService := services.NewOTPService([]services.OTPProvider{gateway, fallback}, rdb)

	// The default referrer account must exist before we serve traffic.
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	referralService, err := services.NewReferralService(startupCtx, accountRepo)
	cancel()
	if err != nil {
		log.Fatal("referral service init failed: ", err)
	}

	allocator := services.NewIDAllocator(accountRepo)
	placement := services.NewMatrixService()
	registrationService := services.NewRegistrationService(
		accountRepo, otpService, referralService, allocator, placement, utils.NewEmailService())

	// Initialize controllers
	authController := controllers.NewAuthController(accountRepo, registrationService, otpService)
	passwordController := controllers.NewPasswordController(accountRepo, otpService)
	referralController := controllers.NewReferralController(accountRepo)

	// Setup routes
	routes.RegisterAuthRoutes(e, authController, passwordController, referralController)

	// Authenticated surface
	authGroup := e.Group("/api")
	authGroup.Use(middleware.JWTMiddleware())
	authGroup.GET("/account/me", authController.GetCurrentAccount)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
