package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hsrobot/hsrobot_backend/models"
)

// errorResponse maps the error taxonomy to HTTP statuses. Every failure
// path renders the same envelope so callers never see a partial success.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var validationErr *models.ValidationError
	var verificationErr *models.OTPVerificationError
	var duplicateErr *models.DuplicateError
	var referralErr *models.InvalidReferralError
	var placementErr *models.NoPlacementAvailableError
	var partialErr *models.PartialSendError
	var allocErr *models.AllocationExhaustedError
	var providerErr *models.ProviderError
	var configErr *models.ConfigurationError

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		message = validationErr.Error()
	case errors.As(err, &verificationErr):
		status = http.StatusUnauthorized
		message = verificationErr.Error()
	case errors.As(err, &duplicateErr):
		status = http.StatusConflict
		message = duplicateErr.Error()
	case errors.As(err, &referralErr):
		status = http.StatusBadRequest
		message = referralErr.Error()
	case errors.As(err, &placementErr):
		status = http.StatusConflict
		message = placementErr.Error()
	case errors.As(err, &partialErr):
		status = http.StatusBadGateway
		message = partialErr.Error()
	case errors.As(err, &allocErr):
		status = http.StatusServiceUnavailable
		message = allocErr.Error()
	case errors.As(err, &providerErr):
		status = http.StatusBadGateway
		message = "OTP provider is unavailable. Please try again later."
	case errors.As(err, &configErr):
		status = http.StatusInternalServerError
		message = configErr.Error()
	}

	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
	})
}
