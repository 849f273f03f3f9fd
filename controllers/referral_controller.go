// controllers/referral_controller.go
package controllers

import (
	"bytes"
	"image/png"
	"net/http"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"

	"github.com/hsrobot/hsrobot_backend/models"
	"github.com/hsrobot/hsrobot_backend/services"
)

// ReferralController serves referral sharing helpers.
type ReferralController struct {
	accounts services.AccountStore
}

func NewReferralController(accounts services.AccountStore) *ReferralController {
	return &ReferralController{accounts: accounts}
}

// GenerateReferralQRCode renders an account's trace id referral link as
// a QR PNG. The trace id is the token other registrants will present.
func (rc *ReferralController) GenerateReferralQRCode(c echo.Context) error {
	traceID := c.Param("traceId")
	if traceID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Referral token is required",
		})
	}

	ctx, cancel := requestContext()
	defer cancel()

	account, err := rc.accounts.FindByTraceID(ctx, traceID)
	if err != nil {
		return errorResponse(c, err)
	}
	if account == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Unknown referral token",
		})
	}

	content := "hsrobot://referral/" + traceID

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code: " + err.Error(),
		})
	}

	qrCode, err = barcode.Scale(qrCode, 200, 200)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to scale QR code: " + err.Error(),
		})
	}

	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, qrCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to encode QR code as PNG: " + err.Error(),
		})
	}

	c.Response().Header().Set("Content-Disposition", "inline; filename=referral-"+traceID+".png")
	return c.Blob(http.StatusOK, "image/png", buffer.Bytes())
}
