package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hsrobot/hsrobot_backend/models"
)

// GatewayProvider talks to the external OTP gateway. It is pure
// request/response: the gateway keeps all OTP state on its side and we
// only hold the correlation id it returns.
type GatewayProvider struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Client       *http.Client
}

type gatewayInitiateRequest struct {
	Destination string   `json:"destination"`
	Expiry      int      `json:"expiry"`
	CodeLength  int      `json:"codeLength"`
	Channels    []string `json:"channels"`
}

type gatewayInitiateResponse struct {
	RequestID string `json:"requestId"`
}

type gatewayVerifyRequest struct {
	OTP       string `json:"otp"`
	RequestID string `json:"requestId"`
}

type gatewayVerifyResponse struct {
	// Pointer so a response without the flag is distinguishable from an
	// explicit false. Absence means the gateway did not actually verify.
	IsOTPVerified *bool `json:"isOTPVerified"`
}

// NewGatewayProvider creates a gateway provider from the environment.
func NewGatewayProvider() *GatewayProvider {
	return &GatewayProvider{
		BaseURL:      os.Getenv("OTP_GATEWAY_URL"),
		ClientID:     os.Getenv("OTP_GATEWAY_CLIENT_ID"),
		ClientSecret: os.Getenv("OTP_GATEWAY_CLIENT_SECRET"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *GatewayProvider) Name() string { return "gateway" }

func (p *GatewayProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client-id", p.ClientID)
	req.Header.Set("client-secret", p.ClientSecret)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

// Send posts to /initiate/otp. Success is recognized only by the
// presence of a correlation id in the body: gateways have been seen
// returning soft errors with HTTP 200.
func (p *GatewayProvider) Send(ctx context.Context, req ProviderSendRequest) (string, error) {
	if p.BaseURL == "" {
		return "", &models.ConfigurationError{Msg: "OTP gateway URL is not configured"}
	}
	if p.ClientID == "" || p.ClientSecret == "" {
		return "", &models.ConfigurationError{Msg: "OTP gateway credentials are not configured"}
	}

	body, status, err := p.post(ctx, "/initiate/otp", gatewayInitiateRequest{
		Destination: req.Destination,
		Expiry:      int(req.TTL.Seconds()),
		CodeLength:  req.CodeLength,
		Channels:    []string{string(req.Channel)},
	})
	if err != nil {
		return "", &models.ProviderError{Provider: p.Name(), Reason: err.Error()}
	}
	if status < 200 || status > 299 {
		return "", &models.ProviderError{Provider: p.Name(), Reason: fmt.Sprintf("initiate returned status %d: %s", status, string(body))}
	}

	var parsed gatewayInitiateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &models.ProviderError{Provider: p.Name(), Reason: "initiate response is not valid JSON"}
	}
	if parsed.RequestID == "" {
		return "", &models.ProviderError{Provider: p.Name(), Reason: "initiate response carries no request id"}
	}

	return parsed.RequestID, nil
}

// Verify posts to /verify/otp. Success requires the explicit boolean
// flag; absence of an HTTP error is not enough.
func (p *GatewayProvider) Verify(ctx context.Context, requestID, code string) (bool, error) {
	if p.BaseURL == "" || p.ClientID == "" || p.ClientSecret == "" {
		return false, &models.ConfigurationError{Msg: "OTP gateway is not configured"}
	}

	body, status, err := p.post(ctx, "/verify/otp", gatewayVerifyRequest{
		OTP:       code,
		RequestID: requestID,
	})
	if err != nil {
		return false, &models.ProviderError{Provider: p.Name(), Reason: err.Error()}
	}
	if status < 200 || status > 299 {
		return false, &models.ProviderError{Provider: p.Name(), Reason: fmt.Sprintf("verify returned status %d: %s", status, string(body))}
	}

	var parsed gatewayVerifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, &models.ProviderError{Provider: p.Name(), Reason: "verify response is not valid JSON"}
	}
	if parsed.IsOTPVerified == nil {
		return false, &models.ProviderError{Provider: p.Name(), Reason: "verify response carries no verification flag"}
	}

	return *parsed.IsOTPVerified, nil
}

// Handles reports true for any request id: the gateway is the catch-all
// at the end of the verify routing order, since its ids are opaque.
func (p *GatewayProvider) Handles(ctx context.Context, requestID string) (bool, error) {
	return true, nil
}
