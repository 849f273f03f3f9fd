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

// PlacementGateway assigns a slot in the referral matrix for a new
// account. The tree-search itself lives in the matrix service; this core
// treats the slot id as opaque. An empty slot id means the matrix has no
// capacity under the given referrer.
type PlacementGateway interface {
	GetPlacementSlot(ctx context.Context, referrerID string, arity int) (string, error)
}

// MatrixService is the HTTP client for the matrix placement service.
type MatrixService struct {
	baseURL string
	client  *http.Client
}

type placementRequest struct {
	ReferrerID string `json:"referrerId"`
	Arity      int    `json:"arity"`
}

type placementResponse struct {
	PlacementID string `json:"placementId"`
}

// NewMatrixService creates a matrix service client from the environment.
func NewMatrixService() *MatrixService {
	return &MatrixService{
		baseURL: os.Getenv("MATRIX_SERVICE_URL"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetPlacementSlot asks the matrix service for a free slot under the
// referrer. Returns the opaque slot id, or "" when none is available.
func (s *MatrixService) GetPlacementSlot(ctx context.Context, referrerID string, arity int) (string, error) {
	if s.baseURL == "" {
		return "", &models.ConfigurationError{Msg: "matrix service URL is not configured"}
	}

	body, err := json.Marshal(placementRequest{ReferrerID: referrerID, Arity: arity})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/placement/slot", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &models.ProviderError{Provider: "matrix", Reason: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.ProviderError{Provider: "matrix", Reason: err.Error()}
	}

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &models.ProviderError{Provider: "matrix", Reason: fmt.Sprintf("placement returned status %d: %s", resp.StatusCode, string(respBody))}
	}

	var parsed placementResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &models.ProviderError{Provider: "matrix", Reason: "placement response is not valid JSON"}
	}

	return parsed.PlacementID, nil
}
