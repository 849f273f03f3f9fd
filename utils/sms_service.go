// utils/sms_service.go
package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// SMSService is the local message transport used when OTP delivery is
// handled in-process instead of by the external OTP gateway.
type SMSService struct {
	Username string
	Password string
	SenderID string
	APIPath  string
	Client   *http.Client
}

// SMSResponse represents the response from the bulk SMS API
type SMSResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
		Cost      string `json:"cost"`
	} `json:"data"`
}

// NewSMSService creates a new SMS service instance from the environment.
func NewSMSService() *SMSService {
	return &SMSService{
		Username: os.Getenv("SMS_USERNAME"),
		Password: os.Getenv("SMS_PASSWORD"),
		SenderID: os.Getenv("SMS_SENDER_ID"),
		APIPath:  os.Getenv("SMS_API_PATH"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send delivers a message body to the destination number.
func (s *SMSService) Send(phoneNumber, message string) error {
	if s.Username == "" || s.Password == "" || s.APIPath == "" {
		return fmt.Errorf("SMS provider credentials not properly configured")
	}

	if !strings.HasPrefix(phoneNumber, "+") {
		phoneNumber = "+" + phoneNumber
	}

	params := url.Values{}
	params.Set("username", s.Username)
	params.Set("password", s.Password)
	params.Set("senderid", s.SenderID)
	params.Set("destination", phoneNumber)
	params.Set("message", message)

	fullURL := fmt.Sprintf("%s?%s", s.APIPath, params.Encode())

	req, err := http.NewRequest("POST", fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", "HSRobot-OTP-Service/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(body))
	}

	var smsResp SMSResponse
	if err := json.Unmarshal(body, &smsResp); err != nil {
		// Some routes answer with a bare "success" string instead of JSON.
		responseStr := strings.ToLower(strings.TrimSpace(string(body)))
		if strings.Contains(responseStr, "success") || strings.Contains(responseStr, "sent") {
			return nil
		}
		return fmt.Errorf("failed to parse SMS response: %w", err)
	}

	if smsResp.Status == "success" || smsResp.Status == "sent" {
		return nil
	}

	return fmt.Errorf("SMS sending failed: %s", smsResp.Message)
}

// SendOTP sends a verification code with the standard message template.
func (s *SMSService) SendOTP(phoneNumber, otp string, ttl time.Duration) error {
	message := fmt.Sprintf("Your HSRobot verification code is: %s. This code will expire in %d minutes.", otp, int(ttl.Minutes()))
	return s.Send(phoneNumber, message)
}
