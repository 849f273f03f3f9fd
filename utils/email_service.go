// utils/email_service.go
package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

// EmailService sends transactional mail over SMTP.
type EmailService struct {
	Host      string
	Port      int
	User      string
	Pass      string
	FromEmail string
}

// NewEmailService creates an email service from the environment.
func NewEmailService() *EmailService {
	port := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}
	return &EmailService{
		Host:      os.Getenv("SMTP_HOST"),
		Port:      port,
		User:      os.Getenv("SMTP_USER"),
		Pass:      os.Getenv("SMTP_PASS"),
		FromEmail: os.Getenv("FROM_EMAIL"),
	}
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	if s.Host == "" || s.User == "" || s.Pass == "" || s.FromEmail == "" {
		return errors.New("SMTP configuration is incomplete")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	return d.DialAndSend(m)
}

// SendOTP delivers a verification code to the given address.
func (s *EmailService) SendOTP(to, otp string, ttl time.Duration) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2>HSRobot Verification Code</h2>
			<p>Your verification code is:</p>
			<h1 style="letter-spacing: 5px;">%s</h1>
			<p>This code will expire in %d minutes.</p>
			<p>If you did not request this code, please ignore this email.</p>
		</div>`, otp, int(ttl.Minutes()))
	return s.send(to, "Your HSRobot verification code", body)
}

// SendWelcome sends the post-registration welcome mail. Best-effort only;
// callers log failures and move on.
func (s *EmailService) SendWelcome(to, fullName, sponsorID, traceID string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2>Welcome to HSRobot, %s!</h2>
			<p>Your account has been created successfully.</p>
			<p>Sponsor ID: <b>%s</b></p>
			<p>Referral token: <b>%s</b></p>
			<p>Share your referral token to invite others to your network.</p>
		</div>`, fullName, sponsorID, traceID)
	return s.send(to, "Welcome to HSRobot", body)
}
