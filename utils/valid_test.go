package utils

import "testing"

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"  User@Example.COM ", "user@example.com", false},
		{"plain@x.co", "plain@x.co", false},
		{"no-at-sign", "", true},
		{"missing@tld", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := SanitizeEmail(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SanitizeEmail(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("SanitizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+1 (555) 123-4567", "+15551234567", false},
		{"15551234567", "+15551234567", false},
		{"+961 70 123 456", "+96170123456", false},
		{"123", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := SanitizePhone(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SanitizePhone(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("SanitizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateNumericOTP(t *testing.T) {
	for _, length := range []int{4, 6} {
		otp, err := GenerateNumericOTP(length)
		if err != nil {
			t.Fatalf("generation failed: %v", err)
		}
		if len(otp) != length {
			t.Errorf("GenerateNumericOTP(%d) returned %q", length, otp)
		}
		for _, r := range otp {
			if r < '0' || r > '9' {
				t.Errorf("OTP %q contains non-digit %q", otp, r)
			}
		}
	}
}
