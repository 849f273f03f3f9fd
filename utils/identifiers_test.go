package utils

import (
	"regexp"
	"testing"
)

func TestGenerateSponsorIDShape(t *testing.T) {
	shape := regexp.MustCompile(`^HS\d{5}$`)
	for i := 0; i < 100; i++ {
		id, err := GenerateSponsorID()
		if err != nil {
			t.Fatalf("generation failed: %v", err)
		}
		if !shape.MatchString(id) {
			t.Fatalf("sponsor ID %q does not match HS + 5 digits", id)
		}
	}
}

func TestGenerateTraceIDShape(t *testing.T) {
	shape := regexp.MustCompile(`^ROB[A-Z0-9]{5}$`)
	for i := 0; i < 100; i++ {
		id, err := GenerateTraceID()
		if err != nil {
			t.Fatalf("generation failed: %v", err)
		}
		if !shape.MatchString(id) {
			t.Fatalf("trace ID %q does not match ROB + 5 alphanumerics", id)
		}
	}
}
