// utils/identifiers.go
package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	// SponsorIDPrefix is the reserved prefix for human-facing sponsor IDs.
	SponsorIDPrefix = "HS"
	// TraceIDPrefix is the reserved prefix for trace IDs handed out as
	// referral tokens.
	TraceIDPrefix = "ROB"

	sponsorSuffixLen = 5
	traceSuffixLen   = 5
)

// GenerateSponsorID generates a candidate sponsor ID: "HS" followed by 5
// random digits. Uniqueness is the allocator's job, not this function's.
func GenerateSponsorID() (string, error) {
	suffix, err := randomFromCharset(sponsorSuffixLen, "0123456789")
	if err != nil {
		return "", err
	}
	return SponsorIDPrefix + suffix, nil
}

// GenerateTraceID generates a candidate trace ID: "ROB" followed by 5
// random uppercase alphanumerics.
func GenerateTraceID() (string, error) {
	suffix, err := randomFromCharset(traceSuffixLen, "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	if err != nil {
		return "", err
	}
	return TraceIDPrefix + suffix, nil
}

func randomFromCharset(length int, charset string) (string, error) {
	result := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
