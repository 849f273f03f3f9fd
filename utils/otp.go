// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

// GenerateNumericOTP generates a random numeric code of the given length.
func GenerateNumericOTP(length int) (string, error) {
	const digits = "0123456789"
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}

// ValidateOTPAttempts limits verification attempts per destination.
func ValidateOTPAttempts(destination string, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}

	key := "otp_attempts:" + destination
	attempts, err := rdb.Incr(context.Background(), key).Result()
	if err != nil {
		return err
	}

	// Set expiry if first attempt
	if attempts == 1 {
		rdb.Expire(context.Background(), key, 1*time.Hour)
	}

	// Limit to 5 attempts per hour
	if attempts > 5 {
		return errors.New("too many OTP attempts")
	}

	return nil
}
