package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// rejectAbove is the largest multiple of len(alphanumeric) that fits in a
// byte. Bytes at or above it are discarded so every symbol is equally likely.
const rejectAbove = 256 - 256%len(alphanumeric)

// RandomAlphanumeric returns n symbols drawn uniformly from [A-Za-z0-9] using
// crypto/rand.
func RandomAlphanumeric(n int) (string, error) {
	return randomAlphanumericFrom(rand.Reader, n)
}

func randomAlphanumericFrom(r io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid random length")
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+8)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, alphanumeric[int(b)%len(alphanumeric)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Fingerprint returns a short stable digest of a secret, safe to log.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:4])
}
