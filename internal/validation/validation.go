// Package validation provides functionality for validating webhook signatures to verify request authenticity.
package validation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
	"github.com/pkg/errors"
)

var (
	// ErrMissingSecret is returned when a signature is checked without a shared secret.
	ErrMissingSecret = errors.New("missing webhook shared secret")
	// ErrSignatureMismatch is returned when the computed digest differs from the supplied signature.
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// SharedSecret is the per-webhook key Smartsheet signs callbacks with.
type SharedSecret string

// Sign returns the hex-encoded HMAC-SHA256 of body keyed by the shared secret.
func (s SharedSecret) Sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(s))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature checks signature against the HMAC-SHA256 of the exact body bytes.
// The comparison is on the hex text, so the signature must use lower-case digits.
func (s SharedSecret) ValidateSignature(body []byte, signature string) error {
	if s == "" {
		return ErrMissingSecret
	}
	expected := s.Sign(body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errors.Wrapf(ErrSignatureMismatch, "received %q", helpers.Truncate(signature, 64))
	}
	return nil
}
