// Package casso receives bank-transfer webhooks from Casso, authenticates
// them and hands each transaction to the reconciliation engine.
package casso

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingSecret    = errors.New("webhook secret not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// SignatureHeaders are checked in order; the first non-empty one is used.
var SignatureHeaders = []string{"X-Casso-Signature", "Casso-Signature", "X-Signature", "Signature"}

var signaturePrefixes = []string{"hmac-sha256=", "hmac_sha256=", "sha256=", "sha256:"}

// SignatureFromHeader returns the raw signature value sent with a request.
func SignatureFromHeader(h http.Header) string {
	for _, name := range SignatureHeaders {
		if v := strings.TrimSpace(h.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

func stripPrefix(sig string) string {
	for _, p := range signaturePrefixes {
		if len(sig) >= len(p) && strings.EqualFold(sig[:len(p)], p) {
			return strings.TrimSpace(sig[len(p):])
		}
	}
	return sig
}

// Sign returns the lowercase hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against the HMAC-SHA256 of body. The digest may be
// hex, in any case, or standard base64.
func Verify(secret string, body []byte, signature string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	sig := stripPrefix(strings.TrimSpace(signature))
	if sig == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	sum := mac.Sum(nil)

	if hmac.Equal([]byte(strings.ToLower(sig)), []byte(hex.EncodeToString(sum))) {
		return nil
	}
	if raw, err := base64.StdEncoding.DecodeString(sig); err == nil && hmac.Equal(raw, sum) {
		return nil
	}
	return ErrInvalidSignature
}
