// Package signature signs consumer deliveries following Standard Webhooks
// (https://www.standardwebhooks.com): HMAC-SHA256 over "{id}.{timestamp}.{payload}".
package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"

	SecretPrefix = "whsec_"

	// Secrets between 192 and 512 bits
	MinSecretBytes = 24
	MaxSecretBytes = 64

	version = "v1"
)

// Secret is a decoded signing key
type Secret []byte

// GenerateSecret returns a new random key of size bytes, encoded with the whsec_ prefix
func GenerateSecret(size int) (string, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return "", fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return SecretPrefix + base64.StdEncoding.EncodeToString(raw), nil
}

func ParseSecret(encoded string) (Secret, error) {
	b64, ok := strings.CutPrefix(encoded, SecretPrefix)
	if !ok {
		return nil, fmt.Errorf("secret must start with %s prefix", SecretPrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(raw) < MinSecretBytes || len(raw) > MaxSecretBytes {
		return nil, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}
	return Secret(raw), nil
}

// Sign returns the webhook-signature value, "v1,<base64 mac>"
func Sign(secret Secret, msgID string, timestamp time.Time, payload []byte) (string, error) {
	if strings.Contains(msgID, ".") {
		return "", fmt.Errorf("message ID must not contain '.'")
	}
	return version + "," + base64.StdEncoding.EncodeToString(mac(secret, msgID, timestamp, payload)), nil
}

// Verify accepts a webhook-signature header holding one or more
// space separated signatures and reports whether any of them matches.
func Verify(secret Secret, msgID string, timestamp time.Time, payload []byte, header string) bool {
	expected := mac(secret, msgID, timestamp, payload)
	for _, candidate := range strings.Fields(header) {
		v, sig, ok := strings.Cut(candidate, ",")
		if !ok || v != version {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return true
		}
	}
	return false
}

// Headers builds the Standard Webhooks headers for one delivery attempt.
// A nil secret produces an unsigned delivery.
func Headers(secret Secret, msgID string, timestamp time.Time, payload []byte) (map[string]string, error) {
	headers := map[string]string{
		HeaderID:        msgID,
		HeaderTimestamp: strconv.FormatInt(timestamp.Unix(), 10),
	}
	if len(secret) == 0 {
		return headers, nil
	}
	sig, err := Sign(secret, msgID, timestamp, payload)
	if err != nil {
		return nil, fmt.Errorf("signing payload: %w", err)
	}
	headers[HeaderSignature] = sig
	return headers, nil
}

func mac(secret Secret, msgID string, timestamp time.Time, payload []byte) []byte {
	h := hmac.New(sha256.New, secret)
	fmt.Fprintf(h, "%s.%d.", msgID, timestamp.Unix())
	h.Write(payload)
	return h.Sum(nil)
}
