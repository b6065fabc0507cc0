package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// computeReverseHash builds the response digest both PayU-style gateways
// publish: sha512 over salt, the ordered payload fields, and the merchant
// key, pipe-separated. Empty names in the order contribute literal empty
// segments. Any deviation from the published ordering invalidates all
// legitimate traffic, so the order slices are spelled out per gateway and
// covered by tests.
func computeReverseHash(salt, key string, fields Fields, order []string) string {
	parts := make([]string, 0, len(order)+2)
	parts = append(parts, salt)
	for _, name := range order {
		if name == "" {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, fields.Get(name))
	}
	parts = append(parts, key)

	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// verifyReverseHash compares the supplied hash case-insensitively and in
// constant time against the recomputed digest.
func verifyReverseHash(salt, key string, fields Fields, order []string, supplied string) error {
	if strings.TrimSpace(salt) == "" || strings.TrimSpace(key) == "" {
		// Fail closed: a missing secret must never mean "no verification".
		return ErrMissingCredentials
	}

	supplied = strings.ToLower(strings.TrimSpace(supplied))
	if supplied == "" {
		return ErrSignatureMismatch
	}

	expected := computeReverseHash(salt, key, fields, order)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
