package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// NewOpaqueToken returns a random hex token for mailing and the digest
// that gets persisted in its place.
func NewOpaqueToken() (token string, digest string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, Digest(token), nil
}

// Digest is the at-rest form of reset, verification and refresh tokens.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DigestMatches compares token against a stored digest in constant time.
func DigestMatches(token string, digest *string) bool {
	if digest == nil || *digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Digest(token)), []byte(*digest)) == 1
}
