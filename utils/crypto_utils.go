package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the lowercase hex SHA-256 of a session token, the form
// stored in auth_sessions.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
