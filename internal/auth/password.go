package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes      = 32 // 256-bit salt
	keyBytes       = 32
	hashIterations = 100_000
)

// HashPassword derives a PBKDF2-HMAC-SHA256 key from password. A nil salt
// draws a fresh random one. Hash and salt are returned hex encoded.
func HashPassword(password string, salt []byte) (hash, saltHex string, err error) {
	if salt == nil {
		salt = make([]byte, saltBytes)
		if _, err := rand.Read(salt); err != nil {
			return "", "", fmt.Errorf("failed to generate salt: %w", err)
		}
	}
	key := pbkdf2.Key([]byte(password), salt, hashIterations, keyBytes, sha256.New)
	return hex.EncodeToString(key), hex.EncodeToString(salt), nil
}

// VerifyPassword recomputes the hash with the stored salt and compares it
// in constant time. Malformed stored values never verify.
func VerifyPassword(password, storedHash, storedSalt string) bool {
	salt, err := hex.DecodeString(storedSalt)
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, hashIterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
