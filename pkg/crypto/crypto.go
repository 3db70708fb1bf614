package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// EncryptionKeySize is the number of random bytes behind an encryption key.
const EncryptionKeySize = 32

// GenerateID returns a fresh random node id.
func GenerateID() string {
	return uuid.NewString()
}

// HashKey returns the hex SHA-256 digest of key. File ids are derived this way.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// HashReader streams r through SHA-256 and returns the hex digest.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NewEncryptionKey returns EncryptionKeySize random bytes, hex encoded.
func NewEncryptionKey() (string, error) {
	key := make([]byte, EncryptionKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate encryption key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
