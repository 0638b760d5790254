package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// hashKey derives a cache key of the form prefix:hash(parts...). The full
// SHA-256 is kept; truncating would invite collisions between unrelated
// requests.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the SHA-256 of data as a 64-character hex string.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the SHA-256 of a file's contents. It is how dependency
// data files are fingerprinted into cache scopes.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
