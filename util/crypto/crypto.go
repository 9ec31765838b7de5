// Package crypto provides password hashing and verification for portal accounts.
package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/maintainview/maintainview/util/random"

	"golang.org/x/crypto/pbkdf2"
)

// Hashes are stored as "salt$hexdigest". The iteration count is part of the
// stored-hash contract: changing it invalidates every existing password.
const (
	saltBytes  = 16
	iterations = 100000
	keyLen     = sha256.Size
)

// HashPassword derives a salted PBKDF2-HMAC-SHA256 hash of the given password.
func HashPassword(password string) string {
	return hashWithSalt(password, random.Hex(saltBytes))
}

func hashWithSalt(password, salt string) string {
	digest := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLen, sha256.New)
	return salt + "$" + hex.EncodeToString(digest)
}

// VerifyPassword reports whether password matches the stored "salt$hash" value.
// Malformed stored values verify as false, never as an error.
func VerifyPassword(password, stored string) bool {
	salt, wantHex, found := strings.Cut(stored, "$")
	if !found || salt == "" || wantHex == "" {
		return false
	}
	want, err := hex.DecodeString(wantHex)
	if err != nil || len(want) != keyLen {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLen, sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
