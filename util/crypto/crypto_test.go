package crypto

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash := HashPassword("correct horse battery staple")

	if !strings.Contains(hash, "$") {
		t.Fatalf("hash %q missing salt separator", hash)
	}
	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first := HashPassword("same password")
	second := HashPassword("same password")
	if first == second {
		t.Error("two hashes of the same password share a salt")
	}
	if !VerifyPassword("same password", first) || !VerifyPassword("same password", second) {
		t.Error("fresh hashes do not verify")
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{"empty", ""},
		{"no separator", "abcdef0123456789"},
		{"non-hex digest", "salt$zzzz"},
		{"separator only", "$"},
		{"trailing separator", "salt$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword("anything", tt.stored) {
				t.Errorf("malformed stored value %q verified", tt.stored)
			}
		})
	}
}
