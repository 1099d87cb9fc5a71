// Package cryptox derives and verifies salted password digests.
//
// Digests have the form "<derived-hex>.<salt-hex>". The salt is generated as
// random bytes and hex-encoded; the hex text itself is fed to scrypt as the
// salt, which keeps digests created by earlier deployments verifiable.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"golang.org/x/crypto/scrypt"
)

const digestSeparator = "."

// PasswordHasher hashes plaintext passwords and checks them against stored digests.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// ScryptParams holds the scrypt cost settings.
type ScryptParams struct {
	N       int
	R       int
	P       int
	KeyLen  int
	SaltLen int
}

// DefaultScryptParams matches the parameters digests were originally created with.
var DefaultScryptParams = ScryptParams{N: 16384, R: 8, P: 1, KeyLen: 64, SaltLen: 16}

// ScryptHasher is a PasswordHasher backed by golang.org/x/crypto/scrypt.
type ScryptHasher struct {
	params ScryptParams
}

// NewScryptHasher returns a hasher using p.
func NewScryptHasher(p ScryptParams) *ScryptHasher {
	return &ScryptHasher{params: p}
}

// Hash derives a digest from plain using a fresh random salt.
func (h *ScryptHasher) Hash(plain string) (string, error) {
	salt := hex.EncodeToString(common.GenerateRandByteArray(h.params.SaltLen))
	key, err := h.derive(plain, salt)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key) + digestSeparator + salt, nil
}

// Verify reports whether plain matches digest. Malformed digests never match.
func (h *ScryptHasher) Verify(plain, digest string) bool {
	derivedHex, salt, ok := strings.Cut(digest, digestSeparator)
	if !ok || salt == "" {
		return false
	}
	stored, err := hex.DecodeString(derivedHex)
	if err != nil || len(stored) == 0 {
		return false
	}
	candidate, err := h.derive(plain, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(stored, candidate) == 1
}

func (h *ScryptHasher) derive(plain, salt string) ([]byte, error) {
	return scrypt.Key([]byte(plain), []byte(salt), h.params.N, h.params.R, h.params.P, h.params.KeyLen)
}
