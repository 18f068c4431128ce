// Package credentials turns plaintext passwords into stored credentials and
// checks candidates against them.
//
// A credential is a (salt, hash) pair. The salt is 128 bits from crypto/rand,
// base64 encoded. The hash is argon2id over the password and the salt text,
// also base64 encoded. The stored hash is compared as-is against a freshly
// derived one; it is never hashed a second time.
package credentials

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the salt length in bytes before encoding.
const SaltSize = 16

// Params are the argon2id cost parameters.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

// DefaultParams returns the parameters used when configuration sets none.
func DefaultParams() Params {
	return Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4, KeyLen: 32}
}

type Manager struct {
	params Params
}

// NewManager builds a Manager. Zero fields of p fall back to DefaultParams.
func NewManager(p Params) *Manager {
	d := DefaultParams()
	if p.Time == 0 {
		p.Time = d.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = d.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = d.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = d.KeyLen
	}
	return &Manager{params: p}
}

// GenerateSalt returns a fresh random salt.
func (m *Manager) GenerateSalt() (string, error) {
	b, err := common.GenerateRandByteArray(SaltSize)
	if err != nil {
		return "", fmt.Errorf("error generating salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// HashPassword derives the stored hash for password under salt.
func (m *Manager) HashPassword(password, salt string) (string, error) {
	if salt == "" {
		return "", fmt.Errorf("%w: salt is required", common.ErrorValidation)
	}
	key := argon2.IDKey([]byte(password), []byte(salt), m.params.Time, m.params.MemoryKiB, m.params.Threads, m.params.KeyLen)
	return base64.StdEncoding.EncodeToString(key), nil
}

// Verify reports whether candidate hashes to expectedHash under salt.
func (m *Manager) Verify(candidate, salt, expectedHash string) bool {
	if salt == "" || expectedHash == "" {
		return false
	}
	got, err := m.HashPassword(candidate, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expectedHash)) == 1
}

// SetPassword replaces the credential of u with a new salt and the matching
// hash of password. u is left untouched on error.
func (m *Manager) SetPassword(u *models.User, password string) error {
	salt, err := m.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := m.HashPassword(password, salt)
	if err != nil {
		return err
	}
	u.PasswordSalt = salt
	u.PasswordHash = hash
	return nil
}
