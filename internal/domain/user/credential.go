package user

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLength is the size of the random salt prefix of a credential
	SaltLength = 32
	// KeyLength is the size of the derived key that follows the salt
	KeyLength = 32
	// DefaultIterations is the PBKDF2-HMAC-SHA256 work factor
	DefaultIterations = 100_000
)

// Credential is a 32-byte salt followed by the PBKDF2 derived key.
type Credential []byte

func (c Credential) salt() []byte {
	return c[:SaltLength]
}

func (c Credential) key() []byte {
	return c[SaltLength:]
}

func (c Credential) wellFormed() bool {
	return len(c) == SaltLength+KeyLength
}

// PasswordHasher derives and verifies credentials
type PasswordHasher struct {
	iterations int
	dummy      Credential
}

// NewPasswordHasher creates a hasher. Iterations below DefaultIterations are
// raised to it.
func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations < DefaultIterations {
		iterations = DefaultIterations
	}

	h := &PasswordHasher{iterations: iterations}
	// Verified against when there is no real credential, so every failed login
	// runs exactly one derivation.
	h.dummy = make(Credential, SaltLength+KeyLength)
	return h
}

// Iterations returns the configured work factor
func (h *PasswordHasher) Iterations() int {
	return h.iterations
}

// Hash derives a new credential with a random salt
func (h *PasswordHasher) Hash(password string) (Credential, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	credential := make(Credential, 0, SaltLength+KeyLength)
	credential = append(credential, salt...)
	credential = append(credential, h.derive(password, salt)...)
	return credential, nil
}

// Verify recomputes the key with the stored salt and compares in constant time.
// A missing or malformed credential is checked against a dummy and never matches.
func (h *PasswordHasher) Verify(credential Credential, password string) bool {
	if !credential.wellFormed() {
		h.VerifyDummy(password)
		return false
	}

	derived := h.derive(password, credential.salt())
	return subtle.ConstantTimeCompare(derived, credential.key()) == 1
}

// VerifyDummy burns one derivation. Used for unknown accounts.
func (h *PasswordHasher) VerifyDummy(password string) {
	derived := h.derive(password, h.dummy.salt())
	subtle.ConstantTimeCompare(derived, h.dummy.key())
}

func (h *PasswordHasher) derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, h.iterations, KeyLength, sha256.New)
}
