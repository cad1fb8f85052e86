package hash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2SaltLength is the size of the random salt in bytes.
	PBKDF2SaltLength = 16
	// PBKDF2KeyLength is the size of the derived key in bytes.
	PBKDF2KeyLength = 32
	// PBKDF2MinIterations is the lowest accepted iteration count and the default.
	PBKDF2MinIterations = 100_000

	credentialDelimiter = ":"
)

var (
	// ErrInvalidInput is returned when the password is empty or an explicit
	// salt does not have PBKDF2SaltLength bytes.
	ErrInvalidInput = errors.New("hash: invalid input")

	// ErrWeakIterations is returned when the configured iteration count is
	// below PBKDF2MinIterations.
	ErrWeakIterations = errors.New("hash: pbkdf2 iterations below minimum")

	// ErrEntropy is returned when the system random source cannot produce a salt.
	ErrEntropy = errors.New("hash: random source unavailable")
)

// PBKDF2 derives and verifies stored credentials with PBKDF2-HMAC-SHA256.
//
// A stored credential is "base64(salt):base64(key)" using standard padded
// base64. The zero value is not usable; construct with NewPBKDF2.
type PBKDF2 struct {
	iterations int
	random     io.Reader
}

// PBKDF2Option customizes a PBKDF2 hasher.
type PBKDF2Option func(*PBKDF2)

// WithIterations overrides the iteration count. Values below
// PBKDF2MinIterations make NewPBKDF2 fail.
func WithIterations(n int) PBKDF2Option {
	return func(p *PBKDF2) { p.iterations = n }
}

// WithRandom replaces the salt entropy source.
func WithRandom(r io.Reader) PBKDF2Option {
	return func(p *PBKDF2) { p.random = r }
}

// NewPBKDF2 returns a hasher using PBKDF2MinIterations unless overridden.
func NewPBKDF2(opts ...PBKDF2Option) (*PBKDF2, error) {
	p := &PBKDF2{
		iterations: PBKDF2MinIterations,
		random:     rand.Reader,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.iterations < PBKDF2MinIterations {
		return nil, fmt.Errorf("%w: got %d, want >= %d", ErrWeakIterations, p.iterations, PBKDF2MinIterations)
	}
	if p.random == nil {
		p.random = rand.Reader
	}

	return p, nil
}

// Iterations returns the configured iteration count.
func (p *PBKDF2) Iterations() int {
	return p.iterations
}

// Derive builds a stored credential for password. A nil salt means a fresh
// random salt is generated.
func (p *PBKDF2) Derive(password string, salt []byte) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidInput)
	}

	if salt == nil {
		salt = make([]byte, PBKDF2SaltLength)
		if _, err := io.ReadFull(p.random, salt); err != nil {
			return "", fmt.Errorf("%w: %w", ErrEntropy, err)
		}
	}

	if len(salt) != PBKDF2SaltLength {
		return "", fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidInput, PBKDF2SaltLength, len(salt))
	}

	key := p.key(password, salt)

	return base64.StdEncoding.EncodeToString(salt) + credentialDelimiter + base64.StdEncoding.EncodeToString(key), nil
}

// Hash implements Hash by deriving a credential with a random salt.
func (p *PBKDF2) Hash(str string) ([]byte, error) {
	cred, err := p.Derive(str, nil)
	if err != nil {
		return nil, err
	}

	return []byte(cred), nil
}

// Verify reports whether password matches stored. Malformed credentials and
// wrong passwords both yield false.
func (p *PBKDF2) Verify(stored, password string) bool {
	salt, want, ok := parseCredential(stored)
	if !ok {
		return false
	}

	got := p.key(password, salt)
	equal, _ := constantTimeCompare(got, want)

	return equal
}

func (p *PBKDF2) key(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, p.iterations, PBKDF2KeyLength, sha256.New)
}

func parseCredential(stored string) (salt, key []byte, ok bool) {
	if strings.Count(stored, credentialDelimiter) != 1 {
		return nil, nil, false
	}

	saltPart, keyPart, _ := strings.Cut(stored, credentialDelimiter)

	salt, err := base64.StdEncoding.DecodeString(saltPart)
	if err != nil || len(salt) != PBKDF2SaltLength {
		return nil, nil, false
	}

	key, err = base64.StdEncoding.DecodeString(keyPart)
	if err != nil || len(key) != PBKDF2KeyLength {
		return nil, nil, false
	}

	return salt, key, true
}

// constantTimeCompare visits every byte position of a and b even after a
// mismatch is seen. scanned reports how many positions were compared.
func constantTimeCompare(a, b []byte) (equal bool, scanned int) {
	if len(a) != len(b) {
		return false, 0
	}

	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
		scanned++
	}

	return subtle.ConstantTimeByteEq(diff, 0) == 1, scanned
}
