package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ErrNoNodeIdentity is returned when neither /etc/machine-id nor the hostname
// can be read.
var ErrNoNodeIdentity = errors.New("uid: no stable node identity")

// TokenID generates 64-char hex identifiers for opaque bearer secrets such as
// refresh tokens. The layout is 6 bytes of milliseconds, 6 bytes of node
// hash, 4 bytes of counter and 16 random bytes.
type TokenID struct {
	node    [6]byte
	counter atomic.Uint32
}

// NewTokenID builds a generator seeded from the host identity.
func NewTokenID() (*TokenID, error) {
	src := nodeIdentity()
	if src == "" {
		return nil, ErrNoNodeIdentity
	}

	g := &TokenID{}
	sum := sha256.Sum256([]byte(src))
	copy(g.node[:], sum[:6])

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	g.counter.Store(binary.BigEndian.Uint32(seed[:]))

	return g, nil
}

func nodeIdentity() string {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s
		}
	}
	if h, err := os.Hostname(); err == nil {
		return strings.TrimSpace(h)
	}
	return ""
}

// Generate returns a new token identifier.
func (g *TokenID) Generate() string {
	var raw [32]byte

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixMilli()))
	copy(raw[0:6], ts[2:])
	copy(raw[6:12], g.node[:])
	binary.BigEndian.PutUint32(raw[12:16], g.counter.Add(1))

	if _, err := rand.Read(raw[16:]); err != nil {
		// crypto/rand failing is fatal on supported platforms; keep the ID
		// unique by hashing the deterministic prefix.
		sum := sha256.Sum256(raw[:16])
		copy(raw[16:], sum[:16])
	}

	return hex.EncodeToString(raw[:])
}
