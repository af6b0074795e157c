package literals

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// KeyProvider generates the XOR pad for one literal. Implementations must
// be safe for concurrent use and must never hand out the same pad to two
// call sites: key reuse would let an attacker XOR two ciphertexts together
// and cancel the key.
type KeyProvider interface {
	// LiteralKey returns n fresh key bytes.
	LiteralKey(n int) ([]byte, error)
}

// NewRandomKeyProvider returns the default provider, which draws keys from
// the operating system's CSPRNG. crypto/rand is safe for concurrent reads,
// so parallel encoding needs no extra coordination.
func NewRandomKeyProvider() KeyProvider {
	return randomKeyProvider{}
}

type randomKeyProvider struct{}

func (randomKeyProvider) LiteralKey(n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("read random key: %w", err)
	}
	return key, nil
}

const keyContext = "obfustr/literals/key:v1"

// hkdf.Expand caps a single expansion at 255 hash blocks.
const maxExpand = 255 * sha256.Size

// NewSeededKeyProvider returns a deterministic provider for reproducible
// builds. Keys are expanded from the seed with HKDF-SHA256 using a
// per-literal counter, so two runs over the same input produce identical
// output while distinct call sites within a run still get distinct keys.
func NewSeededKeyProvider(seed []byte) (KeyProvider, error) {
	if len(seed) == 0 {
		return nil, errors.New("seed must not be empty")
	}
	prk := hkdf.Extract(sha256.New, seed, []byte(keyContext))
	return &seededKeyProvider{prk: prk}, nil
}

type seededKeyProvider struct {
	prk []byte

	mu      sync.Mutex
	counter uint64
}

func (p *seededKeyProvider) LiteralKey(n int) ([]byte, error) {
	p.mu.Lock()
	idx := p.counter
	p.counter++
	p.mu.Unlock()

	key := make([]byte, n)
	rest := key
	// Literals longer than one expansion limit draw from chained
	// sub-expansions of the same counter.
	for chunk := uint32(0); len(rest) > 0; chunk++ {
		var info [len(keyContext) + 12]byte
		copy(info[:], keyContext)
		binary.BigEndian.PutUint64(info[len(keyContext):], idx)
		binary.BigEndian.PutUint32(info[len(keyContext)+8:], chunk)

		m := min(len(rest), maxExpand)
		if _, err := io.ReadFull(hkdf.Expand(sha256.New, p.prk, info[:]), rest[:m]); err != nil {
			return nil, fmt.Errorf("expand literal key: %w", err)
		}
		rest = rest[m:]
	}
	return key, nil
}
