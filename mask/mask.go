// Package mask generates the pseudorandom byte streams that are XORed over
// secret bytes before sharing. A stream is a pure function of its length and
// a 16-bit seed, so the recovering side regenerates it instead of receiving it.
package mask

import (
	"encoding/binary"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
)

// Generator produces a deterministic byte stream from a seed. Implementations
// hold no mutable state and are safe for concurrent use.
type Generator interface {
	// Generate returns length bytes derived from seed
	Generate(length int, seed uint16) []byte
	// Name identifies the generator in configuration and logs
	Name() string
}

const (
	ChaCha20Name = "chacha20"
	LegacyName   = "legacy"
)

// Default is the generator used when none is configured
var Default Generator = ChaCha20{}

var generators = map[string]Generator{
	ChaCha20Name: ChaCha20{},
	LegacyName:   Legacy{},
}

// New returns the generator registered under name. An empty name selects Default.
func New(name string) (Generator, error) {
	if name == "" {
		return Default, nil
	}
	g, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("mask: unknown generator %q (available: %v)", name, Names())
	}
	return g, nil
}

// Names lists the registered generator names in sorted order
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// XOR writes a[i] ^ b[i] into dst for every i below the shortest length and
// returns the number of bytes written. dst may alias a or b.
func XOR(dst, a, b []byte) int {
	n := min(len(dst), len(a), len(b))
	for i := 0; i < n; i++ {
		dst[i] = a[i] ^ b[i]
	}
	return n
}

// ChaCha20 expands the seed into a ChaCha20 keystream. The key is the
// BLAKE2b-256 digest of a fixed label and the little-endian seed, and the
// nonce is all zeros.
type ChaCha20 struct{}

var chachaLabel = []byte("secret-image mask v1")

func (ChaCha20) Name() string { return ChaCha20Name }

func (ChaCha20) Generate(length int, seed uint16) []byte {
	if length <= 0 {
		return []byte{}
	}

	var seedBytes [2]byte
	binary.LittleEndian.PutUint16(seedBytes[:], seed)
	key := blake2b.Sum256(append(append([]byte{}, chachaLabel...), seedBytes[:]...))

	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		// key and nonce sizes are fixed above
		panic(err)
	}

	out := make([]byte, length)
	c.XORKeyStream(out, out)
	return out
}

// Legacy reproduces the 48-bit linear congruential generator used by earlier
// releases of the tool, drawing one bounded integer in [0, 256) per byte.
// Shadows written by those releases can only be recovered with this generator.
type Legacy struct{}

const (
	lcgMultiplier = 0x5DEECE66D
	lcgAddend     = 0xB
	lcgMask       = (1 << 48) - 1
)

func (Legacy) Name() string { return LegacyName }

func (Legacy) Generate(length int, seed uint16) []byte {
	if length <= 0 {
		return []byte{}
	}

	state := (uint64(seed) ^ lcgMultiplier) & lcgMask
	out := make([]byte, length)
	for i := range out {
		state = (state*lcgMultiplier + lcgAddend) & lcgMask
		// Top 31 bits, scaled to a bound of 256
		r := state >> (48 - 31)
		out[i] = byte((256 * r) >> 31)
	}
	return out
}
