// Package share implements (k, n) threshold sharing of raw image bytes over
// GF(257).
//
// The secret is cut into k-byte blocks. Each block is XORed with a seeded
// mask stream and read as the coefficients of a polynomial of degree k-1,
// which is evaluated at x = 1..n. Shadow j receives f(j) for every block,
// one byte per block, embedded in the LSBs of its pixel data. Any k shadows
// determine every polynomial again by interpolation.
//
// An evaluation equal to 256 does not fit in a byte. When that happens the
// first non-zero coefficient of the block is decremented and the whole block
// is evaluated again. The decremented coefficient is what recovery returns,
// so a corrected block recovers with one byte off by a small amount. This is
// lossy and rare: it needs f(x) = 256 for some x in 1..n.
package share

import (
	"errors"
	"runtime"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ppopth/secret-image/field"
)

var log = logging.Logger("share")

const (
	// Modulus of the sharing field, the smallest prime above 255
	Modulus = 257
	// MinThreshold is the smallest usable k
	MinThreshold = 2
	// MaxThreshold is the largest k the field can interpolate. Encoding also
	// needs n >= k and n <= MaxShadows, so an Encoder never accepts k = 257.
	MaxThreshold = Modulus
	// MaxShadows bounds n so that every shadow index is a non-zero element
	MaxShadows = Modulus - 1
)

var (
	ErrInvalidParameters        = errors.New("share: invalid parameters")
	ErrInvalidSecretSize        = errors.New("share: secret size is not a multiple of k")
	ErrShadowTooSmall           = errors.New("share: shadow too small for secret")
	ErrShadowSizeMismatch       = errors.New("share: shadow larger than the secret needs")
	ErrInconsistentShares       = errors.New("share: inconsistent shares")
	ErrInsufficientShares       = errors.New("share: insufficient shares")
	ErrCoefficientCountMismatch = errors.New("share: interpolation returned wrong number of coefficients")
	ErrCorruptShares            = errors.New("share: shares do not describe byte coefficients")
)

// Shadow is a cover image that carries one share. *bmp.Image implements it.
type Shadow interface {
	// Bytes is the whole mutable buffer, header included
	Bytes() []byte
	PayloadOffset() int
	PayloadLen() int
	Seed() uint16
	ShadowIndex() uint16
	SetSeed(uint16)
	SetShadowIndex(uint16)
}

// sharingField holds the evaluation arithmetic of every encoder
var sharingField = field.MustPrimeField(Modulus)

func workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// chunks splits [0, total) into at most parts contiguous ranges
func chunks(total, parts int) [][2]int {
	if total == 0 {
		return nil
	}
	parts = max(1, min(parts, total))
	size := (total + parts - 1) / parts
	var out [][2]int
	for start := 0; start < total; start += size {
		out = append(out, [2]int{start, min(start+size, total)})
	}
	return out
}
