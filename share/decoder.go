package share

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ppopth/secret-image/mask"
	"github.com/ppopth/secret-image/poly"
	"github.com/ppopth/secret-image/stego"
)

// DecoderConfig holds the parameters of a recovery
type DecoderConfig struct {
	K int // threshold used at distribution

	// Mask must be the generator used at distribution. Nil selects mask.Default.
	Mask mask.Generator
	// Workers bounds parallel interpolation. Zero uses GOMAXPROCS.
	Workers int
}

// Decoder reconstructs secrets from k shares
type Decoder struct {
	config DecoderConfig
}

// NewDecoder validates config and returns a Decoder
func NewDecoder(config DecoderConfig) (*Decoder, error) {
	if config.K < MinThreshold || config.K > MaxThreshold {
		return nil, fmt.Errorf("%w: k = %d, must be in [%d, %d]", ErrInvalidParameters, config.K, MinThreshold, MaxThreshold)
	}
	if config.Mask == nil {
		config.Mask = mask.Default
	}
	return &Decoder{config: config}, nil
}

// Decode reconstructs the secret bytes from the first k shadows. Shadows are
// only read. Every shadow must carry the same seed and payload length, and
// their indices must be distinct and in [1, 256].
//
// Each shadow yields one byte per 8 pixel bytes, so the result holds
// k * (pixel bytes / 8) bytes, the length of the distributed secret.
func (d *Decoder) Decode(ctx context.Context, shadows []Shadow) ([]byte, error) {
	k := d.config.K
	if len(shadows) < k {
		return nil, fmt.Errorf("%w: got %d, need k = %d", ErrInsufficientShares, len(shadows), k)
	}
	if len(shadows) > k {
		log.Warnf("using the first %d of %d shadows", k, len(shadows))
		shadows = shadows[:k]
	}

	seed, err := checkConsistent(shadows)
	if err != nil {
		return nil, err
	}
	numBlocks := shadows[0].PayloadLen() / stego.BitsPerByte

	// shares[i][m] is shadow i's byte for block m
	shares := make([][]byte, k)
	xs := make([]int64, k)
	for i, s := range shadows {
		xs[i] = int64(s.ShadowIndex())
		shares[i] = make([]byte, numBlocks)
		if _, err := stego.NewReader(s.Bytes(), s.PayloadOffset()).Read(shares[i]); err != nil {
			return nil, fmt.Errorf("shadow %d: %w", xs[i], err)
		}
	}

	secret := make([]byte, numBlocks*k)
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range chunks(numBlocks, workers(d.config.Workers)) {
		g.Go(func() error {
			points := make([]poly.Point, k)
			for m := r[0]; m < r[1]; m++ {
				if m%4096 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				for i := range points {
					points[i] = poly.Point{X: xs[i], Y: int64(shares[i][m])}
				}
				if err := interpolateBlock(points, secret[m*k:(m+1)*k]); err != nil {
					return fmt.Errorf("block %d: %w", m, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mask.XOR(secret, secret, d.config.Mask.Generate(len(secret), seed))

	log.Infof("decoded %d bytes from %d blocks of shadows %v (seed=%d)", len(secret), numBlocks, xs, seed)
	return secret, nil
}

// interpolateBlock recovers the masked coefficients of one block into out
func interpolateBlock(points []poly.Point, out []byte) error {
	coeffs, err := poly.Solve(points, Modulus)
	if err != nil {
		return err
	}
	if len(coeffs) != len(out) {
		return fmt.Errorf("%w: got %d, want %d", ErrCoefficientCountMismatch, len(coeffs), len(out))
	}
	for i, v := range coeffs {
		if v > 255 {
			return fmt.Errorf("%w: coefficient %d is %d", ErrCorruptShares, i, v)
		}
		out[i] = byte(v)
	}
	return nil
}

// checkConsistent verifies that shadows come from one distribution and
// returns their common seed.
func checkConsistent(shadows []Shadow) (uint16, error) {
	seed := shadows[0].Seed()
	size := shadows[0].PayloadLen()
	seen := make(map[uint16]bool, len(shadows))

	for _, s := range shadows {
		if s.Seed() != seed {
			return 0, fmt.Errorf("%w: seeds %d and %d differ", ErrInconsistentShares, seed, s.Seed())
		}
		if s.PayloadLen() != size {
			return 0, fmt.Errorf("%w: payload lengths %d and %d differ", ErrInconsistentShares, size, s.PayloadLen())
		}
		if size == 0 || size%stego.BitsPerByte != 0 {
			return 0, fmt.Errorf("%w: payload length %d is not a positive multiple of %d", ErrInconsistentShares, size, stego.BitsPerByte)
		}
		idx := s.ShadowIndex()
		if idx == 0 || idx > MaxShadows {
			return 0, fmt.Errorf("%w: shadow index %d outside [1, %d]", ErrInconsistentShares, idx, MaxShadows)
		}
		if seen[idx] {
			return 0, fmt.Errorf("%w: shadow index %d appears twice", ErrInconsistentShares, idx)
		}
		seen[idx] = true
	}
	return seed, nil
}
