package share

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ppopth/secret-image/field"
	"github.com/ppopth/secret-image/mask"
	"github.com/ppopth/secret-image/poly"
	"github.com/ppopth/secret-image/stego"
)

// EncoderConfig holds the parameters of a distribution
type EncoderConfig struct {
	K int // threshold, shares needed to recover
	N int // number of shadows written

	// Mask generates the mask stream. Nil selects mask.Default.
	Mask mask.Generator
	// Seed fixes the mask seed. Nil draws a random one per Encode call.
	Seed *uint16
	// Workers bounds parallel block evaluation and shadow writes. Zero uses GOMAXPROCS.
	Workers int
}

// Encoder splits secrets into shares
type Encoder struct {
	config EncoderConfig
	xs     []field.Element // evaluation points 1..n
}

// EncodeResult summarizes one distribution
type EncodeResult struct {
	Seed        uint16
	Blocks      int // polynomials evaluated, one embedded byte each per shadow
	Corrections int // coefficient decrements made to avoid an evaluation of 256
}

// NewEncoder validates config and returns an Encoder
func NewEncoder(config EncoderConfig) (*Encoder, error) {
	if config.K < MinThreshold || config.K > MaxThreshold {
		return nil, fmt.Errorf("%w: k = %d, must be in [%d, %d]", ErrInvalidParameters, config.K, MinThreshold, MaxThreshold)
	}
	if config.N < config.K || config.N > MaxShadows {
		return nil, fmt.Errorf("%w: n = %d, must be in [k=%d, %d]", ErrInvalidParameters, config.N, config.K, MaxShadows)
	}
	if config.Mask == nil {
		config.Mask = mask.Default
	}

	xs := make([]field.Element, config.N)
	for i := range xs {
		xs[i] = sharingField.Reduce(int64(i + 1))
	}

	return &Encoder{config: config, xs: xs}, nil
}

// Encode distributes secret over shadows, which must number exactly n and
// each hold exactly 8 pixel bytes per k secret bytes. shadows[j] receives
// index j+1. Every check runs before any shadow is
// modified; a failure while embedding leaves earlier shadows written.
func (e *Encoder) Encode(ctx context.Context, secret []byte, shadows []Shadow) (*EncodeResult, error) {
	k, n := e.config.K, e.config.N

	if len(shadows) != n {
		return nil, fmt.Errorf("%w: got %d shadows for n = %d", ErrInvalidParameters, len(shadows), n)
	}
	if len(secret) == 0 || len(secret)%k != 0 {
		return nil, fmt.Errorf("%w: %d bytes, k = %d", ErrInvalidSecretSize, len(secret), k)
	}
	numBlocks := len(secret) / k
	// The block count is not stored in the shadow, so the decoder derives it
	// from the payload length. Only exactly sized covers round-trip.
	want := numBlocks * stego.BitsPerByte
	for j, s := range shadows {
		switch size := s.PayloadLen(); {
		case size < want:
			return nil, fmt.Errorf("%w: shadow %d has %d pixel bytes, need %d",
				ErrShadowTooSmall, j+1, size, want)
		case size > want:
			return nil, fmt.Errorf("%w: shadow %d has %d pixel bytes, need exactly %d",
				ErrShadowSizeMismatch, j+1, size, want)
		}
	}

	seed, err := e.seed()
	if err != nil {
		return nil, err
	}

	masked := make([]byte, len(secret))
	mask.XOR(masked, secret, e.config.Mask.Generate(len(secret), seed))

	// evals[j][m] is f_m(j+1)
	evals := make([][]byte, n)
	for j := range evals {
		evals[j] = make([]byte, numBlocks)
	}

	var corrections atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range chunks(numBlocks, workers(e.config.Workers)) {
		g.Go(func() error {
			for i, coeffs := range stego.Blocks(masked[r[0]*k:r[1]*k], k) {
				m := r[0] + i
				if i%4096 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if c := e.evaluateBlock(coeffs, evals, m); c > 0 {
					corrections.Add(int64(c))
					log.Warnf("block %d: evaluation hit %d, decremented coefficients %d time(s)", m, Modulus-1, c)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers(e.config.Workers))
	for j, s := range shadows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.SetSeed(seed)
			s.SetShadowIndex(uint16(j + 1))
			w := stego.NewWriter(s.Bytes(), s.PayloadOffset())
			if _, err := w.Write(evals[j]); err != nil {
				return fmt.Errorf("shadow %d: %w", j+1, err)
			}
			log.Debugf("embedded %d bytes in shadow %d", numBlocks, j+1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &EncodeResult{Seed: seed, Blocks: numBlocks, Corrections: int(corrections.Load())}
	log.Infof("encoded %d bytes as %d blocks into %d shadows (k=%d, seed=%d, corrections=%d)",
		len(secret), numBlocks, n, k, seed, res.Corrections)
	return res, nil
}

// evaluateBlock evaluates the polynomial with coefficients coeffs at every
// x in 1..n and stores f(j+1) in evals[j][m]. If any evaluation is 256, the
// first non-zero coefficient is decremented in place and all evaluations
// start over. It returns the number of decrements.
func (e *Encoder) evaluateBlock(coeffs []byte, evals [][]byte, m int) int {
	elems := make([]field.Element, len(coeffs))
	corrections := 0

	for {
		for i, c := range coeffs {
			elems[i] = sharingField.Reduce(int64(c))
		}

		overflow := false
		for j, x := range e.xs {
			y := poly.Evaluate(elems, x).Int64()
			if y == Modulus-1 {
				overflow = true
				break
			}
			evals[j][m] = byte(y)
		}
		if !overflow {
			return corrections
		}

		for i, c := range coeffs {
			if c != 0 {
				coeffs[i] = c - 1
				break
			}
		}
		corrections++
	}
}

func (e *Encoder) seed() (uint16, error) {
	if e.config.Seed != nil {
		return *e.config.Seed, nil
	}
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("share: drawing seed: %w", err)
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}
