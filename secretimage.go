// Package secretimage hides a secret BMP image in n cover BMP images so that
// any k of the resulting shadows recover it.
//
// Distribute and Recover work on directories of candidate files; the share
// package does the arithmetic and the bmp package the file handling.
package secretimage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ppopth/secret-image/bmp"
	"github.com/ppopth/secret-image/mask"
	"github.com/ppopth/secret-image/share"
)

var log = logging.Logger("secretimage")

const DefaultExtension = ".bmp"

type settings struct {
	mask      mask.Generator
	seed      *uint16
	workers   int
	extension string
	outputDir string
}

type Option func(*settings) error

// WithSeed fixes the mask seed instead of drawing a random one
func WithSeed(seed uint16) Option {
	return func(s *settings) error {
		s.seed = &seed
		return nil
	}
}

// WithMask selects the mask generator by name
func WithMask(name string) Option {
	return func(s *settings) error {
		g, err := mask.New(name)
		if err != nil {
			return err
		}
		s.mask = g
		return nil
	}
}

// WithWorkers bounds the goroutines used for sharing
func WithWorkers(n int) Option {
	return func(s *settings) error {
		if n < 0 {
			return fmt.Errorf("secretimage: negative worker count %d", n)
		}
		s.workers = n
		return nil
	}
}

// WithExtension sets the file extension that marks candidate images
func WithExtension(ext string) Option {
	return func(s *settings) error {
		if ext == "" {
			return fmt.Errorf("secretimage: empty extension")
		}
		s.extension = ext
		return nil
	}
}

// WithOutputDir writes shadows into dir instead of overwriting the covers
func WithOutputDir(dir string) Option {
	return func(s *settings) error {
		s.outputDir = dir
		return nil
	}
}

func newSettings(opts []Option) (*settings, error) {
	s := &settings{mask: mask.Default, extension: DefaultExtension}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DistributeResult describes a finished distribution
type DistributeResult struct {
	RunID       string
	Seed        uint16
	Shadows     []string // written files, shadows[j] has index j+1
	Blocks      int
	Corrections int
}

// Distribute shares the pixels of the BMP at secretPath across the first n
// candidate images in dir, in name order. n == 0 uses every candidate. The
// secret itself is never used as a cover. Every cover must have exactly 8
// pixel bytes per k secret bytes. Covers are overwritten in place unless
// WithOutputDir is given.
func Distribute(ctx context.Context, k, n int, secretPath, dir string, opts ...Option) (*DistributeResult, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	runID := uuid.New().String()
	rlog := log.With("run", runID)

	secret, err := bmp.Load(secretPath)
	if err != nil {
		return nil, err
	}

	candidates, err := listCandidates(dir, s.extension, secretPath)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		n = len(candidates)
	}
	if len(candidates) < n {
		return nil, fmt.Errorf("%w: %d covers in %s, need n = %d", share.ErrInvalidParameters, len(candidates), dir, n)
	}
	if len(candidates) > n {
		rlog.Infof("using %d of %d covers", n, len(candidates))
	}

	enc, err := share.NewEncoder(share.EncoderConfig{K: k, N: n, Mask: s.mask, Seed: s.seed, Workers: s.workers})
	if err != nil {
		return nil, err
	}

	covers, err := loadAll(candidates[:n])
	if err != nil {
		return nil, err
	}

	rlog.Infow("distributing", "secret", secretPath, "k", k, "n", n, "mask", s.mask.Name(), "bytes", secret.PayloadLen())
	res, err := enc.Encode(ctx, secret.Pixels(), asShadows(covers))
	if err != nil {
		return nil, err
	}

	out := &DistributeResult{RunID: runID, Seed: res.Seed, Blocks: res.Blocks, Corrections: res.Corrections}
	for _, c := range covers {
		path := c.Path()
		if s.outputDir != "" {
			path = filepath.Join(s.outputDir, filepath.Base(path))
		}
		if err := c.SaveAs(path); err != nil {
			return nil, err
		}
		out.Shadows = append(out.Shadows, path)
	}

	if res.Corrections > 0 {
		rlog.Warnf("%d overflow corrections: the recovered image will differ from the secret in up to %d pixel(s)", res.Corrections, res.Corrections)
	}
	rlog.Infow("distributed", "seed", res.Seed, "shadows", len(out.Shadows))
	return out, nil
}

// RecoverResult describes a finished recovery
type RecoverResult struct {
	Output  string
	Seed    uint16
	Shadows []string // the k shadows used
	Bytes   int
}

// Recover reconstructs a secret from the first k candidate shadows in dir
// and writes it to outPath. The header is taken from the first shadow with
// its reserved fields cleared.
func Recover(ctx context.Context, k int, outPath, dir string, opts ...Option) (*RecoverResult, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	runID := uuid.New().String()
	rlog := log.With("run", runID)

	dec, err := share.NewDecoder(share.DecoderConfig{K: k, Mask: s.mask, Workers: s.workers})
	if err != nil {
		return nil, err
	}

	candidates, err := listCandidates(dir, s.extension, outPath)
	if err != nil {
		return nil, err
	}
	if len(candidates) < k {
		return nil, fmt.Errorf("%w: %d shadows in %s, need k = %d", share.ErrInsufficientShares, len(candidates), dir, k)
	}
	if len(candidates) > k {
		rlog.Warnf("ignoring %d extra shadows in %s", len(candidates)-k, dir)
	}

	shadows, err := loadAll(candidates[:k])
	if err != nil {
		return nil, err
	}

	pixels, err := dec.Decode(ctx, asShadows(shadows))
	if err != nil {
		return nil, err
	}

	img := bmp.NewFromReference(shadows[0], pixels)
	if err := img.SaveAs(outPath); err != nil {
		return nil, err
	}

	rlog.Infow("recovered", "output", outPath, "bytes", len(pixels), "seed", shadows[0].Seed())
	return &RecoverResult{Output: outPath, Seed: shadows[0].Seed(), Shadows: candidates[:k], Bytes: len(pixels)}, nil
}

// listCandidates lists dir, leaving out exclude when it lives there
func listCandidates(dir, ext, exclude string) ([]string, error) {
	paths, err := bmp.ListCandidates(dir, ext)
	if err != nil {
		return nil, err
	}

	ex, err := filepath.Abs(exclude)
	if err != nil {
		return paths, nil
	}
	out := paths[:0]
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil && abs == ex {
			log.Debugf("skipping %s", p)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func loadAll(paths []string) ([]*bmp.Image, error) {
	imgs := make([]*bmp.Image, len(paths))
	for i, p := range paths {
		img, err := bmp.Load(p)
		if err != nil {
			return nil, err
		}
		imgs[i] = img
	}
	return imgs, nil
}

func asShadows(imgs []*bmp.Image) []share.Shadow {
	out := make([]share.Shadow, len(imgs))
	for i, img := range imgs {
		out[i] = img
	}
	return out
}
