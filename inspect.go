package secretimage

import (
	"github.com/ppopth/secret-image/bmp"
	"github.com/ppopth/secret-image/stego"
)

// ShadowInfo is the sharing metadata read from one candidate image
type ShadowInfo struct {
	Path          string
	Seed          uint16
	ShadowIndex   uint16
	Width, Height int
	PayloadOffset int
	PayloadLen    int
	Capacity      int   // embeddable bytes
	Err           error // set when the file could not be read as a BMP
}

// Inspect reports the header fields of every candidate image in dir.
// Unreadable candidates are reported with Err set rather than failing.
func Inspect(dir string, opts ...Option) ([]ShadowInfo, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}

	paths, err := bmp.ListCandidates(dir, s.extension)
	if err != nil {
		return nil, err
	}

	infos := make([]ShadowInfo, 0, len(paths))
	for _, p := range paths {
		img, err := bmp.Load(p)
		if err != nil {
			log.Warnf("inspect: %s", err)
			infos = append(infos, ShadowInfo{Path: p, Err: err})
			continue
		}
		infos = append(infos, ShadowInfo{
			Path:          p,
			Seed:          img.Seed(),
			ShadowIndex:   img.ShadowIndex(),
			Width:         img.Width(),
			Height:        img.Height(),
			PayloadOffset: img.PayloadOffset(),
			PayloadLen:    img.PayloadLen(),
			Capacity:      stego.Capacity(img.Bytes(), img.PayloadOffset()),
		})
	}
	return infos, nil
}
