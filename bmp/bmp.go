// Package bmp reads, patches and writes the few BMP header fields that
// shadow images use. An Image owns one raw byte buffer holding both header
// and pixel data; every accessor and patch works directly on that buffer.
//
// The two reserved header words carry sharing metadata:
//
//	0x06  uint16  seed of the mask stream
//	0x08  uint16  1-based shadow index
package bmp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("bmp")

// Header field offsets, all little-endian
const (
	offMagic         = 0x00
	offFileSize      = 0x02
	offSeed          = 0x06
	offShadowIndex   = 0x08
	offPayloadOffset = 0x0A
	offWidth         = 0x12
	offHeight        = 0x16
	offPayloadSize   = 0x22

	// HeaderSize is the size of the file header plus a BITMAPINFOHEADER
	HeaderSize = 54
)

var (
	ErrIO           = errors.New("bmp: i/o error")
	ErrInvalidImage = errors.New("bmp: invalid image")
)

// Image is a BMP file held in memory
type Image struct {
	path string
	data []byte
}

// Parse wraps data as an Image. The Image takes ownership of data.
func Parse(data []byte) (*Image, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than a %d-byte header", ErrInvalidImage, len(data), HeaderSize)
	}
	if data[offMagic] != 'B' || data[offMagic+1] != 'M' {
		return nil, fmt.Errorf("%w: missing BM signature", ErrInvalidImage)
	}

	img := &Image{data: data}
	if off := img.PayloadOffset(); off < HeaderSize || off > len(data) {
		return nil, fmt.Errorf("%w: pixel offset %d outside [%d, %d]", ErrInvalidImage, off, HeaderSize, len(data))
	}
	return img, nil
}

// Load reads and parses the BMP file at path
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	img, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	img.path = path

	log.Debugf("loaded %s: %d bytes, pixels at %d, seed %d, shadow %d", path, len(data), img.PayloadOffset(), img.Seed(), img.ShadowIndex())
	return img, nil
}

// Save writes the image to its own path
func (img *Image) Save() error {
	if img.path == "" {
		return fmt.Errorf("%w: image has no path", ErrIO)
	}
	return img.SaveAs(img.path)
}

// SaveAs writes the image to path and makes path the image's path
func (img *Image) SaveAs(path string) error {
	if err := os.WriteFile(path, img.data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	img.path = path
	log.Debugf("saved %s: %d bytes", path, len(img.data))
	return nil
}

// Path returns the file the image was loaded from or last saved to
func (img *Image) Path() string { return img.path }

// Bytes returns the whole buffer, header included. Writes through the
// returned slice modify the image.
func (img *Image) Bytes() []byte { return img.data }

// Pixels returns the pixel data following the payload offset
func (img *Image) Pixels() []byte { return img.data[img.PayloadOffset():] }

// PayloadLen is the number of pixel bytes
func (img *Image) PayloadLen() int { return len(img.data) - img.PayloadOffset() }

// Seed is the mask seed stored in the first reserved header field
func (img *Image) Seed() uint16 { return binary.LittleEndian.Uint16(img.data[offSeed:]) }

// ShadowIndex is the share's x-coordinate, 0 for a plain cover
func (img *Image) ShadowIndex() uint16 { return binary.LittleEndian.Uint16(img.data[offShadowIndex:]) }

// FileSize is the total size recorded in the header
func (img *Image) FileSize() uint32 { return binary.LittleEndian.Uint32(img.data[offFileSize:]) }

// Width in pixels
func (img *Image) Width() int { return int(int32(binary.LittleEndian.Uint32(img.data[offWidth:]))) }

// Height in pixels, negative for top-down images
func (img *Image) Height() int { return int(int32(binary.LittleEndian.Uint32(img.data[offHeight:]))) }

// PayloadSize is the pixel data size recorded in the header
func (img *Image) PayloadSize() uint32 { return binary.LittleEndian.Uint32(img.data[offPayloadSize:]) }

// PayloadOffset is where pixel data begins
func (img *Image) PayloadOffset() int {
	return int(binary.LittleEndian.Uint32(img.data[offPayloadOffset:]))
}

// RowStride is the padded length of one 8-bit pixel row
func (img *Image) RowStride() int {
	return ((img.Width()*8 + 31) / 32) * 4
}

// SetSeed stores seed in the first reserved header field
func (img *Image) SetSeed(seed uint16) {
	binary.LittleEndian.PutUint16(img.data[offSeed:], seed)
}

// SetShadowIndex stores index in the second reserved header field
func (img *Image) SetShadowIndex(index uint16) {
	binary.LittleEndian.PutUint16(img.data[offShadowIndex:], index)
}

// SetFileSize patches the total size field
func (img *Image) SetFileSize(size uint32) {
	binary.LittleEndian.PutUint32(img.data[offFileSize:], size)
}

// SetHeight patches the height field
func (img *Image) SetHeight(height int) {
	binary.LittleEndian.PutUint32(img.data[offHeight:], uint32(int32(height)))
}

// SetPayloadSize patches the pixel data size field
func (img *Image) SetPayloadSize(size uint32) {
	binary.LittleEndian.PutUint32(img.data[offPayloadSize:], size)
}

// New returns a blank 8-bit grayscale image of the given size with a
// 256-entry palette. Rows are padded to RowStride.
func New(width, height int) *Image {
	const paletteSize = 256 * 4
	stride := ((width*8 + 31) / 32) * 4
	offset := HeaderSize + paletteSize
	data := make([]byte, offset+stride*height)

	data[0], data[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(data[offFileSize:], uint32(len(data)))
	binary.LittleEndian.PutUint32(data[offPayloadOffset:], uint32(offset))
	binary.LittleEndian.PutUint32(data[0x0E:], 40) // BITMAPINFOHEADER
	binary.LittleEndian.PutUint32(data[offWidth:], uint32(width))
	binary.LittleEndian.PutUint32(data[offHeight:], uint32(height))
	binary.LittleEndian.PutUint16(data[0x1A:], 1) // planes
	binary.LittleEndian.PutUint16(data[0x1C:], 8) // bits per pixel
	binary.LittleEndian.PutUint32(data[offPayloadSize:], uint32(stride*height))
	binary.LittleEndian.PutUint32(data[0x2E:], 256) // colors used

	for i := 0; i < 256; i++ {
		p := HeaderSize + 4*i
		data[p], data[p+1], data[p+2] = byte(i), byte(i), byte(i)
	}
	return &Image{data: data}
}

// NewFromReference builds an image carrying pixels, with its header copied
// from ref. The reserved seed and shadow words are cleared. When the pixel
// count differs from ref's, the file size, payload size and height fields are
// rewritten to describe the new pixel data.
func NewFromReference(ref *Image, pixels []byte) *Image {
	offset := ref.PayloadOffset()
	data := make([]byte, offset+len(pixels))
	copy(data, ref.data[:offset])
	copy(data[offset:], pixels)

	img := &Image{data: data}
	img.SetSeed(0)
	img.SetShadowIndex(0)

	if len(pixels) != ref.PayloadLen() {
		img.SetFileSize(uint32(len(data)))
		img.SetPayloadSize(uint32(len(pixels)))
		if stride := ref.RowStride(); stride > 0 {
			img.SetHeight(len(pixels) / stride)
		}
		log.Debugf("rebuilt header from %s: %d pixel bytes, height %d", ref.path, len(pixels), img.Height())
	}
	return img
}

// ListCandidates returns the regular files in dir whose name ends in ext
// (case-insensitively), sorted by name.
func ListCandidates(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	ext = strings.ToLower(ext)
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
