// Package stego hides bytes in the least significant bits of a cover buffer.
//
// One payload byte occupies eight consecutive cover bytes, most significant
// bit first. Only bit 0 of each cover byte is touched.
package stego

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

// BitsPerByte is the number of cover bytes needed to carry one payload byte
const BitsPerByte = 8

// ErrOutOfSpace is returned when a write would run past the end of the cover
var ErrOutOfSpace = errors.New("stego: cover out of space")

// Embed writes value into the LSBs of cover[offset : offset+8]
func Embed(cover []byte, offset int, value byte) error {
	if offset < 0 || offset+BitsPerByte > len(cover) {
		return fmt.Errorf("%w: offset %d needs %d bytes, cover has %d", ErrOutOfSpace, offset, BitsPerByte, len(cover))
	}

	for bit := 0; bit < BitsPerByte; bit++ {
		b := (value >> (7 - bit)) & 1
		cover[offset+bit] = cover[offset+bit]&^1 | b
	}
	return nil
}

// Extract reads the byte stored in the LSBs of cover[offset : offset+8]
func Extract(cover []byte, offset int) (byte, error) {
	if offset < 0 || offset+BitsPerByte > len(cover) {
		return 0, fmt.Errorf("%w: offset %d needs %d bytes, cover has %d", ErrOutOfSpace, offset, BitsPerByte, len(cover))
	}

	var value byte
	for bit := 0; bit < BitsPerByte; bit++ {
		value = value<<1 | cover[offset+bit]&1
	}
	return value, nil
}

// Capacity returns how many payload bytes fit in cover after offset
func Capacity(cover []byte, offset int) int {
	if offset < 0 || offset >= len(cover) {
		return 0
	}
	return (len(cover) - offset) / BitsPerByte
}

// Writer embeds a byte stream into a cover, advancing a cursor that starts
// at the payload offset. A Writer owns its cover for its lifetime.
type Writer struct {
	cover  []byte
	cursor int
}

// NewWriter returns a Writer whose first byte lands at offset
func NewWriter(cover []byte, offset int) *Writer {
	return &Writer{cover: cover, cursor: offset}
}

// WriteByte embeds c at the cursor
func (w *Writer) WriteByte(c byte) error {
	if err := Embed(w.cover, w.cursor, c); err != nil {
		return err
	}
	w.cursor += BitsPerByte
	return nil
}

// Write embeds p byte by byte. It stops at the first byte that does not fit.
func (w *Writer) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := w.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Remaining returns how many more bytes the Writer can embed
func (w *Writer) Remaining() int {
	return Capacity(w.cover, w.cursor)
}

// Reader extracts a byte stream from a cover starting at the payload offset
type Reader struct {
	cover  []byte
	cursor int
}

// NewReader returns a Reader whose first byte comes from offset
func NewReader(cover []byte, offset int) *Reader {
	return &Reader{cover: cover, cursor: offset}
}

// ReadByte extracts the byte at the cursor, or io.EOF once fewer than eight
// cover bytes remain.
func (r *Reader) ReadByte() (byte, error) {
	if r.cursor < 0 || r.cursor+BitsPerByte > len(r.cover) {
		return 0, io.EOF
	}
	c, err := Extract(r.cover, r.cursor)
	if err != nil {
		return 0, err
	}
	r.cursor += BitsPerByte
	return c, nil
}

// Read fills p with extracted bytes
func (r *Reader) Read(p []byte) (int, error) {
	for i := range p {
		c, err := r.ReadByte()
		if err != nil {
			return i, err
		}
		p[i] = c
	}
	return len(p), nil
}

// Blocks yields consecutive size-byte slices of data along with their index.
// A trailing partial block is not yielded. The sequence can be ranged over
// any number of times; each yielded slice aliases data.
func Blocks(data []byte, size int) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		if size <= 0 {
			return
		}
		for i := 0; (i+1)*size <= len(data); i++ {
			if !yield(i, data[i*size:(i+1)*size:(i+1)*size]) {
				return
			}
		}
	}
}
