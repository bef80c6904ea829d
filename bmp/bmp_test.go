package bmp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	img := New(10, 4)

	assert.Equal(t, 10, img.Width())
	assert.Equal(t, 4, img.Height())
	assert.Equal(t, 12, img.RowStride())
	assert.Equal(t, HeaderSize+1024, img.PayloadOffset())
	assert.Equal(t, 48, img.PayloadLen())
	assert.Equal(t, uint32(48), img.PayloadSize())
	assert.Equal(t, uint32(len(img.Bytes())), img.FileSize())
	assert.Len(t, img.Pixels(), 48)

	parsed, err := Parse(img.Bytes())
	require.NoError(t, err)
	assert.Equal(t, img.PayloadOffset(), parsed.PayloadOffset())
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data func() []byte
	}{
		{"short", func() []byte { return []byte("BM") }},
		{"bad magic", func() []byte {
			b := New(4, 4).Bytes()
			b[0] = 'X'
			return b
		}},
		{"offset past end", func() []byte {
			b := New(4, 4).Bytes()
			b[offPayloadOffset+2] = 0xff
			return b
		}},
		{"offset inside header", func() []byte {
			b := New(4, 4).Bytes()
			b[offPayloadOffset], b[offPayloadOffset+1] = 10, 0
			return b
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data())
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestHeaderPatches(t *testing.T) {
	img := New(8, 8)

	img.SetSeed(0xBEEF)
	img.SetShadowIndex(7)
	img.SetFileSize(123456)
	img.SetHeight(-3)
	img.SetPayloadSize(99)

	assert.Equal(t, uint16(0xBEEF), img.Seed())
	assert.Equal(t, uint16(7), img.ShadowIndex())
	assert.Equal(t, uint32(123456), img.FileSize())
	assert.Equal(t, -3, img.Height())
	assert.Equal(t, uint32(99), img.PayloadSize())

	// Little-endian placement
	b := img.Bytes()
	assert.Equal(t, []byte{0xEF, 0xBE, 7, 0}, b[offSeed:offSeed+4])
	assert.Equal(t, 8, img.Width(), "width must not be touched")
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cover.bmp")

	img := New(16, 2)
	img.Pixels()[5] = 200
	img.SetSeed(42)
	require.NoError(t, img.SaveAs(path))
	assert.Equal(t, path, img.Path())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, img.Bytes(), loaded.Bytes())
	assert.Equal(t, uint16(42), loaded.Seed())

	loaded.SetShadowIndex(3)
	require.NoError(t, loaded.Save())
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), again.ShadowIndex())

	_, err = Load(filepath.Join(dir, "missing.bmp"))
	assert.ErrorIs(t, err, ErrIO)

	assert.ErrorIs(t, New(1, 1).Save(), ErrIO)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.bmp"), []byte("not a bitmap at all"), 0o644))
	_, err = Load(filepath.Join(dir, "junk.bmp"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestNewFromReference(t *testing.T) {
	ref := New(8, 10)
	ref.SetSeed(11)
	ref.SetShadowIndex(2)

	t.Run("same size", func(t *testing.T) {
		pixels := make([]byte, ref.PayloadLen())
		pixels[0] = 9
		img := NewFromReference(ref, pixels)

		assert.Equal(t, uint16(0), img.Seed())
		assert.Equal(t, uint16(0), img.ShadowIndex())
		assert.Equal(t, ref.Height(), img.Height())
		assert.Equal(t, ref.FileSize(), img.FileSize())
		assert.Equal(t, pixels, img.Pixels())
		assert.Equal(t, uint16(11), ref.Seed(), "reference must not change")
	})

	t.Run("smaller", func(t *testing.T) {
		pixels := make([]byte, 40)
		img := NewFromReference(ref, pixels)

		assert.Equal(t, 40, img.PayloadLen())
		assert.Equal(t, uint32(ref.PayloadOffset()+40), img.FileSize())
		assert.Equal(t, uint32(40), img.PayloadSize())
		assert.Equal(t, 5, img.Height()) // 40 / stride 8
		assert.Equal(t, ref.Width(), img.Width())
	})
}

func TestListCandidates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.bmp", "a.BMP", "b.bmp", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.bmp"), 0o755))

	got, err := ListCandidates(dir, ".bmp")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.BMP"),
		filepath.Join(dir, "b.bmp"),
		filepath.Join(dir, "c.bmp"),
	}, got)

	_, err = ListCandidates(filepath.Join(dir, "nope"), ".bmp")
	assert.ErrorIs(t, err, ErrIO)
}
