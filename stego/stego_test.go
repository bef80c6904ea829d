package stego

import (
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEmbedExtractAllValues embeds every byte value over every prior bit
// pattern of a single cover byte repeated eight times, plus random covers.
func TestEmbedExtractAllValues(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for v := 0; v < 256; v++ {
		for pattern := 0; pattern < 256; pattern++ {
			cover := make([]byte, 10)
			for i := range cover {
				cover[i] = byte(pattern)
			}
			checkRoundTrip(t, cover, 1, byte(v))
		}

		cover := make([]byte, 8)
		rng.Read(cover)
		checkRoundTrip(t, cover, 0, byte(v))
	}
}

func checkRoundTrip(t *testing.T, cover []byte, offset int, v byte) {
	t.Helper()
	before := append([]byte(nil), cover...)

	require.NoError(t, Embed(cover, offset, v))
	got, err := Extract(cover, offset)
	require.NoError(t, err)
	require.Equal(t, v, got)

	for i := range cover {
		if i < offset || i >= offset+BitsPerByte {
			require.Equal(t, before[i], cover[i], "byte %d outside the window changed", i)
			continue
		}
		require.Equal(t, before[i]&^1, cover[i]&^1, "high bits of byte %d changed", i)
	}
}

func TestEmbedBitOrder(t *testing.T) {
	cover := make([]byte, 8)
	require.NoError(t, Embed(cover, 0, 0b10110001))
	assert.Equal(t, []byte{1, 0, 1, 1, 0, 0, 0, 1}, cover)
}

func TestOutOfSpace(t *testing.T) {
	cover := make([]byte, 12)

	assert.ErrorIs(t, Embed(cover, 5, 0xff), ErrOutOfSpace)
	assert.NoError(t, Embed(cover, 4, 0xff))
	assert.ErrorIs(t, Embed(cover, -1, 0xff), ErrOutOfSpace)

	_, err := Extract(cover, 6)
	assert.ErrorIs(t, err, ErrOutOfSpace)
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		length, offset, want int
	}{
		{0, 0, 0},
		{54, 54, 0},
		{62, 54, 1},
		{69, 54, 1},
		{70, 54, 2},
		{54 + 8*100, 54, 100},
		{10, 20, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Capacity(make([]byte, tt.length), tt.offset), "len %d offset %d", tt.length, tt.offset)
	}
}

func TestWriterReader(t *testing.T) {
	const offset = 54
	cover := make([]byte, offset+8*5+3)
	rand.New(rand.NewSource(9)).Read(cover)
	header := append([]byte(nil), cover[:offset]...)

	w := NewWriter(cover, offset)
	assert.Equal(t, 5, w.Remaining())
	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 0, w.Remaining())
	assert.ErrorIs(t, w.WriteByte('!'), ErrOutOfSpace)

	assert.Equal(t, header, cover[:offset], "header bytes must not change")

	r := NewReader(cover, offset)
	buf := make([]byte, 5)
	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	_, err = r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBlocks(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7}

	var got [][]byte
	var idx []int
	for i, b := range Blocks(data, 3) {
		idx = append(idx, i)
		got = append(got, b)
	}
	assert.Equal(t, []int{0, 1}, idx)
	assert.Equal(t, [][]byte{{0, 1, 2}, {3, 4, 5}}, got)

	// Restartable
	count := 0
	for range Blocks(data, 4) {
		count++
	}
	for range Blocks(data, 4) {
		count++
	}
	assert.Equal(t, 4, count)

	// Early break
	for i := range Blocks(data, 1) {
		if i == 2 {
			break
		}
	}

	for range Blocks(data, 0) {
		t.Fatal("zero block size must yield nothing")
	}
}
