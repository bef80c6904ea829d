package share

import (
	"context"
	"fmt"
	"testing"

	"github.com/ppopth/secret-image/bmp"
)

func BenchmarkEncode(b *testing.B) {
	for _, k := range []int{2, 4, 8} {
		const n = 8
		secret := make([]byte, 64*1024)
		for i := range secret {
			secret[i] = byte(i % 256)
		}
		blocks := len(secret) / k

		covers := make([]Shadow, n)
		for j := range covers {
			covers[j] = bmp.New(8, blocks)
		}
		enc, err := NewEncoder(EncoderConfig{K: k, N: n, Seed: seedPtr(1)})
		if err != nil {
			b.Fatal(err)
		}

		b.Run(fmt.Sprintf("k=%d", k), func(b *testing.B) {
			b.SetBytes(int64(len(secret)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := enc.Encode(context.Background(), secret, covers); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDecode(b *testing.B) {
	for _, k := range []int{2, 4, 8} {
		secret := make([]byte, 64*1024)
		blocks := len(secret) / k

		covers := make([]Shadow, k)
		for j := range covers {
			covers[j] = bmp.New(8, blocks)
		}
		enc, err := NewEncoder(EncoderConfig{K: k, N: k, Seed: seedPtr(1)})
		if err != nil {
			b.Fatal(err)
		}
		if _, err := enc.Encode(context.Background(), secret, covers); err != nil {
			b.Fatal(err)
		}
		dec, err := NewDecoder(DecoderConfig{K: k})
		if err != nil {
			b.Fatal(err)
		}

		b.Run(fmt.Sprintf("k=%d", k), func(b *testing.B) {
			b.SetBytes(int64(len(secret)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := dec.Decode(context.Background(), covers); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
