package translate

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// BenchmarkTranslate benchmarks a full translation into memory.
func BenchmarkTranslate(b *testing.B) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "checkout.md", []byte(checkoutSpec), 0o644); err != nil {
		b.Fatal(err)
	}
	tr, err := New(fs, WithClock(fixedClock))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tr.Translate(context.Background(), Request{Input: "checkout.md", Validate: true}); err != nil {
			b.Fatalf("Translate failed: %v", err)
		}
	}
}

// BenchmarkTranslateCached benchmarks translation with a warm build cache.
func BenchmarkTranslateCached(b *testing.B) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "checkout.md", []byte(checkoutSpec), 0o644); err != nil {
		b.Fatal(err)
	}
	tr, err := New(fs, WithClock(fixedClock), WithCache(NewCache()))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tr.Translate(context.Background(), Request{Input: "checkout.md"}); err != nil {
			b.Fatalf("Translate failed: %v", err)
		}
	}
}
