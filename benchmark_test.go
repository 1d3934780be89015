package php2json

import (
	"os"
	"path/filepath"
	"testing"
)

func BenchmarkUnserialize(b *testing.B) {
	data, err := os.ReadFile(filepath.Join("testdata", "session.txt"))
	if err != nil {
		b.Fatalf("read: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Unserialize(data, nil); err != nil {
			b.Fatalf("unserialize: %v", err)
		}
	}
}

func BenchmarkFormat(b *testing.B) {
	v, err := DecodeFile(filepath.Join("testdata", "session.txt"), nil)
	if err != nil {
		b.Fatalf("decode: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Format(v, nil); err != nil {
			b.Fatalf("format: %v", err)
		}
	}
}
