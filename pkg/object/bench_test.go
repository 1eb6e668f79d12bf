package object

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"testing"
)

func BenchmarkStoreWriteUniqueBlob(b *testing.B) {
	store := NewStore(filepath.Join(b.TempDir(), "store"))
	seed := []byte("0123456789abcdef0123456789abcdef")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		payload := []byte(fmt.Sprintf("blob-%d-%x", i, seed))
		if _, err := store.Write(TypeBlob, payload); err != nil {
			b.Fatalf("Write: %v", err)
		}
	}
}

// BenchmarkStoreWriteLarge benchmarks writing a 100KB blob to the store.
func BenchmarkStoreWriteLarge(b *testing.B) {
	s := NewStore(b.TempDir())
	buf := make([]byte, 100*1024)
	if _, err := rand.Read(buf); err != nil {
		b.Fatalf("rand.Read: %v", err)
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Write(TypeBlob, buf); err != nil {
			b.Fatalf("Write: %v", err)
		}
	}
}

func BenchmarkStoreReadBlob(b *testing.B) {
	store := NewStore(filepath.Join(b.TempDir(), "store"))
	payload := []byte("package main\n\nfunc main() { println(\"hello\") }\n")
	hash, err := store.Write(TypeBlob, payload)
	if err != nil {
		b.Fatalf("Write: %v", err)
	}

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		obj, err := store.Read(hash)
		if err != nil {
			b.Fatalf("Read: %v", err)
		}
		if obj.Type != TypeBlob {
			b.Fatalf("type = %q, want %q", obj.Type, TypeBlob)
		}
		if len(obj.Data) != len(payload) {
			b.Fatalf("len(data) = %d, want %d", len(obj.Data), len(payload))
		}
	}
}

var marshalTreeBenchmarkSink []byte

func BenchmarkMarshalTree(b *testing.B) {
	entries := make([]TreeEntry, 1000)
	for i := range entries {
		mode := TreeModeFile
		if i%10 == 0 {
			mode = TreeModeDir
		}
		name := fmt.Sprintf("entry-%04d", len(entries)-i)
		entries[i] = TreeEntry{Mode: mode, Name: name, Hash: HashObject(TypeBlob, []byte(name))}
	}
	tr := &TreeObj{Entries: entries}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, err := MarshalTree(tr)
		if err != nil {
			b.Fatalf("MarshalTree: %v", err)
		}
		marshalTreeBenchmarkSink = data
	}
}
