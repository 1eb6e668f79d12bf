package object

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zlib"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir)
}

// writeRawObject places arbitrary compressed bytes at the path for h.
func writeRawObject(t *testing.T, s *Store, h Hash, envelope []byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(envelope); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	writeFileAt(t, s.objectPath(h), buf.Bytes())
}

func writeFileAt(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	os.Remove(path)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestStoreWriteRead(t *testing.T) {
	s := tempStore(t)
	data := []byte("hello world")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	obj, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if obj.Type != TypeBlob {
		t.Errorf("Type: got %q, want %q", obj.Type, TypeBlob)
	}
	if !bytes.Equal(obj.Data, data) {
		t.Errorf("Data: got %q, want %q", obj.Data, data)
	}
}

func TestStoreWriteHelloDigest(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("hello\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, want := h.String(), "ce013625030ba8dba906f756967f9e9ca394464a"; got != want {
		t.Errorf("hash = %s, want %s", got, want)
	}
}

func TestStoreFanoutLayout(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("fanout test"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	hex := h.String()
	objPath := filepath.Join(s.root, "objects", hex[:2], hex[2:])
	raw, err := os.ReadFile(objPath)
	if err != nil {
		t.Fatalf("expected fan-out file at %s: %v", objPath, err)
	}

	// The file is a plain zlib stream of the envelope.
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	envelope, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if want := []byte("blob 11\x00fanout test"); !bytes.Equal(envelope, want) {
		t.Errorf("envelope = %q, want %q", envelope, want)
	}

	entries, err := os.ReadDir(filepath.Dir(objPath))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("fan-out dir has %d entries, want 1 (temp files left behind?)", len(entries))
	}
}

func TestStoreIdempotentWrite(t *testing.T) {
	s := tempStore(t)
	data := []byte("duplicate")
	h1, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write 1: %v", err)
	}
	first, err := os.ReadFile(s.objectPath(h1))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	h2, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("same content produced different hashes: %s vs %s", h1, h2)
	}
	second, err := os.ReadFile(s.objectPath(h2))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("rewriting the same object changed its on-disk bytes")
	}
}

func TestStoreWriteReplacesDamagedFile(t *testing.T) {
	s := tempStore(t)
	data := []byte("repair me")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	writeFileAt(t, s.objectPath(h), []byte("garbage"))

	if _, err := s.Write(TypeBlob, data); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	obj, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read after rewrite: %v", err)
	}
	if !bytes.Equal(obj.Data, data) {
		t.Errorf("Data = %q, want %q", obj.Data, data)
	}
}

func TestStoreHas(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("exists"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.Has(h) {
		t.Error("Has returned false for existing object")
	}
	if s.Has(HashObject(TypeBlob, []byte("missing"))) {
		t.Error("Has returned true for non-existing object")
	}
}

func TestStoreReadMissing(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("soon gone"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := os.Remove(s.objectPath(h)); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	_, err = s.Read(h)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read error = %v, want ErrNotFound", err)
	}
	var objErr *Error
	if !errors.As(err, &objErr) {
		t.Fatalf("Read error %T is not *Error", err)
	}
	if objErr.Hash != h || objErr.Path != s.objectPath(h) {
		t.Errorf("error context = (%s, %s), want (%s, %s)", objErr.Hash, objErr.Path, h, s.objectPath(h))
	}
}

func TestStoreReadCorrupt(t *testing.T) {
	s := tempStore(t)
	h := HashObject(TypeBlob, []byte("corrupt"))
	writeFileAt(t, s.objectPath(h), []byte("this is not zlib"))

	if _, err := s.Read(h); !errors.Is(err, ErrCorruptObject) {
		t.Errorf("Read error = %v, want ErrCorruptObject", err)
	}
}

func TestStoreReadMalformedHeader(t *testing.T) {
	s := tempStore(t)
	h := HashObject(TypeBlob, []byte("malformed"))
	writeRawObject(t, s, h, []byte("blob\x00payload"))

	_, err := s.Read(h)
	if !errors.Is(err, ErrCorruptObject) {
		t.Errorf("Read error = %v, want ErrCorruptObject", err)
	}
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Read error = %v, want ErrMalformedHeader", err)
	}
}

func TestStoreReadTruncated(t *testing.T) {
	s := tempStore(t)
	h := HashObject(TypeBlob, []byte("truncated"))
	writeRawObject(t, s, h, []byte("blob 10\x00abc"))

	if _, err := s.Read(h); !errors.Is(err, ErrTruncatedObject) {
		t.Errorf("Read error = %v, want ErrTruncatedObject", err)
	}
}

func TestStoreReadTrailingData(t *testing.T) {
	s := tempStore(t)
	h := HashObject(TypeBlob, []byte("long"))
	writeRawObject(t, s, h, []byte("blob 2\x00abcdef"))

	if _, err := s.Read(h); !errors.Is(err, ErrCorruptObject) {
		t.Errorf("Read error = %v, want ErrCorruptObject", err)
	}
}

func TestStoreOpenStreamsPayload(t *testing.T) {
	s := tempStore(t)
	data := bytes.Repeat([]byte("0123456789"), 1000)
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	r, err := s.Open(h)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Type != TypeBlob || r.Size != int64(len(data)) {
		t.Errorf("header = (%s, %d), want (%s, %d)", r.Type, r.Size, TypeBlob, len(data))
	}
	var out bytes.Buffer
	n, err := io.Copy(&out, r)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != int64(len(data)) || !bytes.Equal(out.Bytes(), data) {
		t.Errorf("streamed %d bytes, want %d", n, len(data))
	}
}

func TestStoreReadHeader(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeCommit, []byte("not parsed"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	typ, size, err := s.ReadHeader(h)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if typ != TypeCommit || size != 10 {
		t.Errorf("ReadHeader = (%s, %d), want (commit, 10)", typ, size)
	}
}

func TestStoreCompressionLevels(t *testing.T) {
	data := bytes.Repeat([]byte("compressible "), 200)
	want := HashObject(TypeBlob, data)
	for _, level := range []int{zlib.NoCompression, zlib.BestSpeed, zlib.BestCompression, 42} {
		s := NewStore(t.TempDir(), WithCompressionLevel(level))
		h, err := s.Write(TypeBlob, data)
		if err != nil {
			t.Fatalf("level %d: Write: %v", level, err)
		}
		if h != want {
			t.Errorf("level %d: hash %s, want %s", level, h, want)
		}
		obj, err := s.Read(h)
		if err != nil {
			t.Fatalf("level %d: Read: %v", level, err)
		}
		if !bytes.Equal(obj.Data, data) {
			t.Errorf("level %d: payload mismatch", level)
		}
	}
}

func TestStoreTypedReadWrongKind(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob(&Blob{Data: []byte("just a blob")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	_, err = s.ReadTree(h)
	if !errors.Is(err, ErrWrongKind) {
		t.Fatalf("ReadTree error = %v, want ErrWrongKind", err)
	}
	var kindErr *KindError
	if !errors.As(err, &kindErr) {
		t.Fatalf("ReadTree error %T is not *KindError", err)
	}
	if kindErr.Want != TypeTree || kindErr.Got != TypeBlob {
		t.Errorf("KindError = want %s got %s", kindErr.Want, kindErr.Got)
	}
}

func TestStoreWriteReadTree(t *testing.T) {
	s := tempStore(t)
	blob, err := s.WriteBlob(&Blob{Data: []byte("content")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	orig := &TreeObj{Entries: []TreeEntry{
		{Mode: TreeModeFile, Name: "a.txt", Hash: blob},
		{Mode: TreeModeExecutable, Name: "b.sh", Hash: blob},
	}}
	h, err := s.WriteTree(orig)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	got, err := s.ReadTree(h)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreWriteReadCommit(t *testing.T) {
	s := tempStore(t)
	tree, err := s.WriteTree(&TreeObj{})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	ident := Signature{Name: "Test User", Email: "test@email.com", When: time.Unix(1700000000, 0)}
	orig := &CommitObj{
		TreeHash:  tree,
		Author:    ident,
		Committer: ident,
		Message:   "initial\n",
	}
	h, err := s.WriteCommit(orig)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	got, err := s.ReadCommit(h)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if got.TreeHash != tree || got.Message != orig.Message {
		t.Errorf("commit round-trip mismatch: tree %s message %q", got.TreeHash, got.Message)
	}
}
