package object

import (
	"bufio"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Store is a content-addressed loose object store with git's 2-character
// fan-out directory layout: objects/ab/cdef0123...
type Store struct {
	root   string
	level  int
	logger *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCompressionLevel sets the zlib level used for new objects.
// Out-of-range levels fall back to zlib.DefaultCompression.
func WithCompressionLevel(level int) StoreOption {
	return func(s *Store) {
		if level < zlib.HuffmanOnly || level > zlib.BestCompression {
			level = zlib.DefaultCompression
		}
		s.level = level
	}
}

// NewStore creates a Store rooted at the given metadata directory. The
// objects/ subdirectory is created lazily on first write.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{
		root:   root,
		level:  zlib.DefaultCompression,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	hex := h.String()
	return filepath.Join(s.root, "objects", hex[:2], hex[2:])
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. The file holds the
// zlib-compressed envelope "type len\0content". An existing file for the
// same hash is replaced: data is written to a temp file in the fan-out
// directory and renamed into place.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	raw := EncodeObject(objType, data)
	h := Hash(sha1.Sum(raw))
	dest := s.objectPath(h)

	fail := func(err error) (Hash, error) {
		return ZeroHash, &Error{Op: "write object", Hash: h, Path: dest, Err: WrapIO(err)}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(fmt.Errorf("mkdir: %w", err))
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fail(fmt.Errorf("tmpfile: %w", err))
	}
	tmpName := tmp.Name()

	zw, err := zlib.NewWriterLevel(tmp, s.level)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail(fmt.Errorf("compress: %w", err))
	}
	if _, err := zw.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail(fmt.Errorf("compress: %w", err))
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail(fmt.Errorf("compress: %w", err))
	}
	if err := tmp.Chmod(0o444); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail(fmt.Errorf("chmod: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fail(fmt.Errorf("close: %w", err))
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fail(fmt.Errorf("rename: %w", err))
	}

	s.logger.Debug("wrote object",
		zap.Stringer("hash", h),
		zap.String("type", string(objType)),
		zap.Int("size", len(data)),
	)
	return h, nil
}

// ObjectReader streams the payload of a stored object. It yields exactly
// Size bytes; a stream that ends early fails with ErrTruncatedObject.
type ObjectReader struct {
	Type ObjectType
	Size int64

	hash      Hash
	path      string
	file      *os.File
	zr        io.ReadCloser
	br        *bufio.Reader
	remaining int64
	failed    bool
}

// Open locates an object and decodes its header, leaving the returned
// reader positioned at the first payload byte. The caller must Close it.
func (s *Store) Open(h Hash) (*ObjectReader, error) {
	path := s.objectPath(h)
	fail := func(err error) (*ObjectReader, error) {
		return nil, &Error{Op: "read object", Hash: h, Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(ErrNotFound)
		}
		return fail(WrapIO(err))
	}

	zr, err := zlib.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return fail(fmt.Errorf("%w: zlib: %v", ErrCorruptObject, err))
	}

	br := bufio.NewReader(zr)
	objType, size, err := DecodeHeader(br)
	if err != nil {
		zr.Close()
		f.Close()
		return fail(fmt.Errorf("%w: %w", ErrCorruptObject, err))
	}

	return &ObjectReader{
		Type:      objType,
		Size:      size,
		hash:      h,
		path:      path,
		file:      f,
		zr:        zr,
		br:        br,
		remaining: size,
	}, nil
}

func (o *ObjectReader) Read(p []byte) (int, error) {
	if o.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > o.remaining {
		p = p[:o.remaining]
	}
	n, err := o.br.Read(p)
	o.remaining -= int64(n)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if o.remaining > 0 {
			return n, o.fail(fmt.Errorf("%w: header declares %d bytes, payload has %d", ErrTruncatedObject, o.Size, o.Size-o.remaining))
		}
		return n, nil
	default:
		return n, o.fail(fmt.Errorf("%w: %v", ErrCorruptObject, err))
	}
}

// verifyEnd checks that the payload is followed by the end of a valid zlib
// stream. Reaching EOF makes the decompressor verify its checksum.
func (o *ObjectReader) verifyEnd() error {
	var extra [1]byte
	n, err := io.ReadFull(o.br, extra[:])
	if n > 0 {
		return o.fail(fmt.Errorf("%w: trailing data after %d-byte payload", ErrCorruptObject, o.Size))
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return o.fail(fmt.Errorf("%w: %v", ErrCorruptObject, err))
}

func (o *ObjectReader) fail(err error) error {
	o.failed = true
	return &Error{Op: "read object", Hash: o.hash, Path: o.path, Err: err}
}

// Close releases the decompressor and the underlying file. After a failed
// read the decompressor's own error is already reported and is not repeated.
func (o *ObjectReader) Close() error {
	zerr := o.zr.Close()
	if o.failed {
		zerr = nil
	}
	err := multierr.Append(zerr, o.file.Close())
	if err != nil {
		return o.fail(WrapIO(err))
	}
	return nil
}

// Read retrieves an object by hash, returning its type and payload.
func (s *Store) Read(h Hash) (obj *Object, retErr error) {
	r, err := s.Open(h)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, r.Close())
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := r.verifyEnd(); err != nil {
		return nil, err
	}
	return &Object{Type: r.Type, Data: data}, nil
}

// ReadHeader returns an object's type and declared size without reading
// its payload.
func (s *Store) ReadHeader(h Hash) (ObjectType, int64, error) {
	r, err := s.Open(h)
	if err != nil {
		return "", 0, err
	}
	objType, size := r.Type, r.Size
	if err := r.Close(); err != nil {
		return "", 0, err
	}
	return objType, size, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	obj, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if obj.Type != want {
		return nil, &KindError{Hash: h, Want: want, Got: obj.Type}
	}
	return obj.Data, nil
}

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	data, err := MarshalTree(tr)
	if err != nil {
		return ZeroHash, err
	}
	return s.Write(TypeTree, data)
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return c, nil
}
