package object

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func encodeHeader(objType ObjectType, size int) []byte {
	header := make([]byte, 0, len(objType)+22)
	header = append(header, objType...)
	header = append(header, ' ')
	header = strconv.AppendInt(header, int64(size), 10)
	return append(header, 0)
}

// EncodeObject returns the loose-object envelope "type len\0content".
func EncodeObject(objType ObjectType, data []byte) []byte {
	header := encodeHeader(objType, len(data))
	out := make([]byte, 0, len(header)+len(data))
	out = append(out, header...)
	return append(out, data...)
}

// DecodeHeader consumes the "type len\0" envelope header from r and leaves r
// positioned at the first payload byte. Reading exactly size payload bytes is
// the caller's job.
//
// Headers that are not terminated by a NUL within the reader's buffer, lack
// the space separator, name an unknown type, or carry a size that is not a
// non-negative decimal integer are reported as ErrMalformedHeader. Other read
// errors are returned wrapped as-is.
func DecodeHeader(r *bufio.Reader) (ObjectType, int64, error) {
	line, err := r.ReadSlice(0)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, bufio.ErrBufferFull) {
			return "", 0, fmt.Errorf("%w: no NUL terminator", ErrMalformedHeader)
		}
		return "", 0, fmt.Errorf("read object header: %w", err)
	}
	header := string(line[:len(line)-1])

	typ, size, ok := strings.Cut(header, " ")
	if !ok {
		return "", 0, fmt.Errorf("%w: no space separator in %q", ErrMalformedHeader, header)
	}
	objType, err := ParseObjectType(typ)
	if err != nil {
		return "", 0, err
	}
	n, err := strconv.ParseUint(size, 10, 63)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid size %q", ErrMalformedHeader, size)
	}
	return objType, int64(n), nil
}
