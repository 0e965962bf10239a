package sdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unsafe"
)

// Buffer holds one JSON document for native callers.
//
// Exported methods never return string or []byte to mobile callers; those
// pointer-bearing values are unsafe to hand across the generated bindings.
// Native code sizes a destination with Len and fills it with CopyTo, or reads
// a large document in chunks with ReadAt.
type Buffer struct {
	b []byte
}

// jsonBuffer encodes v without HTML escaping, so labels such as "<3" reach
// native code as typed.
func jsonBuffer(v any) (*Buffer, error) {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("sdk: encode %T: %w", v, err)
	}
	return &Buffer{b: bytes.TrimSuffix(out.Bytes(), []byte{'\n'})}, nil
}

// Len returns the number of bytes held.
func (buf *Buffer) Len() int {
	if buf == nil {
		return 0
	}
	return len(buf.b)
}

// CopyTo copies the start of the document, at most dstLen bytes, to the
// native memory at dstPtr and returns the number of bytes written.
func (buf *Buffer) CopyTo(dstPtr int64, dstLen int) (int, error) {
	return buf.ReadAt(dstPtr, dstLen, 0)
}

// ReadAt copies at most dstLen bytes starting at offset to the native memory
// at dstPtr. It returns 0 once offset reaches Len.
func (buf *Buffer) ReadAt(dstPtr int64, dstLen int, offset int) (int, error) {
	switch {
	case buf == nil:
		return 0, errors.New("buffer is nil")
	case dstLen < 0:
		return 0, errors.New("dstLen must be >= 0")
	case offset < 0 || offset > len(buf.b):
		return 0, fmt.Errorf("offset %d out of range [0, %d]", offset, len(buf.b))
	case dstLen == 0 || offset == len(buf.b):
		return 0, nil
	case dstPtr == 0:
		return 0, errors.New("dstPtr is null")
	}
	src := buf.b[offset:]
	n := min(len(src), dstLen)
	dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(dstPtr))), n)
	return copy(dst, src[:n]), nil
}
