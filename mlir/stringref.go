package mlir

import (
	"fmt"
	"unicode/utf8"
	"unsafe"

	"github.com/thiremani/cirrus/capi"
)

// StringRef is a borrowed view of bytes: either a Go string supplied by the
// caller or text interned by the native library. It never copies on
// construction and must not outlive its source.
type StringRef struct {
	raw capi.StringRef
	s   *scope // nil when the bytes belong to a Go string
	src string // keeps a borrowed Go string reachable
}

// StringRefOf borrows s without copying.
func StringRefOf(s string) StringRef {
	return StringRef{
		raw: capi.StringRef{Data: unsafe.Pointer(unsafe.StringData(s)), Length: uint64(len(s))},
		src: s,
	}
}

func nativeStringRef(s *scope, raw capi.StringRef) StringRef {
	return StringRef{raw: raw, s: s}
}

func (r StringRef) checkSource() {
	if r.s != nil {
		r.s.check()
	}
}

// Raw returns the pointer+length pair.
func (r StringRef) Raw() capi.StringRef {
	r.checkSource()
	return r.raw
}

// Len returns the number of bytes in the view.
func (r StringRef) Len() int {
	r.checkSource()
	return len(view(r.raw))
}

// Bytes returns the viewed bytes. The slice aliases memory owned elsewhere:
// it must not be modified or kept past the life of the source.
func (r StringRef) Bytes() []byte {
	r.checkSource()
	return view(r.raw)
}

// Text returns a copy of the bytes as a string, or ErrInvalidUTF8.
func (r StringRef) Text() (string, error) {
	b := r.Bytes()
	if !utf8.Valid(b) {
		preview := b
		if len(preview) > 32 {
			preview = preview[:32]
		}
		return "", fmt.Errorf("%w: %x", ErrInvalidUTF8, preview)
	}
	return string(b), nil
}

// String returns a copy of the bytes without validating them.
func (r StringRef) String() string {
	return string(r.Bytes())
}
