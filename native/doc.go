// Package native binds capi.Library to the MLIR and CIRCT C API through cgo.
//
// The binding is only compiled with the mlir build tag. The flags cgo needs
// come from the environment; `cirrus env --write` produces them for a CIRCT
// installation:
//
//	. "$(cirrus env --write)"
//	go build -tags mlir ./...
//
// All import "C" lives in this package. Entry points do no checking of their
// own: the mlir package null-checks handles and bounds-checks positions
// before calling in. A context and everything derived from it must be used
// by one goroutine at a time.
package native

import "errors"

// ErrUnavailable is returned by Open when the binary was built without the
// native library.
var ErrUnavailable = errors.New("native: built without the mlir build tag")

// Namespaces lists the dialects whose handles the native library exposes.
var Namespaces = []string{"func", "cf", "llvm", "firrtl", "hw", "seq", "comb", "sv"}
