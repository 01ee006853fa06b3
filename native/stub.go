//go:build !(cgo && mlir)

package native

import "github.com/thiremani/cirrus/capi"

// Available reports whether the native library is linked in.
const Available = false

func Open() (capi.Library, error) {
	return nil, ErrUnavailable
}
