//go:build cgo && mlir

package native

/*
#include "mlir-c/Support.h"
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/thiremani/cirrus/capi"
)

//export cirrusPrintCallback
func cirrusPrintCallback(s C.MlirStringRef, userData unsafe.Pointer) {
	fn := cgo.Handle(uintptr(userData)).Value().(capi.PrintCallback)
	fn(capi.StringRef{Data: unsafe.Pointer(s.data), Length: uint64(s.length)})
}
