package mlir

import "github.com/thiremani/cirrus/capi"

// Namespaces of the dialects the native build links.
const (
	Func        = "func"
	ControlFlow = "cf"
	LLVM        = "llvm"
	FIRRTL      = "firrtl"
	HW          = "hw"
	Seq         = "seq"
	Comb        = "comb"
	SV          = "sv"
)

// DialectHandle is a process-wide dialect descriptor. It is not owned and
// stays valid for the life of the library.
type DialectHandle struct{ handle[capi.DialectHandle] }

// LookupDialect returns the handle for namespace, or false if the library
// does not provide that dialect.
func LookupDialect(lib capi.Library, namespace string) (DialectHandle, bool) {
	return wrapDialectHandle(libraryScope(lib), lib.GetDialectHandle(namespace))
}

// Namespace returns the dialect's namespace, e.g. "firrtl".
func (d DialectHandle) Namespace() StringRef {
	return nativeStringRef(d.s, d.lib().DialectHandleGetNamespace(d.raw))
}
