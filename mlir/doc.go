// Package mlir is a checked, typed view of an IR graph held by a native
// library (see package capi).
//
// Two kinds of wrappers exist. A Context or a Module is handed out inside an
// *Owned box whose Close releases the native object exactly once:
//
//	ctx := mlir.NewContext(lib)
//	defer ctx.Close()
//	c := ctx.Borrow()
//	if err := c.LoadDialectByName(mlir.FIRRTL); err != nil {
//		return err
//	}
//	mod, err := mlir.ParseModule(c, src)
//	if err != nil {
//		return err
//	}
//	defer mod.Close()
//
// Everything else (Operation, Region, Block, Value, Type, Attribute,
// Identifier, StringRef) is a borrowed view computed on demand. Borrowed
// wrappers are plain values and may be copied freely; they carry a lifetime
// token of their owner and panic with *OwnershipError if used after that
// owner was closed.
//
// Navigation never forces a value out: every step returns (wrapper, ok) and
// ok is false at the end of a list, for a missing attribute or for an index
// outside the count reported by the native library at that moment.
//
// A context and every wrapper derived from it must be used by one goroutine
// at a time. Nothing in this package locks.
package mlir
