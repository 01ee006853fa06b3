package mlir

import (
	"strings"
	"unsafe"

	"github.com/thiremani/cirrus/capi"
)

// scope is the lifetime token shared by an owner and every wrapper derived
// from it. A module scope is chained to the scope of its context.
type scope struct {
	lib      capi.Library
	parent   *scope
	kind     string
	released bool
	open     int // owned children not yet closed
}

func newScope(lib capi.Library, parent *scope, kind string) *scope {
	return &scope{lib: lib, parent: parent, kind: kind}
}

// libraryScope is the scope of process-wide descriptors. It is never
// released.
func libraryScope(lib capi.Library) *scope {
	return newScope(lib, nil, "library")
}

func (s *scope) check() {
	if s == nil {
		ownershipPanic("wrapper", "zero value has no owner")
	}
	for p := s; p != nil; p = p.parent {
		if p.released {
			ownershipPanic(p.kind, "used after release")
		}
	}
}

// arena returns the scope that owns interned types, attributes and names:
// the context at the root of the chain.
func (s *scope) arena() *scope {
	for s != nil && s.parent != nil {
		s = s.parent
	}
	return s
}

// handle is the common part of every borrowed wrapper.
type handle[R capi.Handle] struct {
	s   *scope
	raw R
}

// lib returns the native library after checking that the owner is alive.
func (h handle[R]) lib() capi.Library {
	h.s.check()
	return h.s.lib
}

// Raw returns the native handle for passing to entry points this package
// does not wrap. It panics if the owner was released.
func (h handle[R]) Raw() R {
	h.s.check()
	return h.raw
}

// wrap is the only way a raw handle enters the safe layer.
func wrap[R capi.Handle, W any](s *scope, raw R, mk func(handle[R]) W) (W, bool) {
	if raw.IsNull() {
		var zero W
		return zero, false
	}
	return mk(handle[R]{s: s, raw: raw}), true
}

func wrapContext(s *scope, raw capi.Context) (Context, bool) {
	return wrap(s, raw, func(h handle[capi.Context]) Context { return Context{h} })
}

func wrapModule(s *scope, raw capi.Module) (Module, bool) {
	return wrap(s, raw, func(h handle[capi.Module]) Module { return Module{h} })
}

func wrapDialectHandle(s *scope, raw capi.DialectHandle) (DialectHandle, bool) {
	return wrap(s, raw, func(h handle[capi.DialectHandle]) DialectHandle { return DialectHandle{h} })
}

func wrapOperation(s *scope, raw capi.Operation) (Operation, bool) {
	return wrap(s, raw, func(h handle[capi.Operation]) Operation { return Operation{h} })
}

func wrapRegion(s *scope, raw capi.Region) (Region, bool) {
	return wrap(s, raw, func(h handle[capi.Region]) Region { return Region{h} })
}

func wrapBlock(s *scope, raw capi.Block) (Block, bool) {
	return wrap(s, raw, func(h handle[capi.Block]) Block { return Block{h} })
}

func wrapValue(s *scope, raw capi.Value) (Value, bool) {
	return wrap(s, raw, func(h handle[capi.Value]) Value { return Value{h} })
}

func wrapType(s *scope, raw capi.Type) (Type, bool) {
	return wrap(s, raw, func(h handle[capi.Type]) Type { return Type{h} })
}

func wrapAttribute(s *scope, raw capi.Attribute) (Attribute, bool) {
	return wrap(s, raw, func(h handle[capi.Attribute]) Attribute { return Attribute{h} })
}

func wrapIdentifier(s *scope, raw capi.Identifier) (Identifier, bool) {
	return wrap(s, raw, func(h handle[capi.Identifier]) Identifier { return Identifier{h} })
}

func wrapNamedAttribute(s *scope, raw capi.NamedAttribute) (NamedAttribute, bool) {
	if raw.IsNull() {
		return NamedAttribute{}, false
	}
	name, _ := wrapIdentifier(s, raw.Name)
	attr, _ := wrapAttribute(s, raw.Attribute)
	return NamedAttribute{Name: name, Attribute: attr}, true
}

// view returns the bytes behind a native StringRef without copying.
func view(r capi.StringRef) []byte {
	if r.Data == nil || r.Length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(r.Data), r.Length)
}

// sprint collects everything a native print entry point emits.
func sprint(print func(capi.PrintCallback)) string {
	var b strings.Builder
	print(func(chunk capi.StringRef) {
		b.Write(view(chunk))
	})
	return b.String()
}
