package mlir

import (
	"runtime"

	"go.uber.org/zap"
)

// releaser is implemented by the wrappers that may be owned. The methods are
// unexported so no other package can make a borrowed wrapper owned.
type releaser interface {
	ownerScope() *scope
	isNull() bool
	release()
}

// noCopy makes go vet's copylocks check flag copies of an Owned.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Owned holds a native object this process must release. Close releases it
// exactly once; Borrow hands out non-owning views that become invalid at
// Close.
//
// Owned values are created only by NewContext and ParseModule and are always
// used through a pointer.
type Owned[T releaser] struct {
	noCopy   noCopy
	v        T
	released bool
}

func intoOwned[T releaser](entity string, v T, ok bool) *Owned[T] {
	if !ok || v.isNull() {
		ownershipPanic(entity, "cannot own a null handle")
	}
	s := v.ownerScope()
	if s.parent != nil {
		s.parent.check()
		s.parent.open++
	}
	o := &Owned[T]{v: v}
	runtime.AddCleanup(o, reportLeak, s)
	Logger().Debug("acquired", zap.String("entity", entity))
	return o
}

func reportLeak(s *scope) {
	if !s.released {
		Logger().Warn("owned handle became unreachable without Close", zap.String("entity", s.kind))
	}
}

// Borrow returns the wrapped entity as a borrowed view.
func (o *Owned[T]) Borrow() T {
	o.v.ownerScope().check()
	return o.v
}

// Close releases the native object. Calling Close twice, or on an Owned that
// still has open children (a context with unclosed modules), panics.
func (o *Owned[T]) Close() {
	s := o.v.ownerScope()
	if s == nil {
		ownershipPanic("owned", "zero Owned value")
	}
	if o.released {
		ownershipPanic(s.kind, "released twice")
	}
	if o.v.isNull() {
		ownershipPanic(s.kind, "handle became null before release")
	}
	if s.open > 0 {
		ownershipPanic(s.kind, "released while %d owned children are still open", s.open)
	}
	s.check()

	o.v.release()
	o.released = true
	s.released = true
	if s.parent != nil {
		s.parent.open--
	}
	Logger().Debug("released", zap.String("entity", s.kind))
}
