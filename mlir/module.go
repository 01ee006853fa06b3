package mlir

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/thiremani/cirrus/capi"
)

// Module is a parsed top-level IR unit. Its memory is released on its own
// Close but lives in the context's arena, so it must be closed before the
// context.
type Module struct{ handle[capi.Module] }

func (m Module) ownerScope() *scope { return m.s }
func (m Module) isNull() bool       { return m.raw.IsNull() }
func (m Module) release()           { m.s.lib.ModuleDestroy(m.raw) }

// ParseModule parses src in ctx. It returns ErrParse if the native parser
// rejects the text; diagnostics are reported by the native library.
func ParseModule(ctx Context, src string) (*Owned[Module], error) {
	lib := ctx.lib()
	ref := StringRefOf(src)
	raw := lib.ModuleCreateParse(ctx.raw, ref.raw)
	runtime.KeepAlive(ref)

	m, ok := wrapModule(newScope(lib, ctx.s, "module"), raw)
	if !ok {
		Logger().Debug("module parse failed", zap.Int("bytes", len(src)))
		return nil, ErrParse
	}
	return intoOwned("module", m, ok), nil
}

// Context returns the context the module was parsed in.
func (m Module) Context() Context {
	c, _ := wrapContext(m.s.parent, m.lib().ModuleGetContext(m.raw))
	return c
}

// Library returns the native library the module belongs to.
func (m Module) Library() capi.Library {
	return m.lib()
}

// Operation returns the module's own top-level operation.
func (m Module) Operation() (Operation, bool) {
	return wrapOperation(m.s, m.lib().ModuleGetOperation(m.raw))
}

// Body returns the single block of the module's region.
func (m Module) Body() (Block, bool) {
	return wrapBlock(m.s, m.lib().ModuleGetBody(m.raw))
}

// FirstOperation returns the first operation of the body, or false for an
// empty module.
func (m Module) FirstOperation() (Operation, bool) {
	body, ok := m.Body()
	if !ok {
		return Operation{}, false
	}
	return body.FirstOperation()
}

// OperationFromRaw admits an operation handle obtained from an entry point
// outside this package. The wrapper lives as long as the module.
func (m Module) OperationFromRaw(raw capi.Operation) (Operation, bool) {
	m.s.check()
	return wrapOperation(m.s, raw)
}

// ValueFromRaw admits a value handle obtained from an entry point outside
// this package.
func (m Module) ValueFromRaw(raw capi.Value) (Value, bool) {
	m.s.check()
	return wrapValue(m.s, raw)
}

// Dump prints the module to the native library's diagnostic stream.
func (m Module) Dump() {
	if op, ok := m.Operation(); ok {
		op.Dump()
	}
}

func (m Module) String() string {
	op, ok := m.Operation()
	if !ok {
		return ""
	}
	return op.String()
}
