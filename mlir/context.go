package mlir

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/thiremani/cirrus/capi"
)

// Context is the root of all IR memory and the registry of loaded dialects.
type Context struct{ handle[capi.Context] }

func (c Context) ownerScope() *scope { return c.s }
func (c Context) isNull() bool       { return c.raw.IsNull() }
func (c Context) release()           { c.s.lib.ContextDestroy(c.raw) }

// NewContext creates a native context. The caller must Close it after every
// module parsed in it has been closed.
func NewContext(lib capi.Library) *Owned[Context] {
	s := newScope(lib, nil, "context")
	c, ok := wrapContext(s, lib.ContextCreate())
	return intoOwned("context", c, ok)
}

// AllowUnregisteredDialects controls whether operations of dialects that
// were never loaded are accepted by the parser.
func (c Context) AllowUnregisteredDialects(allow bool) {
	c.lib().ContextSetAllowUnregisteredDialects(c.raw, allow)
}

// NumLoadedDialects reports how many dialects the context has loaded,
// builtin included.
func (c Context) NumLoadedDialects() int {
	return c.lib().ContextGetNumLoadedDialects(c.raw)
}

// LoadDialect registers the dialect with the context and loads it. Both
// steps are performed on every call; the native library decides whether a
// repeat is a no-op.
func (c Context) LoadDialect(d DialectHandle) error {
	lib := c.lib()
	dh := d.Raw()
	lib.DialectHandleRegisterDialect(dh, c.raw)
	if lib.DialectHandleLoadDialect(dh, c.raw).IsNull() {
		return fmt.Errorf("%w: %s", ErrDialectNotLoaded, d.Namespace())
	}
	Logger().Debug("dialect loaded", zap.Stringer("namespace", d.Namespace()))
	return nil
}

// LoadDialectByName looks namespace up in the library and loads it.
func (c Context) LoadDialectByName(namespace string) error {
	d, ok := LookupDialect(c.lib(), namespace)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDialect, namespace)
	}
	return c.LoadDialect(d)
}

// TypeFromRaw admits a type handle obtained from an entry point outside this
// package. The wrapper lives as long as the context.
func (c Context) TypeFromRaw(raw capi.Type) (Type, bool) {
	c.s.check()
	return wrapType(c.s, raw)
}

// AttributeFromRaw admits an attribute handle obtained from an entry point
// outside this package.
func (c Context) AttributeFromRaw(raw capi.Attribute) (Attribute, bool) {
	c.s.check()
	return wrapAttribute(c.s, raw)
}
