package mlir

import "github.com/thiremani/cirrus/capi"

// Value is an operation result or a block argument.
type Value struct{ handle[capi.Value] }

func (v Value) Type() (Type, bool) {
	return wrapType(v.s.arena(), v.lib().ValueGetType(v.raw))
}

func (v Value) IsBlockArgument() bool {
	return v.lib().ValueIsABlockArgument(v.raw)
}

func (v Value) IsOpResult() bool {
	return v.lib().ValueIsAOpResult(v.raw)
}

func (v Value) Dump() {
	v.lib().ValueDump(v.raw)
}

func (v Value) String() string {
	lib := v.lib()
	return sprint(func(cb capi.PrintCallback) { lib.ValuePrint(v.raw, cb) })
}

// Type is an immutable type descriptor interned by the context.
type Type struct{ handle[capi.Type] }

func (t Type) Dump() {
	t.lib().TypeDump(t.raw)
}

func (t Type) String() string {
	lib := t.lib()
	return sprint(func(cb capi.PrintCallback) { lib.TypePrint(t.raw, cb) })
}

// Attribute is an immutable constant interned by the context.
type Attribute struct{ handle[capi.Attribute] }

func (a Attribute) Type() (Type, bool) {
	return wrapType(a.s, a.lib().AttributeGetType(a.raw))
}

func (a Attribute) Dump() {
	a.lib().AttributeDump(a.raw)
}

func (a Attribute) String() string {
	lib := a.lib()
	return sprint(func(cb capi.PrintCallback) { lib.AttributePrint(a.raw, cb) })
}

// NamedAttribute is an attribute together with the name it is attached
// under.
type NamedAttribute struct {
	Name      Identifier
	Attribute Attribute
}

func (na NamedAttribute) Raw() capi.NamedAttribute {
	return capi.NamedAttribute{Name: na.Name.Raw(), Attribute: na.Attribute.Raw()}
}

func (na NamedAttribute) Dump() {
	na.Attribute.Dump()
}

// Identifier is an interned name.
type Identifier struct{ handle[capi.Identifier] }

// StringRef returns the identifier's text as a view into context memory.
func (id Identifier) StringRef() StringRef {
	return nativeStringRef(id.s, id.lib().IdentifierStr(id.raw))
}

func (id Identifier) String() string {
	return id.StringRef().String()
}
