package memlib

import (
	"fmt"
	"io"
	"strings"
)

// The graph mirrors the native ownership model: a context owns interned
// names, types and attributes; a module owns its operations and everything
// nested in them. Nodes check that their owner is still alive, so a use
// after destroy fails loudly instead of reading stale memory.

type context struct {
	lib               *Library
	allowUnregistered bool
	registered        map[string]bool
	loaded            map[string]*dialect
	idents            map[string]*identifier
	types             map[string]*typ
	attrs             map[string]*attribute
	liveModules       int
	destroyed         bool
}

func newContext(lib *Library) *context {
	return &context{
		lib:        lib,
		registered: make(map[string]bool),
		loaded:     make(map[string]*dialect),
		idents:     make(map[string]*identifier),
		types:      make(map[string]*typ),
		attrs:      make(map[string]*attribute),
	}
}

func (c *context) alive() *context {
	if c.destroyed {
		panic("memlib: context used after destroy")
	}
	return c
}

// accepts reports whether names in namespace ns may appear in parsed IR.
// A registered dialect is loaded on first use, as the native parser does.
func (c *context) accepts(ns string) bool {
	if ns == builtinNamespace || c.allowUnregistered {
		return true
	}
	if _, ok := c.loaded[ns]; ok {
		return true
	}
	if c.registered[ns] {
		c.loaded[ns] = &dialect{ctx: c, ns: ns}
		return true
	}
	return false
}

func (c *context) identifier(s string) *identifier {
	if id, ok := c.idents[s]; ok {
		return id
	}
	id := &identifier{ctx: c, text: []byte(s)}
	c.idents[s] = id
	return id
}

func (c *context) typ(s string) *typ {
	if t, ok := c.types[s]; ok {
		return t
	}
	t := &typ{ctx: c, text: []byte(s)}
	c.types[s] = t
	return t
}

// attribute interns value with its explicit type, which may be empty.
func (c *context) attribute(value, typeText string) *attribute {
	key := value + "\x00" + typeText
	if a, ok := c.attrs[key]; ok {
		return a
	}
	a := &attribute{ctx: c, text: []byte(value)}
	if typeText != "" {
		a.typ = c.typ(typeText)
		a.explicit = true
	} else {
		a.typ = c.typ(impliedType(value))
	}
	c.attrs[key] = a
	return a
}

// impliedType is the type of an attribute written without one.
func impliedType(value string) string {
	switch {
	case value == "true" || value == "false":
		return "i1"
	case value != "" && (isDigit(value[0]) || value[0] == '-'):
		if strings.ContainsAny(value, ".eE") && !strings.HasPrefix(value, "0x") {
			return "f64"
		}
		return "i64"
	}
	return "none"
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

type dialectHandle struct {
	namespace []byte
}

type dialect struct {
	ctx *context
	ns  string
}

type module struct {
	ctx       *context
	op        *operation
	destroyed bool
}

func (m *module) alive() *module {
	if m.destroyed {
		panic("memlib: module used after destroy")
	}
	m.ctx.alive()
	return m
}

type operation struct {
	mod        *module
	name       *identifier
	next       *operation
	operands   []*value
	results    []*value
	successors []*block
	regions    []*region
	props      []namedAttr
	attrs      []namedAttr
}

func (op *operation) alive() *operation {
	op.mod.alive()
	return op
}

// attributes lists inherent attributes first, then discardable ones.
func (op *operation) attributes() []namedAttr {
	if len(op.props) == 0 {
		return op.attrs
	}
	return append(append([]namedAttr{}, op.props...), op.attrs...)
}

type namedAttr struct {
	name *identifier
	attr *attribute
}

type region struct {
	mod    *module
	next   *region
	blocks []*block
}

func (r *region) alive() *region {
	r.mod.alive()
	return r
}

type block struct {
	mod   *module
	next  *block
	label string
	args  []*value
	ops   []*operation
}

func (b *block) alive() *block {
	b.mod.alive()
	return b
}

type value struct {
	mod   *module
	typ   *typ
	index int
	def   *operation // nil for a block argument
	owner *block     // set for a block argument
}

func (v *value) alive() *value {
	v.mod.alive()
	return v
}

type typ struct {
	ctx  *context
	text []byte
}

func (t *typ) alive() *typ {
	t.ctx.alive()
	return t
}

type attribute struct {
	ctx      *context
	text     []byte
	typ      *typ
	explicit bool
}

func (a *attribute) alive() *attribute {
	a.ctx.alive()
	return a
}

type identifier struct {
	ctx  *context
	text []byte
}

func (id *identifier) alive() *identifier {
	id.ctx.alive()
	return id
}

// index panics the way a native assertion would.
func index[T any](kind string, s []T, i int) T {
	if i < 0 || i >= len(s) {
		panic(fmt.Sprintf("memlib: %s index %d out of range [0,%d)", kind, i, len(s)))
	}
	return s[i]
}

// chunkWriter forwards each write to a print callback.
type chunkWriter struct {
	emit func([]byte)
}

func (w chunkWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.emit(p)
	}
	return len(p), nil
}

var _ io.Writer = chunkWriter{}
