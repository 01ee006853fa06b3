package mlir

import (
	"bytes"
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/thiremani/cirrus/capi"
	"github.com/thiremani/cirrus/memlib"
)

const circuitSrc = `module {
  "firrtl.circuit"() ({
    "firrtl.module"() ({
    ^bb0(%clock: !firrtl.clock):
    }) {sym_name = "Top"} : () -> ()
  }) {name = "Top"} : () -> ()
}`

const pairSrc = `%0 = "test.a"() : () -> i32
%1:2 = "test.b"(%0, %0) {x = 1, y = "s"} : (i32, i32) -> (i1, i1)`

func newLib() (*memlib.Library, *bytes.Buffer) {
	diag := &bytes.Buffer{}
	return memlib.New(memlib.WithDiagnostics(diag)), diag
}

// parseTest parses src in a context that accepts unregistered dialects.
func parseTest(t *testing.T, src string) (*Owned[Context], *Owned[Module]) {
	t.Helper()
	lib, diag := newLib()
	ctx := NewContext(lib)
	ctx.Borrow().AllowUnregisteredDialects(true)
	m, err := ParseModule(ctx.Borrow(), src)
	require.NoError(t, err, diag.String())
	return ctx, m
}

func ownershipMessage(entity, reason string) string {
	return (&OwnershipError{Entity: entity, Reason: reason}).Error()
}

func TestScenarioWalk(t *testing.T) {
	lib, _ := newLib()
	ctx := NewContext(lib)
	defer ctx.Close()

	c := ctx.Borrow()
	require.NoError(t, c.LoadDialectByName(FIRRTL))

	m, err := ParseModule(c, circuitSrc)
	require.NoError(t, err)
	defer m.Close()

	mod := m.Borrow()
	require.Equal(t, c.Raw(), mod.Context().Raw())

	body, ok := mod.Body()
	require.True(t, ok)
	circuit, ok := body.FirstOperation()
	require.True(t, ok)
	require.Equal(t, "firrtl.circuit", circuit.Name().String())

	region, ok := circuit.FirstRegion()
	require.True(t, ok)
	block, ok := region.FirstBlock()
	require.True(t, ok)
	sub, ok := block.FirstOperation()
	require.True(t, ok)
	require.Equal(t, "firrtl.module", sub.Name().String())

	_, ok = sub.Next()
	require.False(t, ok)

	top, ok := mod.Operation()
	require.True(t, ok)
	require.Equal(t, "builtin.module", top.Name().String())
}

func TestEmptyModuleBody(t *testing.T) {
	ctx, m := parseTest(t, "module {}")
	defer ctx.Close()
	defer m.Close()

	body, ok := m.Borrow().Body()
	require.True(t, ok)
	_, ok = body.FirstOperation()
	require.False(t, ok)
	_, ok = m.Borrow().FirstOperation()
	require.False(t, ok)
	require.Equal(t, 0, countOps(body))
}

func countOps(b Block) int {
	n := 0
	for range b.Operations() {
		n++
	}
	return n
}

func TestNullAdmission(t *testing.T) {
	s := libraryScope(memlib.New())

	_, ok := wrapOperation(s, capi.Operation{})
	require.False(t, ok)
	_, ok = wrapNamedAttribute(s, capi.NamedAttribute{Name: capi.Identifier{Ptr: unsafe.Pointer(s)}})
	require.False(t, ok)

	raw := capi.Value{Ptr: unsafe.Pointer(s)}
	v, ok := wrapValue(s, raw)
	require.True(t, ok)
	require.Equal(t, raw, v.Raw())
}

func TestSingleRelease(t *testing.T) {
	lib, _ := newLib()
	ctx := NewContext(lib)
	ctx.Borrow().AllowUnregisteredDialects(true)
	m, err := ParseModule(ctx.Borrow(), pairSrc)
	require.NoError(t, err)

	m.Close()
	require.PanicsWithError(t, ownershipMessage("module", "released twice"), m.Close)
	ctx.Close()
	require.PanicsWithError(t, ownershipMessage("context", "released twice"), ctx.Close)

	stats := lib.Stats()
	assert.Equal(t, 1, stats.ModulesDestroyed)
	assert.Equal(t, 1, stats.ContextsDestroyed)
}

func TestUseAfterRelease(t *testing.T) {
	ctx, m := parseTest(t, pairSrc)
	op, ok := m.Borrow().FirstOperation()
	require.True(t, ok)
	res, ok := op.Result(0)
	require.True(t, ok)
	typ, ok := res.Type()
	require.True(t, ok)
	c := ctx.Borrow()

	m.Close()
	msg := ownershipMessage("module", "used after release")
	require.PanicsWithError(t, msg, func() { op.Name() })
	require.PanicsWithError(t, msg, func() { res.IsOpResult() })
	require.PanicsWithError(t, msg, func() { m.Borrow() })
	// types live in the context, which is still open
	require.Equal(t, "i32", typ.String())

	ctx.Close()
	require.PanicsWithError(t, ownershipMessage("context", "used after release"), func() { c.NumLoadedDialects() })
	require.PanicsWithError(t, ownershipMessage("context", "used after release"), func() { _ = typ.String() })
}

func TestCloseContextWithOpenModule(t *testing.T) {
	ctx, m := parseTest(t, pairSrc)
	require.PanicsWithError(t, ownershipMessage("context", "released while 1 owned children are still open"), ctx.Close)

	m.Close()
	ctx.Close()
}

func TestZeroValues(t *testing.T) {
	var op Operation
	require.PanicsWithError(t, ownershipMessage("wrapper", "zero value has no owner"), func() { op.Next() })

	var o Owned[Module]
	require.PanicsWithError(t, ownershipMessage("owned", "zero Owned value"), o.Close)

	require.PanicsWithError(t, ownershipMessage("context", "cannot own a null handle"), func() {
		intoOwned("context", Context{}, false)
	})
}

func TestParseError(t *testing.T) {
	lib, diag := newLib()
	ctx := NewContext(lib)
	defer ctx.Close()

	_, err := ParseModule(ctx.Borrow(), `"test.op"() : () -> ()`)
	require.ErrorIs(t, err, ErrParse)
	require.Contains(t, diag.String(), `unregistered dialect "test"`)

	_, err = ParseModule(ctx.Borrow(), `"a.b"(`)
	require.True(t, errors.Is(err, ErrParse))
}

func TestLoadDialect(t *testing.T) {
	lib, _ := newLib()
	ctx := NewContext(lib)
	defer ctx.Close()
	c := ctx.Borrow()

	require.Equal(t, 1, c.NumLoadedDialects())
	require.ErrorIs(t, c.LoadDialectByName("nope"), ErrUnknownDialect)

	for _, ns := range []string{FIRRTL, HW, Seq, HW} {
		d, ok := LookupDialect(lib, ns)
		require.True(t, ok)
		require.Equal(t, ns, d.Namespace().String())
		require.NoError(t, c.LoadDialect(d))
	}
	require.Equal(t, 4, c.NumLoadedDialects())
}

func TestIndexedBounds(t *testing.T) {
	ctx, m := parseTest(t, pairSrc)
	defer ctx.Close()
	defer m.Close()

	first, _ := m.Borrow().FirstOperation()
	op, ok := first.Next()
	require.True(t, ok)

	require.Equal(t, 2, op.NumOperands())
	for _, i := range []int{2, 1 << 40, -1} {
		_, ok := op.Operand(i)
		assert.False(t, ok, "operand %d", i)
		_, ok = op.Result(i)
		assert.False(t, ok, "result %d", i)
		_, ok = op.Attribute(i)
		assert.False(t, ok, "attribute %d", i)
		_, ok = op.Region(i)
		assert.False(t, ok, "region %d", i)
	}

	def, _ := first.Result(0)
	for i, v := range op.Operands() {
		require.Equal(t, def.Raw(), v.Raw(), "operand %d", i)
	}

	n := 0
	for i, v := range op.Results() {
		require.Equal(t, i, n)
		require.True(t, v.IsOpResult())
		require.False(t, v.IsBlockArgument())
		n++
	}
	require.Equal(t, op.NumResults(), n)

	var names []string
	for _, na := range op.Attributes() {
		names = append(names, na.Name.String())
	}
	require.Equal(t, []string{"x", "y"}, names)

	attr, ok := op.AttributeByName("y")
	require.True(t, ok)
	require.Equal(t, `"s"`, attr.String())
	_, ok = op.AttributeByName("z")
	require.False(t, ok)

	x, _ := op.Attribute(0)
	xt, ok := x.Attribute.Type()
	require.True(t, ok)
	require.Equal(t, "i64", xt.String())
	require.Equal(t, capi.NamedAttribute{Name: x.Name.Raw(), Attribute: x.Attribute.Raw()}, x.Raw())
}

func TestBlocksAndArguments(t *testing.T) {
	ctx, m := parseTest(t, `"test.f"() ({
^bb0(%a: i32, %b: i1):
  "test.br"()[^bb1] : () -> ()
^bb1:
  "test.ret"() : () -> ()
}, {
}) : () -> ()`)
	defer ctx.Close()
	defer m.Close()

	f, _ := m.Borrow().FirstOperation()
	require.Equal(t, 2, f.NumRegions())

	var blocks []Block
	for r := range f.Regions() {
		for b := range r.Blocks() {
			blocks = append(blocks, b)
		}
	}
	require.Len(t, blocks, 2)

	entry := blocks[0]
	require.Equal(t, 2, entry.NumArguments())
	_, ok := entry.Argument(2)
	require.False(t, ok)

	var types []string
	for _, a := range entry.Arguments() {
		require.True(t, a.IsBlockArgument())
		typ, _ := a.Type()
		types = append(types, typ.String())
	}
	require.Equal(t, []string{"i32", "i1"}, types)

	second, ok := f.Region(1)
	require.True(t, ok)
	_, ok = second.FirstBlock()
	require.False(t, ok)
	_, ok = second.Next()
	require.False(t, ok)
}

func TestStringRef(t *testing.T) {
	s := "héllo"
	r := StringRefOf(s)
	require.Equal(t, 6, r.Len())
	require.Equal(t, unsafe.Pointer(unsafe.StringData(s)), unsafe.Pointer(unsafe.SliceData(r.Bytes())))
	text, err := r.Text()
	require.NoError(t, err)
	require.Equal(t, s, text)

	_, err = StringRefOf("ok\xff\xfe").Text()
	require.ErrorIs(t, err, ErrInvalidUTF8)
	require.Contains(t, err.Error(), "6f6bfffe")

	empty := StringRefOf("")
	require.Equal(t, 0, empty.Len())
	require.Empty(t, empty.String())

	ctx, m := parseTest(t, pairSrc)
	op, _ := m.Borrow().FirstOperation()
	name := op.Name().StringRef()
	require.Equal(t, "test.a", name.String())
	require.Equal(t, len("test.a"), int(name.Raw().Length))

	m.Close()
	ctx.Close()
	require.PanicsWithError(t, ownershipMessage("context", "used after release"), func() { name.Bytes() })
}

func TestWalk(t *testing.T) {
	ctx, m := parseTest(t, `"a.outer"() ({
  "a.skip"() ({
    "a.hidden"() : () -> ()
  }) : () -> ()
  "a.inner"() ({
    "a.deep"() : () -> ()
  }) : () -> ()
  "a.last"() : () -> ()
}) : () -> ()`)
	defer ctx.Close()
	defer m.Close()

	top, _ := m.Borrow().Operation()

	var seen []string
	res := Walk(top, func(op Operation) WalkResult {
		name := op.Name().String()
		seen = append(seen, name)
		switch name {
		case "a.skip":
			return Skip
		case "a.deep":
			return Interrupt
		}
		return Advance
	})
	require.Equal(t, Interrupt, res)
	require.Equal(t, []string{"builtin.module", "a.outer", "a.skip", "a.inner", "a.deep"}, seen)

	seen = nil
	res = Walk(top, func(op Operation) WalkResult {
		seen = append(seen, op.Name().String())
		return Advance
	})
	require.Equal(t, Advance, res)
	require.Len(t, seen, 7)
}

func TestPrinting(t *testing.T) {
	lib, diag := newLib()
	ctx := NewContext(lib)
	defer ctx.Close()
	ctx.Borrow().AllowUnregisteredDialects(true)
	m, err := ParseModule(ctx.Borrow(), pairSrc)
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, `module {
  %0 = "test.a"() : () -> i32
  %1:2 = "test.b"(%0, %0) {x = 1, y = "s"} : (i32, i32) -> (i1, i1)
}`, m.Borrow().String())

	op, _ := m.Borrow().FirstOperation()
	op.Dump()
	require.Equal(t, "%0 = \"test.a\"() : () -> i32\n", diag.String())

	body, _ := m.Borrow().Body()
	require.Contains(t, body.String(), `"test.b"`)
	body.Dump()
	require.Contains(t, diag.String(), "^bb0:\n  %0 = \"test.a\"() : () -> i32\n")

	raw := op.Raw()
	again, ok := m.Borrow().OperationFromRaw(raw)
	require.True(t, ok)
	require.Equal(t, op.Name().String(), again.Name().String())
	_, ok = m.Borrow().OperationFromRaw(capi.Operation{})
	require.False(t, ok)
}

func TestNullBeforeRelease(t *testing.T) {
	lib := memlib.New()
	o := &Owned[Context]{v: Context{handle[capi.Context]{s: newScope(lib, nil, "context")}}}

	require.PanicsWithError(t, ownershipMessage("context", "handle became null before release"), o.Close)
	assert.Equal(t, 0, lib.Stats().ContextsDestroyed)
}

func TestFromRaw(t *testing.T) {
	ctx, m := parseTest(t, pairSrc)
	defer ctx.Close()
	c := ctx.Borrow()

	body, _ := m.Borrow().Body()
	first, _ := body.FirstOperation()
	second, _ := first.Next()

	v, ok := first.Result(0)
	require.True(t, ok)
	again, ok := m.Borrow().ValueFromRaw(v.Raw())
	require.True(t, ok)
	require.True(t, again.IsOpResult())
	_, ok = m.Borrow().ValueFromRaw(capi.Value{})
	require.False(t, ok)

	ty, _ := v.Type()
	sameType, ok := c.TypeFromRaw(ty.Raw())
	require.True(t, ok)
	require.Equal(t, "i32", sameType.String())
	_, ok = c.TypeFromRaw(capi.Type{})
	require.False(t, ok)

	na, ok := second.Attribute(0)
	require.True(t, ok)
	attr, ok := c.AttributeFromRaw(na.Attribute.Raw())
	require.True(t, ok)
	require.Equal(t, "1", attr.String())
	_, ok = c.AttributeFromRaw(capi.Attribute{})
	require.False(t, ok)

	// context-scoped wrappers outlive the module, module-scoped ones do not
	m.Close()
	require.Equal(t, "i32", sameType.String())
	require.Equal(t, "1", attr.String())
	require.PanicsWithError(t, ownershipMessage("module", "used after release"), func() { _ = again.String() })
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	lib, _ := newLib()
	ctx := NewContext(lib)
	require.NoError(t, ctx.Borrow().LoadDialectByName(HW))
	_, err := ParseModule(ctx.Borrow(), `"x.y"() : () -> ()`)
	require.ErrorIs(t, err, ErrParse)
	ctx.Close()

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	require.Equal(t, []string{"acquired", "dialect loaded", "module parse failed", "released"}, msgs)
	require.Equal(t, "context", logs.All()[0].ContextMap()["entity"])
	require.Equal(t, "hw", logs.All()[1].ContextMap()["namespace"])

	reportLeak(&scope{kind: "module"})
	leaks := logs.FilterMessage("owned handle became unreachable without Close").All()
	require.Len(t, leaks, 1)
	require.Equal(t, zapcore.WarnLevel, leaks[0].Level)

	reportLeak(&scope{kind: "module", released: true})
	require.Len(t, logs.FilterMessage("owned handle became unreachable without Close").All(), 1)
}
