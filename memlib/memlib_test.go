package memlib

import (
	"bytes"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/cirrus/capi"
)

func ref(s string) capi.StringRef {
	return stringRef([]byte(s))
}

func str(r capi.StringRef) string {
	return goString(r)
}

func collect(print func(capi.PrintCallback)) string {
	var b strings.Builder
	print(func(chunk capi.StringRef) {
		b.WriteString(unsafe.String((*byte)(chunk.Data), chunk.Length))
	})
	return b.String()
}

type fixture struct {
	lib  *Library
	diag *bytes.Buffer
	ctx  capi.Context
}

func newFixture(t *testing.T, allowUnregistered bool) *fixture {
	t.Helper()
	diag := &bytes.Buffer{}
	lib := New(WithDiagnostics(diag))
	ctx := lib.ContextCreate()
	lib.ContextSetAllowUnregisteredDialects(ctx, allowUnregistered)
	return &fixture{lib: lib, diag: diag, ctx: ctx}
}

func (f *fixture) parse(t *testing.T, src string) capi.Module {
	t.Helper()
	m := f.lib.ModuleCreateParse(f.ctx, ref(src))
	require.False(t, m.IsNull(), "parse failed: %s", f.diag.String())
	return m
}

func (f *fixture) parseErr(t *testing.T, src string) string {
	t.Helper()
	m := f.lib.ModuleCreateParse(f.ctx, ref(src))
	require.True(t, m.IsNull())
	return strings.TrimSpace(f.diag.String())
}

const loopSrc = `module @top {
  %0 = "test.const"() {value = 1 : i32} : () -> i32
  %1:2 = "test.pair"(%0) : (i32) -> (i1, i1)
  "test.loop"(%1#1) ({
  ^bb0(%a: i32):
    "test.br"(%a)[^bb1] : (i32) -> ()
  ^bb1:
    "test.yield"() : () -> ()
  }) {flag} : (i1) -> ()
}`

func TestNavigation(t *testing.T) {
	f := newFixture(t, true)
	lib := f.lib
	m := f.parse(t, loopSrc)

	require.Equal(t, f.ctx, lib.ModuleGetContext(m))
	top := lib.ModuleGetOperation(m)
	require.Equal(t, "builtin.module", str(lib.IdentifierStr(lib.OperationGetName(top))))
	require.True(t, lib.OperationGetNextInBlock(top).IsNull())

	body := lib.ModuleGetBody(m)
	require.True(t, lib.BlockGetNextInRegion(body).IsNull())

	var names []string
	for op := lib.BlockGetFirstOperation(body); !op.IsNull(); op = lib.OperationGetNextInBlock(op) {
		names = append(names, str(lib.IdentifierStr(lib.OperationGetName(op))))
	}
	require.Equal(t, []string{"test.const", "test.pair", "test.loop"}, names)

	konst := lib.BlockGetFirstOperation(body)
	pair := lib.OperationGetNextInBlock(konst)
	loop := lib.OperationGetNextInBlock(pair)

	require.Equal(t, 1, lib.OperationGetNumAttributes(konst))
	na := lib.OperationGetAttribute(konst, 0)
	require.Equal(t, "value", str(lib.IdentifierStr(na.Name)))
	require.Equal(t, "1 : i32", collect(func(cb capi.PrintCallback) { lib.AttributePrint(na.Attribute, cb) }))
	require.Equal(t, "i32", collect(func(cb capi.PrintCallback) { lib.TypePrint(lib.AttributeGetType(na.Attribute), cb) }))
	require.Equal(t, na.Attribute, lib.OperationGetAttributeByName(konst, ref("value")))
	require.True(t, lib.OperationGetAttributeByName(konst, ref("missing")).IsNull())

	require.Equal(t, 2, lib.OperationGetNumResults(pair))
	require.Equal(t, lib.OperationGetResult(konst, 0), lib.OperationGetOperand(pair, 0))
	require.Equal(t, lib.OperationGetResult(pair, 1), lib.OperationGetOperand(loop, 0))
	require.True(t, lib.ValueIsAOpResult(lib.OperationGetResult(pair, 1)))
	require.False(t, lib.ValueIsABlockArgument(lib.OperationGetResult(pair, 1)))

	require.Equal(t, 1, lib.OperationGetNumRegions(loop))
	r := lib.OperationGetFirstRegion(loop)
	require.Equal(t, r, lib.OperationGetRegion(loop, 0))
	require.True(t, lib.RegionGetNextInOperation(r).IsNull())

	entry := lib.RegionGetFirstBlock(r)
	require.Equal(t, 1, lib.BlockGetNumArguments(entry))
	arg := lib.BlockGetArgument(entry, 0)
	require.True(t, lib.ValueIsABlockArgument(arg))
	br := lib.BlockGetFirstOperation(entry)
	require.Equal(t, arg, lib.OperationGetOperand(br, 0))

	exit := lib.BlockGetNextInRegion(entry)
	require.False(t, exit.IsNull())
	require.True(t, lib.BlockGetNextInRegion(exit).IsNull())
	require.Equal(t, 0, lib.BlockGetNumArguments(exit))

	// types and identifiers are interned per context
	require.Equal(t, lib.ValueGetType(arg), lib.ValueGetType(lib.OperationGetResult(konst, 0)))
	require.Equal(t, lib.OperationGetName(br), lib.OperationGetName(br))

	lib.ModuleDestroy(m)
	lib.ContextDestroy(f.ctx)
}

func TestPrint(t *testing.T) {
	f := newFixture(t, true)
	lib := f.lib
	m := f.parse(t, loopSrc)

	got := collect(func(cb capi.PrintCallback) { lib.OperationPrint(lib.ModuleGetOperation(m), cb) })
	require.Equal(t, `module @top {
  %0 = "test.const"() {value = 1 : i32} : () -> i32
  %1:2 = "test.pair"(%0) : (i32) -> (i1, i1)
  "test.loop"(%1#1) ({
  ^bb0(%arg0: i32):
    "test.br"(%arg0)[^bb1] : (i32) -> ()
  ^bb1:
    "test.yield"() : () -> ()
  }) {flag} : (i1) -> ()
}`, got)

	// the printed form parses back to the same text
	again := f.parse(t, got)
	require.Equal(t, got, collect(func(cb capi.PrintCallback) { lib.OperationPrint(lib.ModuleGetOperation(again), cb) }))

	body := lib.ModuleGetBody(m)
	loop := lib.OperationGetNextInBlock(lib.OperationGetNextInBlock(lib.BlockGetFirstOperation(body)))
	got = collect(func(cb capi.PrintCallback) { lib.OperationPrint(loop, cb) })
	require.True(t, strings.HasPrefix(got, `"test.loop"(<<UNKNOWN SSA VALUE>>) ({`), got)

	entry := lib.RegionGetFirstBlock(lib.OperationGetFirstRegion(loop))
	arg := lib.BlockGetArgument(entry, 0)
	require.Equal(t, "<block argument> of type 'i32' at index: 0",
		collect(func(cb capi.PrintCallback) { lib.ValuePrint(arg, cb) }))

	got = collect(func(cb capi.PrintCallback) { lib.BlockPrint(entry, cb) })
	require.Equal(t, "^bb0(%arg0: i32):\n  \"test.br\"(%arg0)[^INVALID_BLOCK] : (i32) -> ()\n", got)

	konst := lib.BlockGetFirstOperation(body)
	require.Equal(t, `%0 = "test.const"() {value = 1 : i32} : () -> i32`,
		collect(func(cb capi.PrintCallback) { lib.ValuePrint(lib.OperationGetResult(konst, 0), cb) }))
}

func TestDump(t *testing.T) {
	f := newFixture(t, true)
	m := f.parse(t, `"a.b"() {s = "x", n = 7} : () -> ()`)
	op := f.lib.BlockGetFirstOperation(f.lib.ModuleGetBody(m))

	f.lib.OperationDump(op)
	f.lib.AttributeDump(f.lib.OperationGetAttribute(op, 1).Attribute)
	f.lib.TypeDump(f.lib.AttributeGetType(f.lib.OperationGetAttribute(op, 1).Attribute))
	f.lib.BlockDump(f.lib.ModuleGetBody(m))
	require.Equal(t, "\"a.b\"() {s = \"x\", n = 7} : () -> ()\n7\ni64\n"+
		"^bb0:\n  \"a.b\"() {s = \"x\", n = 7} : () -> ()\n", f.diag.String())
}

func TestEmptyModule(t *testing.T) {
	f := newFixture(t, false)
	for _, src := range []string{"module {}", "", "// nothing\n"} {
		m := f.parse(t, src)
		require.True(t, f.lib.BlockGetFirstOperation(f.lib.ModuleGetBody(m)).IsNull(), "src %q", src)
		f.lib.ModuleDestroy(m)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		allow    bool
		src      string
		expected string
	}{
		{"syntax", true, `"a.b"(`, "-:1:7: error: expected ), got end of input"},
		{"unregistered", false, `"test.op"() : () -> ()`,
			`-:1:1: error: operation "test.op" belongs to unregistered dialect "test"; allow unregistered dialects to parse it`},
		{"unregistered type", false, `"builtin.unrealized"() : () -> !hw.foo`,
			`-:1:26: error: type !hw.foo belongs to unregistered dialect "hw"`},
		{"undeclared", true, `"test.use"(%x) : (i32) -> ()`, "-:1:12: error: use of undeclared SSA value name %x"},
		{"type mismatch", true, "%0 = \"a.b\"() : () -> i32\n\"a.c\"(%0) : (i64) -> ()",
			"-:2:7: error: use of value %0 expects different type than prior uses: 'i64' vs 'i32'"},
		{"result number", true, "%0 = \"a.b\"() : () -> i1\n\"a.c\"(%0#3) : (i1) -> ()",
			"-:2:7: error: reference to invalid result number 3: %0 has 1 results"},
		{"undefined block", true, `"a.br"()[^bb9] : () -> ()`, "-:1:10: error: reference to an undefined block ^bb9"},
		{"redefinition", true, "%0 = \"a.b\"() : () -> i1\n%0 = \"a.b\"() : () -> i1", "-:2:1: error: redefinition of SSA value %0"},
		{"redefinition in nested region", true, "%y = \"a.d\"() : () -> i32\n\"a.b\"() ({\n  %y = \"a.c\"() : () -> i32\n}) : () -> ()",
			"-:3:3: error: redefinition of SSA value %y"},
		{"block argument hides outer value", true, "%y = \"a.d\"() : () -> i32\n\"a.b\"() ({\n^bb0(%y: i32):\n}) : () -> ()",
			"-:3:6: error: redefinition of SSA value %y"},
		{"result count", true, `%0:2 = "a.b"() : () -> i1`, "-:1:8: error: operation defines 1 results but was provided 2 to bind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.allow)
			require.Equal(t, tt.expected, f.parseErr(t, tt.src))
			require.Equal(t, 1, f.lib.Stats().ParseFailures)
			require.Equal(t, 0, f.lib.Stats().ModulesCreated)
		})
	}
}

func TestForwardReferences(t *testing.T) {
	f := newFixture(t, true)
	lib := f.lib
	m := f.parse(t, `"a.region"() ({
  "a.use"(%v, %w) : (i1, i32) -> ()
}) : () -> ()
"a.use"(%w) : (i32) -> ()
%v = "a.def"() : () -> i1
%w = "a.def"() : () -> i32`)

	body := lib.ModuleGetBody(m)
	region := lib.BlockGetFirstOperation(body)
	use := lib.OperationGetNextInBlock(region)
	defV := lib.OperationGetNextInBlock(use)
	defW := lib.OperationGetNextInBlock(defV)

	inner := lib.BlockGetFirstOperation(lib.RegionGetFirstBlock(lib.OperationGetFirstRegion(region)))
	require.Equal(t, lib.OperationGetResult(defV, 0), lib.OperationGetOperand(inner, 0))
	require.Equal(t, lib.OperationGetResult(defW, 0), lib.OperationGetOperand(inner, 1))
	require.Equal(t, lib.OperationGetResult(defW, 0), lib.OperationGetOperand(use, 0))
}

func TestDialects(t *testing.T) {
	f := newFixture(t, false)
	lib := f.lib

	require.True(t, lib.GetDialectHandle("nope").IsNull())
	firrtl := lib.GetDialectHandle("firrtl")
	require.False(t, firrtl.IsNull())
	require.Equal(t, "firrtl", str(lib.DialectHandleGetNamespace(firrtl)))

	require.Equal(t, 1, lib.ContextGetNumLoadedDialects(f.ctx))
	lib.DialectHandleRegisterDialect(firrtl, f.ctx)
	d1 := lib.DialectHandleLoadDialect(firrtl, f.ctx)
	d2 := lib.DialectHandleLoadDialect(firrtl, f.ctx)
	require.False(t, d1.IsNull())
	require.Equal(t, d1, d2)
	require.Equal(t, 2, lib.ContextGetNumLoadedDialects(f.ctx))

	m := f.parse(t, `"firrtl.circuit"() ({
  "firrtl.module"() ({
  ^bb0(%in: !firrtl.uint<1>):
  }) {sym_name = "Top"} : () -> ()
}) {name = "Top"} : () -> ()`)
	circuit := lib.BlockGetFirstOperation(lib.ModuleGetBody(m))
	require.Equal(t, "firrtl.circuit", str(lib.IdentifierStr(lib.OperationGetName(circuit))))

	// registered dialects load on first use
	hw := lib.GetDialectHandle("hw")
	lib.DialectHandleRegisterDialect(hw, f.ctx)
	require.Equal(t, 2, lib.ContextGetNumLoadedDialects(f.ctx))
	f.parse(t, `"hw.constant"() {value = 1 : i1} : () -> i1`)
	require.Equal(t, 3, lib.ContextGetNumLoadedDialects(f.ctx))
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t, true)
	lib := f.lib
	m := f.parse(t, `"a.b"() : () -> ()`)
	op := lib.BlockGetFirstOperation(lib.ModuleGetBody(m))

	require.PanicsWithValue(t, "memlib: context destroyed with 1 live modules", func() { lib.ContextDestroy(f.ctx) })

	lib.ModuleDestroy(m)
	require.PanicsWithValue(t, "memlib: module used after destroy", func() { lib.OperationGetName(op) })
	require.PanicsWithValue(t, "memlib: module used after destroy", func() { lib.ModuleDestroy(m) })

	lib.ContextDestroy(f.ctx)
	require.PanicsWithValue(t, "memlib: context used after destroy", func() { lib.ContextGetNumLoadedDialects(f.ctx) })

	assert.Equal(t, Stats{
		ContextsCreated:   1,
		ContextsDestroyed: 1,
		ModulesCreated:    1,
		ModulesDestroyed:  1,
	}, lib.Stats())
}

func TestIndexOutOfRange(t *testing.T) {
	f := newFixture(t, true)
	lib := f.lib
	m := f.parse(t, `%0 = "a.b"() : () -> i1`)
	op := lib.BlockGetFirstOperation(lib.ModuleGetBody(m))

	require.PanicsWithValue(t, "memlib: result index 1 out of range [0,1)", func() { lib.OperationGetResult(op, 1) })
	require.PanicsWithValue(t, "memlib: operand index -1 out of range [0,0)", func() { lib.OperationGetOperand(op, -1) })
	require.True(t, lib.OperationGetFirstRegion(op).IsNull())
}

func TestTypeNamespaces(t *testing.T) {
	tests := []struct {
		text     string
		expected []string
	}{
		{"i32", nil},
		{"!firrtl.uint<1>", []string{"firrtl"}},
		{"!hw.array<4x!seq.clock>", []string{"hw", "seq"}},
		{"!alias", nil},
		{"(!llvm.ptr) -> i1", []string{"llvm"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, typeNamespaces(tt.text), tt.text)
	}
}

func TestImpliedType(t *testing.T) {
	for value, expected := range map[string]string{
		"true":  "i1",
		"42":    "i64",
		"-3":    "i64",
		"0x1E":  "i64",
		"1.5":   "f64",
		`"str"`: "none",
		"[1]":   "none",
	} {
		assert.Equal(t, expected, impliedType(value), value)
	}
}
