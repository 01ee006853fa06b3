// Package memlib is an in-memory implementation of capi.Library. It parses
// the generic textual form of the IR into a Go object graph and answers the
// same navigation queries the native library does, so the safe layer can be
// exercised without a native build.
//
// It understands generic operations, block labels with typed arguments,
// successors, properties, trailing locations and the custom form of
// builtin.module. It does not verify anything beyond SSA name resolution,
// declared operand types and dialect registration.
package memlib

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unsafe"

	"github.com/thiremani/cirrus/capi"
	"github.com/thiremani/cirrus/lexer"
	"github.com/thiremani/cirrus/parser"
)

// SourceName is the file name used in diagnostics for parsed strings.
const SourceName = "-"

// Stats counts lifecycle events seen by a Library.
type Stats struct {
	ContextsCreated   int
	ContextsDestroyed int
	ModulesCreated    int
	ModulesDestroyed  int
	ParseFailures     int
}

// Library is safe for use by several goroutines as long as each context is
// used by one goroutine at a time.
type Library struct {
	diag    io.Writer
	handles map[string]*dialectHandle

	mu    sync.Mutex
	stats Stats
}

type Option func(*Library)

// WithDiagnostics sets where parse errors and Dump output are written.
// The default is os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(l *Library) { l.diag = w }
}

func New(opts ...Option) *Library {
	l := &Library{
		diag:    os.Stderr,
		handles: make(map[string]*dialectHandle, len(Namespaces)),
	}
	for _, ns := range Namespaces {
		l.handles[ns] = &dialectHandle{namespace: []byte(ns)}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Stats returns a snapshot of the lifecycle counters.
func (l *Library) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Library) count(f func(*Stats)) {
	l.mu.Lock()
	f(&l.stats)
	l.mu.Unlock()
}

var _ capi.Library = (*Library)(nil)

func stringRef(b []byte) capi.StringRef {
	if b == nil {
		b = []byte{}
	}
	return capi.StringRef{Data: unsafe.Pointer(unsafe.SliceData(b)), Length: uint64(len(b))}
}

func goString(r capi.StringRef) string {
	if r.Data == nil {
		return ""
	}
	return strings.Clone(unsafe.String((*byte)(r.Data), r.Length))
}

// printTo runs fn against a writer that forwards every chunk to cb.
func printTo(cb capi.PrintCallback, fn func(io.Writer)) {
	fn(chunkWriter{emit: func(p []byte) { cb(stringRef(p)) }})
}

func (l *Library) dump(fn func(io.Writer)) {
	var buf bytes.Buffer
	fn(&buf)
	buf.WriteByte('\n')
	l.diag.Write(buf.Bytes())
}

func ctxOf(h capi.Context) *context         { return (*context)(h.Ptr) }
func moduleOf(h capi.Module) *module        { return (*module)(h.Ptr) }
func opOf(h capi.Operation) *operation      { return (*operation)(h.Ptr) }
func regionOf(h capi.Region) *region        { return (*region)(h.Ptr) }
func blockOf(h capi.Block) *block           { return (*block)(h.Ptr) }
func valueOf(h capi.Value) *value           { return (*value)(h.Ptr) }
func typeOf(h capi.Type) *typ               { return (*typ)(h.Ptr) }
func attrOf(h capi.Attribute) *attribute    { return (*attribute)(h.Ptr) }
func identOf(h capi.Identifier) *identifier { return (*identifier)(h.Ptr) }
func handleOf(h capi.DialectHandle) *dialectHandle {
	return (*dialectHandle)(h.Ptr)
}

func opHandle(op *operation) capi.Operation  { return capi.Operation{Ptr: unsafe.Pointer(op)} }
func regionHandle(r *region) capi.Region     { return capi.Region{Ptr: unsafe.Pointer(r)} }
func blockHandle(b *block) capi.Block        { return capi.Block{Ptr: unsafe.Pointer(b)} }
func valueHandle(v *value) capi.Value        { return capi.Value{Ptr: unsafe.Pointer(v)} }
func typeHandle(t *typ) capi.Type            { return capi.Type{Ptr: unsafe.Pointer(t)} }
func attrHandle(a *attribute) capi.Attribute { return capi.Attribute{Ptr: unsafe.Pointer(a)} }
func identHandle(id *identifier) capi.Identifier {
	return capi.Identifier{Ptr: unsafe.Pointer(id)}
}

func first[T any](s []T) *T {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}

// Context

func (l *Library) ContextCreate() capi.Context {
	l.count(func(s *Stats) { s.ContextsCreated++ })
	return capi.Context{Ptr: unsafe.Pointer(newContext(l))}
}

func (l *Library) ContextDestroy(h capi.Context) {
	c := ctxOf(h).alive()
	if c.liveModules > 0 {
		panic(fmt.Sprintf("memlib: context destroyed with %d live modules", c.liveModules))
	}
	c.destroyed = true
	l.count(func(s *Stats) { s.ContextsDestroyed++ })
}

func (l *Library) ContextSetAllowUnregisteredDialects(h capi.Context, allow bool) {
	ctxOf(h).alive().allowUnregistered = allow
}

func (l *Library) ContextGetNumLoadedDialects(h capi.Context) int {
	// builtin is always loaded
	return len(ctxOf(h).alive().loaded) + 1
}

// Dialects

func (l *Library) GetDialectHandle(namespace string) capi.DialectHandle {
	dh, ok := l.handles[namespace]
	if !ok {
		return capi.DialectHandle{}
	}
	return capi.DialectHandle{Ptr: unsafe.Pointer(dh)}
}

func (l *Library) DialectHandleGetNamespace(h capi.DialectHandle) capi.StringRef {
	return stringRef(handleOf(h).namespace)
}

func (l *Library) DialectHandleRegisterDialect(h capi.DialectHandle, c capi.Context) {
	ctxOf(c).alive().registered[string(handleOf(h).namespace)] = true
}

func (l *Library) DialectHandleLoadDialect(h capi.DialectHandle, c capi.Context) capi.Dialect {
	ctx := ctxOf(c).alive()
	ns := string(handleOf(h).namespace)
	d, ok := ctx.loaded[ns]
	if !ok {
		d = &dialect{ctx: ctx, ns: ns}
		ctx.loaded[ns] = d
	}
	return capi.Dialect{Ptr: unsafe.Pointer(d)}
}

// Module

func (l *Library) ModuleCreateParse(c capi.Context, src capi.StringRef) capi.Module {
	ctx := ctxOf(c).alive()

	p := parser.New(lexer.New(SourceName, goString(src)))
	root := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		l.parseFailed(errs[0])
		return capi.Module{}
	}
	m, err := build(ctx, root)
	if err != nil {
		l.parseFailed(err)
		return capi.Module{}
	}

	ctx.liveModules++
	l.count(func(s *Stats) { s.ModulesCreated++ })
	return capi.Module{Ptr: unsafe.Pointer(m)}
}

func (l *Library) parseFailed(err error) {
	fmt.Fprintln(l.diag, err)
	l.count(func(s *Stats) { s.ParseFailures++ })
}

func (l *Library) ModuleDestroy(h capi.Module) {
	m := moduleOf(h).alive()
	m.destroyed = true
	m.ctx.liveModules--
	l.count(func(s *Stats) { s.ModulesDestroyed++ })
}

func (l *Library) ModuleGetContext(h capi.Module) capi.Context {
	return capi.Context{Ptr: unsafe.Pointer(moduleOf(h).alive().ctx)}
}

func (l *Library) ModuleGetBody(h capi.Module) capi.Block {
	m := moduleOf(h).alive()
	return blockHandle(m.op.regions[0].blocks[0])
}

func (l *Library) ModuleGetOperation(h capi.Module) capi.Operation {
	return opHandle(moduleOf(h).alive().op)
}

// Operation

func (l *Library) OperationGetName(h capi.Operation) capi.Identifier {
	return identHandle(opOf(h).alive().name)
}

func (l *Library) OperationGetNextInBlock(h capi.Operation) capi.Operation {
	return opHandle(opOf(h).alive().next)
}

func (l *Library) OperationGetFirstRegion(h capi.Operation) capi.Region {
	if r := first(opOf(h).alive().regions); r != nil {
		return regionHandle(*r)
	}
	return capi.Region{}
}

func (l *Library) OperationGetNumRegions(h capi.Operation) int {
	return len(opOf(h).alive().regions)
}

func (l *Library) OperationGetRegion(h capi.Operation, i int) capi.Region {
	return regionHandle(index("region", opOf(h).alive().regions, i))
}

func (l *Library) OperationGetNumOperands(h capi.Operation) int {
	return len(opOf(h).alive().operands)
}

func (l *Library) OperationGetOperand(h capi.Operation, i int) capi.Value {
	return valueHandle(index("operand", opOf(h).alive().operands, i))
}

func (l *Library) OperationGetNumResults(h capi.Operation) int {
	return len(opOf(h).alive().results)
}

func (l *Library) OperationGetResult(h capi.Operation, i int) capi.Value {
	return valueHandle(index("result", opOf(h).alive().results, i))
}

func (l *Library) OperationGetNumAttributes(h capi.Operation) int {
	op := opOf(h).alive()
	return len(op.props) + len(op.attrs)
}

func (l *Library) OperationGetAttribute(h capi.Operation, i int) capi.NamedAttribute {
	na := index("attribute", opOf(h).alive().attributes(), i)
	return capi.NamedAttribute{Name: identHandle(na.name), Attribute: attrHandle(na.attr)}
}

func (l *Library) OperationGetAttributeByName(h capi.Operation, name capi.StringRef) capi.Attribute {
	want := goString(name)
	for _, na := range opOf(h).alive().attributes() {
		if string(na.name.text) == want {
			return attrHandle(na.attr)
		}
	}
	return capi.Attribute{}
}

func (l *Library) OperationDump(h capi.Operation) {
	op := opOf(h).alive()
	l.dump(func(w io.Writer) { printOperation(w, op) })
}

func (l *Library) OperationPrint(h capi.Operation, cb capi.PrintCallback) {
	op := opOf(h).alive()
	printTo(cb, func(w io.Writer) { printOperation(w, op) })
}

func printOperation(w io.Writer, op *operation) {
	p := newPrinter(w)
	p.name(op)
	p.operation(op, 0)
}

// Region and block

func (l *Library) RegionGetFirstBlock(h capi.Region) capi.Block {
	if b := first(regionOf(h).alive().blocks); b != nil {
		return blockHandle(*b)
	}
	return capi.Block{}
}

func (l *Library) RegionGetNextInOperation(h capi.Region) capi.Region {
	return regionHandle(regionOf(h).alive().next)
}

func (l *Library) BlockGetFirstOperation(h capi.Block) capi.Operation {
	if op := first(blockOf(h).alive().ops); op != nil {
		return opHandle(*op)
	}
	return capi.Operation{}
}

func (l *Library) BlockGetNextInRegion(h capi.Block) capi.Block {
	return blockHandle(blockOf(h).alive().next)
}

func (l *Library) BlockGetNumArguments(h capi.Block) int {
	return len(blockOf(h).alive().args)
}

func (l *Library) BlockGetArgument(h capi.Block, i int) capi.Value {
	return valueHandle(index("argument", blockOf(h).alive().args, i))
}

// BlockDump writes the block as BlockPrint does; its text already ends in a
// newline.
func (l *Library) BlockDump(h capi.Block) {
	b := blockOf(h).alive()
	var buf bytes.Buffer
	newPrinter(&buf).block(b)
	l.diag.Write(buf.Bytes())
}

func (l *Library) BlockPrint(h capi.Block, cb capi.PrintCallback) {
	b := blockOf(h).alive()
	printTo(cb, func(w io.Writer) { newPrinter(w).block(b) })
}

// Value

func (l *Library) ValueGetType(h capi.Value) capi.Type {
	return typeHandle(valueOf(h).alive().typ)
}

func (l *Library) ValueIsABlockArgument(h capi.Value) bool {
	return valueOf(h).alive().owner != nil
}

func (l *Library) ValueIsAOpResult(h capi.Value) bool {
	return valueOf(h).alive().def != nil
}

func (l *Library) ValueDump(h capi.Value) {
	v := valueOf(h).alive()
	l.dump(func(w io.Writer) { printValue(w, v) })
}

func (l *Library) ValuePrint(h capi.Value, cb capi.PrintCallback) {
	v := valueOf(h).alive()
	printTo(cb, func(w io.Writer) { printValue(w, v) })
}

// printValue prints the defining operation of a result, or a description of
// a block argument.
func printValue(w io.Writer, v *value) {
	if v.def != nil {
		printOperation(w, v.def)
		return
	}
	fmt.Fprintf(w, "<block argument> of type '%s' at index: %d", v.typ.text, v.index)
}

// Type and attribute

func (l *Library) TypeDump(h capi.Type) {
	t := typeOf(h).alive()
	l.dump(func(w io.Writer) { w.Write(t.text) })
}

func (l *Library) TypePrint(h capi.Type, cb capi.PrintCallback) {
	cb(stringRef(typeOf(h).alive().text))
}

func (l *Library) AttributeGetType(h capi.Attribute) capi.Type {
	return typeHandle(attrOf(h).alive().typ)
}

func (l *Library) AttributeDump(h capi.Attribute) {
	a := attrOf(h).alive()
	l.dump(func(w io.Writer) { io.WriteString(w, attributeString(a)) })
}

func (l *Library) AttributePrint(h capi.Attribute, cb capi.PrintCallback) {
	a := attrOf(h).alive()
	printTo(cb, func(w io.Writer) { io.WriteString(w, attributeString(a)) })
}

func (l *Library) IdentifierStr(h capi.Identifier) capi.StringRef {
	return stringRef(identOf(h).alive().text)
}
