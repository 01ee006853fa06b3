// Package capi describes the flat boundary to the native IR library: raw
// handle structs that mirror the C API's opaque structs, and the Library
// interface listing the entry points the safe layer calls.
//
// Nothing in this package checks anything. A raw handle whose pointer is nil
// means "absent" (end of list, missing attribute, failed parse, bad index);
// entry points never null-check their inputs.
package capi

import "unsafe"

// Handle is satisfied by every raw handle type.
type Handle interface {
	comparable
	IsNull() bool
}

type Context struct{ Ptr unsafe.Pointer }

func (h Context) IsNull() bool { return h.Ptr == nil }

type Module struct{ Ptr unsafe.Pointer }

func (h Module) IsNull() bool { return h.Ptr == nil }

// DialectHandle is a process-wide descriptor for a dialect. It is never
// released.
type DialectHandle struct{ Ptr unsafe.Pointer }

func (h DialectHandle) IsNull() bool { return h.Ptr == nil }

// Dialect is a dialect instance loaded into a context.
type Dialect struct{ Ptr unsafe.Pointer }

func (h Dialect) IsNull() bool { return h.Ptr == nil }

type Operation struct{ Ptr unsafe.Pointer }

func (h Operation) IsNull() bool { return h.Ptr == nil }

type Region struct{ Ptr unsafe.Pointer }

func (h Region) IsNull() bool { return h.Ptr == nil }

type Block struct{ Ptr unsafe.Pointer }

func (h Block) IsNull() bool { return h.Ptr == nil }

type Value struct{ Ptr unsafe.Pointer }

func (h Value) IsNull() bool { return h.Ptr == nil }

type Type struct{ Ptr unsafe.Pointer }

func (h Type) IsNull() bool { return h.Ptr == nil }

type Attribute struct{ Ptr unsafe.Pointer }

func (h Attribute) IsNull() bool { return h.Ptr == nil }

type Identifier struct{ Ptr unsafe.Pointer }

func (h Identifier) IsNull() bool { return h.Ptr == nil }

// NamedAttribute pairs an identifier with an attribute.
type NamedAttribute struct {
	Name      Identifier
	Attribute Attribute
}

// IsNull reports whether either half of the pair is null.
func (h NamedAttribute) IsNull() bool { return h.Name.IsNull() || h.Attribute.IsNull() }

// StringRef is a pointer+length view of bytes owned by someone else.
type StringRef struct {
	Data   unsafe.Pointer
	Length uint64
}

func (h StringRef) IsNull() bool { return h.Data == nil }

// PrintCallback receives printed text in chunks. The StringRef is only valid
// for the duration of the call.
type PrintCallback func(StringRef)

// Library is the set of native entry points used by the safe layer. Names
// follow the C API they stand for (mlirOperationGetNextInBlock becomes
// OperationGetNextInBlock).
//
// Positions must be in range: implementations may abort on a bad index the
// same way the native library asserts.
type Library interface {
	ContextCreate() Context
	ContextDestroy(Context)
	ContextSetAllowUnregisteredDialects(Context, bool)
	ContextGetNumLoadedDialects(Context) int

	// GetDialectHandle returns the handle registered under namespace, or a
	// null handle when the library was not built with that dialect.
	GetDialectHandle(namespace string) DialectHandle
	DialectHandleGetNamespace(DialectHandle) StringRef
	DialectHandleRegisterDialect(DialectHandle, Context)
	DialectHandleLoadDialect(DialectHandle, Context) Dialect

	ModuleCreateParse(Context, StringRef) Module
	ModuleDestroy(Module)
	ModuleGetContext(Module) Context
	ModuleGetBody(Module) Block
	ModuleGetOperation(Module) Operation

	OperationGetName(Operation) Identifier
	OperationGetNextInBlock(Operation) Operation
	OperationGetFirstRegion(Operation) Region
	OperationGetNumRegions(Operation) int
	OperationGetRegion(Operation, int) Region
	OperationGetNumOperands(Operation) int
	OperationGetOperand(Operation, int) Value
	OperationGetNumResults(Operation) int
	OperationGetResult(Operation, int) Value
	OperationGetNumAttributes(Operation) int
	OperationGetAttribute(Operation, int) NamedAttribute
	OperationGetAttributeByName(Operation, StringRef) Attribute
	OperationDump(Operation)
	OperationPrint(Operation, PrintCallback)

	RegionGetFirstBlock(Region) Block
	RegionGetNextInOperation(Region) Region

	BlockGetFirstOperation(Block) Operation
	BlockGetNextInRegion(Block) Block
	BlockGetNumArguments(Block) int
	BlockGetArgument(Block, int) Value
	// BlockDump has no C counterpart; it prints the block to the same
	// stream as the other dumps.
	BlockDump(Block)
	BlockPrint(Block, PrintCallback)

	ValueGetType(Value) Type
	ValueIsABlockArgument(Value) bool
	ValueIsAOpResult(Value) bool
	ValueDump(Value)
	ValuePrint(Value, PrintCallback)

	TypeDump(Type)
	TypePrint(Type, PrintCallback)

	AttributeGetType(Attribute) Type
	AttributeDump(Attribute)
	AttributePrint(Attribute, PrintCallback)

	IdentifierStr(Identifier) StringRef
}

// LLVMTranslator is implemented by libraries that can lower a module in the
// llvm dialect to LLVM IR. llvmContext is an LLVMContextRef; the result is an
// LLVMModuleRef owned by the caller, or nil on failure.
type LLVMTranslator interface {
	TranslateModuleToLLVMIR(op Operation, llvmContext unsafe.Pointer) unsafe.Pointer
}
