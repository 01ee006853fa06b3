//go:build cgo && mlir

package native

/*
#include <stdint.h>
#include <stdlib.h>
#include "mlir-c/IR.h"
#include "mlir-c/Support.h"
#include "mlir-c/RegisterEverything.h"
#include "mlir-c/Target/LLVMIR.h"
#include "mlir-c/Dialect/Func.h"
#include "mlir-c/Dialect/ControlFlow.h"
#include "mlir-c/Dialect/LLVM.h"
#include "circt-c/Dialect/FIRRTL.h"
#include "circt-c/Dialect/HW.h"
#include "circt-c/Dialect/Seq.h"
#include "circt-c/Dialect/Comb.h"
#include "circt-c/Dialect/SV.h"

extern void cirrusPrintCallback(MlirStringRef, void *);

static void cirrusOperationPrint(MlirOperation op, uintptr_t h) {
	mlirOperationPrint(op, cirrusPrintCallback, (void *)h);
}

static void cirrusBlockPrint(MlirBlock b, uintptr_t h) {
	mlirBlockPrint(b, cirrusPrintCallback, (void *)h);
}

static void cirrusValuePrint(MlirValue v, uintptr_t h) {
	mlirValuePrint(v, cirrusPrintCallback, (void *)h);
}

static void cirrusTypePrint(MlirType t, uintptr_t h) {
	mlirTypePrint(t, cirrusPrintCallback, (void *)h);
}

static void cirrusAttributePrint(MlirAttribute a, uintptr_t h) {
	mlirAttributePrint(a, cirrusPrintCallback, (void *)h);
}

static LLVMModuleRef cirrusTranslate(MlirOperation op, void *llvmContext) {
	mlirRegisterAllLLVMTranslations(mlirOperationGetContext(op));
	return mlirTranslateModuleToLLVMIR(op, (LLVMContextRef)llvmContext);
}
*/
import "C"

import (
	"fmt"
	"os"
	"runtime/cgo"
	"unsafe"

	"fortio.org/safecast"
	"github.com/thiremani/cirrus/capi"
)

// Available reports whether the native library is linked in.
const Available = true

// Library calls straight into the C API.
type Library struct{}

var (
	_ capi.Library        = Library{}
	_ capi.LLVMTranslator = Library{}
)

func Open() (capi.Library, error) {
	return Library{}, nil
}

// count converts a native count or position to int.
func count(n C.intptr_t) int {
	v, err := safecast.Conv[int](int64(n))
	if err != nil {
		panic(fmt.Sprintf("native: count %d: %v", int64(n), err))
	}
	return v
}

func pos(i int) C.intptr_t {
	v, err := safecast.Conv[int64](i)
	if err != nil {
		panic(fmt.Sprintf("native: position %d: %v", i, err))
	}
	return C.intptr_t(v)
}

// withCString copies s into C memory for the duration of fn, so native code
// never holds a Go pointer.
func withCString[R any](s capi.StringRef, fn func(C.MlirStringRef) R) R {
	if s.Length == 0 {
		return fn(C.MlirStringRef{data: nil, length: 0})
	}
	buf := C.CBytes(unsafe.Slice((*byte)(s.Data), s.Length))
	defer C.free(buf)
	return fn(C.MlirStringRef{data: (*C.char)(buf), length: C.size_t(s.Length)})
}

func printWith(cb capi.PrintCallback, call func(C.uintptr_t)) {
	h := cgo.NewHandle(cb)
	defer h.Delete()
	call(C.uintptr_t(h))
}

func goStringRef(s C.MlirStringRef) capi.StringRef {
	return capi.StringRef{Data: unsafe.Pointer(s.data), Length: uint64(s.length)}
}

func cContext(h capi.Context) C.MlirContext       { return C.MlirContext{ptr: h.Ptr} }
func cModule(h capi.Module) C.MlirModule          { return C.MlirModule{ptr: h.Ptr} }
func cOperation(h capi.Operation) C.MlirOperation { return C.MlirOperation{ptr: h.Ptr} }
func cRegion(h capi.Region) C.MlirRegion          { return C.MlirRegion{ptr: h.Ptr} }
func cBlock(h capi.Block) C.MlirBlock             { return C.MlirBlock{ptr: h.Ptr} }
func cValue(h capi.Value) C.MlirValue             { return C.MlirValue{ptr: h.Ptr} }
func cType(h capi.Type) C.MlirType                { return C.MlirType{ptr: h.Ptr} }
func cAttribute(h capi.Attribute) C.MlirAttribute { return C.MlirAttribute{ptr: h.Ptr} }
func cIdentifier(h capi.Identifier) C.MlirIdentifier {
	return C.MlirIdentifier{ptr: h.Ptr}
}
func cDialectHandle(h capi.DialectHandle) C.MlirDialectHandle {
	return C.MlirDialectHandle{ptr: h.Ptr}
}

func (Library) ContextCreate() capi.Context {
	return capi.Context{Ptr: unsafe.Pointer(C.mlirContextCreate().ptr)}
}

func (Library) ContextDestroy(c capi.Context) {
	C.mlirContextDestroy(cContext(c))
}

func (Library) ContextSetAllowUnregisteredDialects(c capi.Context, allow bool) {
	C.mlirContextSetAllowUnregisteredDialects(cContext(c), C.bool(allow))
}

func (Library) ContextGetNumLoadedDialects(c capi.Context) int {
	return count(C.mlirContextGetNumLoadedDialects(cContext(c)))
}

func (Library) GetDialectHandle(namespace string) capi.DialectHandle {
	var h C.MlirDialectHandle
	switch namespace {
	case "func":
		h = C.mlirGetDialectHandle__func__()
	case "cf":
		h = C.mlirGetDialectHandle__cf__()
	case "llvm":
		h = C.mlirGetDialectHandle__llvm__()
	case "firrtl":
		h = C.mlirGetDialectHandle__firrtl__()
	case "hw":
		h = C.mlirGetDialectHandle__hw__()
	case "seq":
		h = C.mlirGetDialectHandle__seq__()
	case "comb":
		h = C.mlirGetDialectHandle__comb__()
	case "sv":
		h = C.mlirGetDialectHandle__sv__()
	}
	return capi.DialectHandle{Ptr: unsafe.Pointer(h.ptr)}
}

func (Library) DialectHandleGetNamespace(h capi.DialectHandle) capi.StringRef {
	return goStringRef(C.mlirDialectHandleGetNamespace(cDialectHandle(h)))
}

func (Library) DialectHandleRegisterDialect(h capi.DialectHandle, c capi.Context) {
	C.mlirDialectHandleRegisterDialect(cDialectHandle(h), cContext(c))
}

func (Library) DialectHandleLoadDialect(h capi.DialectHandle, c capi.Context) capi.Dialect {
	return capi.Dialect{Ptr: unsafe.Pointer(C.mlirDialectHandleLoadDialect(cDialectHandle(h), cContext(c)).ptr)}
}

func (Library) ModuleCreateParse(c capi.Context, src capi.StringRef) capi.Module {
	return withCString(src, func(s C.MlirStringRef) capi.Module {
		return capi.Module{Ptr: unsafe.Pointer(C.mlirModuleCreateParse(cContext(c), s).ptr)}
	})
}

func (Library) ModuleDestroy(m capi.Module) {
	C.mlirModuleDestroy(cModule(m))
}

func (Library) ModuleGetContext(m capi.Module) capi.Context {
	return capi.Context{Ptr: unsafe.Pointer(C.mlirModuleGetContext(cModule(m)).ptr)}
}

func (Library) ModuleGetBody(m capi.Module) capi.Block {
	return capi.Block{Ptr: unsafe.Pointer(C.mlirModuleGetBody(cModule(m)).ptr)}
}

func (Library) ModuleGetOperation(m capi.Module) capi.Operation {
	return capi.Operation{Ptr: unsafe.Pointer(C.mlirModuleGetOperation(cModule(m)).ptr)}
}

func (Library) OperationGetName(op capi.Operation) capi.Identifier {
	return capi.Identifier{Ptr: unsafe.Pointer(C.mlirOperationGetName(cOperation(op)).ptr)}
}

func (Library) OperationGetNextInBlock(op capi.Operation) capi.Operation {
	return capi.Operation{Ptr: unsafe.Pointer(C.mlirOperationGetNextInBlock(cOperation(op)).ptr)}
}

func (Library) OperationGetFirstRegion(op capi.Operation) capi.Region {
	return capi.Region{Ptr: unsafe.Pointer(C.mlirOperationGetFirstRegion(cOperation(op)).ptr)}
}

func (Library) OperationGetNumRegions(op capi.Operation) int {
	return count(C.mlirOperationGetNumRegions(cOperation(op)))
}

func (Library) OperationGetRegion(op capi.Operation, i int) capi.Region {
	return capi.Region{Ptr: unsafe.Pointer(C.mlirOperationGetRegion(cOperation(op), pos(i)).ptr)}
}

func (Library) OperationGetNumOperands(op capi.Operation) int {
	return count(C.mlirOperationGetNumOperands(cOperation(op)))
}

func (Library) OperationGetOperand(op capi.Operation, i int) capi.Value {
	return capi.Value{Ptr: unsafe.Pointer(C.mlirOperationGetOperand(cOperation(op), pos(i)).ptr)}
}

func (Library) OperationGetNumResults(op capi.Operation) int {
	return count(C.mlirOperationGetNumResults(cOperation(op)))
}

func (Library) OperationGetResult(op capi.Operation, i int) capi.Value {
	return capi.Value{Ptr: unsafe.Pointer(C.mlirOperationGetResult(cOperation(op), pos(i)).ptr)}
}

func (Library) OperationGetNumAttributes(op capi.Operation) int {
	return count(C.mlirOperationGetNumAttributes(cOperation(op)))
}

func (Library) OperationGetAttribute(op capi.Operation, i int) capi.NamedAttribute {
	na := C.mlirOperationGetAttribute(cOperation(op), pos(i))
	return capi.NamedAttribute{
		Name:      capi.Identifier{Ptr: unsafe.Pointer(na.name.ptr)},
		Attribute: capi.Attribute{Ptr: unsafe.Pointer(na.attribute.ptr)},
	}
}

func (Library) OperationGetAttributeByName(op capi.Operation, name capi.StringRef) capi.Attribute {
	return withCString(name, func(s C.MlirStringRef) capi.Attribute {
		return capi.Attribute{Ptr: unsafe.Pointer(C.mlirOperationGetAttributeByName(cOperation(op), s).ptr)}
	})
}

func (Library) OperationDump(op capi.Operation) {
	C.mlirOperationDump(cOperation(op))
}

func (Library) OperationPrint(op capi.Operation, cb capi.PrintCallback) {
	printWith(cb, func(h C.uintptr_t) { C.cirrusOperationPrint(cOperation(op), h) })
}

func (Library) RegionGetFirstBlock(r capi.Region) capi.Block {
	return capi.Block{Ptr: unsafe.Pointer(C.mlirRegionGetFirstBlock(cRegion(r)).ptr)}
}

func (Library) RegionGetNextInOperation(r capi.Region) capi.Region {
	return capi.Region{Ptr: unsafe.Pointer(C.mlirRegionGetNextInOperation(cRegion(r)).ptr)}
}

func (Library) BlockGetFirstOperation(b capi.Block) capi.Operation {
	return capi.Operation{Ptr: unsafe.Pointer(C.mlirBlockGetFirstOperation(cBlock(b)).ptr)}
}

func (Library) BlockGetNextInRegion(b capi.Block) capi.Block {
	return capi.Block{Ptr: unsafe.Pointer(C.mlirBlockGetNextInRegion(cBlock(b)).ptr)}
}

func (Library) BlockGetNumArguments(b capi.Block) int {
	return count(C.mlirBlockGetNumArguments(cBlock(b)))
}

func (Library) BlockGetArgument(b capi.Block, i int) capi.Value {
	return capi.Value{Ptr: unsafe.Pointer(C.mlirBlockGetArgument(cBlock(b), pos(i)).ptr)}
}

// BlockDump prints through mlirBlockPrint to stderr, where the C API's own
// dumps go. Its text ends in a newline.
func (Library) BlockDump(b capi.Block) {
	printWith(func(s capi.StringRef) {
		os.Stderr.Write(unsafe.Slice((*byte)(s.Data), s.Length))
	}, func(h C.uintptr_t) { C.cirrusBlockPrint(cBlock(b), h) })
}

func (Library) BlockPrint(b capi.Block, cb capi.PrintCallback) {
	printWith(cb, func(h C.uintptr_t) { C.cirrusBlockPrint(cBlock(b), h) })
}

func (Library) ValueGetType(v capi.Value) capi.Type {
	return capi.Type{Ptr: unsafe.Pointer(C.mlirValueGetType(cValue(v)).ptr)}
}

func (Library) ValueIsABlockArgument(v capi.Value) bool {
	return bool(C.mlirValueIsABlockArgument(cValue(v)))
}

func (Library) ValueIsAOpResult(v capi.Value) bool {
	return bool(C.mlirValueIsAOpResult(cValue(v)))
}

func (Library) ValueDump(v capi.Value) {
	C.mlirValueDump(cValue(v))
}

func (Library) ValuePrint(v capi.Value, cb capi.PrintCallback) {
	printWith(cb, func(h C.uintptr_t) { C.cirrusValuePrint(cValue(v), h) })
}

func (Library) TypeDump(t capi.Type) {
	C.mlirTypeDump(cType(t))
}

func (Library) TypePrint(t capi.Type, cb capi.PrintCallback) {
	printWith(cb, func(h C.uintptr_t) { C.cirrusTypePrint(cType(t), h) })
}

func (Library) AttributeGetType(a capi.Attribute) capi.Type {
	return capi.Type{Ptr: unsafe.Pointer(C.mlirAttributeGetType(cAttribute(a)).ptr)}
}

func (Library) AttributeDump(a capi.Attribute) {
	C.mlirAttributeDump(cAttribute(a))
}

func (Library) AttributePrint(a capi.Attribute, cb capi.PrintCallback) {
	printWith(cb, func(h C.uintptr_t) { C.cirrusAttributePrint(cAttribute(a), h) })
}

func (Library) IdentifierStr(id capi.Identifier) capi.StringRef {
	return goStringRef(C.mlirIdentifierStr(cIdentifier(id)))
}

// TranslateModuleToLLVMIR registers the LLVM IR translations on the
// operation's context and translates it.
func (Library) TranslateModuleToLLVMIR(op capi.Operation, llvmContext unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(C.cirrusTranslate(cOperation(op), llvmContext))
}
