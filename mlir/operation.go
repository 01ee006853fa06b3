package mlir

import (
	"iter"
	"runtime"

	"github.com/thiremani/cirrus/capi"
)

// Operation is a node of the IR graph. Its memory belongs to the enclosing
// block, or to the module for the module's own operation.
type Operation struct{ handle[capi.Operation] }

// Name returns the fully qualified operation name, e.g. "firrtl.module".
func (o Operation) Name() Identifier {
	id, _ := wrapIdentifier(o.s.arena(), o.lib().OperationGetName(o.raw))
	return id
}

// Next returns the following operation in the same block.
func (o Operation) Next() (Operation, bool) {
	return wrapOperation(o.s, o.lib().OperationGetNextInBlock(o.raw))
}

func (o Operation) FirstRegion() (Region, bool) {
	return wrapRegion(o.s, o.lib().OperationGetFirstRegion(o.raw))
}

func (o Operation) NumRegions() int {
	return o.lib().OperationGetNumRegions(o.raw)
}

// Region returns the i-th region, or false if i is out of range.
func (o Operation) Region(i int) (Region, bool) {
	lib := o.lib()
	if i < 0 || i >= lib.OperationGetNumRegions(o.raw) {
		return Region{}, false
	}
	return wrapRegion(o.s, lib.OperationGetRegion(o.raw, i))
}

func (o Operation) NumOperands() int {
	return o.lib().OperationGetNumOperands(o.raw)
}

// Operand returns the i-th operand, or false if i is out of range.
func (o Operation) Operand(i int) (Value, bool) {
	lib := o.lib()
	if i < 0 || i >= lib.OperationGetNumOperands(o.raw) {
		return Value{}, false
	}
	return wrapValue(o.s, lib.OperationGetOperand(o.raw, i))
}

func (o Operation) NumResults() int {
	return o.lib().OperationGetNumResults(o.raw)
}

// Result returns the i-th result, or false if i is out of range.
func (o Operation) Result(i int) (Value, bool) {
	lib := o.lib()
	if i < 0 || i >= lib.OperationGetNumResults(o.raw) {
		return Value{}, false
	}
	return wrapValue(o.s, lib.OperationGetResult(o.raw, i))
}

func (o Operation) NumAttributes() int {
	return o.lib().OperationGetNumAttributes(o.raw)
}

// Attribute returns the i-th attribute, or false if i is out of range.
func (o Operation) Attribute(i int) (NamedAttribute, bool) {
	lib := o.lib()
	if i < 0 || i >= lib.OperationGetNumAttributes(o.raw) {
		return NamedAttribute{}, false
	}
	return wrapNamedAttribute(o.s.arena(), lib.OperationGetAttribute(o.raw, i))
}

// AttributeByName asks the native library for the attribute called name.
func (o Operation) AttributeByName(name string) (Attribute, bool) {
	ref := StringRefOf(name)
	raw := o.lib().OperationGetAttributeByName(o.raw, ref.raw)
	runtime.KeepAlive(ref)
	return wrapAttribute(o.s.arena(), raw)
}

// Regions iterates over the operation's regions in order.
func (o Operation) Regions() iter.Seq[Region] {
	return func(yield func(Region) bool) {
		for r, ok := o.FirstRegion(); ok; r, ok = r.Next() {
			if !yield(r) {
				return
			}
		}
	}
}

// Operands iterates over operands by index. The count is re-read before
// every step.
func (o Operation) Operands() iter.Seq2[int, Value] {
	return indexed(o.Operand)
}

func (o Operation) Results() iter.Seq2[int, Value] {
	return indexed(o.Result)
}

func (o Operation) Attributes() iter.Seq2[int, NamedAttribute] {
	return indexed(o.Attribute)
}

func indexed[W any](at func(int) (W, bool)) iter.Seq2[int, W] {
	return func(yield func(int, W) bool) {
		for i := 0; ; i++ {
			w, ok := at(i)
			if !ok || !yield(i, w) {
				return
			}
		}
	}
}

// Dump prints the operation to the native library's diagnostic stream.
func (o Operation) Dump() {
	o.lib().OperationDump(o.raw)
}

func (o Operation) String() string {
	lib := o.lib()
	return sprint(func(cb capi.PrintCallback) { lib.OperationPrint(o.raw, cb) })
}
