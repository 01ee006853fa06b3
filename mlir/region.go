package mlir

import (
	"iter"

	"github.com/thiremani/cirrus/capi"
)

// Region is an ordered list of blocks owned by an operation.
type Region struct{ handle[capi.Region] }

func (r Region) FirstBlock() (Block, bool) {
	return wrapBlock(r.s, r.lib().RegionGetFirstBlock(r.raw))
}

// Next returns the following region of the same operation.
func (r Region) Next() (Region, bool) {
	return wrapRegion(r.s, r.lib().RegionGetNextInOperation(r.raw))
}

func (r Region) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for b, ok := r.FirstBlock(); ok; b, ok = b.Next() {
			if !yield(b) {
				return
			}
		}
	}
}

// Block is an ordered list of operations owned by a region.
type Block struct{ handle[capi.Block] }

// FirstOperation returns the first operation, or false for an empty block.
func (b Block) FirstOperation() (Operation, bool) {
	return wrapOperation(b.s, b.lib().BlockGetFirstOperation(b.raw))
}

// Next returns the following block of the same region.
func (b Block) Next() (Block, bool) {
	return wrapBlock(b.s, b.lib().BlockGetNextInRegion(b.raw))
}

func (b Block) NumArguments() int {
	return b.lib().BlockGetNumArguments(b.raw)
}

// Argument returns the i-th block argument, or false if i is out of range.
func (b Block) Argument(i int) (Value, bool) {
	lib := b.lib()
	if i < 0 || i >= lib.BlockGetNumArguments(b.raw) {
		return Value{}, false
	}
	return wrapValue(b.s, lib.BlockGetArgument(b.raw, i))
}

func (b Block) Arguments() iter.Seq2[int, Value] {
	return indexed(b.Argument)
}

func (b Block) Operations() iter.Seq[Operation] {
	return func(yield func(Operation) bool) {
		for op, ok := b.FirstOperation(); ok; op, ok = op.Next() {
			if !yield(op) {
				return
			}
		}
	}
}

// Dump prints the block to the library's diagnostic stream.
func (b Block) Dump() {
	b.lib().BlockDump(b.raw)
}

func (b Block) String() string {
	lib := b.lib()
	return sprint(func(cb capi.PrintCallback) { lib.BlockPrint(b.raw, cb) })
}
