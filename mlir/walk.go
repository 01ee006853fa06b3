package mlir

// WalkResult steers Walk.
type WalkResult int

const (
	Advance   WalkResult = iota // continue, including nested operations
	Skip                        // do not visit the operations nested in this one
	Interrupt                   // stop the walk
)

// Walk visits op and then, in order, every operation nested in its regions.
// It returns Interrupt if fn stopped the walk and Advance otherwise.
func Walk(op Operation, fn func(Operation) WalkResult) WalkResult {
	switch fn(op) {
	case Interrupt:
		return Interrupt
	case Skip:
		return Advance
	}
	for r := range op.Regions() {
		for b := range r.Blocks() {
			for child := range b.Operations() {
				if Walk(child, fn) == Interrupt {
					return Interrupt
				}
			}
		}
	}
	return Advance
}
