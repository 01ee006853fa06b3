// Package llvmir lowers modules in the llvm dialect to LLVM IR modules of
// tinygo.org/x/go-llvm.
package llvmir

import (
	"errors"
	"fmt"
	"unsafe"

	"go.uber.org/zap"
	"tinygo.org/x/go-llvm"

	"github.com/thiremani/cirrus/capi"
	"github.com/thiremani/cirrus/mlir"
)

var (
	ErrUnsupported = errors.New("llvmir: library cannot translate to LLVM IR")
	ErrTranslate   = errors.New("llvmir: translation to LLVM IR failed")
)

// llvm.Context and llvm.Module each wrap a single C pointer.

func contextRef(ctx llvm.Context) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&ctx))
}

func moduleFromRef(ref unsafe.Pointer) llvm.Module {
	return *(*llvm.Module)(unsafe.Pointer(&ref))
}

// Translate lowers m into a new LLVM module created in ctx. The caller owns
// the result and must Dispose it before ctx. The module may only contain
// operations of the llvm and builtin dialects.
func Translate(m mlir.Module, ctx llvm.Context) (llvm.Module, error) {
	tr, ok := m.Library().(capi.LLVMTranslator)
	if !ok {
		return llvm.Module{}, ErrUnsupported
	}
	op, ok := m.Operation()
	if !ok {
		return llvm.Module{}, fmt.Errorf("%w: module has no operation", ErrTranslate)
	}
	ref := tr.TranslateModuleToLLVMIR(op.Raw(), contextRef(ctx))
	if ref == nil {
		mlir.Logger().Debug("llvm translation failed")
		return llvm.Module{}, ErrTranslate
	}
	return moduleFromRef(ref), nil
}

// EmitText translates m in a private context, verifies the result and
// returns its textual IR.
func EmitText(m mlir.Module) (string, error) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()

	mod, err := Translate(m, ctx)
	if err != nil {
		return "", err
	}
	defer mod.Dispose()

	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		mlir.Logger().Debug("llvm module failed verification", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrTranslate, err)
	}
	return mod.String(), nil
}
