package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/thiremani/cirrus/capi"
	"github.com/thiremani/cirrus/memlib"
	"github.com/thiremani/cirrus/mlir"
	"github.com/thiremani/cirrus/native"
)

const (
	BACKEND_NATIVE = "native"
	BACKEND_MEM    = "mem"
	BACKEND_AUTO   = "auto"
)

// openLibrary picks the IR library. auto prefers the native build.
func (o *options) openLibrary(diag io.Writer) (capi.Library, error) {
	switch o.backend {
	case BACKEND_NATIVE:
		return native.Open()
	case BACKEND_MEM:
		return memlib.New(memlib.WithDiagnostics(diag)), nil
	case BACKEND_AUTO:
		if lib, err := native.Open(); err == nil {
			return lib, nil
		}
		mlir.Logger().Debug("native library unavailable, using in-memory backend")
		return memlib.New(memlib.WithDiagnostics(diag)), nil
	}
	return nil, fmt.Errorf("unknown backend %q (want native, mem or auto)", o.backend)
}

// newContext creates a context with the configured dialects loaded.
func (o *options) newContext(lib capi.Library) (*mlir.Owned[mlir.Context], error) {
	ctx := mlir.NewContext(lib)
	c := ctx.Borrow()
	c.AllowUnregisteredDialects(o.allowUnregistered)
	for _, d := range o.dialects {
		if err := c.LoadDialectByName(d); err != nil {
			ctx.Close()
			return nil, fmt.Errorf("load dialect %s: %w", d, err)
		}
	}
	return ctx, nil
}

func readSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == STDIN {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// withModule parses path in a fresh context and calls fn with the module.
// Both are released before it returns.
func (o *options) withModule(path string, stdin io.Reader, fn func(mlir.Module) error) error {
	src, err := readSource(path, stdin)
	if err != nil {
		return err
	}
	lib, err := o.openLibrary(o.stderr)
	if err != nil {
		return err
	}
	ctx, err := o.newContext(lib)
	if err != nil {
		return err
	}
	defer ctx.Close()

	m, err := mlir.ParseModule(ctx.Borrow(), src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer m.Close()

	mlir.Logger().Debug("parsed module", zap.String("file", path))
	return fn(m.Borrow())
}

// expandFiles replaces each directory in args by the sorted .mlir files it
// contains.
func expandFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if arg == STDIN {
			files = append(files, arg)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*"+FILE_SUFFIX))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no %s files in %s", FILE_SUFFIX, arg)
		}
		files = append(files, matches...)
	}
	return files, nil
}
