package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thiremani/cirrus/buildcfg"
	"github.com/thiremani/cirrus/config"
	"github.com/thiremani/cirrus/mlir"
)

const (
	FILE_SUFFIX = ".mlir"
	STDIN       = "-"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	backend           string
	dialects          []string
	allowUnregistered bool
	verbose           bool
	color             string

	cfg config.Config
	// stderr is shared by the logger and library diagnostics of concurrent
	// walks, so writes are serialised.
	stderr zapcore.WriteSyncer
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "cirrus",
		Short:         "Inspect MLIR and CIRCT modules",
		Long:          `cirrus parses MLIR modules through the MLIR/CIRCT C API and walks, prints or lowers them`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.backend, "backend", BACKEND_AUTO, "IR library to use (native|mem|auto)")
	flags.StringSliceVar(&opts.dialects, "dialect", nil, "dialects to load before parsing (repeatable)")
	flags.BoolVar(&opts.allowUnregistered, "allow-unregistered", false, "accept operations of unregistered dialects")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	flags.StringVar(&opts.color, "color", "auto", "colorize output (auto|on|off)")

	root.AddCommand(newWalkCmd(opts))
	root.AddCommand(newDumpCmd(opts))
	root.AddCommand(newLLVMCmd(opts))
	root.AddCommand(newEnvCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads cirrus.toml, merges it under the flags and installs the
// loggers.
func (o *options) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	o.cfg = cfg

	if !cmd.Flags().Changed("dialect") {
		o.dialects = cfg.Context.Dialects
	}
	if !cmd.Flags().Changed("allow-unregistered") {
		o.allowUnregistered = cfg.Context.AllowUnregistered
	}

	switch o.color {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
	default:
		return fmt.Errorf("invalid --color %q (want auto, on or off)", o.color)
	}

	level := cfg.Level()
	if o.verbose {
		level = zapcore.DebugLevel
	}
	o.stderr = zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr()))
	logger := newLogger(level, o.stderr)
	mlir.SetLogger(logger)
	buildcfg.SetLogger(logger)
	return nil
}

func newLogger(level zapcore.Level, w zapcore.WriteSyncer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), w, level)
	return zap.New(core)
}

// useColor reports whether text output to w should be coloured.
func (o *options) useColor(w io.Writer) bool {
	switch o.color {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := w.(*os.File)
	return ok && f == os.Stdout && !color.NoColor
}

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, buildcfg.ErrMissingPath) {
			fmt.Fprint(os.Stderr, buildcfg.MissingPathHelp)
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
