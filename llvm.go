package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thiremani/cirrus/llvmir"
	"github.com/thiremani/cirrus/mlir"
)

var IR_SUFFIX = ".ll"

func newLLVMCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "llvm [flags] file.mlir",
		Short: "Translate an llvm dialect module to LLVM IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withModule(args[0], cmd.InOrStdin(), func(m mlir.Module) error {
				ir, err := llvmir.EmitText(m)
				if errors.Is(err, llvmir.ErrUnsupported) {
					return fmt.Errorf("%w; rebuild with -tags mlir and use --backend=native", err)
				}
				if err != nil {
					return err
				}
				if output == "" {
					_, err = fmt.Fprint(cmd.OutOrStdout(), ir)
					return err
				}
				if filepath.Ext(output) == "" {
					output += IR_SUFFIX
				}
				return os.WriteFile(output, []byte(ir), 0644)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write IR to this file instead of stdout")
	return cmd
}
