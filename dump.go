package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thiremani/cirrus/mlir"
)

func newDumpCmd(opts *options) *cobra.Command {
	var stderr bool
	cmd := &cobra.Command{
		Use:   "dump [flags] file.mlir",
		Short: "Parse a module and print it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withModule(args[0], cmd.InOrStdin(), func(m mlir.Module) error {
				if stderr {
					m.Dump()
					return nil
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), m.String())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&stderr, "stderr", false, "print through the library's own dump to stderr")
	return cmd
}
