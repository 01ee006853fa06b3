package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thiremani/cirrus/buildcfg"
)

func newEnvCmd(opts *options) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the cgo flags for building with the native library",
		Long: `Env prints CGO_CFLAGS and CGO_LDFLAGS for the CIRCT installation named by
$CIRCT_PATH or [circt] path in cirrus.toml. With --write it stores them in the
cache and prints the path of a file that can be sourced by a shell.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := buildcfg.Resolve(opts.cfg.Circt.Path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if write {
				path, err := buildcfg.Prepare(opts.cfg.CacheDir(), flags)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, path)
				return err
			}
			for _, kv := range flags.Env() {
				if _, err := fmt.Fprintln(out, kv); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the flags to the cache and print the file path")
	return cmd
}
