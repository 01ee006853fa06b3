package main

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thiremani/cirrus/mlir"
	"github.com/thiremani/cirrus/outline"
)

func newWalkCmd(opts *options) *cobra.Command {
	var (
		format string
		jobs   int
	)
	cmd := &cobra.Command{
		Use:   "walk [flags] file.mlir|dir...",
		Short: "Print the operation tree of modules",
		Long: `Walk parses each file in its own context and prints its operations, regions and blocks.
A directory stands for the .mlir files directly inside it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := outline.ParseFormat(format)
			if err != nil {
				return err
			}
			files, err := expandFiles(args)
			if err != nil {
				return err
			}
			return opts.walk(cmd, files, f, jobs)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(outline.Text), "output format (text|json|yaml)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "files parsed in parallel")
	return cmd
}

// walk outlines every file concurrently, one context per goroutine, and
// prints the results in argument order.
func (o *options) walk(cmd *cobra.Command, files []string, f outline.Format, jobs int) error {
	out := cmd.OutOrStdout()
	colored := o.useColor(out)
	results := make([][]byte, len(files))

	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return o.withModule(path, cmd.InOrStdin(), func(m mlir.Module) error {
				n, err := outline.FromModule(m)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				var buf bytes.Buffer
				if len(files) > 1 && f == outline.Text {
					fmt.Fprintf(&buf, "%s (%d operations):\n", path, n.Count())
				}
				if err := outline.Render(&buf, n, f, colored); err != nil {
					return err
				}
				results[i] = buf.Bytes()
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := out.Write(r); err != nil {
			return err
		}
	}
	return nil
}
