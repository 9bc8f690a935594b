package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meigma/farc"
)

// app holds state shared by every subcommand.
type app struct {
	cfg    config
	logger *slog.Logger
}

func newRootCmd(cfg config) *cobra.Command {
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:           "farc",
		Short:         "Inspect, extract and repack FARC archives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := a.cfg.newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfg.logLevel, "log-level", cfg.logLevel,
		"Log level (debug, info, warn, error) [$"+envLogLevel+"]")
	root.PersistentFlags().StringVar(&a.cfg.logFormat, "log-format", cfg.logFormat,
		"Log format (text, json) [$"+envLogFormat+"]")

	root.AddCommand(a.infoCmd(), a.lsCmd(), a.extractCmd(), a.repackCmd())
	return root
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <archive>",
		Short: "Print header fields and entry counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, closeFn, err := openArchive(cmd.Context(), args[0], a.logger)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck // read-only file

			h := ar.Header()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sub-type:     %d\n", h.SubType)
			fmt.Fprintf(out, "table kind:   %s\n", ar.TableKind())
			fmt.Fprintf(out, "sir0:         %#x+%#x\n", h.Sir0Offset, h.Sir0Length)
			fmt.Fprintf(out, "data:         %#x+%#x\n", h.DataOffset, h.DataLength)
			fmt.Fprintf(out, "entries:      %d\n", ar.Len())
			fmt.Fprintf(out, "named:        %d\n", ar.KnownNameCount())
			fmt.Fprintf(out, "unnamed:      %d\n", ar.UnknownNameCount())
			return nil
		},
	}
}

func (a *app) lsCmd() *cobra.Command {
	var (
		names      string
		withDigest bool
	)
	cmd := &cobra.Command{
		Use:   "ls <archive>",
		Short: "List entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, closeFn, err := openArchive(cmd.Context(), args[0], a.logger)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck // read-only file

			if err := recoverNames(ar, args[0], names, a.logger); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !withDigest {
				for _, e := range ar.Entries() {
					fmt.Fprintf(out, "%08x %10d %s\n", e.NameHash, e.Length, displayName(e.NamePtr()))
				}
				return nil
			}

			infos, err := ar.Inspect(cmd.Context())
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Fprintf(out, "%08x %10d %s %s\n", info.Hash, info.Length, info.Digest, displayName(info.Name))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&names, "names", "", "List file used to recover entry names")
	cmd.Flags().BoolVar(&withDigest, "digest", false, "Print the sha256 digest of every entry")
	return cmd
}

func displayName(name *string) string {
	if name == nil {
		return "-"
	}
	return *name
}

func (a *app) extractCmd() *cobra.Command {
	var (
		names     string
		overwrite bool
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "extract <archive> <dir>",
		Short: "Write every entry to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, closeFn, err := openArchive(cmd.Context(), args[0], a.logger)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck // read-only file

			if err := recoverNames(ar, args[0], names, a.logger); err != nil {
				return err
			}

			stats, err := ar.Extract(cmd.Context(), args[1],
				farc.ExtractWithOverwrite(overwrite),
				farc.ExtractWithWorkers(workers),
				farc.ExtractWithLogger(a.logger))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d files (%d bytes), skipped %d\n",
				stats.Written, stats.Bytes, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&names, "names", "", "List file used to recover entry names")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace files that already exist")
	cmd.Flags().IntVar(&workers, "workers", a.cfg.workers, "Concurrent writers [$"+envWorkers+"]")
	return cmd
}

func (a *app) repackCmd() *cobra.Command {
	var replace string
	cmd := &cobra.Command{
		Use:   "repack <archive> <out>",
		Short: "Rewrite an archive as a hash-indexed archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, closeFn, err := openArchive(cmd.Context(), args[0], a.logger)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck // read-only file

			w, err := farc.FromArchive(cmd.Context(), ar,
				farc.WithReadWorkers(a.cfg.workers),
				farc.WithWriterLogger(a.logger))
			if err != nil {
				return err
			}
			if replace != "" {
				n, err := w.AddDir(cmd.Context(), replace)
				if err != nil {
					return err
				}
				a.logger.Info("replaced entries", "dir", replace, "files", n)
			}

			if err := writeFileAtomic(cmd.Context(), args[1], w); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s\n", w.Len(), args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&replace, "replace", "", "Directory whose files replace or add entries by name hash")
	return cmd
}

// writeFileAtomic writes the archive to a temp file next to path and renames
// it into place.
func writeFileAtomic(ctx context.Context, path string, w *farc.Writer) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".farc-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := w.WriteTo(tmp); err != nil {
		_ = tmp.Close()        //nolint:errcheck // cleaning up
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
