// Package cmd implements the refview command line.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/refview/internal/ingest"
	"github.com/agentic-research/refview/view"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath     string
	redact         bool
	internalPrefix string
	verbose        bool
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "refview",
		Short: "Reference-transparent views over JSON, YAML, HCL and SQLite documents",
		Long: `refview reads a document containing JSON References ("$ref") and lets you
read and edit it as if every reference were replaced by its target. Each
reference node gains a synthetic "$ref-value" field; paths may pass through it,
and writes through it land at the referenced location.

Paths are JSON Pointers: /paths/~1users/get/$ref-value/type`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Path to config file (default ~/.config/refview/config.json)")
	pf.BoolVar(&f.redact, "redact", false, "Hide keys starting with the internal prefix")
	pf.StringVar(&f.internalPrefix, "internal-prefix", "", `Prefix of internal keys (default "_")`)
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(
		newGetCmd(f),
		newKeysCmd(f),
		newResolveCmd(f),
		newQueryCmd(f),
		newSetCmd(f),
		newDeleteCmd(f),
		newRefsCmd(f),
	)
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (f *rootFlags) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// document is a loaded file together with its root view.
type document struct {
	path string
	raw  any
	root *view.View
}

// open loads path and wraps it with the effective view options.
func (f *rootFlags) open(cmd *cobra.Command, path string) (*document, error) {
	opts, err := f.options(cmd)
	if err != nil {
		return nil, err
	}
	log := f.logger(cmd)
	raw, err := ingest.Load(path)
	if err != nil {
		return nil, err
	}
	log.Debug("loaded document", "path", path, "redact", opts.Redact, "prefix", opts.Prefix())
	return &document{
		path: path,
		raw:  raw,
		root: view.New(raw, view.WithOptions(opts), view.WithLogger(log)),
	}, nil
}
