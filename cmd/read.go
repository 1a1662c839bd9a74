package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/refview/internal/ingest"
	"github.com/agentic-research/refview/view"
)

var (
	// ErrNoValue is returned when a path does not resolve.
	ErrNoValue = errors.New("no value at path")
	// ErrNotContainer is returned when a command needs a mapping or sequence.
	ErrNotContainer = errors.New("value is not a mapping or sequence")
)

func optionalPath(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

// lookup returns the value at path, following $ref-value segments.
func (d *document) lookup(path string) (any, error) {
	v, ok := d.root.At(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoValue, path)
	}
	return v, nil
}

// printValue writes v as indented JSON. Views are rendered with their
// resolved $ref-value fields.
func printValue(w io.Writer, v any) error {
	if vw, ok := v.(*view.View); ok {
		_, err := fmt.Fprintln(w, vw.String())
		return err
	}
	_, err := fmt.Fprintln(w, oj.JSON(v, &oj.Options{Sort: true, Indent: 2}))
	return err
}

func newGetCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE [PATH]",
		Short: "Print the value at PATH, with references shown alongside their targets",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := f.open(cmd, args[0])
			if err != nil {
				return err
			}
			v, err := doc.lookup(optionalPath(args, 1))
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), v)
		},
	}
}

func newKeysCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "keys FILE [PATH]",
		Short: "List the keys at PATH, including $ref-value on reference nodes",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := f.open(cmd, args[0])
			if err != nil {
				return err
			}
			v, err := doc.lookup(optionalPath(args, 1))
			if err != nil {
				return err
			}
			vw, ok := v.(*view.View)
			if !ok {
				return fmt.Errorf("%w: %q", ErrNotContainer, optionalPath(args, 1))
			}
			for _, k := range vw.Keys() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), k); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newResolveCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve FILE [PATH]",
		Short: "Print the value at PATH with every reference replaced by its target",
		Long: `Print the value at PATH with every reference replaced by its target.
References that cannot be followed (external, dangling, or looping back
into the value being printed) are kept as {"$ref": ...} nodes.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := f.open(cmd, args[0])
			if err != nil {
				return err
			}
			v, err := doc.lookup(optionalPath(args, 1))
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), view.ResolveDeep(v))
		},
	}
}

func newQueryCmd(f *rootFlags) *cobra.Command {
	var raw, paths bool
	cmd := &cobra.Command{
		Use:   "query FILE JSONPATH",
		Short: "Run a JSONPath query over the resolved document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := f.open(cmd, args[0])
			if err != nil {
				return err
			}
			var root any = doc.raw
			if !raw {
				root = view.ResolveDeep(doc.root)
			}
			matches, err := ingest.NewJsonWalker().Query(root, args[1])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, m := range matches {
				out := oj.JSON(m.Context(), &oj.Options{Sort: true})
				if paths {
					out = m.Pointer() + "\t" + out
				}
				if _, err := fmt.Fprintln(w, out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Query the document as stored, without following references")
	cmd.Flags().BoolVar(&paths, "paths", false, "Prefix each result with its JSON Pointer")
	return cmd
}
