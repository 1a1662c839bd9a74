package cmd

import (
	"errors"
	"fmt"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/refview/internal/pointer"
	"github.com/agentic-research/refview/internal/writeback"
	"github.com/agentic-research/refview/view"
)

// ErrEmptyPath is returned when an edit does not name a key.
var ErrEmptyPath = errors.New("path must name a key")

// parent splits path into the view holding its last segment and that segment.
func (d *document) parent(path string) (*view.View, string, error) {
	segs := pointer.Split(path)
	if len(segs) == 0 {
		return nil, "", ErrEmptyPath
	}
	last := segs[len(segs)-1]
	prefix := pointer.Format(segs[:len(segs)-1])
	v, err := d.lookup(prefix)
	if err != nil {
		return nil, "", err
	}
	vw, ok := v.(*view.View)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrNotContainer, prefix)
	}
	return vw, last, nil
}

// save writes the document to output, or back to its source file.
func (d *document) save(output string) error {
	if output == "" {
		output = d.path
	}
	return writeback.WriteFile(output, view.Raw(d.root))
}

// parseValue reads a command-line value as JSON, falling back to a plain
// string when it is not valid JSON.
func parseValue(s string) any {
	if v, err := oj.ParseString(s); err == nil {
		return v
	}
	return s
}

func newSetCmd(f *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "set FILE PATH VALUE",
		Short: "Assign VALUE (JSON, or a plain string) at PATH",
		Long: `Assign VALUE at PATH and write the document back.

When PATH ends in $ref-value the value is written to the referenced location,
creating missing intermediate mappings; the reference node is left as is.
Writing through a reference to the whole document ("#") fails.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := f.open(cmd, args[0])
			if err != nil {
				return err
			}
			parent, key, err := doc.parent(args[1])
			if err != nil {
				return err
			}
			if err := parent.Set(key, parseValue(args[2])); err != nil {
				return fmt.Errorf("set %s: %w", args[1], err)
			}
			return doc.save(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result here instead of FILE")
	return cmd
}

func newDeleteCmd(f *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "delete FILE PATH",
		Short: "Remove the value at PATH",
		Long: `Remove the value at PATH and write the document back.

When PATH ends in $ref-value the referenced value is removed at its canonical
location. Sequence elements are replaced by null so later indices stay valid.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := f.open(cmd, args[0])
			if err != nil {
				return err
			}
			parent, key, err := doc.parent(args[1])
			if err != nil {
				return err
			}
			parent.Delete(key)
			return doc.save(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result here instead of FILE")
	return cmd
}
