package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentic-research/refview/internal/graph"
)

func newRefsCmd(f *rootFlags) *cobra.Command {
	var (
		target   string
		dangling bool
		external bool
		shared   int
	)
	cmd := &cobra.Command{
		Use:   "refs FILE",
		Short: "List the reference nodes of a document and what they point at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := f.open(cmd, args[0])
			if err != nil {
				return err
			}
			g := graph.Build(doc.raw)
			w := cmd.OutOrStdout()

			switch {
			case target != "":
				return printSites(w, g.Aliases(target))
			case dangling:
				return printSites(w, g.Dangling())
			case external:
				return printSites(w, g.External())
			case shared > 0:
				for _, t := range g.Shared(shared) {
					if _, err := fmt.Fprintf(w, "%s\t%d\n", t, g.AliasCount(t)); err != nil {
						return err
					}
				}
				return nil
			}
			return printSites(w, g.Sites())
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Only references resolving to this pointer")
	cmd.Flags().BoolVar(&dangling, "dangling", false, "Only in-document references with a missing target")
	cmd.Flags().BoolVar(&external, "external", false, "Only references that point outside the document")
	cmd.Flags().IntVar(&shared, "shared", 0, "List targets referenced at least N times, with their counts")
	cmd.MarkFlagsMutuallyExclusive("target", "dangling", "external", "shared")
	return cmd
}

// printSites writes one tab-separated line per site: path, ref, status, target.
func printSites(w io.Writer, sites []graph.Site) error {
	for _, s := range sites {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Path, s.Ref, s.Status, s.Target); err != nil {
			return err
		}
	}
	return nil
}
