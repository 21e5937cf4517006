package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallnest/gptindex/composable"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [graph]",
		Short: "List stored graphs, or show the indices of one graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 {
				records, err := a.store.List(ctx)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(a.out, styles.Muted.Render("no graphs"))
					return nil
				}
				for _, r := range records {
					fmt.Fprintf(a.out, "%s %s %s\n",
						styles.Label.Render(r.ID),
						r.RootID,
						styles.Muted.Render(r.Timestamp.Format(time.RFC3339)))
				}
				return nil
			}

			g, err := composable.Load(ctx, a.sc, a.store, args[0])
			if err != nil {
				return err
			}
			title(a.out, args[0])
			field(a.out, "root", g.RootID())
			field(a.out, "indices", g.Len())
			printIndex(a, g, g.RootID(), "", 0)
			return nil
		},
	}
}

// printIndex prints id and, below it, every child index it references.
func printIndex(a *app, g *composable.Graph, id, summary string, depth int) {
	idx, ok := g.Index(id)
	if !ok {
		return
	}
	s := idx.Struct()
	line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", depth), styles.Label.Render(id), styles.Muted.Render(fmt.Sprintf("(%s, %d nodes)", s.Type(), s.Registry().Len())))
	if summary != "" {
		line += " " + clip(summary, 48)
	}
	fmt.Fprintln(a.out, line)
	for _, n := range s.Registry().Nodes() {
		if n.IsChildRef() {
			printIndex(a, g, n.ChildIndexID, n.Text, depth+1)
		}
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <graph>",
		Short: "Delete a stored graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "deleted "+args[0])
			return nil
		},
	}
}
