package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/gptindex/composable"
	"github.com/smallnest/gptindex/schema"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		async   bool
		asJSON  bool
		sources bool
	)
	cmd := &cobra.Command{
		Use:   "query <graph> <question...>",
		Short: "Answer a question from a stored graph",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := composable.Load(ctx, a.sc, a.store, args[0])
			if err != nil {
				return err
			}
			a.sc.ResetTokens()

			question := strings.Join(args[1:], " ")
			var resp *schema.Response
			if async {
				res := <-g.QueryAsync(ctx, question, a.cfg.Queries)
				resp, err = res.Response, res.Err
			} else {
				resp, err = g.Query(ctx, question, a.cfg.Queries)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			fmt.Fprintln(a.out, styles.Answer.Render(resp.String()))
			if sources {
				printSources(a, resp.SourceNodes, 0)
			}
			field(a.out, "tokens", a.sc.TotalTokensUsed())
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&async, "async", false, "run the query off the command goroutine")
	f.BoolVar(&asJSON, "json", false, "print the response as JSON")
	f.BoolVarP(&sources, "sources", "s", false, "print the source nodes")
	return cmd
}

func printSources(a *app, nodes []schema.SourceNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		fmt.Fprintf(a.out, "%s%s %s\n", indent, styles.Label.Render(n.IndexID+"/"+n.NodeID), styles.Muted.Render(clip(n.Text, 72)))
		if n.Child != nil {
			printSources(a, n.Child.SourceNodes, depth+1)
		}
	}
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
