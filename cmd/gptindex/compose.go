package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/gptindex/composable"
	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/index"
)

// parseChild splits a "name=summary" flag value.
func parseChild(s string) (name, summary string, err error) {
	name, summary, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.TrimSpace(summary) == "" {
		return "", "", fmt.Errorf("child %q: want name=summary", s)
	}
	return name, summary, nil
}

func newComposeCmd(a *app) *cobra.Command {
	var (
		typ      string
		name     string
		children []string
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose stored graphs under a new root index",
		Example: `  gptindex compose --type tree --name top \
    --child essays="Essays on startups" --child notes="Meeting notes"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := parseType(typ)
			if err != nil {
				return err
			}
			if len(children) == 0 {
				return fmt.Errorf("at least one --child is required")
			}
			ctx := cmd.Context()
			graphs := make([]*composable.Graph, 0, len(children))
			summaries := make([]string, 0, len(children))
			names := make([]string, 0, len(children))
			for _, c := range children {
				childName, summary, err := parseChild(c)
				if err != nil {
					return err
				}
				g, err := composable.Load(ctx, a.sc, a.store, childName)
				if err != nil {
					return err
				}
				graphs = append(graphs, g)
				summaries = append(summaries, summary)
				names = append(names, childName)
			}

			g, err := composable.FromGraphs(ctx, a.sc, t, graphs, summaries, append(a.cfg.BuildOptions(), index.WithIndexID(name))...)
			if err != nil {
				return err
			}
			meta := map[string]any{
				"type":     string(t),
				"children": names,
			}
			if err := g.Save(ctx, a.store, name, meta); err != nil {
				return err
			}

			title(a.out, "composed "+name)
			field(a.out, "type", t)
			field(a.out, "children", strings.Join(names, ", "))
			field(a.out, "indices", g.Len())
			field(a.out, "tokens", a.sc.TotalTokensUsed())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", string(data.TypeList), "root index type: "+typeNames())
	f.StringVarP(&name, "name", "n", "", "graph name, also the root index id")
	f.StringArrayVar(&children, "child", nil, "child graph as name=summary, repeatable")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
