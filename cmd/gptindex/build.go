package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/gptindex/composable"
	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/index"
	"github.com/smallnest/gptindex/reader"
)

var errVectorStoreType = errors.New("vector_store indices keep their embeddings outside the graph document; use dict")

func parseType(s string) (data.Type, error) {
	t := data.Type(s)
	if t == data.TypeVectorStore {
		return "", errVectorStoreType
	}
	for _, known := range data.RegisteredTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown index type %q", s)
}

func newBuildCmd(a *app) *cobra.Command {
	var (
		typ        string
		name       string
		recursive  bool
		extensions []string
	)
	cmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "Build an index over the documents of a directory and store it as a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(typ)
			if err != nil {
				return err
			}
			opts := []reader.Option{
				reader.WithRecursive(recursive),
				reader.WithLogger(a.sc.Logger()),
			}
			if len(extensions) > 0 {
				opts = append(opts, reader.WithExtensions(extensions...))
			}
			ctx := cmd.Context()
			docs, err := reader.NewDirectory(args[0], opts...).Load(ctx)
			if err != nil {
				return err
			}

			buildOpts := a.cfg.BuildOptions()
			if name != "" {
				buildOpts = append(buildOpts, index.WithIndexID(name))
			}
			idx, err := index.Build(ctx, a.sc, t, docs, buildOpts...)
			if err != nil {
				return err
			}
			g, err := composable.FromIndex(a.sc, idx)
			if err != nil {
				return err
			}
			if name == "" {
				name = g.RootID()
			}
			meta := map[string]any{
				"type":      string(t),
				"source":    args[0],
				"documents": len(docs),
			}
			if err := g.Save(ctx, a.store, name, meta); err != nil {
				return err
			}

			title(a.out, "built "+name)
			field(a.out, "type", t)
			field(a.out, "documents", len(docs))
			field(a.out, "nodes", idx.Struct().Registry().Len())
			field(a.out, "tokens", a.sc.TotalTokensUsed())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", string(data.TypeList), "index type: "+typeNames())
	f.StringVarP(&name, "name", "n", "", "graph name, defaults to the generated index id")
	f.BoolVarP(&recursive, "recursive", "r", false, "read subdirectories")
	f.StringSliceVar(&extensions, "ext", nil, "file extensions to read, e.g. .md,.txt")
	return cmd
}

func typeNames() string {
	var names []string
	for _, t := range data.RegisteredTypes() {
		if t != data.TypeVectorStore {
			names = append(names, string(t))
		}
	}
	return strings.Join(names, ", ")
}
