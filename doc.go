// gptindex - Composable Document Indices for Question Answering in Go
//
// gptindex organizes text documents into index structures and answers questions by
// traversing those structures and asking a language model to synthesize a response.
// Indices compose: an index can hold other indices as its documents, so a question
// asked at the root of a graph recurses into the children that the root's query
// strategy selects, and their answers are folded into the root's answer.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/gptindex
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/gptindex/composable"
//		"github.com/smallnest/gptindex/data"
//		"github.com/smallnest/gptindex/index"
//		"github.com/smallnest/gptindex/schema"
//		"github.com/smallnest/gptindex/service"
//		"github.com/smallnest/gptindex/synth"
//	)
//
//	func main() {
//		ctx := context.Background()
//		sc := service.New(service.WithSynthesizer(synth.NewEcho(nil)))
//
//		essays, _ := index.BuildList(ctx, sc, schema.NewDocuments("How to start a startup."))
//		notes, _ := index.BuildList(ctx, sc, schema.NewDocuments("Monday: hire a designer."))
//
//		g, _ := composable.FromIndices(ctx, sc, data.TypeTree,
//			[]index.Index{essays, notes},
//			[]string{"Essays about startups", "Weekly meeting notes"})
//
//		resp, _ := g.Query(ctx, "How do I start?", nil)
//		fmt.Println(resp)
//		fmt.Println("tokens:", sc.TotalTokensUsed())
//	}
//
// # Key Features
//
//   - Index Strategies: list, tree, keyword table and vector (dict or vector store)
//   - Composable Graphs: indices nested as documents of other indices
//   - Per-Index Query Configuration: choose the mode and parameters by index type or id
//   - Async Queries: run a query off the caller goroutine with context cancellation
//   - Persistence: JSON documents on disk or in a graph store
//   - Observability: leveled logging, Prometheus metrics and OpenTelemetry spans
//
// # Core Concepts
//
// # Nodes and Index Structs
//
// A node is either a leaf holding a chunk of text or a child reference standing in for
// a nested index, with the child's summary as its text. The data package holds the
// persistent state of each index type; every struct keeps its nodes in insertion
// order in a node registry.
//
// # Query Configuration
//
// A query.Config names an index type, optionally an index id, a mode and parameters:
//
//	configs := []query.Config{
//		{IndexType: data.TypeTree, Params: query.Params{query.ParamChildBranchFactor: 2}},
//		{IndexType: data.TypeList, IndexID: "notes", Mode: query.ModeEmbedding},
//	}
//
// A rule naming an index id wins over a rule for its type; among type rules the first
// one wins.
//
// # Package Structure
//
// schema/, data/
// Documents, nodes, responses and the persistent index structs
//
// index/
// Building and querying the four index strategies
//
// composable/
// Graphs of indices: construction, recursive queries and persistence
//
// service/
// The service context shared by a graph: synthesizer, embedder, splitter, vector
// stores, logger, metrics, tracer and the token counter
//
// synth/, embedding/, vectorstore/
// Language model, embedding and vector store capabilities, with langchaingo and
// OpenAI implementations and deterministic ones for tests
//
// store/
// Graph store implementations
//
// Options:
//   - Memory: For tests and short-lived processes
//   - File: One JSON file per graph
//   - SQLite: Lightweight, file-based storage
//   - PostgreSQL: Scalable relational database
//   - Redis: High-performance in-memory storage
//   - Badger: Embedded key-value storage
//
// Example:
//
//	st, _ := sqlite.NewSqliteGraphStore(sqlite.SqliteOptions{Path: "graphs.db"})
//	_ = g.Save(ctx, st, "startups", nil)
//	g, _ = composable.Load(ctx, sc, st, "startups")
//
// reader/
// Loading text, markdown and HTML files as documents
//
// config/, cmd/gptindex/
// YAML configuration and the command line tool
//
// # Configuration
//
// The command line tool reads gptindex.yaml:
//
//	log_level: info
//	llm:
//	  provider: openai
//	  model: gpt-4o-mini
//	embedding:
//	  provider: openai
//	store:
//	  backend: sqlite
//	  path: graphs.db
//	queries:
//	  - index_type: tree
//	    params:
//	      child_branch_factor: 2
//
// The OpenAI providers read their key from OPENAI_API_KEY unless api_key_env names
// another variable.
package gptindex // import "github.com/smallnest/gptindex"
