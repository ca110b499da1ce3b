// Package pkg provides the core libraries for graphsim, an editor for pairs
// of fuzzy graphs.
//
// # Overview
//
// A fuzzy graph assigns every node and every edge a membership degree in
// [0,1]. An edge may never be "more present" than its endpoints allow: its
// degree is capped by a t-norm of the two node degrees. graphsim keeps two
// such graphs side by side (slots G1 and G2) and asks a remote analysis
// service for their twin-width, their similarity and whether they are
// isomorphic.
//
// # Architecture
//
// Data flows from user commands to the analysis service:
//
//	command (TUI key, HTTP route, CLI flag)
//	         ↓
//	    [editor] (two slots, selection, result bookkeeping)
//	         ↓
//	    [graph] + [selection] + [fuzzy] (model and invariants)
//	         ↓
//	    [analysis] (JSON over HTTP, retries, response cache)
//	         ↓
//	    remote service (/get-tw, /get-similarity, /check-isomorphism)
//
// # Quick Start
//
//	client, _ := analysis.NewClient(analysis.Options{})
//	ed := editor.New(client, editor.WithTNorm(fuzzy.Product))
//
//	a, _ := ed.AddNode(graph.SlotLeft, 0.8)
//	b, _ := ed.AddNode(graph.SlotLeft, 0.6)
//	ed.ToggleSelection(graph.SlotLeft, a)
//	ed.ToggleSelection(graph.SlotLeft, b)
//	ed.AddEdge(graph.SlotLeft, 0.9) // stored as 0.48 = 0.8 × 0.6
//
//	_ = ed.ComputeAll(ctx)
//	fmt.Println(ed.Results().TwinWidth[graph.SlotLeft])
//
// # Main Packages
//
// ## Model
//
// [fuzzy] - The four t-norms (minimum, Łukasiewicz, product, drastic) and
// membership parsing.
//
// [graph] - Fuzzy graph model for one slot, plus the JSON wire format shared
// with the analysis service and graph files.
//
// [selection] - Per-slot state machine for the (at most two) nodes armed for
// edge creation.
//
// [editor] - The editing session: commands on both slots, the current
// t-norm, and the latest result per analysis field.
//
// ## Infrastructure
//
// [analysis] - Client for the remote analysis service.
//
// [cache] - Response caches: filesystem, Redis and a no-op cache.
//
// [config] - TOML/YAML configuration with defaults and env overrides.
//
// [session] - Idle-expiring registry of editor sessions for the HTTP API.
//
// [httputil] - Retry with exponential backoff.
//
// [errors] - Coded errors shared by the CLI, the HTTP API and the editor.
//
// [observability] - Hooks for editor, cache and HTTP events.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
//	go test ./pkg/...              # All library tests
//	go test ./pkg/editor -race     # Concurrency of the editor
//
// [fuzzy]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/fuzzy
// [graph]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/graph
// [selection]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/selection
// [editor]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/editor
// [analysis]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/analysis
// [cache]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/config
// [session]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/session
// [httputil]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/graphsim/fuzzygraph/pkg/buildinfo
package pkg
