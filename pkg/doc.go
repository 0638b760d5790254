// Package pkg provides the core libraries for buildorder dependency resolution.
//
// # Overview
//
// Buildorder computes the order in which the components of a large,
// componentised source tree must be built, from a declarative dependency
// database. The pkg directory is organized into four main areas:
//
//  1. [depdata] - Dependency database (text format parser, lookups)
//  2. [resolve] - Resolution engine (effective edges, closures, ordering)
//  3. [depgraph] / [render] - Closure graphs, wave schedules, Graphviz output
//  4. [pipeline] - Orchestration (load → resolve → render) with caching
//
// # Architecture
//
// The typical data flow through buildorder:
//
//	Dependency database file
//	         ↓
//	    [depdata] package (parse + canonicalize names)
//	         ↓
//	    [resolve] package (effective edges + closure + order)
//	         ↓
//	    [depgraph] package (graph structure + build waves)
//	         ↓
//	    [render] package (DOT/SVG/PNG output)
//
// # Quick Start
//
// Resolve a component's closure and print the build order:
//
//	import (
//	    "os"
//	    "github.com/fkoehler/buildorder/pkg/depdata"
//	    pkgio "github.com/fkoehler/buildorder/pkg/io"
//	    "github.com/fkoehler/buildorder/pkg/resolve"
//	)
//
//	// 1. Load the dependency database
//	db, _ := depdata.LoadFile("dependency-data-stable")
//
//	// 2. Resolve the recursive closure
//	engine := resolve.New(db)
//	res, _ := engine.Closure([]string{"kde/kdebase"}, depdata.AnyBranch)
//
//	// 3. Write the build order
//	pkgio.WriteText(os.Stdout, pkgio.FromClosure([]string{"kde/kdebase"}, res, nil))
//
// # Main Packages
//
// ## Core Domain Logic
//
// [depdata] - The dependency database: a line-oriented text format mapping
// each component to the components it depends on, with optional branch
// restrictions and a catch-all rule applied to every component.
//
// [resolve] - The resolution engine. Computes each component's effective
// dependency set (its own rules layered over the catch-all), recursive
// closures, and a deterministic build order. Reports cycles and branch
// conflicts as typed errors.
//
// [depgraph] - Dependency graph over a resolved closure, plus wave
// computation: groups of components that can be built concurrently.
//
// [render] - Graphviz rendering of closure graphs (DOT, SVG, PNG).
//
// ## Infrastructure
//
// [pipeline] - Complete resolution pipeline (load → resolve → render) used
// by both CLI and API server. Ensures consistent behavior and caching
// across all entry points.
//
// [cache] - Result caching keyed by database fingerprint and resolution
// options. File, Redis, and null backends.
//
// [config] - TOML configuration: data directories, branch groups, cache
// backend, server settings.
//
// [history] - Resolution history persistence (MongoDB or no-op).
//
// ## Shared
//
// [io] - Wire types for resolution results (text and JSON encodings)
// shared by the CLI and the API server.
//
// [errors] - API error codes, input validation.
//
// [observability] - Optional instrumentation hooks for pipeline stages,
// cache operations, and server requests.
//
// [buildinfo] - Build-time version information.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/resolve/...    # Specific package
//	go test -run Example         # Examples only
//
// [depdata]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/depdata
// [resolve]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/resolve
// [depgraph]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/depgraph
// [render]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/cache
// [config]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/config
// [history]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/history
// [io]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/io
// [errors]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/errors
// [observability]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/fkoehler/buildorder/pkg/buildinfo
package pkg
