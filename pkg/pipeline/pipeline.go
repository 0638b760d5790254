// Package pipeline provides the core resolution pipeline for buildorder.
//
// This package implements the complete load → resolve → render pipeline
// shared by the CLI and the HTTP server. By centralizing this logic, both
// entry points cache and log the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Parse the dependency data file and fingerprint its content
//  2. Resolve: Compute the build order (recursive closure or direct deps)
//  3. Render: Draw the closure graph (DOT, SVG, or PNG)
//
// Resolve and render results are cached under keys derived from the data
// file fingerprint, so editing the file invalidates everything at once.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    DataFile:   "dependency-data-stable",
//	    Components: []string{"kde/kdelibs"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	order := result.Resolution.Order
//
// Run individual stages:
//
//	// Load only
//	db, hash, err := runner.Load(opts.DataFile)
//
//	// Resolve with an already loaded database
//	res, err := runner.Resolve(ctx, db, hash, opts)
//
//	// Render the closure graph
//	artifact, err := runner.Render(ctx, db, hash, opts)
package pipeline

import (
	"fmt"
	"time"

	"github.com/fkoehler/buildorder/pkg/cache"
	"github.com/fkoehler/buildorder/pkg/depdata"
	pkgio "github.com/fkoehler/buildorder/pkg/io"
	"github.com/fkoehler/buildorder/pkg/render"
)

// DefaultFormat is the default render format for the graph stage.
const DefaultFormat = render.FormatDOT

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	render.FormatDOT: true,
	render.FormatSVG: true,
	render.FormatPNG: true,
}

// Options contains all configuration for the resolution pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Resolve options
	DataFile      string   `json:"data_file,omitempty"`
	Components    []string `json:"components"`
	Branch        string   `json:"branch,omitempty"`
	Direct        bool     `json:"direct,omitempty"`
	AssumePresent bool     `json:"assume_present,omitempty"`
	Waves         bool     `json:"waves,omitempty"`
	Refresh       bool     `json:"refresh,omitempty"`

	// Render options
	Format   string `json:"format,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Resolution is the computed build order in wire form.
	Resolution pkgio.Result

	// Artifact is the rendered closure graph. Nil unless a render
	// format was requested.
	Artifact []byte

	// DataHash is the content fingerprint of the dependency data file.
	DataHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ComponentCount int // Components in the database
	OrderSize      int // Components in the resolved build order
	LoadTime       time.Duration
	ResolveTime    time.Duration
	RenderTime     time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ResolveHit bool // Whether the resolution came from cache
	RenderHit  bool // Whether the artifact came from cache
}

// ValidateFormat checks that a render format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png)", format)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent, so calling it multiple
// times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	if o.Format != "" {
		if err := o.validateRender(); err != nil {
			return err
		}
	}
	o.validated = true
	return nil
}

// ValidateForResolve checks required fields for the resolve stage.
func (o *Options) ValidateForResolve() error {
	if o.DataFile == "" {
		return fmt.Errorf("data file is required")
	}
	if len(o.Components) == 0 {
		return fmt.Errorf("at least one component is required")
	}
	if o.Waves && o.Direct {
		return fmt.Errorf("waves require closure mode, not --direct")
	}

	if o.Branch == "" {
		o.Branch = string(depdata.AnyBranch)
	}

	return nil
}

// ValidateForRender checks required fields for the render stage and
// applies the default format.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	return o.validateRender()
}

func (o *Options) validateRender() error {
	if o.Direct {
		return fmt.Errorf("graph rendering requires closure mode, not --direct")
	}
	return ValidateFormat(o.Format)
}

// BranchValue returns the requested branch in engine form.
func (o *Options) BranchValue() depdata.Branch {
	return depdata.Branch(o.Branch)
}

// resolutionKeyOpts returns cache key options for the resolve stage.
// Components must already be canonical database names.
func (o *Options) resolutionKeyOpts(components []string) cache.ResolutionKeyOpts {
	return cache.ResolutionKeyOpts{
		Components: components,
		Branch:     o.Branch,
		Direct:     o.Direct,
		Waves:      o.Waves,
	}
}

// artifactKeyOpts returns cache key options for the render stage.
// Components must already be canonical database names.
func (o *Options) artifactKeyOpts(components []string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Components: components,
		Branch:     o.Branch,
		Format:     o.Format,
		Detailed:   o.Detailed,
	}
}
