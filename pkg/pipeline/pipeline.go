// Package pipeline provides the core generation pipeline for dactyl.
//
// This package implements the complete load → resolve → emit pipeline shared
// by every entry point. Centralizing it keeps CLI commands thin and ensures
// a config renders identically no matter which command asked for it.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: parse and validate the keyboard definition document
//  2. Resolve: build the anchor registry and resolve every feature's
//     placement through the placement engine
//  3. Emit: turn resolved features into OpenSCAD solids
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	opts := pipeline.Options{ConfigPath: "kb.yaml", Output: "kb.scad"}
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/GabeBolton/dactyl-keyboard/pkg/config"
	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/scad"
)

const (
	// DefaultOutput is where render writes when no output path is given.
	DefaultOutput = "case.scad"

	// DefaultCylinderFacets is the segment count for emitted cylinders.
	DefaultCylinderFacets = 30
)

// Options contains all configuration for one pipeline run.
type Options struct {
	// ConfigPath locates the keyboard definition document.
	ConfigPath string

	// Output is the .scad destination path.
	Output string

	// Isolate records a failing feature and keeps going instead of
	// aborting on the first resolution error.
	Isolate bool

	// Logger receives progress events. Defaults to the Runner's logger.
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ConfigPath == "" {
		return errors.New(errors.ErrCodeInternal, "config path is required")
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	o.validated = true
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Config is the validated keyboard definition.
	Config *config.Config

	// Solids holds one emitted solid per feature, keyed by feature name
	// ("tweak:thumb-bridge", "mcu", ...).
	Solids map[string]scad.Solid

	// Order lists feature names in emission order.
	Order []string

	// Skipped records features that failed to resolve when running
	// isolated. Empty unless Options.Isolate was set.
	Skipped map[string]error

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ClusterCount int
	AnchorCount  int
	FeatureCount int
	LoadTime     time.Duration
	ResolveTime  time.Duration
	EmitTime     time.Duration
}
