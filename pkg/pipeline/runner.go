package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/GabeBolton/dactyl-keyboard/pkg/config"
	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
	"github.com/GabeBolton/dactyl-keyboard/pkg/place"
	"github.com/GabeBolton/dactyl-keyboard/pkg/scad"
	"github.com/GabeBolton/dactyl-keyboard/pkg/tweak"
)

// Runner executes the generation pipeline. It is stateless apart from its
// logger; one Runner can serve any number of Execute calls.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to log.Default().
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Execute runs the complete load → resolve → emit pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}
	opts.Logger = logger

	loadStart := time.Now()
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Config:  cfg,
		Solids:  make(map[string]scad.Solid),
		Skipped: make(map[string]error),
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.ClusterCount = len(cfg.Clusters)

	logger.Info("loaded config",
		"clusters", len(cfg.Clusters),
		"tweaks", len(cfg.Tweaks),
		"duration", result.Stats.LoadTime)

	resolveStart := time.Now()
	resolver, err := r.buildResolver(cfg)
	if err != nil {
		return nil, err
	}
	result.Stats.AnchorCount = resolver.Registry().Len()

	emitStart := time.Now()
	if err := r.emitFeatures(ctx, cfg, resolver, result, opts); err != nil {
		return nil, err
	}
	result.Stats.ResolveTime = emitStart.Sub(resolveStart)
	result.Stats.EmitTime = time.Since(emitStart)
	result.Stats.FeatureCount = len(result.Order)

	logger.Info("emitted features",
		"features", result.Stats.FeatureCount,
		"skipped", len(result.Skipped),
		"duration", result.Stats.EmitTime)

	return result, nil
}

// BuildResolver loads only as far as a usable placement resolver, for
// commands that inspect anchors without emitting geometry.
func (r *Runner) BuildResolver(cfg *config.Config) (*place.Resolver, error) {
	return r.buildResolver(cfg)
}

func (r *Runner) buildResolver(cfg *config.Config) (*place.Resolver, error) {
	reg, err := cfg.BuildRegistry()
	if err != nil {
		return nil, err
	}
	return place.NewResolver(place.Config{
		Registry:    reg,
		Layout:      cfg.BuildLayout(),
		Segments:    cfg.Case.WallSegments,
		RearHousing: cfg.Case.RearHousing.Transform(),
	}), nil
}

// emitFeatures resolves and emits every configured feature in a stable
// order. With opts.Isolate a failing feature lands in result.Skipped and
// the rest proceed; otherwise the first failure aborts the run.
func (r *Runner) emitFeatures(ctx context.Context, cfg *config.Config, resolver *place.Resolver, result *Result, opts Options) error {
	type feature struct {
		name  string
		build func() (scad.Solid, error)
	}
	var features []feature

	tweaks := tweak.NewResolver(resolver)
	for _, name := range sortedKeys(cfg.Tweaks) {
		nodes := cfg.Tweaks[name]
		features = append(features, feature{"tweak:" + name, func() (scad.Solid, error) {
			return emitTweak(tweaks, nodes)
		}})
	}
	if cfg.Case.RearHousing != nil {
		housing := cfg.Case.RearHousing
		features = append(features, feature{"rear-housing", func() (scad.Solid, error) {
			return boxAt(housing.Transform(), housing.Size), nil
		}})
	}
	if cfg.MCU != nil {
		mcu := cfg.MCU
		features = append(features, feature{"mcu", func() (scad.Solid, error) {
			return emitMCU(resolver, mcu)
		}})
	}
	if cfg.WristRest != nil {
		wr := cfg.WristRest
		features = append(features, feature{"wrist-rest", func() (scad.Solid, error) {
			return emitWristRest(resolver, wr)
		}})
	}
	for i, plate := range cfg.FootPlates {
		plate := plate
		features = append(features, feature{fmt.Sprintf("foot-plate:%d", i), func() (scad.Solid, error) {
			return emitFootPlate(resolver, plate)
		}})
	}

	for _, f := range features {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "pipeline interrupted")
		}
		solid, err := f.build()
		if err != nil {
			if opts.Isolate {
				opts.Logger.Warn("skipping feature", "feature", f.name, "error", err)
				result.Skipped[f.name] = err
				continue
			}
			return withFeature(err, f.name)
		}
		result.Solids[f.name] = solid
		result.Order = append(result.Order, f.name)
	}
	return nil
}

// Document lays out the emitted solids as one .scad file, each feature
// preceded by a comment naming it.
func (res *Result) Document() []scad.Solid {
	var doc []scad.Solid
	for _, name := range res.Order {
		doc = append(doc, scad.Comment{Text: name}, res.Solids[name])
	}
	return doc
}

func emitTweak(tweaks *tweak.Resolver, nodes []tweak.Node) (scad.Solid, error) {
	var children []scad.Solid
	for _, node := range nodes {
		plan, err := tweaks.Expand(node)
		if err != nil {
			return nil, err
		}
		if plan.Highlight {
			children = append(children, scad.Comment{Text: "highlight"})
		}
		for _, hull := range plan.Hulls {
			children = append(children, scad.PointHull(hull))
		}
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return scad.Union{Children: children}, nil
}

func emitMCU(resolver *place.Resolver, mcu *config.MCU) (scad.Solid, error) {
	tr, err := resolver.IntoNook(place.Nook{
		Anchor:  mcu.Anchor,
		Corner:  mcu.Corner,
		Segment: mcu.Segment,
		Inset:   mcu.Size.Z,
	})
	if err != nil {
		return nil, err
	}
	return boxAt(tr.Translated(mcu.Offset), mcu.Size), nil
}

func emitWristRest(resolver *place.Resolver, wr *config.WristRest) (scad.Solid, error) {
	tr, err := resolver.Resolve(place.Request{
		Anchor: wr.Anchor,
		Corner: wr.Corner,
		Offset: wr.Offset,
	})
	if err != nil {
		return nil, err
	}
	return boxAt(tr, wr.Size), nil
}

// emitFootPlate hulls each anchor point's floor projection with a copy
// lifted to the plate thickness, yielding a flat slab under the points.
func emitFootPlate(resolver *place.Resolver, plate config.FootPlate) (scad.Solid, error) {
	var points []geom.Vec3
	for _, leaf := range plate.Points {
		req := place.Request{Anchor: leaf.Anchor, Corner: leaf.Corner}
		if leaf.Corner != matrix.None {
			// take the wall's ground segment under the named corner
			req.Segment = 4
		}
		p, err := resolver.Position(req)
		if err != nil {
			return nil, err
		}
		points = append(points,
			geom.Vec3{X: p.X, Y: p.Y},
			geom.Vec3{X: p.X, Y: p.Y, Z: plate.Thickness})
	}
	return scad.PointHull(points), nil
}

// boxAt hulls a box's transformed corner points instead of emitting a
// rotated cube, so placements with arbitrary rotation stay exact.
func boxAt(tr geom.Transform, size geom.Vec3) scad.Solid {
	corners := make([]geom.Vec3, 0, 8)
	for _, sx := range []float64{-0.5, 0.5} {
		for _, sy := range []float64{-0.5, 0.5} {
			for _, sz := range []float64{-0.5, 0.5} {
				local := geom.Vec3{X: sx * size.X, Y: sy * size.Y, Z: sz * size.Z}
				corners = append(corners, tr.ApplyPoint(local))
			}
		}
	}
	return scad.PointHull(corners)
}

func withFeature(err error, name string) error {
	var e *errors.Error
	if errors.AsError(err, &e) {
		return e.Via(append([]string{name}, e.Chain...)...)
	}
	return fmt.Errorf("%s: %w", name, err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
