// Package place computes concrete 3D transforms for anchor requests.
//
// A request names an anchor plus an optional corner, wall segment and offset;
// the resolver walks the anchor registry, recursing through secondary anchors
// until it bottoms out at a key position or a built-in landmark. Results are
// memoized per (anchor, corner, segment), and an in-progress set turns
// reference cycles into CyclicAnchor errors instead of unbounded recursion.
//
// A Resolver is a single resolution session over immutable inputs: it is
// cheap to build, deterministic, and meant to be discarded with the run.
// It is not safe for concurrent use; resolved transforms are plain values
// and may be shared freely once returned.
package place

import (
	"github.com/GabeBolton/dactyl-keyboard/pkg/anchor"
	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
	"github.com/GabeBolton/dactyl-keyboard/pkg/profile"
)

// KeyLayout supplies per-key nominal transforms and cluster extents.
// profile.Layout is the standard implementation.
type KeyLayout interface {
	Bounds(cluster string) (matrix.Bounds, error)
	KeyFrame(cluster string, col, row int) (geom.Transform, error)
}

// Config wires a resolver to its collaborators. All fields are required
// except RearHousing, which defaults to the identity placement.
type Config struct {
	Registry *anchor.Registry
	Layout   KeyLayout
	Segments profile.SegmentTable

	// RearHousing is the transform of the rear-housing built-in, derived
	// from the case's housing configuration.
	RearHousing geom.Transform
}

// Request is one placement query. The zero Corner value is North; use
// matrix.None to request the anchor's base point.
type Request struct {
	Anchor  string
	Corner  matrix.Direction
	Segment int

	// Offset is applied last, in the frame established by the corner-facing
	// rotation, so its axes mean forward/lateral/vertical relative to the
	// direction faced regardless of which corner was chosen.
	Offset geom.Vec3

	// Lateral is an extra 2D in-plane shift, applied in the same frame.
	Lateral geom.Vec2
}

// Base returns a request for the anchor's own base point.
func Base(name string) Request {
	return Request{Anchor: name, Corner: matrix.None}
}

type memoKey struct {
	name    string
	corner  matrix.Direction
	segment int
}

// Resolver resolves placement requests against an anchor registry.
type Resolver struct {
	cfg        Config
	memo       map[memoKey]geom.Transform
	inProgress map[string]bool
	chain      []string
}

// NewResolver creates a resolution session over the given configuration.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		cfg:        cfg,
		memo:       make(map[memoKey]geom.Transform),
		inProgress: make(map[string]bool),
	}
}

// Registry exposes the anchor registry the resolver works against.
func (r *Resolver) Registry() *anchor.Registry {
	return r.cfg.Registry
}

// Resolve computes the global transform for a request.
func (r *Resolver) Resolve(req Request) (geom.Transform, error) {
	if req.Corner == matrix.Full {
		return geom.Transform{}, errors.New(errors.ErrCodeInvalidSegment,
			"the full wildcard names a span, not a point").Via(req.Anchor)
	}
	if err := errors.ValidateSegment(req.Segment); err != nil {
		return geom.Transform{}, withChain(err, req.Anchor)
	}

	base, err := r.resolveBase(req.Anchor, req.Corner, req.Segment)
	if err != nil {
		return geom.Transform{}, err
	}
	return base.Translated(req.Lateral.Vec3()).Translated(req.Offset), nil
}

// Position is a convenience wrapper returning just the resolved point.
func (r *Resolver) Position(req Request) (geom.Vec3, error) {
	tr, err := r.Resolve(req)
	if err != nil {
		return geom.Vec3{}, err
	}
	return tr.Pos, nil
}

// resolveBase resolves an anchor's corner/segment point without any caller
// offset. It carries the memo and the cycle guard; every recursive step for
// secondary anchors funnels through here.
func (r *Resolver) resolveBase(name string, corner matrix.Direction, segment int) (geom.Transform, error) {
	key := memoKey{name: name, corner: corner, segment: segment}
	if tr, ok := r.memo[key]; ok {
		return tr, nil
	}

	if r.inProgress[name] {
		return geom.Transform{}, errors.New(errors.ErrCodeCyclicAnchor,
			"anchor %q is defined in terms of itself", name).Via(append(append([]string{}, r.chain...), name)...)
	}
	r.inProgress[name] = true
	r.chain = append(r.chain, name)
	defer func() {
		delete(r.inProgress, name)
		r.chain = r.chain[:len(r.chain)-1]
	}()

	d, err := r.cfg.Registry.Lookup(name)
	if err != nil {
		return geom.Transform{}, withChain(err, r.chain...)
	}

	var tr geom.Transform
	switch d.Kind {
	case anchor.KindKey:
		tr, err = r.resolveKey(d, corner, segment)
	case anchor.KindSecondary:
		tr, err = r.resolveSecondary(d, corner, segment)
	case anchor.KindBuiltin:
		tr, err = r.resolveBuiltin(name, corner, segment)
	default:
		err = errors.New(errors.ErrCodeInternal, "anchor %q has unknown kind %d", name, d.Kind)
	}
	if err != nil {
		return geom.Transform{}, withChain(err, r.chain...)
	}

	r.memo[key] = tr
	return tr, nil
}

// resolveKey places a corner/segment point of a key: the nominal key frame,
// then half a pitch toward the corner, rotated to face it, then the wall
// profile's taper offset for the segment.
func (r *Resolver) resolveKey(d anchor.Descriptor, corner matrix.Direction, segment int) (geom.Transform, error) {
	bounds, err := r.cfg.Layout.Bounds(d.Cluster)
	if err != nil {
		return geom.Transform{}, err
	}
	col, row, err := bounds.Resolve(d.Coord)
	if err != nil {
		return geom.Transform{}, err
	}
	tr, err := r.cfg.Layout.KeyFrame(d.Cluster, col, row)
	if err != nil {
		return geom.Transform{}, err
	}

	if corner == matrix.None {
		// Base point: the key's own center; segment bounds do not apply.
		return tr, nil
	}

	vec, angle, err := matrix.Compass(corner)
	if err != nil {
		return geom.Transform{}, err
	}
	shift := vec.Scale(profile.HalfPitch).Vec3()
	tr = tr.Translated(shift).RotatedZ(angle)

	if segment > 0 {
		off, err := r.cfg.Segments.Offset(segment)
		if err != nil {
			return geom.Transform{}, err
		}
		tr = tr.Translated(off)
	}
	return tr, nil
}

// resolveSecondary resolves the secondary's stored reference recursively and
// applies its stored offsets in the resulting local frame. Secondary anchors
// are single points: asking for a corner or segment of one is an error.
func (r *Resolver) resolveSecondary(d anchor.Descriptor, corner matrix.Direction, segment int) (geom.Transform, error) {
	if corner != matrix.None {
		return geom.Transform{}, errors.New(errors.ErrCodeInvalidCorner,
			"secondary anchors have no corners (got %v)", corner)
	}
	if segment != 0 {
		return geom.Transform{}, errors.New(errors.ErrCodeInvalidSegment,
			"secondary anchors have no wall segments (got %d)", segment)
	}

	parent, err := r.resolveBase(d.Parent, d.Corner, d.Segment)
	if err != nil {
		return geom.Transform{}, err
	}
	return parent.Translated(d.Lateral.Vec3()).Translated(d.Offset), nil
}

// resolveBuiltin applies the fixed recipes of the pre-registered landmarks.
func (r *Resolver) resolveBuiltin(name string, corner matrix.Direction, segment int) (geom.Transform, error) {
	if corner != matrix.None {
		return geom.Transform{}, errors.New(errors.ErrCodeInvalidCorner,
			"built-in anchor %q has no corners (got %v)", name, corner)
	}
	if segment != 0 {
		return geom.Transform{}, errors.New(errors.ErrCodeInvalidSegment,
			"built-in anchor %q has no wall segments (got %d)", name, segment)
	}

	switch name {
	case anchor.Origin:
		return geom.Identity(), nil
	case anchor.RearHousing:
		return r.cfg.RearHousing, nil
	default:
		return geom.Transform{}, errors.New(errors.ErrCodeInternal, "built-in anchor %q has no recipe", name)
	}
}

// withChain attaches the current anchor chain to structured errors that do
// not already carry one, so the caller can tell which feature pulled in the
// failure. Plain errors pass through untouched.
func withChain(err error, chain ...string) error {
	var e *errors.Error
	if !errors.AsError(err, &e) {
		return err
	}
	if len(e.Chain) > 0 {
		return err
	}
	return e.Via(chain...)
}
