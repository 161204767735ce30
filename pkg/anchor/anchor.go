// Package anchor implements the registry of named spatial references the
// placement engine resolves against.
//
// An anchor is one of three kinds. A key anchor names a position in a key
// cluster's matrix. A built-in anchor is a fixed landmark pre-registered
// before user configuration is read (the global origin and the rear housing).
// A secondary anchor is a user-declared point defined relative to another
// anchor by corner, wall segment and offset.
//
// Registration is two-phase: every name is registered with its raw recipe
// before anything is resolved, so secondaries may reference anchors declared
// later in the document. Resolution itself lives in pkg/place.
package anchor

import (
	"slices"

	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
)

// Kind distinguishes the three anchor variants.
type Kind int

const (
	// KindKey anchors to a key position in a cluster matrix.
	KindKey Kind = iota
	// KindBuiltin anchors to a fixed pre-registered landmark.
	KindBuiltin
	// KindSecondary anchors relative to another anchor.
	KindSecondary
)

func (k Kind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindBuiltin:
		return "builtin"
	case KindSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Reserved built-in anchor names. They are registered by NewRegistry and can
// never be rebound by user configuration.
const (
	Origin      = "origin"
	RearHousing = "rear-housing"
)

// Descriptor is an anchor's stored recipe. Which fields are meaningful
// depends on Kind; descriptors are immutable once registered.
type Descriptor struct {
	Kind Kind

	// Key anchors
	Cluster string
	Coord   matrix.Coordinate

	// Secondary anchors
	Parent  string           // referenced anchor name
	Corner  matrix.Direction // matrix.None when the base point is meant
	Segment int              // wall-profile segment of the reference point
	Offset  geom.Vec3        // applied in the frame of the resolved reference
	Lateral geom.Vec2        // extra in-plane shift, also local
}

// Key returns a descriptor anchoring to a key position.
func Key(cluster string, coord matrix.Coordinate) Descriptor {
	return Descriptor{Kind: KindKey, Cluster: cluster, Coord: coord}
}

// Secondary returns a descriptor anchoring relative to parent.
// Pass matrix.None as corner to reference the parent's base point.
func Secondary(parent string, corner matrix.Direction, segment int, offset geom.Vec3, lateral geom.Vec2) Descriptor {
	return Descriptor{
		Kind:    KindSecondary,
		Parent:  parent,
		Corner:  corner,
		Segment: segment,
		Offset:  offset,
		Lateral: lateral,
	}
}

// Registry holds every named anchor. The zero value is not usable; NewRegistry
// pre-registers the built-in landmarks. Registry is not safe for concurrent
// mutation, but a fully built registry is read-only and freely shareable.
type Registry struct {
	anchors map[string]Descriptor
	order   []string // registration order, built-ins first
}

// NewRegistry creates a registry with the built-in landmarks pre-registered.
func NewRegistry() *Registry {
	r := &Registry{anchors: make(map[string]Descriptor)}
	r.anchors[Origin] = Descriptor{Kind: KindBuiltin}
	r.anchors[RearHousing] = Descriptor{Kind: KindBuiltin}
	r.order = []string{Origin, RearHousing}
	return r
}

// Register binds name to a recipe. Rebinding any existing name, including the
// reserved built-ins, is a DuplicateAnchor error. The recipe is stored raw;
// nothing is resolved until pkg/place asks for it.
func (r *Registry) Register(name string, d Descriptor) error {
	if err := errors.ValidateAnchorName(name); err != nil {
		return err
	}
	if _, exists := r.anchors[name]; exists {
		return errors.New(errors.ErrCodeDuplicateAnchor, "anchor %q is already defined", name)
	}
	r.anchors[name] = d
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the descriptor bound to name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.anchors[name]
	if !ok {
		return Descriptor{}, errors.New(errors.ErrCodeUnknownAnchor, "no anchor named %q", name)
	}
	return d, nil
}

// Has reports whether name is bound.
func (r *Registry) Has(name string) bool {
	_, ok := r.anchors[name]
	return ok
}

// Len returns the number of registered anchors, built-ins included.
func (r *Registry) Len() int { return len(r.anchors) }

// Names returns all anchor names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.anchors))
	for name := range r.anchors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Edge is a reference from one anchor to another, used when exporting the
// anchor dependency graph.
type Edge struct {
	From string // the referencing secondary anchor
	To   string // its parent
}

// Edges returns every secondary→parent reference, ordered by registration.
// Key and built-in anchors contribute no edges. Unresolvable parents are
// included as-is; the resolver reports them as UnknownAnchor when used.
func (r *Registry) Edges() []Edge {
	var edges []Edge
	for _, name := range r.order {
		d := r.anchors[name]
		if d.Kind == KindSecondary {
			edges = append(edges, Edge{From: name, To: d.Parent})
		}
	}
	return edges
}
