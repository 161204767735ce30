// Package tweak interprets the recursive hull/group structures that connect
// wall segments and anchors with extra case geometry.
//
// A tweak is a tree of two node kinds. A Leaf names an anchor (optionally a
// corner and a wall-segment span) and expands to an ordered run of 3D points.
// A Group holds an ordered list of child nodes and combines their point-lists
// into convex-hull requests, either one hull over everything or one per
// sliding window of consecutive children when a chunk size is set. Windowing
// is what keeps a long chain of far-apart features from collapsing into one
// self-intersecting hull while still bridging neighbors smoothly.
//
// Expansion is purely functional: the output is point-lists and windowing
// instructions; the hull and union solids themselves are pkg/scad's business.
package tweak

import (
	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
	"github.com/GabeBolton/dactyl-keyboard/pkg/place"
)

// Kind distinguishes the node variants. Check it before reading variant
// fields; the decode in pkg/schema guarantees it is set once and never
// re-inspected from document shape downstream.
type Kind int

const (
	// KindLeaf is a single anchor reference with an optional segment span.
	KindLeaf Kind = iota
	// KindGroup is an ordered list of children combined into hulls.
	KindGroup
)

// Node is one vertex of a tweak tree.
type Node struct {
	Kind Kind

	// Leaf fields
	Anchor         string
	Corner         matrix.Direction // matrix.None for the anchor's base point
	SegFrom, SegTo int
	// SegSet records whether the leaf spelled out its own segment span.
	// Unset leaves inherit the enclosing group's implicit levels.
	SegSet bool

	// Group fields
	Children    []Node
	ChunkSize   int  // 0 means one hull over all children
	AtGround    bool // include the ground segment in implicit leaf spans
	AboveGround bool // include the face segments in implicit leaf spans
	Highlight   bool // debug pass-through, no geometric effect
}

// Leaf constructs a leaf node with an explicit segment span.
func Leaf(anchorName string, corner matrix.Direction, segFrom, segTo int) Node {
	return Node{Kind: KindLeaf, Anchor: anchorName, Corner: corner, SegFrom: segFrom, SegTo: segTo, SegSet: true}
}

// BareLeaf constructs a leaf node that inherits its segment span from the
// enclosing group.
func BareLeaf(anchorName string, corner matrix.Direction) Node {
	return Node{Kind: KindLeaf, Anchor: anchorName, Corner: corner}
}

// Group constructs a group node over the given children, above ground only.
func Group(children ...Node) Node {
	return Node{Kind: KindGroup, Children: children, AboveGround: true}
}

// Plan is the expansion of one tweak tree: hull requests in order, each an
// ordered point-list, to be hulled individually and unioned together.
type Plan struct {
	Hulls     [][]geom.Vec3
	Highlight bool
}

// Resolver expands tweak trees by resolving every leaf point through the
// placement resolver.
type Resolver struct {
	place *place.Resolver
}

// NewResolver wraps a placement resolver for tweak expansion.
func NewResolver(p *place.Resolver) *Resolver {
	return &Resolver{place: p}
}

// Expand resolves a tweak tree into its hull plan. Child order is preserved
// into window order. Only the top node's combination rule produces hulls: a
// nested group contributes its flattened point set to its parent, which is
// exact because hulling a child's hull adds no points beyond the child's own.
func (r *Resolver) Expand(n Node) (Plan, error) {
	switch n.Kind {
	case KindLeaf:
		pts, err := r.leafPoints(n, 0, 0)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Hulls: [][]geom.Vec3{pts}}, nil

	case KindGroup:
		lo, hi := n.implicitSpan()
		if n.ChunkSize <= 0 || n.ChunkSize >= len(n.Children) {
			pts, err := r.points(n, lo, hi)
			if err != nil {
				return Plan{}, err
			}
			return Plan{Hulls: [][]geom.Vec3{pts}, Highlight: n.Highlight}, nil
		}

		var hulls [][]geom.Vec3
		for i := 0; i+n.ChunkSize <= len(n.Children); i++ {
			var window []geom.Vec3
			for _, child := range n.Children[i : i+n.ChunkSize] {
				pts, err := r.points(child, lo, hi)
				if err != nil {
					return Plan{}, err
				}
				window = append(window, pts...)
			}
			hulls = append(hulls, window)
		}
		return Plan{Hulls: hulls, Highlight: n.Highlight}, nil

	default:
		return Plan{}, errors.New(errors.ErrCodeInternal, "tweak node has unknown kind %d", n.Kind)
	}
}

// points flattens a subtree into its ordered point set. Groups override the
// inherited implicit span with their own flags; the nearest enclosing group
// wins for any leaf that left its span unspecified.
func (r *Resolver) points(n Node, implicitLo, implicitHi int) ([]geom.Vec3, error) {
	switch n.Kind {
	case KindLeaf:
		return r.leafPoints(n, implicitLo, implicitHi)
	case KindGroup:
		lo, hi := n.implicitSpan()
		var pts []geom.Vec3
		for _, child := range n.Children {
			p, err := r.points(child, lo, hi)
			if err != nil {
				return nil, err
			}
			pts = append(pts, p...)
		}
		return pts, nil
	default:
		return nil, errors.New(errors.ErrCodeInternal, "tweak node has unknown kind %d", n.Kind)
	}
}

// leafPoints expands a leaf to one point per segment in its span. A leaf
// without a corner is the anchor's own base point, taken once regardless of
// any span.
func (r *Resolver) leafPoints(n Node, implicitLo, implicitHi int) ([]geom.Vec3, error) {
	if n.Corner == matrix.None {
		p, err := r.place.Position(place.Base(n.Anchor))
		if err != nil {
			return nil, err
		}
		return []geom.Vec3{p}, nil
	}
	if n.Corner == matrix.Full {
		return nil, errors.New(errors.ErrCodeInvalidSegment,
			"the full wildcard names a span, not a point").Via(n.Anchor)
	}

	lo, hi := n.SegFrom, n.SegTo
	if !n.SegSet {
		lo, hi = implicitLo, implicitHi
	}
	if err := errors.ValidateSegmentRange(lo, hi); err != nil {
		return nil, err
	}

	pts := make([]geom.Vec3, 0, hi-lo+1)
	for seg := lo; seg <= hi; seg++ {
		p, err := r.place.Position(place.Request{Anchor: n.Anchor, Corner: n.Corner, Segment: seg})
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// implicitSpan maps a group's ground flags onto the segment span inherited
// by leaves that did not spell out their own.
func (n Node) implicitSpan() (int, int) {
	switch {
	case n.AtGround && n.AboveGround:
		return 0, 4
	case n.AtGround:
		return 4, 4
	default:
		return 0, 0
	}
}
