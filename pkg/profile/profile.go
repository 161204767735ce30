// Package profile supplies the two numeric models the placement resolver
// consumes: the wall-profile segment table describing how a case wall tapers
// outward and down from a key's face to the ground, and the per-key nominal
// layout derived from a cluster's curvature and stagger parameters.
package profile

import (
	"math"

	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
)

// KeyPitch is the nominal center-to-center key spacing in millimeters.
const KeyPitch = 18.25

// HalfPitch is the distance from a key's center to its side.
const HalfPitch = KeyPitch / 2

// SegmentCount is the number of wall-profile segments, face to ground.
const SegmentCount = 5

// SegmentOffset is one step of the wall profile: how far the wall has moved
// outward (along the corner's compass vector) and downward at that segment.
type SegmentOffset struct {
	Lateral float64 // mm outward from the key edge
	Drop    float64 // mm down from the key face
}

// SegmentTable holds the wall profile, indexed by segment 0 (key face)
// through 4 (ground).
type SegmentTable [SegmentCount]SegmentOffset

// DefaultSegmentTable returns the standard wall taper: flush at the face,
// flaring outward over the first two segments, then falling to the ground
// with a slight extra skirt.
func DefaultSegmentTable() SegmentTable {
	return SegmentTable{
		{Lateral: 0, Drop: 0},
		{Lateral: 1.5, Drop: 3},
		{Lateral: 3.5, Drop: 8},
		{Lateral: 4.5, Drop: 16},
		{Lateral: 5, Drop: 24},
	}
}

// Offset returns the 3D offset of a wall segment in a corner-facing local
// frame, where +Y points outward along the corner's compass vector.
// Segment 0 is the zero offset.
func (t SegmentTable) Offset(segment int) (geom.Vec3, error) {
	if err := errors.ValidateSegment(segment); err != nil {
		return geom.Vec3{}, err
	}
	s := t[segment]
	return geom.Vec3{Y: s.Lateral, Z: -s.Drop}, nil
}

// ClusterLayout holds one cluster's placement parameters. Curvatures are
// radians per key step; zero means a flat cluster. Stagger is a per-column
// nudge applied on top of the curvature math, the way a typical column of a
// keyboard is raised for the middle finger.
type ClusterLayout struct {
	Bounds matrix.Bounds

	RowCurvature    float64 // pitch arc along a column, about the X axis
	ColumnCurvature float64 // roll arc across columns, about the Y axis
	CenterColumn    float64 // column index at the arc's apex
	CenterRow       float64 // row index at the arc's apex

	Stagger map[int]geom.Vec3 // per-column offset, missing columns are zero

	Offset geom.Vec3 // cluster position in the global frame
	Yaw    float64   // cluster rotation about Z, radians
}

// Layout computes nominal per-key transforms for every configured cluster.
// It is a pure function of its configuration and never mutates after New.
type Layout struct {
	clusters map[string]ClusterLayout
}

// NewLayout builds a layout from per-cluster parameters.
func NewLayout(clusters map[string]ClusterLayout) *Layout {
	return &Layout{clusters: clusters}
}

// Bounds returns the matrix extent of a cluster.
func (l *Layout) Bounds(cluster string) (matrix.Bounds, error) {
	c, ok := l.clusters[cluster]
	if !ok {
		return matrix.Bounds{}, errors.New(errors.ErrCodeUnknownAnchor, "no cluster named %q", cluster)
	}
	return c.Bounds, nil
}

// KeyFrame returns the nominal transform of a key: the curvature arcs place
// it, the stagger nudges it, and the cluster offset/yaw carry it into the
// global frame. col and row must already be resolved (see matrix.Bounds).
func (l *Layout) KeyFrame(cluster string, col, row int) (geom.Transform, error) {
	c, ok := l.clusters[cluster]
	if !ok {
		return geom.Transform{}, errors.New(errors.ErrCodeUnknownAnchor, "no cluster named %q", cluster)
	}
	if col < 0 || col >= c.Bounds.Columns() || row < 0 || row >= c.Bounds.Rows(col) {
		return geom.Transform{}, errors.New(errors.ErrCodeOutOfBounds,
			"key (%d,%d) outside cluster %q", col, row, cluster)
	}

	y, zr, pitch := arc(c.RowCurvature, float64(row)-c.CenterRow)
	x, zc, roll := arc(c.ColumnCurvature, float64(col)-c.CenterColumn)

	pos := geom.Vec3{X: x, Y: y, Z: zr + zc}
	if s, ok := c.Stagger[col]; ok {
		pos = pos.Add(s)
	}

	rot := geom.RotationX(pitch).Mul(geom.RotationY(-roll))
	key := geom.Transform{Pos: pos, Rot: rot}

	clusterFrame := geom.Transform{Pos: c.Offset, Rot: geom.RotationZ(c.Yaw)}
	return clusterFrame.Mul(key), nil
}

// arc places a key n steps from the apex of an arc with the given per-step
// angle. A zero angle degenerates to flat pitch spacing. Returns the in-plane
// distance, the height gained toward the arc's center, and the key's tilt.
func arc(anglePerStep, steps float64) (dist, height, tilt float64) {
	if anglePerStep == 0 {
		return steps * KeyPitch, 0, 0
	}
	// Chord-preserving radius: adjacent keys stay one pitch apart.
	r := HalfPitch / math.Sin(anglePerStep/2)
	theta := anglePerStep * steps
	return r * math.Sin(theta), r * (1 - math.Cos(theta)), theta
}
