package place

import (
	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
)

// Nook describes the snug placement of a non-key feature against a wall:
// which anchor's corner/segment to nestle into, and how far to pull back
// from the wall surface so the feature clears it.
type Nook struct {
	Anchor  string
	Corner  matrix.Direction
	Segment int

	// Inset pulls the feature back from the wall along the facing axis,
	// in mm. Zero places the feature's reference point on the wall line.
	Inset float64
}

// IntoNook resolves a feature's nook placement. The result faces the wall
// corner the same way a wall segment there would, with the inset applied in
// that facing frame, so a socket dropped into the nook sits flush.
func (r *Resolver) IntoNook(n Nook) (geom.Transform, error) {
	tr, err := r.Resolve(Request{Anchor: n.Anchor, Corner: n.Corner, Segment: n.Segment})
	if err != nil {
		return geom.Transform{}, err
	}
	return tr.Translated(geom.Vec3{Y: -n.Inset}), nil
}

// LateralOffset returns a translation of the given distance perpendicular to
// a cardinal direction (90° counter-clockwise from it). It is independent of
// any anchor resolution: use it to shim a feature sideways along a wall
// without changing which way it faces.
func LateralOffset(d matrix.Direction, distance float64) (geom.Vec3, error) {
	if !d.IsCardinal() {
		return geom.Vec3{}, errors.New(errors.ErrCodeInvalidCorner,
			"lateral offset requires a cardinal direction, got %v", d)
	}
	v, _, err := matrix.Compass(d)
	if err != nil {
		return geom.Vec3{}, err
	}
	// Rotate the compass vector a quarter turn counter-clockwise.
	return geom.Vec3{X: -v.Y * distance, Y: v.X * distance}, nil
}
