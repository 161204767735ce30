package geom

// Transform is a rigid placement in the global frame: a rotation followed by
// a translation. Applying a transform to a point rotates it into the frame's
// orientation and then moves it to the frame's position.
type Transform struct {
	Pos Vec3
	Rot Mat3
}

// Identity returns the identity transform (global origin, no rotation).
func Identity() Transform {
	return Transform{Rot: IdentityMat()}
}

// Translation returns a pure translation by v.
func Translation(v Vec3) Transform {
	return Transform{Pos: v, Rot: IdentityMat()}
}

// RotationAboutZ returns a pure rotation by angle radians about the Z axis.
func RotationAboutZ(angle float64) Transform {
	return Transform{Rot: RotationZ(angle)}
}

// Mul composes two transforms: the result applies u first, then t.
// This matches matrix composition, so chained placements read outermost-first:
//
//	global := keyFrame.Mul(cornerShift).Mul(segmentDrop)
func (t Transform) Mul(u Transform) Transform {
	return Transform{
		Pos: t.Pos.Add(t.Rot.Apply(u.Pos)),
		Rot: t.Rot.Mul(u.Rot),
	}
}

// ApplyPoint maps a point from the transform's local frame to the global frame.
func (t Transform) ApplyPoint(p Vec3) Vec3 {
	return t.Pos.Add(t.Rot.Apply(p))
}

// Translated returns the transform shifted by v in its own local frame.
// Equivalent to t.Mul(Translation(v)).
func (t Transform) Translated(v Vec3) Transform {
	return t.Mul(Translation(v))
}

// TranslatedGlobal returns the transform shifted by v in the global frame,
// leaving orientation untouched. Used for shims that must not depend on
// which way the feature faces.
func (t Transform) TranslatedGlobal(v Vec3) Transform {
	return Transform{Pos: t.Pos.Add(v), Rot: t.Rot}
}

// RotatedZ returns the transform rotated by angle about its own Z axis.
func (t Transform) RotatedZ(angle float64) Transform {
	return t.Mul(RotationAboutZ(angle))
}
