// Package scad models a small subtree of the OpenSCAD language and renders
// solids to .scad source text.
//
// The tree covers only what the generator emits: primitives, boolean
// combinators, rigid placements and point hulls. Emission is deterministic,
// with numbers rounded to a fixed precision, so regenerated output diffs
// cleanly against a previous run.
package scad

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
)

// Solid is one node of an OpenSCAD tree.
type Solid interface {
	emit(buf *bytes.Buffer, indent int)
}

// Cube is an axis-aligned box.
type Cube struct {
	Size   geom.Vec3
	Center bool
}

// Cylinder is a Z-aligned cylinder.
type Cylinder struct {
	Height float64
	Radius float64
	Facets int // 0 uses the OpenSCAD default
	Center bool
}

// Sphere sits at the local origin.
type Sphere struct {
	Radius float64
	Facets int
}

// Union combines children additively.
type Union struct {
	Children []Solid
}

// Difference subtracts every later child from the first.
type Difference struct {
	Children []Solid
}

// Hull is the convex hull of its children.
type Hull struct {
	Children []Solid
}

// Translate shifts its child.
type Translate struct {
	Offset geom.Vec3
	Child  Solid
}

// Rotate rotates its child about the axes, in degrees, applied in OpenSCAD's
// X-then-Y-then-Z order.
type Rotate struct {
	Degrees geom.Vec3
	Child   Solid
}

// Comment is a line comment preceding nothing; it groups output sections.
type Comment struct {
	Text string
}

// HullRadius is the sphere radius used when hulling bare points. Small
// enough to keep hull faces close to the exact polytope, large enough for
// OpenSCAD's mesher.
const HullRadius = 1.0

// PointHull builds the convex hull of a point set, using the generator's
// standard trick of hulling small spheres placed at each point.
func PointHull(points []geom.Vec3) Solid {
	children := make([]Solid, len(points))
	for i, p := range points {
		children[i] = Translate{Offset: p, Child: Sphere{Radius: HullRadius}}
	}
	return Hull{Children: children}
}

// Placed applies a rigid transform to a solid. The rotation is emitted as a
// Z rotation, so the transform's rotational part must be about Z only;
// richer rotations are baked into vertices before emission.
func Placed(t geom.Transform, child Solid) Solid {
	yaw := math.Atan2(t.Rot[1][0], t.Rot[0][0])
	if yaw != 0 {
		child = Rotate{Degrees: geom.Vec3{Z: Degrees(yaw)}, Child: child}
	}
	if t.Pos != (geom.Vec3{}) {
		child = Translate{Offset: t.Pos, Child: child}
	}
	return child
}

// Degrees converts radians to OpenSCAD's rotation unit.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Write renders a solid tree as OpenSCAD source.
func Write(w io.Writer, solids ...Solid) error {
	var buf bytes.Buffer
	for i, s := range solids {
		if i > 0 {
			buf.WriteByte('\n')
		}
		s.emit(&buf, 0)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile renders a solid tree to a file.
func WriteFile(path string, solids ...Solid) error {
	var buf bytes.Buffer
	if err := Write(&buf, solids...); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// String renders a solid tree to a string, mainly for tests.
func String(solids ...Solid) string {
	var buf bytes.Buffer
	_ = Write(&buf, solids...)
	return buf.String()
}

func (c Cube) emit(buf *bytes.Buffer, indent int) {
	pad(buf, indent)
	fmt.Fprintf(buf, "cube(%s%s);\n", vec(c.Size), centerArg(c.Center))
}

func (c Cylinder) emit(buf *bytes.Buffer, indent int) {
	pad(buf, indent)
	fmt.Fprintf(buf, "cylinder(h=%s, r=%s%s%s);\n",
		num(c.Height), num(c.Radius), facetsArg(c.Facets), centerArg(c.Center))
}

func (s Sphere) emit(buf *bytes.Buffer, indent int) {
	pad(buf, indent)
	fmt.Fprintf(buf, "sphere(r=%s%s);\n", num(s.Radius), facetsArg(s.Facets))
}

func (u Union) emit(buf *bytes.Buffer, indent int) {
	block(buf, indent, "union()", u.Children)
}

func (d Difference) emit(buf *bytes.Buffer, indent int) {
	block(buf, indent, "difference()", d.Children)
}

func (h Hull) emit(buf *bytes.Buffer, indent int) {
	block(buf, indent, "hull()", h.Children)
}

func (t Translate) emit(buf *bytes.Buffer, indent int) {
	block(buf, indent, fmt.Sprintf("translate(%s)", vec(t.Offset)), []Solid{t.Child})
}

func (r Rotate) emit(buf *bytes.Buffer, indent int) {
	block(buf, indent, fmt.Sprintf("rotate(%s)", vec(r.Degrees)), []Solid{r.Child})
}

func (c Comment) emit(buf *bytes.Buffer, indent int) {
	for _, line := range strings.Split(c.Text, "\n") {
		pad(buf, indent)
		fmt.Fprintf(buf, "// %s\n", line)
	}
}

func block(buf *bytes.Buffer, indent int, head string, children []Solid) {
	pad(buf, indent)
	buf.WriteString(head)
	buf.WriteString(" {\n")
	for _, child := range children {
		child.emit(buf, indent+1)
	}
	pad(buf, indent)
	buf.WriteString("}\n")
}

func pad(buf *bytes.Buffer, indent int) {
	for i := 0; i < indent; i++ {
		buf.WriteString("  ")
	}
}

func vec(v geom.Vec3) string {
	return "[" + num(v.X) + ", " + num(v.Y) + ", " + num(v.Z) + "]"
}

// num renders a coordinate rounded to 4 decimal places with trailing zeros
// trimmed, so equal geometry always prints identically.
func num(f float64) string {
	r := math.Round(f*1e4) / 1e4
	if r == 0 {
		// avoid "-0"
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func centerArg(center bool) string {
	if !center {
		return ""
	}
	return ", center=true"
}

func facetsArg(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(", $fn=%d", n)
}
