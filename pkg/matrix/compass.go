// Package matrix implements the two small algebras the placement engine is
// built on: compass-direction/corner arithmetic and key-matrix addressing.
//
// A compass direction names one of the eight corners of a key (four cardinal
// sides, four diagonal corners) plus a Full wildcard that stands for a whole
// wall-profile span rather than a single point. A coordinate addresses a key
// inside a cluster's column/row matrix, where either index may be the symbolic
// extreme First or Last instead of an absolute integer.
package matrix

import (
	"math"
	"strings"

	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
)

// Direction identifies a corner of a key or feature.
type Direction int

// The eight corners, clockwise from north, plus the Full wildcard.
// Full is only meaningful where a wall-profile span is expected; supplying
// it where a single point is required is an InvalidSegment error.
const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	Full
)

// None marks an absent corner: the anchor's own base point is meant.
const None Direction = -1

var directionNames = map[Direction]string{
	None:      "none",
	North:     "north",
	NorthEast: "north-east",
	East:      "east",
	SouthEast: "south-east",
	South:     "south",
	SouthWest: "south-west",
	West:      "west",
	NorthWest: "north-west",
	Full:      "full",
}

// String returns the canonical lowercase name of the direction.
func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return "invalid"
}

// IsCardinal reports whether d is one of the four cardinal directions.
func (d Direction) IsCardinal() bool {
	return d == North || d == East || d == South || d == West
}

// IsDiagonal reports whether d is one of the four diagonal corners.
func (d Direction) IsDiagonal() bool {
	return d == NorthEast || d == SouthEast || d == SouthWest || d == NorthWest
}

// Opposite returns the direction pointing the other way.
// Full is its own opposite.
func (d Direction) Opposite() Direction {
	if d == Full || d == None {
		return d
	}
	return (d + 4) % 8
}

// Left returns the cardinal direction 90° counter-clockwise from d.
// Only defined for cardinals; diagonals pass through unchanged.
func (d Direction) Left() Direction {
	if !d.IsCardinal() {
		return d
	}
	return (d + 6) % 8
}

// Right returns the cardinal direction 90° clockwise from d.
// Only defined for cardinals; diagonals pass through unchanged.
func (d Direction) Right() Direction {
	if !d.IsCardinal() {
		return d
	}
	return (d + 2) % 8
}

// Cardinals returns the two cardinal components of a diagonal corner,
// counter-clockwise neighbor first. For a cardinal it returns the direction
// itself twice, which lets span code treat both cases uniformly.
func (d Direction) Cardinals() (Direction, Direction) {
	switch d {
	case NorthEast:
		return North, East
	case SouthEast:
		return South, East
	case SouthWest:
		return South, West
	case NorthWest:
		return North, West
	default:
		return d, d
	}
}

// cardinalVectors maps the cardinal directions onto orthogonal unit vectors
// in the key's local plane: north is +Y, east is +X.
var cardinalVectors = map[Direction]geom.Vec2{
	North: {X: 0, Y: 1},
	East:  {X: 1, Y: 0},
	South: {X: 0, Y: -1},
	West:  {X: -1, Y: 0},
}

// cardinalAngles maps the cardinal directions onto base rotation angles.
// A wall facing north needs no rotation; east-facing walls turn -π/2.
var cardinalAngles = map[Direction]float64{
	North: 0,
	East:  -math.Pi / 2,
	South: math.Pi,
	West:  math.Pi / 2,
}

// Compass returns the unit vector and facing angle for a direction.
// Cardinal values come straight from the base tables; a diagonal's vector is
// the normalized sum of its two cardinal components and its angle the
// intermediate of their two base angles.
//
// Full has no point interpretation and returns InvalidCorner.
func Compass(d Direction) (geom.Vec2, float64, error) {
	if v, ok := cardinalVectors[d]; ok {
		return v, cardinalAngles[d], nil
	}
	if !d.IsDiagonal() {
		return geom.Vec2{}, 0, errors.New(errors.ErrCodeInvalidCorner, "direction %v has no compass vector", d)
	}
	a, b := d.Cardinals()
	v := cardinalVectors[a].Add(cardinalVectors[b]).Unit()

	// South's ±π angle would average wrong against east/west, so take the
	// midpoint by rotating halfway from the first cardinal toward the second.
	angle := normalizeAngle(cardinalAngles[a] + angleDelta(cardinalAngles[a], cardinalAngles[b])/2)
	return v, angle, nil
}

// normalizeAngle folds an angle into (-π, π].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// angleDelta returns the shortest signed angular distance from a to b.
func angleDelta(a, b float64) float64 {
	d := math.Mod(b-a, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// parseAliases maps accepted spellings to directions. Short compass names
// come first; the secondary-intercardinal spellings used by older
// configurations (SSE, WNW, ...) collapse onto their flanking diagonal.
var parseAliases = map[string]Direction{
	"n": North, "north": North,
	"e": East, "east": East,
	"s": South, "south": South,
	"w": West, "west": West,
	"ne": NorthEast, "north-east": NorthEast, "nne": NorthEast, "ene": NorthEast,
	"se": SouthEast, "south-east": SouthEast, "sse": SouthEast, "ese": SouthEast,
	"sw": SouthWest, "south-west": SouthWest, "ssw": SouthWest, "wsw": SouthWest,
	"nw": NorthWest, "north-west": NorthWest, "nnw": NorthWest, "wnw": NorthWest,
	"full": Full,
}

// ParseDirection converts a configuration string into a Direction.
// Matching is case-insensitive. Unrecognized names return InvalidCorner.
func ParseDirection(s string) (Direction, error) {
	if d, ok := parseAliases[strings.ToLower(s)]; ok {
		return d, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidCorner, "unrecognized corner name %q", s)
}
