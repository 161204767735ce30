package matrix

import (
	"math"
	"testing"

	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
)

const eps = 1e-9

func TestCompassCardinals(t *testing.T) {
	tests := []struct {
		dir       Direction
		wantVec   geom.Vec2
		wantAngle float64
	}{
		{North, geom.Vec2{X: 0, Y: 1}, 0},
		{East, geom.Vec2{X: 1, Y: 0}, -math.Pi / 2},
		{South, geom.Vec2{X: 0, Y: -1}, math.Pi},
		{West, geom.Vec2{X: -1, Y: 0}, math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			v, angle, err := Compass(tt.dir)
			if err != nil {
				t.Fatalf("Compass(%v) error = %v", tt.dir, err)
			}
			if math.Abs(v.X-tt.wantVec.X) > eps || math.Abs(v.Y-tt.wantVec.Y) > eps {
				t.Errorf("vector = %v, want %v", v, tt.wantVec)
			}
			if math.Abs(angle-tt.wantAngle) > eps {
				t.Errorf("angle = %v, want %v", angle, tt.wantAngle)
			}
		})
	}
}

func TestCompassAntiparallel(t *testing.T) {
	pairs := [][2]Direction{{North, South}, {East, West}}
	for _, p := range pairs {
		a, _, _ := Compass(p[0])
		b, _, _ := Compass(p[1])
		if math.Abs(a.X+b.X) > eps || math.Abs(a.Y+b.Y) > eps {
			t.Errorf("Compass(%v) and Compass(%v) not antiparallel: %v, %v", p[0], p[1], a, b)
		}
		if math.Abs(a.Norm()-1) > eps {
			t.Errorf("Compass(%v) not unit length: %v", p[0], a.Norm())
		}
	}
}

func TestCompassDiagonals(t *testing.T) {
	tests := []struct {
		dir       Direction
		wantAngle float64
	}{
		{NorthEast, -math.Pi / 4},
		{SouthEast, -3 * math.Pi / 4},
		{SouthWest, 3 * math.Pi / 4},
		{NorthWest, math.Pi / 4},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			v, angle, err := Compass(tt.dir)
			if err != nil {
				t.Fatalf("Compass(%v) error = %v", tt.dir, err)
			}

			// Diagonal vector is the normalized sum of its two cardinals.
			a, b := tt.dir.Cardinals()
			va, _, _ := Compass(a)
			vb, _, _ := Compass(b)
			want := va.Add(vb).Unit()
			if math.Abs(v.X-want.X) > eps || math.Abs(v.Y-want.Y) > eps {
				t.Errorf("vector = %v, want normalized cardinal sum %v", v, want)
			}
			if math.Abs(v.Norm()-1) > eps {
				t.Errorf("vector not unit length: %v", v.Norm())
			}
			if math.Abs(angle-tt.wantAngle) > eps {
				t.Errorf("angle = %v, want %v", angle, tt.wantAngle)
			}
		})
	}
}

func TestCompassFull(t *testing.T) {
	_, _, err := Compass(Full)
	if !errors.Is(err, errors.ErrCodeInvalidCorner) {
		t.Errorf("Compass(Full) error = %v, want InvalidCorner", err)
	}
}

func TestOpposite(t *testing.T) {
	tests := []struct {
		dir, want Direction
	}{
		{North, South},
		{South, North},
		{East, West},
		{NorthEast, SouthWest},
		{SouthEast, NorthWest},
		{Full, Full},
	}
	for _, tt := range tests {
		if got := tt.dir.Opposite(); got != tt.want {
			t.Errorf("%v.Opposite() = %v, want %v", tt.dir, got, tt.want)
		}
	}
}

func TestLeftRight(t *testing.T) {
	tests := []struct {
		dir, left, right Direction
	}{
		{North, West, East},
		{East, North, South},
		{South, East, West},
		{West, South, North},
	}
	for _, tt := range tests {
		if got := tt.dir.Left(); got != tt.left {
			t.Errorf("%v.Left() = %v, want %v", tt.dir, got, tt.left)
		}
		if got := tt.dir.Right(); got != tt.right {
			t.Errorf("%v.Right() = %v, want %v", tt.dir, got, tt.right)
		}
		// Left and Right are inverses.
		if got := tt.dir.Left().Right(); got != tt.dir {
			t.Errorf("%v.Left().Right() = %v, want %v", tt.dir, got, tt.dir)
		}
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{input: "north", want: North},
		{input: "N", want: North},
		{input: "ne", want: NorthEast},
		{input: "north-east", want: NorthEast},
		{input: "SSE", want: SouthEast},
		{input: "wnw", want: NorthWest},
		{input: "full", want: Full},
		{input: "northish", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirection(tt.input)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidCorner) {
					t.Errorf("ParseDirection(%q) error = %v, want InvalidCorner", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDirection(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDirection(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
