package place

import (
	"math"
	"testing"

	"github.com/GabeBolton/dactyl-keyboard/pkg/anchor"
	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
	"github.com/GabeBolton/dactyl-keyboard/pkg/profile"
)

const eps = 1e-9

// countingLayout wraps a profile.Layout and counts KeyFrame calls, so tests
// can observe memoization.
type countingLayout struct {
	inner *profile.Layout
	calls int
}

func (c *countingLayout) Bounds(cluster string) (matrix.Bounds, error) {
	return c.inner.Bounds(cluster)
}

func (c *countingLayout) KeyFrame(cluster string, col, row int) (geom.Transform, error) {
	c.calls++
	return c.inner.KeyFrame(cluster, col, row)
}

func testLayout() *profile.Layout {
	return profile.NewLayout(map[string]profile.ClusterLayout{
		"main": {
			Bounds: matrix.Bounds{RowsPerColumn: []int{3, 3, 3}},
		},
		"thumb": {
			Bounds: matrix.Bounds{RowsPerColumn: []int{2, 2}},
			Offset: geom.Vec3{X: 40, Y: -30, Z: 5},
		},
	})
}

func testResolver(t *testing.T, register func(r *anchor.Registry)) *Resolver {
	t.Helper()
	reg := anchor.NewRegistry()
	if register != nil {
		register(reg)
	}
	return NewResolver(Config{
		Registry: reg,
		Layout:   testLayout(),
		Segments: profile.DefaultSegmentTable(),
	})
}

func mustRegister(t *testing.T, r *anchor.Registry, name string, d anchor.Descriptor) {
	t.Helper()
	if err := r.Register(name, d); err != nil {
		t.Fatalf("Register(%q) error = %v", name, err)
	}
}

func TestResolveOrigin(t *testing.T) {
	r := testResolver(t, nil)
	tr, err := r.Resolve(Base(anchor.Origin))
	if err != nil {
		t.Fatalf("Resolve(origin) error = %v", err)
	}
	if tr.Pos != (geom.Vec3{}) {
		t.Errorf("origin Pos = %v, want zero", tr.Pos)
	}
}

func TestResolveKeyBasePoint(t *testing.T) {
	r := testResolver(t, func(reg *anchor.Registry) {
		mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(1, 1)))
	})
	tr, err := r.Resolve(Base("home"))
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	want := geom.Vec3{X: profile.KeyPitch, Y: profile.KeyPitch}
	if math.Abs(tr.Pos.X-want.X) > eps || math.Abs(tr.Pos.Y-want.Y) > eps {
		t.Errorf("Pos = %v, want %v", tr.Pos, want)
	}
}

func TestResolveKeyCorner(t *testing.T) {
	r := testResolver(t, func(reg *anchor.Registry) {
		mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(0, 0)))
	})

	tests := []struct {
		corner    matrix.Direction
		wantShift geom.Vec3
	}{
		{matrix.North, geom.Vec3{Y: profile.HalfPitch}},
		{matrix.East, geom.Vec3{X: profile.HalfPitch}},
		{matrix.South, geom.Vec3{Y: -profile.HalfPitch}},
		{matrix.NorthEast, geom.Vec3{X: profile.HalfPitch / math.Sqrt2, Y: profile.HalfPitch / math.Sqrt2}},
	}

	for _, tt := range tests {
		t.Run(tt.corner.String(), func(t *testing.T) {
			tr, err := r.Resolve(Request{Anchor: "home", Corner: tt.corner})
			if err != nil {
				t.Fatalf("Resolve error = %v", err)
			}
			if math.Abs(tr.Pos.X-tt.wantShift.X) > eps || math.Abs(tr.Pos.Y-tt.wantShift.Y) > eps {
				t.Errorf("Pos = %v, want %v (half pitch toward %v)", tr.Pos, tt.wantShift, tt.corner)
			}
		})
	}
}

func TestResolveSegmentDropsAndFlares(t *testing.T) {
	r := testResolver(t, func(reg *anchor.Registry) {
		mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(0, 0)))
	})

	face, err := r.Resolve(Request{Anchor: "home", Corner: matrix.North, Segment: 0})
	if err != nil {
		t.Fatalf("Resolve(segment 0) error = %v", err)
	}
	prev := face.Pos
	for seg := 1; seg <= 4; seg++ {
		tr, err := r.Resolve(Request{Anchor: "home", Corner: matrix.North, Segment: seg})
		if err != nil {
			t.Fatalf("Resolve(segment %d) error = %v", seg, err)
		}
		// North-facing wall flares along +Y and drops along -Z.
		if tr.Pos.Y < prev.Y-eps {
			t.Errorf("segment %d Y = %v, want >= %v", seg, tr.Pos.Y, prev.Y)
		}
		if tr.Pos.Z > prev.Z+eps {
			t.Errorf("segment %d Z = %v, want <= %v", seg, tr.Pos.Z, prev.Z)
		}
		prev = tr.Pos
	}
}

func TestResolveOffsetInFacingFrame(t *testing.T) {
	r := testResolver(t, func(reg *anchor.Registry) {
		mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(0, 0)))
	})

	// Facing east the frame is rotated -π/2, so a local +Y offset
	// (outward) must move the point along global +X.
	tr, err := r.Resolve(Request{Anchor: "home", Corner: matrix.East, Offset: geom.Vec3{Y: 2}})
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	want := geom.Vec3{X: profile.HalfPitch + 2, Y: 0}
	if math.Abs(tr.Pos.X-want.X) > eps || math.Abs(tr.Pos.Y-want.Y) > eps {
		t.Errorf("Pos = %v, want %v", tr.Pos, want)
	}
}

func TestResolveSecondary(t *testing.T) {
	r := testResolver(t, func(reg *anchor.Registry) {
		mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(0, 0)))
		mustRegister(t, reg, "shelf", anchor.Secondary("home", matrix.North, 0, geom.Vec3{Z: 3}, geom.Vec2{X: 1}))
	})

	tr, err := r.Resolve(Base("shelf"))
	if err != nil {
		t.Fatalf("Resolve(shelf) error = %v", err)
	}
	// North corner of the key plus the stored lateral X and vertical Z.
	want := geom.Vec3{X: 1, Y: profile.HalfPitch, Z: 3}
	if math.Abs(tr.Pos.X-want.X) > eps || math.Abs(tr.Pos.Y-want.Y) > eps || math.Abs(tr.Pos.Z-want.Z) > eps {
		t.Errorf("Pos = %v, want %v", tr.Pos, want)
	}
}

func TestResolveSecondaryChain(t *testing.T) {
	// shelf -> ledge -> home: two levels of secondary recursion.
	r := testResolver(t, func(reg *anchor.Registry) {
		mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(0, 0)))
		mustRegister(t, reg, "ledge", anchor.Secondary("home", matrix.None, 0, geom.Vec3{X: 5}, geom.Vec2{}))
		mustRegister(t, reg, "shelf", anchor.Secondary("ledge", matrix.None, 0, geom.Vec3{Z: 2}, geom.Vec2{}))
	})

	tr, err := r.Resolve(Base("shelf"))
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	want := geom.Vec3{X: 5, Z: 2}
	if math.Abs(tr.Pos.X-want.X) > eps || math.Abs(tr.Pos.Z-want.Z) > eps {
		t.Errorf("Pos = %v, want %v", tr.Pos, want)
	}
}

func TestResolveDeterminism(t *testing.T) {
	r := testResolver(t, func(reg *anchor.Registry) {
		mustRegister(t, reg, "home", anchor.Key("thumb", matrix.Coord(1, 1)))
	})
	req := Request{Anchor: "home", Corner: matrix.SouthWest, Segment: 2, Offset: geom.Vec3{X: 1}}

	a, err := r.Resolve(req)
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	b, err := r.Resolve(req)
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if a != b {
		t.Errorf("repeated Resolve differs: %v != %v", a, b)
	}

	// A fresh session must agree too.
	c, err := testResolver(t, func(reg *anchor.Registry) {
		mustRegister(t, reg, "home", anchor.Key("thumb", matrix.Coord(1, 1)))
	}).Resolve(req)
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if a != c {
		t.Errorf("fresh session Resolve differs: %v != %v", a, c)
	}
}

func TestResolveMemoization(t *testing.T) {
	reg := anchor.NewRegistry()
	mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(0, 0)))
	mustRegister(t, reg, "a", anchor.Secondary("home", matrix.North, 1, geom.Vec3{}, geom.Vec2{}))
	mustRegister(t, reg, "b", anchor.Secondary("home", matrix.North, 1, geom.Vec3{Z: 1}, geom.Vec2{}))

	counting := &countingLayout{inner: testLayout()}
	r := NewResolver(Config{Registry: reg, Layout: counting, Segments: profile.DefaultSegmentTable()})

	// Both secondaries share the same (home, north, 1) reference; the key
	// frame must be computed once.
	if _, err := r.Resolve(Base("a")); err != nil {
		t.Fatalf("Resolve(a) error = %v", err)
	}
	if _, err := r.Resolve(Base("b")); err != nil {
		t.Fatalf("Resolve(b) error = %v", err)
	}
	if counting.calls != 1 {
		t.Errorf("KeyFrame calls = %d, want 1 (memoized)", counting.calls)
	}
}

func TestResolveCycle(t *testing.T) {
	tests := []struct {
		name     string
		register func(t *testing.T, reg *anchor.Registry)
	}{
		{
			name: "direct self reference",
			register: func(t *testing.T, reg *anchor.Registry) {
				mustRegister(t, reg, "a", anchor.Secondary("a", matrix.None, 0, geom.Vec3{}, geom.Vec2{}))
			},
		},
		{
			name: "mutual cycle",
			register: func(t *testing.T, reg *anchor.Registry) {
				mustRegister(t, reg, "a", anchor.Secondary("b", matrix.None, 0, geom.Vec3{}, geom.Vec2{}))
				mustRegister(t, reg, "b", anchor.Secondary("a", matrix.None, 0, geom.Vec3{}, geom.Vec2{}))
			},
		},
		{
			name: "long cycle",
			register: func(t *testing.T, reg *anchor.Registry) {
				mustRegister(t, reg, "a", anchor.Secondary("b", matrix.None, 0, geom.Vec3{}, geom.Vec2{}))
				mustRegister(t, reg, "b", anchor.Secondary("c", matrix.None, 0, geom.Vec3{}, geom.Vec2{}))
				mustRegister(t, reg, "c", anchor.Secondary("a", matrix.None, 0, geom.Vec3{}, geom.Vec2{}))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testResolver(t, func(reg *anchor.Registry) { tt.register(t, reg) })
			_, err := r.Resolve(Base("a"))
			if !errors.Is(err, errors.ErrCodeCyclicAnchor) {
				t.Fatalf("Resolve error = %v, want CyclicAnchor", err)
			}
			if chain := errors.GetChain(err); len(chain) == 0 {
				t.Errorf("cycle error carries no anchor chain: %v", err)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		register func(t *testing.T, reg *anchor.Registry)
		req      Request
		wantCode errors.Code
	}{
		{
			name:     "unknown anchor",
			req:      Base("ghost"),
			wantCode: errors.ErrCodeUnknownAnchor,
		},
		{
			name: "segment too large",
			register: func(t *testing.T, reg *anchor.Registry) {
				mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(0, 0)))
			},
			req:      Request{Anchor: "home", Corner: matrix.North, Segment: 5},
			wantCode: errors.ErrCodeInvalidSegment,
		},
		{
			name: "full corner where a point is required",
			register: func(t *testing.T, reg *anchor.Registry) {
				mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(0, 0)))
			},
			req:      Request{Anchor: "home", Corner: matrix.Full},
			wantCode: errors.ErrCodeInvalidSegment,
		},
		{
			name:     "corner on builtin",
			req:      Request{Anchor: anchor.Origin, Corner: matrix.North},
			wantCode: errors.ErrCodeInvalidCorner,
		},
		{
			name: "corner on secondary",
			register: func(t *testing.T, reg *anchor.Registry) {
				mustRegister(t, reg, "home", anchor.Key("main", matrix.Coord(0, 0)))
				mustRegister(t, reg, "shelf", anchor.Secondary("home", matrix.None, 0, geom.Vec3{}, geom.Vec2{}))
			},
			req:      Request{Anchor: "shelf", Corner: matrix.East},
			wantCode: errors.ErrCodeInvalidCorner,
		},
		{
			name: "out of bounds coordinate",
			register: func(t *testing.T, reg *anchor.Registry) {
				mustRegister(t, reg, "edge", anchor.Key("main", matrix.Coord(9, 0)))
			},
			req:      Base("edge"),
			wantCode: errors.ErrCodeOutOfBounds,
		},
		{
			name: "unknown parent through secondary",
			register: func(t *testing.T, reg *anchor.Registry) {
				mustRegister(t, reg, "shelf", anchor.Secondary("ghost", matrix.None, 0, geom.Vec3{}, geom.Vec2{}))
			},
			req:      Base("shelf"),
			wantCode: errors.ErrCodeUnknownAnchor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testResolver(t, func(reg *anchor.Registry) {
				if tt.register != nil {
					tt.register(t, reg)
				}
			})
			_, err := r.Resolve(tt.req)
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("Resolve code = %v, want %v (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestErrorChainNamesReferer(t *testing.T) {
	r := testResolver(t, func(reg *anchor.Registry) {
		mustRegister(t, reg, "shelf", anchor.Secondary("ghost", matrix.None, 0, geom.Vec3{}, geom.Vec2{}))
	})
	_, err := r.Resolve(Base("shelf"))
	chain := errors.GetChain(err)
	if len(chain) == 0 || chain[0] != "shelf" {
		t.Errorf("chain = %v, want to start at %q", chain, "shelf")
	}
}
