package schema

import (
	"reflect"
	"testing"

	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
	"github.com/GabeBolton/dactyl-keyboard/pkg/tweak"
)

func TestForestLeafForms(t *testing.T) {
	tests := []struct {
		name string
		doc  any
		want tweak.Node
	}{
		{
			"anchor only",
			[]any{"mcu-shelf"},
			tweak.BareLeaf("mcu-shelf", matrix.None),
		},
		{
			"anchor and corner",
			[]any{"key-a", "ne"},
			tweak.BareLeaf("key-a", matrix.NorthEast),
		},
		{
			"single segment pins both bounds",
			[]any{"key-a", "north", 2},
			tweak.Leaf("key-a", matrix.North, 2, 2),
		},
		{
			"full span",
			[]any{"key-a", "SSE", 0, 3},
			tweak.Leaf("key-a", matrix.SouthEast, 0, 3),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Forest(tt.doc, Path{"tweaks", "wall"})
			if err != nil {
				t.Fatalf("Forest() error = %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("Forest() yielded %d nodes, want 1", len(got))
			}
			if !reflect.DeepEqual(got[0], tt.want) {
				t.Errorf("Forest() = %+v, want %+v", got[0], tt.want)
			}
		})
	}
}

func TestForestLeafErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  any
		code errors.Code
	}{
		{"too many fields", []any{"key-a", "north", 0, 3, 4}, errors.ErrCodeParse},
		{"bad corner", []any{"key-a", "upward"}, errors.ErrCodeInvalidCorner},
		{"inverted span", []any{"key-a", "north", 3, 1}, errors.ErrCodeInvalidSegment},
		{"segment out of range", []any{"key-a", "north", 0, 9}, errors.ErrCodeInvalidSegment},
		{"empty sequence", []any{}, errors.ErrCodeParse},
		{"scalar node", "key-a", errors.ErrCodeParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Forest(tt.doc, Path{"tweaks", "wall"})
			if errors.GetCode(err) != tt.code {
				t.Errorf("Forest() code = %v, want %v (err: %v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestForestGroup(t *testing.T) {
	doc := map[string]any{
		"chunk-size": 2,
		"at-ground":  true,
		"hull-around": []any{
			[]any{"key-a", "sw"},
			[]any{"key-b", "sw"},
			[]any{"key-c", "sw"},
		},
	}
	got, err := Forest(doc, Path{"tweaks", "wall"})
	if err != nil {
		t.Fatalf("Forest() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Forest() yielded %d nodes, want 1", len(got))
	}
	g := got[0]
	if g.Kind != tweak.KindGroup {
		t.Fatalf("node kind = %v, want group", g.Kind)
	}
	if len(g.Children) != 3 {
		t.Errorf("children = %d, want 3", len(g.Children))
	}
	if g.ChunkSize != 2 {
		t.Errorf("ChunkSize = %d, want 2", g.ChunkSize)
	}
	if !g.AtGround {
		t.Error("AtGround = false, want true")
	}
	if !g.AboveGround {
		t.Error("AboveGround should default to true")
	}
}

func TestForestGroupErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		code errors.Code
	}{
		{
			"missing hull-around",
			map[string]any{"chunk-size": 2},
			errors.ErrCodeMissingField,
		},
		{
			"misspelled field",
			map[string]any{"hull-around": []any{[]any{"key-a"}}, "chunked": 2},
			errors.ErrCodeInvalidKey,
		},
		{
			"chunk-size below window minimum",
			map[string]any{"hull-around": []any{[]any{"key-a"}}, "chunk-size": 1},
			errors.ErrCodeParse,
		},
		{
			"bad leaf inside group",
			map[string]any{"hull-around": []any{[]any{"key-a", "inward"}}},
			errors.ErrCodeInvalidCorner,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Forest(tt.doc, nil)
			if errors.GetCode(err) != tt.code {
				t.Errorf("Forest() code = %v, want %v (err: %v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestForestNestedGroups(t *testing.T) {
	doc := map[string]any{
		"hull-around": []any{
			[]any{"key-a", "ne", 0, 3},
			map[string]any{
				"at-ground":    true,
				"above-ground": false,
				"hull-around":  []any{[]any{"key-b", "ne"}},
			},
		},
	}
	got, err := Forest(doc, nil)
	if err != nil {
		t.Fatalf("Forest() error = %v", err)
	}
	inner := got[0].Children
	if len(inner) != 2 {
		t.Fatalf("outer group children = %d, want 2", len(inner))
	}
	if inner[0].Kind != tweak.KindLeaf || inner[1].Kind != tweak.KindGroup {
		t.Fatalf("child kinds = %v, %v, want leaf, group", inner[0].Kind, inner[1].Kind)
	}
	if !inner[1].AtGround || inner[1].AboveGround {
		t.Errorf("nested group spans = at-ground %v, above-ground %v, want true, false",
			inner[1].AtGround, inner[1].AboveGround)
	}
}

func TestForestListConcatenates(t *testing.T) {
	doc := []any{
		[]any{[]any{"key-a"}, []any{"key-b"}},
		[]any{"key-c"},
	}
	got, err := Forest(doc, nil)
	if err != nil {
		t.Fatalf("Forest() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Forest() yielded %d nodes, want 3", len(got))
	}
	for i, want := range []string{"key-a", "key-b", "key-c"} {
		if got[i].Anchor != want {
			t.Errorf("node %d anchor = %q, want %q", i, got[i].Anchor, want)
		}
	}
}

func TestTweaksSection(t *testing.T) {
	doc := map[string]any{
		"bridge": map[string]any{
			"hull-around": []any{[]any{"key-a", "ne"}, []any{"key-b", "nw"}},
		},
		"shelf": []any{"mcu-shelf"},
	}
	got, err := Tweaks(doc, Path{"tweaks"})
	if err != nil {
		t.Fatalf("Tweaks() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Tweaks() parsed %d entries, want 2", len(got))
	}
	if len(got["bridge"]) != 1 || got["bridge"][0].Kind != tweak.KindGroup {
		t.Errorf("bridge = %+v, want a single group", got["bridge"])
	}
	if len(got["shelf"]) != 1 || got["shelf"][0].Anchor != "mcu-shelf" {
		t.Errorf("shelf = %+v, want a single bare leaf", got["shelf"])
	}
}
