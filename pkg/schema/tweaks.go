package schema

import (
	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
	"github.com/GabeBolton/dactyl-keyboard/pkg/tweak"
)

// Tweak node shapes are dispatched once, on the node's document form:
//
//	["alias", corner?, s0?, s1?]   a leaf, positionally
//	[node, node, ...]              a plain list, parsed element-wise
//	{hull-around: ..., ...}        a group
//
// A sequence whose first element is a string is always read as a leaf, so a
// list of leaves needs each leaf wrapped in its own sequence.

var groupFields = struct {
	required []string
	optional []string
}{
	required: []string{"hull-around"},
	optional: []string{"chunk-size", "at-ground", "above-ground", "highlight"},
}

// Forest parses one tweak document node into a flat list of nodes. Leaves
// and groups each yield one node; plain lists concatenate their elements'
// results.
func Forest(doc any, path Path) ([]tweak.Node, error) {
	switch v := doc.(type) {
	case map[string]any:
		node, err := parseGroup(v, path)
		if err != nil {
			return nil, err
		}
		return []tweak.Node{node}, nil
	case []any:
		if len(v) == 0 {
			return nil, fail(path, errors.ErrCodeParse, "empty sequence is not a tweak")
		}
		if _, isLeaf := v[0].(string); isLeaf {
			node, err := parseLeaf(v, path)
			if err != nil {
				return nil, err
			}
			return []tweak.Node{node}, nil
		}
		var out []tweak.Node
		for i, elem := range v {
			nodes, err := Forest(elem, path.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
		return out, nil
	default:
		return nil, fail(path, errors.ErrCodeParse, "expected a tweak node, got %s", typeName(doc))
	}
}

// Tweaks parses the named-tweak section: a mapping from tweak name to one
// tweak node or a list thereof.
func Tweaks(doc any, path Path) (map[string][]tweak.Node, error) {
	return MapOf(String, Parser[[]tweak.Node](Forest))(doc, path)
}

// parseLeaf reads the positional leaf form. The alias is mandatory; corner
// and segment bounds trail it in order. A single segment value pins both
// bounds; omitting segments entirely leaves the span to the enclosing
// group's vertical extent.
func parseLeaf(seq []any, path Path) (tweak.Node, error) {
	if len(seq) > 4 {
		return tweak.Node{}, fail(path, errors.ErrCodeParse,
			"leaf takes at most 4 fields (anchor, corner, segments), got %d", len(seq))
	}
	anchor, err := String(seq[0], path.Index(0))
	if err != nil {
		return tweak.Node{}, err
	}
	corner := matrix.None
	if len(seq) > 1 {
		corner, err = Direction(seq[1], path.Index(1))
		if err != nil {
			return tweak.Node{}, err
		}
	}
	if len(seq) < 3 {
		return tweak.BareLeaf(anchor, corner), nil
	}
	from, err := Int(seq[2], path.Index(2))
	if err != nil {
		return tweak.Node{}, err
	}
	to := from
	if len(seq) == 4 {
		to, err = Int(seq[3], path.Index(3))
		if err != nil {
			return tweak.Node{}, err
		}
	}
	if err := errors.ValidateSegmentRange(from, to); err != nil {
		return tweak.Node{}, withPath(err, path)
	}
	return tweak.Leaf(anchor, corner, from, to), nil
}

// parseGroup reads the mapping form. Only hull-around is required;
// above-ground defaults to true so bare groups span the face wall.
func parseGroup(doc map[string]any, path Path) (tweak.Node, error) {
	m, err := Fields(doc, path, groupFields.required, groupFields.optional)
	if err != nil {
		return tweak.Node{}, err
	}
	children, err := Forest(m["hull-around"], path.Child("hull-around"))
	if err != nil {
		return tweak.Node{}, err
	}
	node := tweak.Group(children...)
	if raw, ok := m["chunk-size"]; ok {
		n, err := Int(raw, path.Child("chunk-size"))
		if err != nil {
			return tweak.Node{}, err
		}
		if n < 2 {
			return tweak.Node{}, fail(path.Child("chunk-size"), errors.ErrCodeParse,
				"chunk-size must be at least 2, got %d", n)
		}
		node.ChunkSize = n
	}
	if raw, ok := m["at-ground"]; ok {
		if node.AtGround, err = Bool(raw, path.Child("at-ground")); err != nil {
			return tweak.Node{}, err
		}
	}
	if raw, ok := m["above-ground"]; ok {
		if node.AboveGround, err = Bool(raw, path.Child("above-ground")); err != nil {
			return tweak.Node{}, err
		}
	}
	if raw, ok := m["highlight"]; ok {
		if node.Highlight, err = Bool(raw, path.Child("highlight")); err != nil {
			return tweak.Node{}, err
		}
	}
	return node, nil
}
