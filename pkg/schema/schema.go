// Package schema validates generic document trees into the typed structures
// the placement engine consumes.
//
// Document loading (YAML or TOML into map[string]any / []any / scalars) is
// pkg/config's job; this package is the combinator layer that checks shape
// and converts values, failing as close to the offending field as possible.
// Every error carries the full field path from the document root. Validation
// is all-or-nothing per subtree: a malformed field aborts its enclosing
// structure instead of being silently dropped.
package schema

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
)

// Path is the chain of field names from the document root. Paths are
// immutable: Child returns a fresh path, so sibling parses cannot clobber
// each other's context.
type Path []string

// Child returns the path extended by one segment.
func (p Path) Child(seg string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Index returns the path extended by a sequence index.
func (p Path) Index(i int) Path {
	return p.Child(strconv.Itoa(i))
}

// fail builds a parse error pinned to a path.
func fail(path Path, code errors.Code, format string, args ...any) error {
	return errors.New(code, format, args...).At(path...)
}

// Parser converts one document node into a T, reporting errors against the
// given path.
type Parser[T any] func(doc any, path Path) (T, error)

// String accepts a string scalar.
func String(doc any, path Path) (string, error) {
	s, ok := doc.(string)
	if !ok {
		return "", fail(path, errors.ErrCodeParse, "expected a string, got %s", typeName(doc))
	}
	return s, nil
}

// Int accepts an integer scalar. Whole-valued floats are accepted because
// some document formats cannot distinguish them from integers.
func Int(doc any, path Path) (int, error) {
	switch v := doc.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
		return 0, fail(path, errors.ErrCodeParse, "expected an integer, got %v", v)
	default:
		return 0, fail(path, errors.ErrCodeParse, "expected an integer, got %s", typeName(doc))
	}
}

// Float accepts a numeric scalar.
func Float(doc any, path Path) (float64, error) {
	switch v := doc.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fail(path, errors.ErrCodeParse, "expected a number, got %s", typeName(doc))
	}
}

// Bool accepts a boolean scalar.
func Bool(doc any, path Path) (bool, error) {
	b, ok := doc.(bool)
	if !ok {
		return false, fail(path, errors.ErrCodeParse, "expected a boolean, got %s", typeName(doc))
	}
	return b, nil
}

// IntOrKey normalizes either a native integer or a string-formed integer
// into a plain int. Some document formats cannot express integer-valued map
// keys, so "3" and 3 must mean the same column.
func IntOrKey(doc any, path Path) (int, error) {
	if s, ok := doc.(string); ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fail(path, errors.ErrCodeParse, "expected an integer key, got %q", s)
		}
		return n, nil
	}
	return Int(doc, path)
}

// Direction accepts a compass-direction name.
func Direction(doc any, path Path) (matrix.Direction, error) {
	s, err := String(doc, path)
	if err != nil {
		return 0, err
	}
	d, err := matrix.ParseDirection(s)
	if err != nil {
		return 0, withPath(err, path)
	}
	return d, nil
}

// MatrixIndex accepts an absolute integer or the symbolic extremes
// "first" and "last".
func MatrixIndex(doc any, path Path) (matrix.Index, error) {
	switch v := doc.(type) {
	case string:
		switch v {
		case "first":
			return matrix.First, nil
		case "last":
			return matrix.Last, nil
		default:
			n, err := strconv.Atoi(v)
			if err != nil {
				return matrix.Index{}, fail(path, errors.ErrCodeParse,
					"expected an integer, \"first\" or \"last\", got %q", v)
			}
			return matrix.Abs(n), nil
		}
	default:
		n, err := Int(doc, path)
		if err != nil {
			return matrix.Index{}, err
		}
		return matrix.Abs(n), nil
	}
}

// Vec3 accepts a sequence of two or three numbers; a two-element sequence
// leaves Z at zero.
func Vec3(doc any, path Path) (geom.Vec3, error) {
	nums, err := TupleOf(Float)(doc, path)
	if err != nil {
		return geom.Vec3{}, err
	}
	switch len(nums) {
	case 2:
		return geom.Vec3{X: nums[0], Y: nums[1]}, nil
	case 3:
		return geom.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}, nil
	default:
		return geom.Vec3{}, fail(path, errors.ErrCodeParse, "expected 2 or 3 numbers, got %d", len(nums))
	}
}

// Vec2 accepts a sequence of exactly two numbers.
func Vec2(doc any, path Path) (geom.Vec2, error) {
	nums, err := TupleOf(Float)(doc, path)
	if err != nil {
		return geom.Vec2{}, err
	}
	if len(nums) != 2 {
		return geom.Vec2{}, fail(path, errors.ErrCodeParse, "expected 2 numbers, got %d", len(nums))
	}
	return geom.Vec2{X: nums[0], Y: nums[1]}, nil
}

// TupleOf applies one parser across every element of a sequence,
// preserving order.
func TupleOf[T any](p Parser[T]) Parser[[]T] {
	return func(doc any, path Path) ([]T, error) {
		seq, ok := doc.([]any)
		if !ok {
			return nil, fail(path, errors.ErrCodeParse, "expected a sequence, got %s", typeName(doc))
		}
		out := make([]T, len(seq))
		for i, elem := range seq {
			v, err := p(elem, path.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
}

// MapOf applies a key parser and a value parser across a mapping.
// Distinct document keys that parse to the same canonical key are rejected,
// so "3" and 3 cannot silently shadow one another.
func MapOf[K comparable, V any](kp Parser[K], vp Parser[V]) Parser[map[K]V] {
	return func(doc any, path Path) (map[K]V, error) {
		m, ok := doc.(map[string]any)
		if !ok {
			return nil, fail(path, errors.ErrCodeParse, "expected a mapping, got %s", typeName(doc))
		}
		out := make(map[K]V, len(m))
		for _, rawKey := range sortedKeys(m) {
			k, err := kp(rawKey, path.Child(rawKey))
			if err != nil {
				return nil, err
			}
			if _, dup := out[k]; dup {
				return nil, fail(path.Child(rawKey), errors.ErrCodeParse, "duplicate key %v after parsing", k)
			}
			v, err := vp(m[rawKey], path.Child(rawKey))
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
}

// Fields validates that doc is a mapping carrying exactly the enumerated
// field set: every required field present, nothing outside required and
// optional. It returns the mapping for the caller to pull fields from.
func Fields(doc any, path Path, required, optional []string) (map[string]any, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fail(path, errors.ErrCodeParse, "expected a mapping, got %s", typeName(doc))
	}
	for _, name := range sortedKeys(m) {
		if !slices.Contains(required, name) && !slices.Contains(optional, name) {
			return nil, fail(path.Child(name), errors.ErrCodeInvalidKey, "unknown field %q", name)
		}
	}
	for _, name := range required {
		if _, present := m[name]; !present {
			return nil, fail(path, errors.ErrCodeMissingField, "missing required field %q", name)
		}
	}
	return m, nil
}

// sortedKeys returns a mapping's keys in deterministic order, so errors for
// documents with several problems are stable run to run.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// withPath pins an unpinned structured error to a path.
func withPath(err error, path Path) error {
	var e *errors.Error
	if !errors.AsError(err, &e) {
		return err
	}
	if len(e.Path) > 0 {
		return err
	}
	return e.At(path...)
}

// typeName renders a node's type for error messages; %T on nil prints
// "<nil>", which reads poorly next to document terminology.
func typeName(doc any) string {
	if doc == nil {
		return "null"
	}
	return fmt.Sprintf("%T", doc)
}
