package matrix

import (
	"fmt"

	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
)

// IndexKind discriminates between absolute and symbolic matrix indices.
type IndexKind int

const (
	// IndexAbs is an absolute, zero-based index.
	IndexAbs IndexKind = iota
	// IndexFirst resolves to 0 in any extent.
	IndexFirst
	// IndexLast resolves to extent-1.
	IndexLast
)

// Index is a column or row position: either an absolute integer or the
// symbolic extreme First/Last, resolved against a cluster's extent.
type Index struct {
	Kind IndexKind
	N    int // absolute value, meaningful only when Kind == IndexAbs
}

// Abs returns an absolute index.
func Abs(n int) Index { return Index{Kind: IndexAbs, N: n} }

// First is the symbolic lowest index of an extent.
var First = Index{Kind: IndexFirst}

// Last is the symbolic highest index of an extent.
var Last = Index{Kind: IndexLast}

// String renders the index for error messages.
func (i Index) String() string {
	switch i.Kind {
	case IndexFirst:
		return "first"
	case IndexLast:
		return "last"
	default:
		return fmt.Sprintf("%d", i.N)
	}
}

// resolve maps the index into [0, extent), expanding symbolic extremes.
func (i Index) resolve(extent int, what string) (int, error) {
	if extent <= 0 {
		return 0, errors.New(errors.ErrCodeOutOfBounds, "%s extent is empty", what)
	}
	switch i.Kind {
	case IndexFirst:
		return 0, nil
	case IndexLast:
		return extent - 1, nil
	default:
		if i.N < 0 || i.N >= extent {
			return 0, errors.New(errors.ErrCodeOutOfBounds, "%s %d outside extent [0,%d)", what, i.N, extent)
		}
		return i.N, nil
	}
}

// Coordinate addresses one key inside a cluster's matrix.
type Coordinate struct {
	Column Index
	Row    Index
}

// Coord is shorthand for a coordinate with absolute indices.
func Coord(col, row int) Coordinate {
	return Coordinate{Column: Abs(col), Row: Abs(row)}
}

// Bounds describes a cluster's matrix extent. Clusters may be irregular:
// each column carries its own row count, so a thumb cluster can be two keys
// tall in one column and three in the next.
type Bounds struct {
	// RowsPerColumn holds the row count of each column, column 0 first.
	RowsPerColumn []int
}

// Columns returns the number of columns in the cluster.
func (b Bounds) Columns() int { return len(b.RowsPerColumn) }

// Rows returns the row count of the given resolved column.
// Returns 0 for out-of-range columns.
func (b Bounds) Rows(col int) int {
	if col < 0 || col >= len(b.RowsPerColumn) {
		return 0
	}
	return b.RowsPerColumn[col]
}

// Resolve expands a coordinate's symbolic extremes against the cluster
// extent and checks absolute indices. The row extent depends on the resolved
// column, so first/last rows differ between columns of an irregular cluster.
// After a successful resolve both values lie inside the matrix.
func (b Bounds) Resolve(c Coordinate) (col, row int, err error) {
	col, err = c.Column.resolve(b.Columns(), "column")
	if err != nil {
		return 0, 0, err
	}
	row, err = c.Row.resolve(b.Rows(col), "row")
	if err != nil {
		return 0, 0, err
	}
	return col, row, nil
}

// Walk steps one key along a cardinal direction in the matrix: north/south
// move along the row axis, east/west along the column axis. Stepping outside
// the cluster is an OutOfBounds error rather than a clamp or wrap, so span
// code notices when it falls off an edge instead of silently reusing a key.
func (b Bounds) Walk(col, row int, d Direction) (int, int, error) {
	switch d {
	case North:
		row++
	case South:
		row--
	case East:
		col++
	case West:
		col--
	default:
		return 0, 0, errors.New(errors.ErrCodeInvalidCorner, "walk requires a cardinal direction, got %v", d)
	}
	if col < 0 || col >= b.Columns() {
		return 0, 0, errors.New(errors.ErrCodeOutOfBounds, "walked to column %d outside extent [0,%d)", col, b.Columns())
	}
	if row < 0 || row >= b.Rows(col) {
		return 0, 0, errors.New(errors.ErrCodeOutOfBounds, "walked to row %d outside column %d extent [0,%d)", row, col, b.Rows(col))
	}
	return col, row, nil
}
