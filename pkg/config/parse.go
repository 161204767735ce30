package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/GabeBolton/dactyl-keyboard/pkg/anchor"
	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
	"github.com/GabeBolton/dactyl-keyboard/pkg/profile"
	"github.com/GabeBolton/dactyl-keyboard/pkg/schema"
	"github.com/GabeBolton/dactyl-keyboard/pkg/tweak"
)

// Format selects the document syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath infers the document format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeParse,
			"cannot infer config format from %q (use .yaml, .yml or .toml)", filepath.Base(path))
	}
}

// Load reads and parses a config file, inferring the format from its
// extension.
func Load(path string) (*Config, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "reading config %s", path)
	}
	return Parse(data, format)
}

// Parse decodes a document and validates it into a Config.
func Parse(data []byte, format Format) (*Config, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "decoding yaml document")
		}
	case FormatTOML:
		var tree map[string]any
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "decoding toml document")
		}
		doc = tree
	default:
		return nil, errors.New(errors.ErrCodeParse, "unsupported config format %q", format)
	}
	return parseRoot(doc)
}

func parseRoot(doc any) (*Config, error) {
	m, err := schema.Fields(doc, nil,
		[]string{"clusters"},
		[]string{"anchors", "tweaks", "case", "mcu", "wrist-rest", "foot-plates"})
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Anchors: map[string]anchor.Descriptor{},
		Tweaks:  map[string][]tweak.Node{},
		Case:    Case{WallSegments: profile.DefaultSegmentTable()},
	}

	cfg.Clusters, err = schema.MapOf(parseClusterName, parseCluster)(m["clusters"], schema.Path{"clusters"})
	if err != nil {
		return nil, err
	}

	if raw, ok := m["anchors"]; ok {
		cfg.Anchors, err = parseAnchors(raw, schema.Path{"anchors"})
		if err != nil {
			return nil, err
		}
	}
	if raw, ok := m["tweaks"]; ok {
		cfg.Tweaks, err = schema.Tweaks(raw, schema.Path{"tweaks"})
		if err != nil {
			return nil, err
		}
	}
	if raw, ok := m["case"]; ok {
		cfg.Case, err = parseCase(raw, schema.Path{"case"})
		if err != nil {
			return nil, err
		}
	}
	if raw, ok := m["mcu"]; ok {
		mcu, err := parseMCU(raw, schema.Path{"mcu"})
		if err != nil {
			return nil, err
		}
		cfg.MCU = &mcu
	}
	if raw, ok := m["wrist-rest"]; ok {
		wr, err := parseWristRest(raw, schema.Path{"wrist-rest"})
		if err != nil {
			return nil, err
		}
		cfg.WristRest = &wr
	}
	if raw, ok := m["foot-plates"]; ok {
		cfg.FootPlates, err = schema.TupleOf(parseFootPlate)(raw, schema.Path{"foot-plates"})
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func parseClusterName(doc any, path schema.Path) (string, error) {
	name, err := schema.String(doc, path)
	if err != nil {
		return "", err
	}
	if err := errors.ValidateClusterName(name); err != nil {
		var e *errors.Error
		if errors.AsError(err, &e) {
			return "", e.At(path...)
		}
		return "", err
	}
	return name, nil
}

func parseCluster(doc any, path schema.Path) (Cluster, error) {
	m, err := schema.Fields(doc, path,
		nil,
		[]string{"rows-per-column", "columns", "rows", "row-curvature", "column-curvature",
			"center-column", "center-row", "stagger", "offset", "yaw", "aliases"})
	if err != nil {
		return Cluster{}, err
	}

	var cluster Cluster
	cluster.Layout.Bounds, err = parseBounds(m, path)
	if err != nil {
		return Cluster{}, err
	}

	type floatField struct {
		name string
		dst  *float64
	}
	for _, f := range []floatField{
		{"row-curvature", &cluster.Layout.RowCurvature},
		{"column-curvature", &cluster.Layout.ColumnCurvature},
		{"center-column", &cluster.Layout.CenterColumn},
		{"center-row", &cluster.Layout.CenterRow},
		{"yaw", &cluster.Layout.Yaw},
	} {
		if raw, ok := m[f.name]; ok {
			if *f.dst, err = schema.Float(raw, path.Child(f.name)); err != nil {
				return Cluster{}, err
			}
		}
	}
	if raw, ok := m["stagger"]; ok {
		cluster.Layout.Stagger, err = schema.MapOf(schema.IntOrKey, schema.Vec3)(raw, path.Child("stagger"))
		if err != nil {
			return Cluster{}, err
		}
	}
	if raw, ok := m["offset"]; ok {
		if cluster.Layout.Offset, err = schema.Vec3(raw, path.Child("offset")); err != nil {
			return Cluster{}, err
		}
	}
	if raw, ok := m["aliases"]; ok {
		cluster.Aliases, err = schema.MapOf(schema.String, parseCoordinate)(raw, path.Child("aliases"))
		if err != nil {
			return Cluster{}, err
		}
		for name := range cluster.Aliases {
			if err := checkAnchorName(name, path.Child("aliases").Child(name)); err != nil {
				return Cluster{}, err
			}
		}
	}
	return cluster, nil
}

// parseBounds accepts either an irregular rows-per-column list or a
// rectangular columns/rows pair, but not both.
func parseBounds(m map[string]any, path schema.Path) (matrix.Bounds, error) {
	rawRPC, hasRPC := m["rows-per-column"]
	_, hasCols := m["columns"]
	_, hasRows := m["rows"]

	switch {
	case hasRPC && (hasCols || hasRows):
		return matrix.Bounds{}, errors.New(errors.ErrCodeParse,
			"rows-per-column and columns/rows are mutually exclusive").At(path...)
	case hasRPC:
		rpc, err := schema.TupleOf(schema.Int)(rawRPC, path.Child("rows-per-column"))
		if err != nil {
			return matrix.Bounds{}, err
		}
		if len(rpc) == 0 {
			return matrix.Bounds{}, errors.New(errors.ErrCodeParse,
				"rows-per-column must name at least one column").At(append(path, "rows-per-column")...)
		}
		for i, rows := range rpc {
			if rows < 1 {
				return matrix.Bounds{}, errors.New(errors.ErrCodeParse,
					"column %d has %d rows, need at least 1", i, rows).At(append(path, "rows-per-column")...)
			}
		}
		return matrix.Bounds{RowsPerColumn: rpc}, nil
	case hasCols && hasRows:
		cols, err := schema.Int(m["columns"], path.Child("columns"))
		if err != nil {
			return matrix.Bounds{}, err
		}
		rows, err := schema.Int(m["rows"], path.Child("rows"))
		if err != nil {
			return matrix.Bounds{}, err
		}
		if cols < 1 || rows < 1 {
			return matrix.Bounds{}, errors.New(errors.ErrCodeParse,
				"cluster needs at least one column and one row").At(path...)
		}
		rpc := make([]int, cols)
		for i := range rpc {
			rpc[i] = rows
		}
		return matrix.Bounds{RowsPerColumn: rpc}, nil
	default:
		return matrix.Bounds{}, errors.New(errors.ErrCodeMissingField,
			"cluster needs rows-per-column or columns and rows").At(path...)
	}
}

func parseCoordinate(doc any, path schema.Path) (matrix.Coordinate, error) {
	pair, err := schema.TupleOf(schema.MatrixIndex)(doc, path)
	if err != nil {
		return matrix.Coordinate{}, err
	}
	if len(pair) != 2 {
		return matrix.Coordinate{}, errors.New(errors.ErrCodeParse,
			"expected [column, row], got %d values", len(pair)).At(path...)
	}
	return matrix.Coordinate{Column: pair[0], Row: pair[1]}, nil
}

func parseAnchors(doc any, path schema.Path) (map[string]anchor.Descriptor, error) {
	out, err := schema.MapOf(schema.String, parseSecondary)(doc, path)
	if err != nil {
		return nil, err
	}
	for name := range out {
		if err := checkAnchorName(name, path.Child(name)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseSecondary(doc any, path schema.Path) (anchor.Descriptor, error) {
	m, err := schema.Fields(doc, path,
		[]string{"anchor"},
		[]string{"corner", "segment", "offset", "lateral"})
	if err != nil {
		return anchor.Descriptor{}, err
	}

	parent, err := schema.String(m["anchor"], path.Child("anchor"))
	if err != nil {
		return anchor.Descriptor{}, err
	}
	d := anchor.Secondary(parent, matrix.None, 0, geom.Vec3{}, geom.Vec2{})

	if raw, ok := m["corner"]; ok {
		if d.Corner, err = schema.Direction(raw, path.Child("corner")); err != nil {
			return anchor.Descriptor{}, err
		}
	}
	if raw, ok := m["segment"]; ok {
		if d.Segment, err = schema.Int(raw, path.Child("segment")); err != nil {
			return anchor.Descriptor{}, err
		}
		if err := errors.ValidateSegment(d.Segment); err != nil {
			var e *errors.Error
			if errors.AsError(err, &e) {
				return anchor.Descriptor{}, e.At(append(path, "segment")...)
			}
			return anchor.Descriptor{}, err
		}
	}
	if raw, ok := m["offset"]; ok {
		if d.Offset, err = schema.Vec3(raw, path.Child("offset")); err != nil {
			return anchor.Descriptor{}, err
		}
	}
	if raw, ok := m["lateral"]; ok {
		if d.Lateral, err = schema.Vec2(raw, path.Child("lateral")); err != nil {
			return anchor.Descriptor{}, err
		}
	}
	return d, nil
}

func parseCase(doc any, path schema.Path) (Case, error) {
	m, err := schema.Fields(doc, path, nil, []string{"rear-housing", "wall-segments"})
	if err != nil {
		return Case{}, err
	}
	out := Case{WallSegments: profile.DefaultSegmentTable()}

	if raw, ok := m["rear-housing"]; ok {
		hpath := path.Child("rear-housing")
		hm, err := schema.Fields(raw, hpath, nil, []string{"offset", "yaw", "size"})
		if err != nil {
			return Case{}, err
		}
		housing := &RearHousing{Size: geom.Vec3{X: 40, Y: 20, Z: 15}}
		if rawOffset, ok := hm["offset"]; ok {
			if housing.Offset, err = schema.Vec3(rawOffset, hpath.Child("offset")); err != nil {
				return Case{}, err
			}
		}
		if rawYaw, ok := hm["yaw"]; ok {
			if housing.Yaw, err = schema.Float(rawYaw, hpath.Child("yaw")); err != nil {
				return Case{}, err
			}
		}
		if rawSize, ok := hm["size"]; ok {
			if housing.Size, err = schema.Vec3(rawSize, hpath.Child("size")); err != nil {
				return Case{}, err
			}
		}
		out.RearHousing = housing
	}
	if raw, ok := m["wall-segments"]; ok {
		rows, err := schema.TupleOf(schema.TupleOf(schema.Float))(raw, path.Child("wall-segments"))
		if err != nil {
			return Case{}, err
		}
		if len(rows) != profile.SegmentCount {
			return Case{}, errors.New(errors.ErrCodeParse,
				"wall-segments needs exactly %d [lateral, drop] pairs, got %d",
				profile.SegmentCount, len(rows)).At(append(path, "wall-segments")...)
		}
		for i, row := range rows {
			if len(row) != 2 {
				return Case{}, errors.New(errors.ErrCodeParse,
					"segment %d needs [lateral, drop], got %d values", i, len(row)).
					At(append(path, "wall-segments", fmt.Sprint(i))...)
			}
			out.WallSegments[i] = profile.SegmentOffset{Lateral: row[0], Drop: row[1]}
		}
	}
	return out, nil
}

func parseMCU(doc any, path schema.Path) (MCU, error) {
	m, err := schema.Fields(doc, path,
		[]string{"anchor"},
		[]string{"corner", "segment", "offset", "size"})
	if err != nil {
		return MCU{}, err
	}
	// Pro Micro class footprint unless overridden.
	out := MCU{Corner: matrix.None, Size: geom.Vec3{X: 18, Y: 33, Z: 1.6}}

	if out.Anchor, err = schema.String(m["anchor"], path.Child("anchor")); err != nil {
		return MCU{}, err
	}
	if raw, ok := m["corner"]; ok {
		if out.Corner, err = schema.Direction(raw, path.Child("corner")); err != nil {
			return MCU{}, err
		}
	}
	if raw, ok := m["segment"]; ok {
		if out.Segment, err = schema.Int(raw, path.Child("segment")); err != nil {
			return MCU{}, err
		}
	}
	if raw, ok := m["offset"]; ok {
		if out.Offset, err = schema.Vec3(raw, path.Child("offset")); err != nil {
			return MCU{}, err
		}
	}
	if raw, ok := m["size"]; ok {
		if out.Size, err = schema.Vec3(raw, path.Child("size")); err != nil {
			return MCU{}, err
		}
	}
	return out, nil
}

func parseWristRest(doc any, path schema.Path) (WristRest, error) {
	m, err := schema.Fields(doc, path,
		[]string{"anchor"},
		[]string{"corner", "offset", "size"})
	if err != nil {
		return WristRest{}, err
	}
	out := WristRest{Corner: matrix.None, Size: geom.Vec3{X: 80, Y: 60, Z: 20}}

	if out.Anchor, err = schema.String(m["anchor"], path.Child("anchor")); err != nil {
		return WristRest{}, err
	}
	if raw, ok := m["corner"]; ok {
		if out.Corner, err = schema.Direction(raw, path.Child("corner")); err != nil {
			return WristRest{}, err
		}
	}
	if raw, ok := m["offset"]; ok {
		if out.Offset, err = schema.Vec3(raw, path.Child("offset")); err != nil {
			return WristRest{}, err
		}
	}
	if raw, ok := m["size"]; ok {
		if out.Size, err = schema.Vec3(raw, path.Child("size")); err != nil {
			return WristRest{}, err
		}
	}
	return out, nil
}

func parseFootPlate(doc any, path schema.Path) (FootPlate, error) {
	m, err := schema.Fields(doc, path, []string{"points"}, []string{"thickness"})
	if err != nil {
		return FootPlate{}, err
	}
	out := FootPlate{Thickness: 4}

	points, err := schema.Forest(m["points"], path.Child("points"))
	if err != nil {
		return FootPlate{}, err
	}
	for i, p := range points {
		if p.Kind != tweak.KindLeaf {
			return FootPlate{}, errors.New(errors.ErrCodeParse,
				"foot plate points must be plain anchor references").
				At(append(path, "points", fmt.Sprint(i))...)
		}
	}
	if len(points) < 3 {
		return FootPlate{}, errors.New(errors.ErrCodeParse,
			"a foot plate needs at least 3 points, got %d", len(points)).At(append(path, "points")...)
	}
	out.Points = points

	if raw, ok := m["thickness"]; ok {
		if out.Thickness, err = schema.Float(raw, path.Child("thickness")); err != nil {
			return FootPlate{}, err
		}
	}
	return out, nil
}
