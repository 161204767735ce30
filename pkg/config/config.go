// Package config loads keyboard definitions from YAML or TOML documents and
// assembles the typed structures the rest of the generator consumes.
//
// Loading is two-phase: the document is decoded into a generic tree, then
// walked with pkg/schema combinators so every validation failure names the
// exact field that caused it. A Config is immutable once built.
package config

import (
	"slices"

	"github.com/GabeBolton/dactyl-keyboard/pkg/anchor"
	"github.com/GabeBolton/dactyl-keyboard/pkg/errors"
	"github.com/GabeBolton/dactyl-keyboard/pkg/geom"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
	"github.com/GabeBolton/dactyl-keyboard/pkg/profile"
	"github.com/GabeBolton/dactyl-keyboard/pkg/schema"
	"github.com/GabeBolton/dactyl-keyboard/pkg/tweak"
)

// Config is a fully validated keyboard definition.
type Config struct {
	Clusters   map[string]Cluster
	Anchors    map[string]anchor.Descriptor
	Tweaks     map[string][]tweak.Node
	Case       Case
	MCU        *MCU
	WristRest  *WristRest
	FootPlates []FootPlate
}

// Cluster is one key matrix: its extent, curvature and the key aliases that
// make individual positions addressable by name.
type Cluster struct {
	Layout  profile.ClusterLayout
	Aliases map[string]matrix.Coordinate
}

// Case carries whole-case settings. RearHousing is nil when the document
// has no rear housing; the built-in anchor then sits at the origin.
type Case struct {
	RearHousing  *RearHousing
	WallSegments profile.SegmentTable
}

// RearHousing positions the rear-housing built-in anchor.
type RearHousing struct {
	Offset geom.Vec3
	Yaw    float64
	Size   geom.Vec3
}

// MCU describes the microcontroller mount, placed into a wall nook.
type MCU struct {
	Anchor  string
	Corner  matrix.Direction
	Segment int
	Offset  geom.Vec3
	Size    geom.Vec3
}

// WristRest describes the wrist-rest pad placement.
type WristRest struct {
	Anchor string
	Corner matrix.Direction
	Offset geom.Vec3
	Size   geom.Vec3
}

// FootPlate is a floor-level polygon spanned by anchor points.
type FootPlate struct {
	Points    []tweak.Node // leaves only, enforced at parse
	Thickness float64
}

// Transform returns the rear housing's placement in the global frame.
// A nil housing sits at the origin.
func (h *RearHousing) Transform() geom.Transform {
	if h == nil {
		return geom.Identity()
	}
	return geom.Translation(h.Offset).Mul(geom.RotationAboutZ(h.Yaw))
}

// BuildRegistry registers every named anchor: cluster key aliases first,
// then the secondary anchors. Registration order is deterministic so any
// collision reports the same name regardless of document layout.
func (c *Config) BuildRegistry() (*anchor.Registry, error) {
	reg := anchor.NewRegistry()
	for _, cluster := range sortedNames(c.Clusters) {
		aliases := c.Clusters[cluster].Aliases
		for _, name := range sortedNames(aliases) {
			if err := reg.Register(name, anchor.Key(cluster, aliases[name])); err != nil {
				return nil, err
			}
		}
	}
	for _, name := range sortedNames(c.Anchors) {
		if err := reg.Register(name, c.Anchors[name]); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// BuildLayout returns the per-key nominal layout for all clusters.
func (c *Config) BuildLayout() *profile.Layout {
	clusters := make(map[string]profile.ClusterLayout, len(c.Clusters))
	for name, cluster := range c.Clusters {
		clusters[name] = cluster.Layout
	}
	return profile.NewLayout(clusters)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// reservedAnchorNames are rejected at parse time; Register would also catch
// them, but a parse-time error carries the document path.
var reservedAnchorNames = map[string]bool{
	anchor.Origin:      true,
	anchor.RearHousing: true,
}

func checkAnchorName(name string, path schema.Path) error {
	if reservedAnchorNames[name] {
		return errors.New(errors.ErrCodeDuplicateAnchor,
			"%q is a built-in anchor and cannot be redefined", name).At(path...)
	}
	if err := errors.ValidateAnchorName(name); err != nil {
		var e *errors.Error
		if errors.AsError(err, &e) {
			return e.At(path...)
		}
		return err
	}
	return nil
}
