package errors

import (
	"regexp"
	"unicode"
)

// anchorNameRegex matches valid anchor names: lowercase words separated by
// single dashes, the convention used throughout example configurations
// (e.g. "thumb-br", "mcu-shelf", "rear-housing").
var anchorNameRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateAnchorName validates a user-supplied anchor name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 128 characters
//   - Lowercase alphanumeric words separated by single dashes
//
// Collision with reserved built-in names is checked separately by the
// anchor registry, which knows which names are pre-registered.
func ValidateAnchorName(name string) error {
	if name == "" {
		return New(ErrCodeParse, "anchor name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeParse, "anchor name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeParse, "anchor name contains control characters")
		}
	}

	if !anchorNameRegex.MatchString(name) {
		return New(ErrCodeParse, "invalid anchor name: %q (want lowercase words separated by dashes)", name)
	}

	return nil
}

// ValidateClusterName validates a key-cluster name. Clusters follow the
// same naming convention as anchors.
func ValidateClusterName(name string) error {
	if name == "" {
		return New(ErrCodeParse, "cluster name cannot be empty")
	}
	if !anchorNameRegex.MatchString(name) {
		return New(ErrCodeParse, "invalid cluster name: %q (want lowercase words separated by dashes)", name)
	}
	return nil
}

// ValidateSegment validates a wall-profile segment index.
// Segments run from 0 (key face) to 4 (ground).
func ValidateSegment(segment int) error {
	if segment < 0 || segment > 4 {
		return New(ErrCodeInvalidSegment, "segment %d out of range [0,4]", segment)
	}
	return nil
}

// ValidateSegmentRange validates a contiguous wall-profile span.
// Both endpoints must be valid segments and lo must not exceed hi.
func ValidateSegmentRange(lo, hi int) error {
	if err := ValidateSegment(lo); err != nil {
		return err
	}
	if err := ValidateSegment(hi); err != nil {
		return err
	}
	if lo > hi {
		return New(ErrCodeInvalidSegment, "segment range %d..%d is inverted", lo, hi)
	}
	return nil
}
