// Package sid implements STARE spatial index values (SIDs).
//
// A SID is a 64-bit integer naming one triangle ("trixel") of a recursive
// four-way subdivision of an octahedron projected onto the unit sphere.
//
// Bit layout, most significant first:
//
//	63..62  reserved, always zero
//	61..59  root triangle 0..7 (S0..S3, N0..N3)
//	58..5   27 two-bit child selectors, level 1 first
//	4..0    resolution level 0..27
//
// Bits below the selectors of the encoded level may still carry location
// (EncodePoint keeps the full 27-level path). ClearToLevel strips them.
package sid

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/politic-in/stare/types"
)

// SID is a STARE spatial index value.
type SID uint64

// Layout constants
const (
	// MaxLevel is the finest subdivision level
	MaxLevel = 27

	// NumRoots is the number of root triangles (octahedron faces)
	NumRoots = 8

	// RootBits is the width of the root triangle field
	RootBits = 3

	// BitsPerLevel is the width of one child selector
	BitsPerLevel = 2

	// LevelBits is the width of the resolution level field
	LevelBits = 5

	// LevelMask selects the resolution level field
	LevelMask SID = 1<<LevelBits - 1

	rootShift    = 59
	reservedMask = SID(3) << 62
	locationMask = SID(1)<<62 - 1
)

// Invalid is the missing-data sentinel. It matches the -1 fill value used by
// int64 index arrays.
const Invalid = ^SID(0)

// shift returns the bit offset of the selector for level (1..MaxLevel). For
// level 0 it returns the root field offset.
func shift(level int) uint {
	return uint(rootShift - BitsPerLevel*level)
}

// blockSize is the number of integer values spanned by one cell at level.
func blockSize(level int) SID {
	return SID(1) << shift(level)
}

// prefixMask keeps the root and the selectors down to level.
func prefixMask(level int) SID {
	return locationMask &^ (blockSize(level) - 1)
}

// CheckLevel rejects levels outside [0, MaxLevel].
func CheckLevel(level int) error {
	if level < 0 || level > MaxLevel {
		return errors.Wrapf(types.ErrInvalidLevel, "level %d outside [0, %d]", level, MaxLevel)
	}
	return nil
}

// Validate checks that s is a well-formed SID.
func Validate(s SID) error {
	if s == Invalid {
		return types.ErrMissingData
	}
	if s&reservedMask != 0 {
		return errors.Wrapf(types.ErrInvalidSID, "reserved bits set in %#x", uint64(s))
	}
	if int(s&LevelMask) > MaxLevel {
		return errors.Wrapf(types.ErrInvalidSID, "level field %d in %#x", int(s&LevelMask), uint64(s))
	}
	return nil
}

// ValidateAll checks every element of sids and reports the first offender.
func ValidateAll(sids []SID) error {
	for i, s := range sids {
		if err := Validate(s); err != nil {
			return errors.Wrapf(err, "index %d", i)
		}
	}
	return nil
}

// Level returns the encoded resolution level.
func (s SID) Level() int {
	return int(s & LevelMask)
}

// Root returns the root triangle number 0..7.
func (s SID) Root() int {
	return int((s >> rootShift) & (NumRoots - 1))
}

// Child returns the child selector (0..3) of s at level (1..MaxLevel).
func (s SID) Child(level int) int {
	return int((s >> shift(level)) & 3)
}

// Path returns the child selectors from level 1 down to the encoded level.
func (s SID) Path() []int {
	path := make([]int, s.Level())
	for l := 1; l <= s.Level(); l++ {
		path[l-1] = s.Child(l)
	}
	return path
}

// Clear zeroes all location bits below the encoded level, producing the
// canonical representative of the cell.
func (s SID) Clear() SID {
	l := s.Level()
	return s&prefixMask(l) | SID(l)
}

// Terminator returns the largest integer belonging to the cell or any of its
// descendants: every bit below the last selector is set, including the level
// field.
func (s SID) Terminator() SID {
	l := s.Level()
	return s&prefixMask(l) | (blockSize(l) - 1)
}

// Lower returns the first integer of the cell's range (level field zero).
func (s SID) Lower() SID {
	return s & prefixMask(s.Level())
}

// IsAncestorOrEqual reports whether the cell of s contains the cell of other.
func (s SID) IsAncestorOrEqual(other SID) bool {
	if other.Level() < s.Level() {
		return false
	}
	return other&prefixMask(s.Level()) == s.Lower()
}

// Overlaps reports whether the cells of s and other share any area, i.e. one is
// an ancestor-or-equal of the other.
func (s SID) Overlaps(other SID) bool {
	return s.IsAncestorOrEqual(other) || other.IsAncestorOrEqual(s)
}

// Contains reports whether the cells of a and b overlap.
func Contains(a, b SID) bool {
	return a.Overlaps(b)
}

// String formats the SID as a decimal integer, the form used by index arrays.
func (s SID) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// Hex formats the SID as fixed-width hexadecimal.
func (s SID) Hex() string {
	return fmt.Sprintf("0x%016x", uint64(s))
}

// FromRoot returns the level-0 SID of root triangle r.
func FromRoot(r int) (SID, error) {
	if r < 0 || r >= NumRoots {
		return 0, errors.Wrapf(types.ErrInvalidSID, "root %d outside [0, %d)", r, NumRoots)
	}
	return SID(r) << rootShift, nil
}

// FromPath builds a canonical SID from a root and a child path.
func FromPath(root int, path []int) (SID, error) {
	s, err := FromRoot(root)
	if err != nil {
		return 0, err
	}
	if err := CheckLevel(len(path)); err != nil {
		return 0, err
	}
	for i, c := range path {
		if c < 0 || c > 3 {
			return 0, errors.Wrapf(types.ErrInvalidSID, "child selector %d at level %d", c, i+1)
		}
		s |= SID(c) << shift(i+1)
	}
	return s | SID(len(path)), nil
}

// ClearToLevel returns the canonical representative of the cell of s.
func ClearToLevel(s SID) (SID, error) {
	if err := Validate(s); err != nil {
		return 0, err
	}
	return s.Clear(), nil
}

// CoerceToLevel sets the resolution of s to exactly level. Coarsening clears
// the selectors below level. Refining keeps whatever location bits s carries,
// which for a canonical SID selects child 0 at every new level.
func CoerceToLevel(s SID, level int) (SID, error) {
	if err := Validate(s); err != nil {
		return 0, err
	}
	if err := CheckLevel(level); err != nil {
		return 0, err
	}
	if level <= s.Level() {
		return s&prefixMask(level) | SID(level), nil
	}
	return s&^LevelMask | SID(level), nil
}

// Parent returns the canonical parent of s.
func Parent(s SID) (SID, error) {
	if err := Validate(s); err != nil {
		return 0, err
	}
	if s.Level() == 0 {
		return 0, errors.Wrapf(types.ErrInvalidLevel, "root %s has no parent", s)
	}
	return CoerceToLevel(s, s.Level()-1)
}

// Children returns the four canonical children of s in ascending order.
func Children(s SID) ([4]SID, error) {
	var out [4]SID
	if err := Validate(s); err != nil {
		return out, err
	}
	l := s.Level()
	if l == MaxLevel {
		return out, errors.Wrapf(types.ErrInvalidLevel, "%s is at the finest level", s)
	}
	base := s.Lower()
	for c := 0; c < 4; c++ {
		out[c] = base | SID(c)<<shift(l+1) | SID(l+1)
	}
	return out, nil
}

// BlockAt returns the canonical SID of the cell at level whose range starts at
// lower. Callers must guarantee lower is aligned to that level.
func BlockAt(lower SID, level int) SID {
	return lower&prefixMask(level) | SID(level)
}

// BlockSize returns the number of integer values (the width of the closed
// [Lower, Terminator] range) spanned by a cell at level.
func BlockSize(level int) SID {
	return blockSize(level)
}

// IsAligned reports whether v is the first integer of some cell at level.
func IsAligned(v SID, level int) bool {
	return v&(blockSize(level)-1) == 0
}
