package diagnostics

import (
	"fmt"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/snapshot"
)

// Range is a half-open cell index range [Lo, Hi) along one axis
type Range struct {
	Lo, Hi int
}

// Len returns the number of cells in the range
func (r Range) Len() int {
	return r.Hi - r.Lo
}

// Mid returns the central cell index
func (r Range) Mid() int {
	return r.Lo + r.Len()/2
}

func (r Range) String() string {
	return fmt.Sprintf("%d %d", r.Lo, r.Hi)
}

// ParseRange reads a whitespace-separated "lo hi" pair, the form used by the
// box_x, box_y and box_z config keys.
func ParseRange(s string) (Range, error) {
	f := strings.Fields(s)
	if len(f) != 2 {
		return Range{}, errorsmod.Wrapf(types.ErrConfiguration, "range %q: want two integers", s)
	}
	lo, err := strconv.Atoi(f[0])
	if err != nil {
		return Range{}, errorsmod.Wrapf(types.ErrConfiguration, "range %q: %v", s, err)
	}
	hi, err := strconv.Atoi(f[1])
	if err != nil {
		return Range{}, errorsmod.Wrapf(types.ErrConfiguration, "range %q: %v", s, err)
	}
	r := Range{Lo: lo, Hi: hi}
	if lo < 0 || hi <= lo {
		return Range{}, errorsmod.Wrapf(types.ErrConfiguration, "range %q: need 0 <= lo < hi", s)
	}
	return r, nil
}

// SubBox is the region of interest, one range per axis. It is fixed for a run.
type SubBox [3]Range

// ParseSubBox parses the three axis ranges.
func ParseSubBox(x, y, z string) (SubBox, error) {
	var box SubBox
	for a, s := range []string{x, y, z} {
		r, err := ParseRange(s)
		if err != nil {
			return SubBox{}, errorsmod.Wrapf(err, "box_%c", 'x'+a)
		}
		box[a] = r
	}
	return box, nil
}

// Cells returns the number of cells inside the box
func (b SubBox) Cells() int {
	return b[0].Len() * b[1].Len() * b[2].Len()
}

// Fits checks the box lies inside a grid of the given shape.
func (b SubBox) Fits(shape snapshot.Shape) error {
	for a := 0; a < 3; a++ {
		if b[a].Lo < 0 || b[a].Hi > shape[a] || b[a].Len() <= 0 {
			return errorsmod.Wrapf(types.ErrConfiguration, "box_%c [%s) outside grid %s", 'x'+a, b[a], shape)
		}
	}
	return nil
}

// Each calls fn for every cell in the box with its grid indices and flat offset.
func (b SubBox) Each(shape snapshot.Shape, fn func(i, j, k, n int)) {
	for k := b[2].Lo; k < b[2].Hi; k++ {
		for j := b[1].Lo; j < b[1].Hi; j++ {
			for i := b[0].Lo; i < b[0].Hi; i++ {
				fn(i, j, k, shape.Index(i, j, k))
			}
		}
	}
}
