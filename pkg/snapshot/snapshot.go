// Package snapshot names, locates and loads simulation snapshots.
//
// A snapshot is a set of named cell-centred scalar fields on a 3D grid. Arrays
// are flat with x varying fastest: cell (i, j, k) lives at i + nx*(j + ny*k).
package snapshot

import (
	"fmt"
	"math"
	"sort"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/types"
)

// Shape is the number of cells along x, y and z
type Shape [3]int

// Cells returns the total number of cells
func (s Shape) Cells() int {
	return s[0] * s[1] * s[2]
}

// Index returns the flat offset of cell (i, j, k)
func (s Shape) Index(i, j, k int) int {
	return i + s[0]*(j+s[1]*k)
}

// Valid reports whether every axis has at least one cell
func (s Shape) Valid() bool {
	return s[0] > 0 && s[1] > 0 && s[2] > 0
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s[0], s[1], s[2])
}

// Snapshot holds the fields of one simulation output
type Snapshot struct {
	Path   string
	Shape  Shape
	Fields map[string][]float64
	// Coords holds cell-centre coordinates per axis; len(Coords[a]) == Shape[a]
	Coords [3][]float64
	// Time is the simulation time, when the file records one
	Time float64
}

// Field returns the named array or an ErrLoad error when it is absent.
func (s *Snapshot) Field(name string) ([]float64, error) {
	data, ok := s.Fields[name]
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrLoad, "%s: no field %q (have %v)", s.Path, name, s.FieldNames())
	}
	return data, nil
}

// FieldNames returns the field names in sorted order
func (s *Snapshot) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CellWidths returns the cell widths along axis, derived from the spacing of
// the cell centres. Without usable coordinates every width is 1.
func (s *Snapshot) CellWidths(axis int) []float64 {
	c, n := s.Coords[axis], s.Shape[axis]
	w := make([]float64, n)
	if len(c) != n || n < 2 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	for i := range w {
		switch i {
		case 0:
			w[i] = c[1] - c[0]
		case n - 1:
			w[i] = c[n-1] - c[n-2]
		default:
			w[i] = (c[i+1] - c[i-1]) / 2
		}
		w[i] = math.Abs(w[i])
	}
	return w
}

// uniformCoords returns n cell centres starting at origin+spacing/2.
func uniformCoords(n int, origin, spacing float64) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = origin + (float64(i)+0.5)*spacing
	}
	return c
}
