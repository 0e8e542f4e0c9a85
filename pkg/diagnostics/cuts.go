package diagnostics

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	errorsmod "cosmossdk.io/errors"
	"gonum.org/v1/plot/vg"

	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/snapshot"
)

// densityFloor keeps log10 finite for empty cells.
const densityFloor = 1e-30

// CutRenderer writes x-y midplane slices of the sub-box as PNG heat maps.
type CutRenderer struct {
	Dir  string
	Name string
	// Fields to slice; names in LogFields are shown as log10.
	Fields    []string
	LogFields map[string]bool
	Size      vg.Length
}

// NewCutRenderer returns a renderer for density (log10) and tracer cuts.
func NewCutRenderer(dir, name string) *CutRenderer {
	return &CutRenderer{
		Dir:       dir,
		Name:      name,
		Fields:    []string{"rho", "tr1"},
		LogFields: map[string]bool{"rho": true},
		Size:      6 * vg.Inch,
	}
}

// Path returns the image path for a field of snapshot id.
func (c *CutRenderer) Path(field string, id snapshot.ID) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%s_%s_%s.png", c.Name, field, id.Name))
}

// Render writes one image per field for the slice through the box centre
// along z.
func (c *CutRenderer) Render(snap *snapshot.Snapshot, box SubBox, id snapshot.ID) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return errorsmod.Wrapf(types.ErrCuts, "create %s: %v", c.Dir, err)
	}
	for _, field := range c.Fields {
		data, err := snap.Field(field)
		if err != nil {
			return errorsmod.Wrap(types.ErrCuts, err.Error())
		}
		grid := newSlice(snap, box, data, c.LogFields[field])
		if err := c.save(grid, field, id); err != nil {
			return errorsmod.Wrapf(types.ErrCuts, "%s %s: %v", field, id, err)
		}
	}
	return nil
}

func (c *CutRenderer) save(grid *slice, field string, id snapshot.ID) error {
	title := fmt.Sprintf("%s %s (z = %.3g)", c.Name, field, grid.z)
	if grid.log {
		title = fmt.Sprintf("%s log10 %s (z = %.3g)", c.Name, field, grid.z)
	}
	return SaveHeatMap(c.Path(field, id), HeatMapStyle{Title: title, X: "x", Y: "y", Size: c.Size}, grid)
}

// slice is an x-y plane of one field, implementing plotter.GridXYZ.
type slice struct {
	x, y []float64
	z    float64
	v    [][]float64 // v[row=j][col=i]
	log  bool
}

func newSlice(snap *snapshot.Snapshot, box SubBox, data []float64, logScale bool) *slice {
	k := box[2].Mid()
	s := &slice{
		x:   snap.Coords[0][box[0].Lo:box[0].Hi],
		y:   snap.Coords[1][box[1].Lo:box[1].Hi],
		z:   snap.Coords[2][k],
		v:   make([][]float64, box[1].Len()),
		log: logScale,
	}
	for r := range s.v {
		row := make([]float64, box[0].Len())
		for col := range row {
			val := data[snap.Shape.Index(box[0].Lo+col, box[1].Lo+r, k)]
			if logScale {
				val = math.Log10(math.Max(val, densityFloor))
			}
			row[col] = val
		}
		s.v[r] = row
	}
	return s
}

func (s *slice) Dims() (c, r int)   { return len(s.x), len(s.y) }
func (s *slice) Z(c, r int) float64 { return s.v[r][c] }
func (s *slice) X(c int) float64    { return s.x[c] }
func (s *slice) Y(r int) float64    { return s.y[r] }
