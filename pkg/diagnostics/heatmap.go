package diagnostics

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// HeatMapStyle labels a heat map image
type HeatMapStyle struct {
	Title string
	X, Y  string
	// Size is the image edge; zero means 6 inches.
	Size vg.Length
}

// SaveHeatMap renders grid as a square heat map. The format follows the
// extension of path.
func SaveHeatMap(path string, style HeatMapStyle, grid plotter.GridXYZ) error {
	p := plot.New()
	p.Title.Text = style.Title
	p.X.Label.Text = style.X
	p.Y.Label.Text = style.Y

	hm := plotter.NewHeatMap(grid, palette.Heat(64, 1))
	// a flat field has no colour range
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	size := style.Size
	if size == 0 {
		size = 6 * vg.Inch
	}
	return p.Save(size, size, path)
}
