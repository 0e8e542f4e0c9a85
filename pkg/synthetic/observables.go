package synthetic

import (
	"math"

	errorsmod "cosmossdk.io/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/snapshot"
)

// SpectrumBins is the default number of velocity channels
const SpectrumBins = 100

// kmPerCm converts cm/s to km/s
const kmPerCm = 1e-5

// columnFloor keeps log10 finite for sight lines without the ion.
const columnFloor = 1.0

// Observables projects one snapshot along z, the line of sight
type Observables struct {
	snap  *snapshot.Snapshot
	ions  []Ion
	units Units

	rho, vz []float64
	dz      []float64 // cm
}

// New checks that snap carries density and line-of-sight velocity.
func New(snap *snapshot.Snapshot, ions []Ion, units Units) (*Observables, error) {
	rho, err := snap.Field("rho")
	if err != nil {
		return nil, err
	}
	vz, err := snap.Field("vx3")
	if err != nil {
		return nil, err
	}
	if len(ions) == 0 {
		return nil, errorsmod.Wrap(types.ErrConfiguration, "no ions")
	}
	dz := snap.CellWidths(2)
	floats.Scale(units.Length, dz)
	return &Observables{snap: snap, ions: ions, units: units, rho: rho, vz: vz, dz: dz}, nil
}

// ColumnMap is the column density of one ion over the x-y plane
type ColumnMap struct {
	Label string
	Xs    []float64
	Ys    []float64
	// N[j][i] in cm^-2
	N [][]float64
}

// Log returns a plotter.GridXYZ of log10 N.
func (m *ColumnMap) Log() *LogGrid {
	return &LogGrid{m}
}

// LogGrid shows a ColumnMap in log10
type LogGrid struct {
	m *ColumnMap
}

func (g *LogGrid) Dims() (c, r int)   { return len(g.m.Xs), len(g.m.Ys) }
func (g *LogGrid) X(c int) float64    { return g.m.Xs[c] }
func (g *LogGrid) Y(r int) float64    { return g.m.Ys[r] }
func (g *LogGrid) Z(c, r int) float64 { return math.Log10(math.Max(g.m.N[r][c], columnFloor)) }

// ColumnDensities integrates every ion's number density along z.
func (o *Observables) ColumnDensities() []ColumnMap {
	shape := o.snap.Shape
	maps := make([]ColumnMap, len(o.ions))
	for q, ion := range o.ions {
		m := ColumnMap{
			Label: ion.Label(q),
			Xs:    o.snap.Coords[0],
			Ys:    o.snap.Coords[1],
			N:     make([][]float64, shape[1]),
		}
		for j := range m.N {
			m.N[j] = make([]float64, shape[0])
		}
		for k := 0; k < shape[2]; k++ {
			for j := 0; j < shape[1]; j++ {
				for i := 0; i < shape[0]; i++ {
					n := shape.Index(i, j, k)
					m.N[j][i] += ion.NumberDensity(o.rho[n], o.units) * o.dz[k]
				}
			}
		}
		maps[q] = m
	}
	return maps
}

// Spectrum is an optical-depth proxy against line-of-sight velocity,
// normalised to a peak of 1.
type Spectrum struct {
	Label    string
	Velocity []float64 // km/s, channel centres
	Tau      []float64
}

// MockSpectra bins each ion's column density by the z velocity of the gas
// that carries it, averaged over all sight lines.
func (o *Observables) MockSpectra(bins int) ([]Spectrum, error) {
	if bins < 1 {
		return nil, errorsmod.Wrapf(types.ErrConfiguration, "%d spectrum bins", bins)
	}
	shape := o.snap.Shape
	cells := shape.Cells()

	v := make([]float64, cells)
	for n := range v {
		v[n] = o.vz[n] * o.units.Velocity * kmPerCm
	}
	order := make([]int, cells)
	floats.Argsort(v, order)

	lo, hi := v[0], v[cells-1]
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	// the last divider must lie above every sample
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	centres := make([]float64, bins)
	for b := range centres {
		centres[b] = (dividers[b] + dividers[b+1]) / 2
	}

	sightLines := float64(shape[0] * shape[1])
	spectra := make([]Spectrum, len(o.ions))
	w := make([]float64, cells)
	for q, ion := range o.ions {
		for s, n := range order {
			k := n / (shape[0] * shape[1])
			w[s] = ion.NumberDensity(o.rho[n], o.units) * o.dz[k] / sightLines
		}
		tau := stat.Histogram(nil, dividers, v, w)
		if peak := floats.Max(tau); peak > 0 {
			floats.Scale(1/peak, tau)
		}
		spectra[q] = Spectrum{
			Label:    ion.Label(q),
			Velocity: append([]float64(nil), centres...),
			Tau:      tau,
		}
	}
	return spectra, nil
}
