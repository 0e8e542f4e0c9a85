// Package diagnostics extracts per-snapshot cloud diagnostics and cut images.
package diagnostics

import (
	errorsmod "cosmossdk.io/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/oxygene76/windcloud/internal/logging"
	"github.com/oxygene76/windcloud/internal/types"
	astromath "github.com/oxygene76/windcloud/pkg/astronomy/math"
	"github.com/oxygene76/windcloud/pkg/snapshot"
)

// Tuple is the set of diagnostics extracted from one snapshot
type Tuple struct {
	Density        float64
	Temperature    float64
	MixingFraction float64
	COMPosition    float64
	Offset         astromath.Vector3
	Velocity       astromath.Vector3
}

// Engine computes diagnostics for the snapshots of one run
type Engine interface {
	// Diagnose is a pure function of the snapshot fields and the sub-box.
	Diagnose(snap *snapshot.Snapshot) (Tuple, error)
	// EmitCuts writes the auxiliary cut artifacts named after id.
	EmitCuts(snap *snapshot.Snapshot, id snapshot.ID) error
}

// Factory builds an Engine from the geometry snapshot of a run
type Factory func(geometry *snapshot.Snapshot, box SubBox) (Engine, error)

const (
	// DefaultTracerThreshold separates cloud from wind material
	DefaultTracerThreshold = 0.1
)

// Options configures CloudEngine
type Options struct {
	// TracerThreshold t marks cloud cells (tr >= t); cells with
	// t <= tr <= 1-t count as mixed. Zero selects DefaultTracerThreshold.
	TracerThreshold float64
	// TemperatureUnit converts prs/rho into a temperature.
	TemperatureUnit float64
	Tracer          string
	Cuts            *CutRenderer
}

// CloudEngine tracks a tracer-marked cloud inside a fixed sub-box
type CloudEngine struct {
	box        SubBox
	shape      snapshot.Shape
	volume     []float64
	opts       Options
	initialCOM astromath.Vector3
}

// NewFactory returns a Factory producing CloudEngines with opts.
func NewFactory(opts Options) Factory {
	return func(geometry *snapshot.Snapshot, box SubBox) (Engine, error) {
		return NewCloudEngine(geometry, box, opts)
	}
}

// NewCloudEngine fixes the grid, the sub-box and the initial cloud centre of
// mass from the geometry snapshot.
func NewCloudEngine(geometry *snapshot.Snapshot, box SubBox, opts Options) (*CloudEngine, error) {
	if opts.TracerThreshold == 0 {
		opts.TracerThreshold = DefaultTracerThreshold
	}
	if opts.TracerThreshold < 0 || opts.TracerThreshold >= 0.5 {
		return nil, errorsmod.Wrapf(types.ErrConfiguration, "tracer threshold %g outside (0, 0.5)", opts.TracerThreshold)
	}
	if opts.TemperatureUnit == 0 {
		opts.TemperatureUnit = 1
	}
	if opts.Tracer == "" {
		opts.Tracer = "tr1"
	}
	if err := box.Fits(geometry.Shape); err != nil {
		return nil, err
	}

	e := &CloudEngine{
		box:   box,
		shape: geometry.Shape,
		opts:  opts,
	}
	e.volume = cellVolumes(geometry)

	cl, err := e.collect(geometry)
	if err != nil {
		return nil, err
	}
	e.initialCOM = cl.com()
	logging.Debugf("initial cloud centre of mass %v", e.initialCOM.Components())
	return e, nil
}

// Diagnose implements Engine.
func (e *CloudEngine) Diagnose(snap *snapshot.Snapshot) (Tuple, error) {
	if snap.Shape != e.shape {
		return Tuple{}, errorsmod.Wrapf(types.ErrDiagnose, "%s: grid %s, engine built for %s", snap.Path, snap.Shape, e.shape)
	}
	cl, err := e.collect(snap)
	if err != nil {
		return Tuple{}, err
	}
	if cl.empty() {
		return Tuple{}, nil
	}

	com := cl.com()
	return Tuple{
		Density:        stat.Mean(cl.rho, cl.mass),
		Temperature:    stat.Mean(cl.temp, cl.mass),
		MixingFraction: cl.mixedMass / floats.Sum(cl.mass),
		COMPosition:    com.Y,
		Offset:         com.Sub(e.initialCOM),
		Velocity:       cl.velocity(),
	}, nil
}

// EmitCuts implements Engine. Without a renderer it does nothing.
func (e *CloudEngine) EmitCuts(snap *snapshot.Snapshot, id snapshot.ID) error {
	if e.opts.Cuts == nil {
		return nil
	}
	return e.opts.Cuts.Render(snap, e.box, id)
}

// cloud holds the per-cell samples of cloud material inside the box.
type cloud struct {
	rho, temp, mass []float64
	// tracer mass weights and the weighted position/velocity sums
	tracerMass float64
	pos, vel   astromath.Vector3
	mixedMass  float64
}

func (c *cloud) empty() bool {
	return len(c.mass) == 0 || c.tracerMass == 0
}

func (c *cloud) com() astromath.Vector3 {
	if c.tracerMass == 0 {
		return astromath.Vector3{}
	}
	return c.pos.Scale(1 / c.tracerMass)
}

func (c *cloud) velocity() astromath.Vector3 {
	if c.tracerMass == 0 {
		return astromath.Vector3{}
	}
	return c.vel.Scale(1 / c.tracerMass)
}

func (e *CloudEngine) collect(snap *snapshot.Snapshot) (*cloud, error) {
	rho, err := snap.Field("rho")
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrDiagnose, err.Error())
	}
	prs, err := snap.Field("prs")
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrDiagnose, err.Error())
	}
	tr, err := snap.Field(e.opts.Tracer)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrDiagnose, err.Error())
	}
	var v [3][]float64
	for a, name := range []string{"vx1", "vx2", "vx3"} {
		if v[a], err = snap.Field(name); err != nil {
			return nil, errorsmod.Wrap(types.ErrDiagnose, err.Error())
		}
	}
	for a := 0; a < 3; a++ {
		if len(snap.Coords[a]) != snap.Shape[a] {
			return nil, errorsmod.Wrapf(types.ErrDiagnose, "%s: axis %d has %d coordinates for %d cells", snap.Path, a, len(snap.Coords[a]), snap.Shape[a])
		}
	}

	thr := e.opts.TracerThreshold
	cl := &cloud{}
	e.box.Each(snap.Shape, func(i, j, k, n int) {
		if tr[n] < thr || rho[n] <= 0 {
			return
		}
		m := rho[n] * e.volume[n]
		cl.rho = append(cl.rho, rho[n])
		cl.temp = append(cl.temp, prs[n]/rho[n]*e.opts.TemperatureUnit)
		cl.mass = append(cl.mass, m)
		if tr[n] <= 1-thr {
			cl.mixedMass += m
		}

		w := m * tr[n]
		cl.tracerMass += w
		x := astromath.NewVector3([3]float64{snap.Coords[0][i], snap.Coords[1][j], snap.Coords[2][k]})
		cl.pos = cl.pos.Add(x.Scale(w))
		cl.vel = cl.vel.Add(astromath.NewVector3([3]float64{v[0][n], v[1][n], v[2][n]}).Scale(w))
	})
	return cl, nil
}

// cellVolumes returns dx*dy*dz per cell, widths derived from the spacing of
// neighbouring cell centres.
func cellVolumes(snap *snapshot.Snapshot) []float64 {
	var widths [3][]float64
	for a := 0; a < 3; a++ {
		widths[a] = snap.CellWidths(a)
	}
	vol := make([]float64, snap.Shape.Cells())
	for k := 0; k < snap.Shape[2]; k++ {
		for j := 0; j < snap.Shape[1]; j++ {
			for i := 0; i < snap.Shape[0]; i++ {
				vol[snap.Shape.Index(i, j, k)] = widths[0][i] * widths[1][j] * widths[2][k]
			}
		}
	}
	return vol
}
