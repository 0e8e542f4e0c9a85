// Package timeseries accumulates per-snapshot diagnostics into index-aligned
// sequences.
package timeseries

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/diagnostics"
)

// Column identifies one of the ten diagnostic sequences
type Column int

const (
	Density Column = iota
	Temperature
	MixingFraction
	COMPosition
	OffsetX
	OffsetY
	OffsetZ
	VelocityX
	VelocityY
	VelocityZ

	// NumColumns is the number of sequences, and of columns in a table row
	NumColumns = int(VelocityZ) + 1
)

var columnNames = [NumColumns]string{
	"density",
	"temperature",
	"mixing_fraction",
	"com_position",
	"offset_x",
	"offset_y",
	"offset_z",
	"velocity_x",
	"velocity_y",
	"velocity_z",
}

func (c Column) String() string {
	if c < 0 || int(c) >= NumColumns {
		return "unknown"
	}
	return columnNames[c]
}

// Columns returns the column order of the output table
func Columns() []Column {
	cols := make([]Column, NumColumns)
	for i := range cols {
		cols[i] = Column(i)
	}
	return cols
}

// Row flattens a tuple into table column order.
func Row(t diagnostics.Tuple) [NumColumns]float64 {
	var r [NumColumns]float64
	r[Density] = t.Density
	r[Temperature] = t.Temperature
	r[MixingFraction] = t.MixingFraction
	r[COMPosition] = t.COMPosition
	off, vel := t.Offset.Components(), t.Velocity.Components()
	copy(r[OffsetX:OffsetZ+1], off[:])
	copy(r[VelocityX:VelocityZ+1], vel[:])
	return r
}

// Accumulator collects one tuple per snapshot, strictly in index order.
// It has a single writer and is not safe for concurrent use.
type Accumulator struct {
	seqs [NumColumns][]float64
}

// New returns an empty accumulator sized for capacity snapshots
func New(capacity int) *Accumulator {
	a := &Accumulator{}
	for c := range a.seqs {
		a.seqs[c] = make([]float64, 0, capacity)
	}
	return a
}

// Len returns the number of snapshots recorded so far
func (a *Accumulator) Len() int {
	return len(a.seqs[0])
}

// Record appends the diagnostics of snapshot index to every sequence. index
// must equal Len(); a skipped or repeated index returns ErrOutOfOrder and
// leaves the sequences untouched.
func (a *Accumulator) Record(index int, t diagnostics.Tuple) error {
	if index != a.Len() {
		return errorsmod.Wrapf(types.ErrOutOfOrder, "got snapshot %d, expected %d", index, a.Len())
	}
	row := Row(t)
	for c, v := range row {
		a.seqs[c] = append(a.seqs[c], v)
	}
	return nil
}

// View returns a snapshot of the recorded sequences. Later Record calls do
// not affect it.
func (a *Accumulator) View() Series {
	var s Series
	for c := range a.seqs {
		s.seqs[c] = append([]float64(nil), a.seqs[c]...)
	}
	return s
}

// Series is a read-only set of ten equal-length sequences
type Series struct {
	seqs [NumColumns][]float64
}

// NewSeries builds a Series from explicit sequences, checking their lengths
// agree.
func NewSeries(seqs [NumColumns][]float64) (Series, error) {
	for c := range seqs {
		if len(seqs[c]) != len(seqs[0]) {
			return Series{}, errorsmod.Wrapf(types.ErrWrite, "column %s has %d rows, %s has %d",
				Column(c), len(seqs[c]), Column(0), len(seqs[0]))
		}
	}
	var s Series
	for c := range seqs {
		s.seqs[c] = append([]float64(nil), seqs[c]...)
	}
	return s, nil
}

// Len returns the number of rows
func (s Series) Len() int {
	return len(s.seqs[0])
}

// Column returns a copy of one sequence
func (s Series) Column(c Column) []float64 {
	return append([]float64(nil), s.seqs[c]...)
}

// Row returns the ten values of row i in column order
func (s Series) Row(i int) [NumColumns]float64 {
	var r [NumColumns]float64
	for c := range s.seqs {
		r[c] = s.seqs[c][i]
	}
	return r
}
