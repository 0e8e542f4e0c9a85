// Package synthetic computes mock observables from a simulation snapshot:
// ion column-density maps and velocity-resolved absorption spectra.
package synthetic

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/utils"
)

// HydrogenMass is the mass of a hydrogen atom in g
const HydrogenMass = 1.6735575e-24

var symbols = map[int]string{
	1: "H", 4: "He", 12: "C", 14: "N", 16: "O", 20: "Ne",
	24: "Mg", 28: "Si", 32: "S", 40: "Ca", 56: "Fe",
}

// Ion is one row of the ions table
type Ion struct {
	MassNumber float64
	// Abundance is the element number density relative to hydrogen.
	Abundance float64
	// Fraction is the fraction of the element in this ionisation stage.
	Fraction float64
}

// Label names the k-th ion of the table, e.g. O_2
func (i Ion) Label(k int) string {
	sym, ok := symbols[int(i.MassNumber)]
	if !ok {
		sym = fmt.Sprintf("A%d", int(i.MassNumber))
	}
	return fmt.Sprintf("%s_%d", sym, k)
}

// NumberDensity converts a code-unit mass density into the ion number density
// in cm^-3.
func (i Ion) NumberDensity(rho float64, u Units) float64 {
	return rho * u.Density / (i.MassNumber * HydrogenMass) * i.Abundance * i.Fraction
}

// Units converts code units to cgs
type Units struct {
	Density  float64 // g cm^-3
	Length   float64 // cm
	Velocity float64 // cm s^-1
}

// ReadIons loads the ions table: mass number, abundance, ion fraction.
func ReadIons(path string) ([]Ion, error) {
	rows, err := utils.ReadTableFile(path)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrLoad, "ions table: %v", err)
	}
	if len(rows[0]) != 3 {
		return nil, errorsmod.Wrapf(types.ErrLoad, "ions table %s: %d columns, want 3", path, len(rows[0]))
	}
	ions := make([]Ion, len(rows))
	for k, r := range rows {
		if r[0] <= 0 {
			return nil, errorsmod.Wrapf(types.ErrLoad, "ions table %s row %d: mass number %g", path, k, r[0])
		}
		ions[k] = Ion{MassNumber: r[0], Abundance: r[1], Fraction: r[2]}
	}
	return ions, nil
}

// ReadUnits loads the units table. The second column holds the density,
// length and velocity units, in that row order.
func ReadUnits(path string) (Units, error) {
	rows, err := utils.ReadTableFile(path)
	if err != nil {
		return Units{}, errorsmod.Wrapf(types.ErrLoad, "units table: %v", err)
	}
	if len(rows) < 3 || len(rows[0]) < 2 {
		return Units{}, errorsmod.Wrapf(types.ErrLoad, "units table %s: need 3 rows of at least 2 columns", path)
	}
	u := utils.Column(rows, 1)
	return Units{Density: u[0], Length: u[1], Velocity: u[2]}, nil
}
