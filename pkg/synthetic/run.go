package synthetic

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/logging"
	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/diagnostics"
	"github.com/oxygene76/windcloud/pkg/output"
	"github.com/oxygene76/windcloud/pkg/snapshot"
	"github.com/oxygene76/windcloud/pkg/utils"
)

// Run computes the column-density maps and mock spectra of the configured
// snapshot and writes them to the output directory. It returns the files
// written.
func Run(cfg utils.SyntheticConfig) ([]string, error) {
	snap, err := snapshot.NewFileLoader(nil).Load(cfg.SimPath + cfg.SimFile)
	if err != nil {
		return nil, err
	}
	ions, err := ReadIons(cfg.IonsFile)
	if err != nil {
		return nil, err
	}
	units, err := ReadUnits(cfg.UnitsFile)
	if err != nil {
		return nil, err
	}
	obs, err := New(snap, ions, units)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, m := range obs.ColumnDensities() {
		paths, err := WriteColumnMap(cfg.OutputDir, &m)
		files = append(files, paths...)
		if err != nil {
			return files, err
		}
	}

	spectra, err := obs.MockSpectra(SpectrumBins)
	if err != nil {
		return files, err
	}
	for _, s := range spectra {
		path, err := WriteSpectrum(cfg.OutputDir, s)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	logging.Debugf("synthetic observables: %d files in %s", len(files), cfg.OutputDir)
	return files, nil
}

// WriteColumnMap writes <label>_coldens.dat, one row per y cell, and the
// <label>_coldens.png image of log10 N.
func WriteColumnMap(dir string, m *ColumnMap) ([]string, error) {
	table := filepath.Join(dir, m.Label+"_coldens.dat")
	err := output.WriteFile(table, func(w *bufio.Writer) error {
		cols := make([]string, len(m.Xs))
		for _, row := range m.N {
			for i, v := range row {
				cols[i] = output.FormatE(v)
			}
			if _, err := w.WriteString(strings.Join(cols, output.Separator) + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	image := filepath.Join(dir, m.Label+"_coldens.png")
	style := diagnostics.HeatMapStyle{
		Title: fmt.Sprintf("log10 N(%s) [cm^-2]", m.Label),
		X:     "x",
		Y:     "y",
	}
	if err := diagnostics.SaveHeatMap(image, style, m.Log()); err != nil {
		return []string{table}, errorsmod.Wrapf(types.ErrWrite, "column density map %s: %v", image, err)
	}
	return []string{table, image}, nil
}

// WriteSpectrum writes <label>_spectrum.dat: velocity in km/s and the
// normalised optical depth.
func WriteSpectrum(dir string, s Spectrum) (string, error) {
	path := filepath.Join(dir, s.Label+"_spectrum.dat")
	err := output.WriteFile(path, func(w *bufio.Writer) error {
		for b, v := range s.Velocity {
			if _, err := w.WriteString(output.FormatE(v) + output.Separator + output.FormatE(s.Tau[b]) + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
	return path, err
}
