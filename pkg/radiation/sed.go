// Package radiation prepares the photoionisation inputs of a wind-cloud run:
// the ionising SED as a Cloudy table, and Cloudy decks for ion fractions and
// radiative heating and cooling.
package radiation

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/logging"
	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/output"
	"github.com/oxygene76/windcloud/pkg/utils"
)

const (
	// RydbergAngstrom is the wavelength of a 1 Ryd photon
	RydbergAngstrom = 911.2670
	// KiloparsecCm is one kiloparsec in cm
	KiloparsecCm = 3.0856775814913673e21
)

// Spectrum is a luminosity density per unit wavelength
type Spectrum struct {
	Wavelength []float64 // Å
	Luminosity []float64 // erg/s/Å
}

// ReadSED parses a spectral energy distribution. Two columns are wavelength
// and luminosity. Three or more columns follow Starburst99: age in yr,
// wavelength, log10 luminosity; only the rows of the age closest to age are
// kept.
func ReadSED(r io.Reader, age float64) (*Spectrum, error) {
	rows, err := utils.ReadTable(r)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrLoad, "SED: %v", err)
	}

	s := &Spectrum{}
	if len(rows[0]) < 3 {
		if len(rows[0]) != 2 {
			return nil, errorsmod.Wrapf(types.ErrLoad, "SED: %d column table", len(rows[0]))
		}
		s.Wavelength = utils.Column(rows, 0)
		s.Luminosity = utils.Column(rows, 1)
		return s, nil
	}

	ages := utils.Column(rows, 0)
	nearest := ages[0]
	for _, a := range ages {
		if math.Abs(a-age) < math.Abs(nearest-age) {
			nearest = a
		}
	}
	for _, row := range rows {
		if row[0] != nearest {
			continue
		}
		s.Wavelength = append(s.Wavelength, row[1])
		s.Luminosity = append(s.Luminosity, math.Pow(10, row[2]))
	}
	return s, nil
}

// Point is one entry of a Cloudy interpolate table
type Point struct {
	Energy   float64 // Ryd
	LogNuFNu float64 // log10 erg/s/cm²
}

// Table converts the spectrum into the flux seen at distanceKpc, with photon
// energies shifted by 1+z. Points are sorted by energy; non-positive
// wavelengths or luminosities and repeated energies are dropped.
func (s *Spectrum) Table(distanceKpc, z float64) []Point {
	d := distanceKpc * KiloparsecCm
	dilution := 4 * math.Pi * d * d

	pts := make([]Point, 0, len(s.Wavelength))
	for i, lambda := range s.Wavelength {
		l := s.Luminosity[i]
		if lambda <= 0 || l <= 0 {
			continue
		}
		pts = append(pts, Point{
			Energy:   RydbergAngstrom / lambda / (1 + z),
			LogNuFNu: math.Log10(lambda * l / dilution),
		})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Energy < pts[j].Energy })

	out := pts[:0]
	for i, p := range pts {
		if i > 0 && p.Energy == out[len(out)-1].Energy {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Normalisation returns log νFν at 1 Ryd, interpolated linearly in log
// energy, or the nearest end of the table outside its range.
func Normalisation(pts []Point) float64 {
	energies := make([]float64, len(pts))
	for i, p := range pts {
		energies[i] = math.Log10(p.Energy)
	}
	switch {
	case energies[0] >= 0:
		return pts[0].LogNuFNu
	case energies[len(energies)-1] <= 0:
		return pts[len(pts)-1].LogNuFNu
	}
	hi := sort.SearchFloat64s(energies, 0)
	if energies[hi] == 0 {
		return pts[hi].LogNuFNu
	}
	lo := hi - 1
	f := (0 - energies[lo]) / (energies[hi] - energies[lo])
	return pts[lo].LogNuFNu + f*(pts[hi].LogNuFNu-pts[lo].LogNuFNu)
}

// WriteCloudyTable writes pts as Cloudy interpolate/continue commands
// followed by the νFν normalisation at 1 Ryd.
func WriteCloudyTable(w io.Writer, title string, pts []Point) error {
	if len(pts) < 2 {
		return fmt.Errorf("interpolate table needs at least 2 points, have %d", len(pts))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", title)
	for i, p := range pts {
		cmd := "continue"
		if i == 0 {
			cmd = "interpolate"
		}
		fmt.Fprintf(bw, "%s (%.6e %.4f)\n", cmd, p.Energy, p.LogNuFNu)
	}
	fmt.Fprintf(bw, "nuF(nu) = %.4f at 1.0 Ryd\n", Normalisation(pts))
	return bw.Flush()
}

// SED turns a source spectrum into the Cloudy table of one run
type SED struct {
	RunName  string
	File     string
	Distance float64 // kpc
	Redshift float64
	Age      float64 // yr
	Dir      string
}

// NewSED takes the SED settings from cfg
func NewSED(cfg utils.RadiationConfig) *SED {
	return &SED{
		RunName:  cfg.RunName,
		File:     cfg.SEDFile,
		Distance: cfg.Distance,
		Redshift: cfg.Redshift,
		Age:      cfg.Age,
		Dir:      cfg.OutputDir,
	}
}

// Path returns where Prepare writes the table
func (s *SED) Path() string {
	return filepath.Join(s.Dir, s.RunName+"_sed.txt")
}

// Prepare reads the source spectrum and writes the Cloudy table.
func (s *SED) Prepare() (string, error) {
	f, err := os.Open(s.File)
	if err != nil {
		return "", errorsmod.Wrapf(types.ErrLoad, "SED: %v", err)
	}
	defer f.Close()

	spec, err := ReadSED(f, s.Age)
	if err != nil {
		return "", errorsmod.Wrap(err, s.File)
	}
	pts := s.table(spec)
	title := fmt.Sprintf("%s: %s at %g kpc, z = %g", s.RunName, filepath.Base(s.File), s.Distance, s.Redshift)
	if err := output.WriteFile(s.Path(), func(w *bufio.Writer) error {
		return WriteCloudyTable(w, title, pts)
	}); err != nil {
		return "", err
	}
	return s.Path(), nil
}

func (s *SED) table(spec *Spectrum) []Point {
	pts := spec.Table(s.Distance, s.Redshift)
	if len(pts) > 0 {
		logging.Debugf("SED %s: %d points, %.3g to %.3g Ryd", s.File, len(pts), pts[0].Energy, pts[len(pts)-1].Energy)
	}
	return pts
}
