package radiation

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/output"
	"github.com/oxygene76/windcloud/pkg/utils"
)

// Temperature grid of the decks, log10 K
const (
	MinLogT = 4.0
	MaxLogT = 8.0
)

// Density grid of every deck, log10 cm^-3
const (
	minLogHden  = -6.0
	maxLogHden  = 2.0
	stepLogHden = 0.5
)

// elementNames maps symbols to the names Cloudy's save element command takes.
var elementNames = map[string]string{
	"H":  "hydrogen",
	"He": "helium",
	"C":  "carbon",
	"N":  "nitrogen",
	"O":  "oxygen",
	"Ne": "neon",
	"Na": "sodium",
	"Mg": "magnesium",
	"Al": "aluminium",
	"Si": "silicon",
	"S":  "sulphur",
	"Ar": "argon",
	"Ca": "calcium",
	"Fe": "iron",
}

// ElementName returns the Cloudy name of an element symbol
func ElementName(symbol string) (string, bool) {
	for sym, name := range elementNames {
		if strings.EqualFold(sym, symbol) {
			return name, true
		}
	}
	return "", false
}

// ParameterFiles generates the Cloudy decks of a run: ion fractions per
// element and heating/cooling rates, each on a grid of constant temperatures
// under the redshifted UV background.
type ParameterFiles struct {
	Dir        string
	RunName    string
	Elements   []string
	Redshift   float64
	Resolution int
}

// NewParameterFiles checks the element list and returns the generator for
// cfg. Decks go to <cloudypath>/<run_name>/.
func NewParameterFiles(cfg utils.RadiationConfig) (*ParameterFiles, error) {
	for _, el := range cfg.Elements {
		if _, ok := ElementName(el); !ok {
			return nil, errorsmod.Wrapf(types.ErrConfiguration, "RADIATION.elements: unknown element %q", el)
		}
	}
	if cfg.Resolution < 2 {
		return nil, errorsmod.Wrapf(types.ErrConfiguration, "RADIATION.resolution %d: need at least 2 grid points", cfg.Resolution)
	}
	return &ParameterFiles{
		Dir:        filepath.Join(cfg.CloudyPath, cfg.RunName),
		RunName:    cfg.RunName,
		Elements:   cfg.Elements,
		Redshift:   cfg.Redshift,
		Resolution: cfg.Resolution,
	}, nil
}

// Temperatures returns the evenly spaced log10 temperature grid
func (p *ParameterFiles) Temperatures() []float64 {
	return floats.Span(make([]float64, p.Resolution), MinLogT, MaxLogT)
}

// IonFractions writes <element>_ions_<i>.in for every element and grid
// temperature, returning the paths.
func (p *ParameterFiles) IonFractions() ([]string, error) {
	var paths []string
	for _, el := range p.Elements {
		name, _ := ElementName(el)
		for i, logT := range p.Temperatures() {
			base := fmt.Sprintf("%s_ions_%d", el, i)
			title := fmt.Sprintf("%s %s ion fractions, log T = %.3f", p.RunName, name, logT)
			saves := []string{
				fmt.Sprintf("save element %s \"%s.ion\" last no hash", name, base),
			}
			path, err := p.write(base, title, logT, saves)
			if err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// HeatingCooling writes hc_<i>.in for every grid temperature, returning the
// paths.
func (p *ParameterFiles) HeatingCooling() ([]string, error) {
	var paths []string
	for i, logT := range p.Temperatures() {
		base := fmt.Sprintf("hc_%d", i)
		title := fmt.Sprintf("%s heating and cooling, log T = %.3f", p.RunName, logT)
		saves := []string{
			fmt.Sprintf("save heating \"%s.het\" last no hash", base),
			fmt.Sprintf("save cooling \"%s.col\" last no hash", base),
		}
		path, err := p.write(base, title, logT, saves)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (p *ParameterFiles) write(base, title string, logT float64, saves []string) (string, error) {
	path := filepath.Join(p.Dir, base+".in")
	err := output.WriteFile(path, func(w *bufio.Writer) error {
		lines := []string{
			"title " + title,
			fmt.Sprintf("table HM12 redshift %.3f", p.Redshift),
			fmt.Sprintf("CMB redshift %.3f", p.Redshift),
			fmt.Sprintf("constant temperature %.3f log", logT),
			fmt.Sprintf("hden %.1f vary", minLogHden),
			fmt.Sprintf("grid %.1f %.1f %.1f", minLogHden, maxLogHden, stepLogHden),
			"stop zone 1",
			"iterate to convergence",
			fmt.Sprintf("save grid \"%s.grd\" last no hash", base),
		}
		for _, l := range append(lines, saves...) {
			if _, err := w.WriteString(l + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
	return path, err
}
