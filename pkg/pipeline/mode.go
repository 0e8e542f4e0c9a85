// Package pipeline drives the post-processing modes.
package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/logging"
	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/radiation"
	"github.com/oxygene76/windcloud/pkg/synthetic"
	"github.com/oxygene76/windcloud/pkg/utils"
)

// Mode is one of the closed set of pipelines
type Mode int

const (
	ModeRadiation Mode = iota
	ModeSynthetic
	ModeClouds
)

// Modes lists every pipeline, in config number order
func Modes() []Mode {
	return []Mode{ModeRadiation, ModeSynthetic, ModeClouds}
}

func (m Mode) String() string {
	switch m {
	case ModeRadiation:
		return "radiation"
	case ModeSynthetic:
		return "synthetic"
	case ModeClouds:
		return "clouds"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Banner is the line printed when the mode starts
func (m Mode) Banner() string {
	switch m {
	case ModeRadiation:
		return "PHOTOIONISATION + RADIATIVE HEATING & COOLING mode"
	case ModeSynthetic:
		return "SYNTHETIC OBSERVABLES mode"
	case ModeClouds:
		return "CLOUDS mode"
	}
	return ""
}

// ParseMode accepts the config number (0, 1, 2) or the mode name.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		for _, m := range Modes() {
			if int(m) == n {
				return m, nil
			}
		}
		return 0, errorsmod.Wrapf(types.ErrInvalidMode, "mode %d: %s", n, modeHelp())
	}
	for _, m := range Modes() {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errorsmod.Wrapf(types.ErrInvalidMode, "mode %q: %s", s, modeHelp())
}

func modeHelp() string {
	var parts []string
	for _, m := range Modes() {
		parts = append(parts, fmt.Sprintf("(%d) %s", int(m), m))
	}
	return "MODES: " + strings.Join(parts, " ")
}

// Dispatch runs the mode selected by cfg, writing progress to out. Every Mode
// must have a case here; an unmatched mode is an error, never a no-op.
func Dispatch(cfg *utils.Config, out io.Writer) (*types.RunSummary, error) {
	m, err := ParseMode(cfg.Mode.Mode)
	if err != nil {
		return nil, errorsmod.Wrap(err, "MODE.mode")
	}
	progress := NewProgress(out)
	logging.Debugf("dispatching %s mode", m)

	switch m {
	case ModeRadiation:
		if err := cfg.Radiation.Validate(); err != nil {
			return nil, err
		}
		progress.Banner(m)
		return runFiles(m, cfg.Radiation.RunName, func() ([]string, error) {
			return radiation.Run(cfg.Radiation)
		})
	case ModeSynthetic:
		if err := cfg.Synthetic.Validate(); err != nil {
			return nil, err
		}
		progress.Banner(m)
		return runFiles(m, cfg.Synthetic.SimFile, func() ([]string, error) {
			return synthetic.Run(cfg.Synthetic)
		})
	case ModeClouds:
		progress.Banner(m)
		return NewCloudsFromConfig(cfg.Clouds, out).Run()
	}
	return nil, errorsmod.Wrapf(types.ErrInvalidMode, "mode %s has no pipeline", m)
}

// runFiles times a mode that produces a set of files.
func runFiles(m Mode, name string, run func() ([]string, error)) (*types.RunSummary, error) {
	start := time.Now()
	files, err := run()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		logging.Debugf("wrote %s", f)
	}
	end := time.Now()
	summary := &types.RunSummary{
		Mode:       m.String(),
		Name:       name,
		StartedAt:  start,
		FinishedAt: end,
		Duration:   end.Sub(start),
	}
	if len(files) > 0 {
		summary.OutputPath = files[0]
	}
	return summary, nil
}
