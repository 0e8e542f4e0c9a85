package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oxygene76/windcloud/internal/types"
)

// EnvPrefix prefixes environment overrides, e.g. WINDCLOUD_CLOUDS_SIMPATH
const EnvPrefix = "WINDCLOUD"

// Config represents the post-processing configuration. In INI form the
// sections are [MODE], [RADIATION], [SYNTHETIC] and [CLOUDS].
type Config struct {
	Mode      ModeConfig      `yaml:"mode" mapstructure:"mode"`
	Radiation RadiationConfig `yaml:"radiation" mapstructure:"radiation"`
	Synthetic SyntheticConfig `yaml:"synthetic" mapstructure:"synthetic"`
	Clouds    CloudsConfig    `yaml:"clouds" mapstructure:"clouds"`
}

// ModeConfig selects the pipeline, by number (0, 1, 2) or by name
type ModeConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// RadiationConfig contains the photoionisation and heating/cooling inputs
type RadiationConfig struct {
	RunName    string   `yaml:"run_name" mapstructure:"run_name"`
	Redshift   float64  `yaml:"redshift" mapstructure:"redshift"`
	SEDFile    string   `yaml:"sedfile" mapstructure:"sedfile"`
	Distance   float64  `yaml:"distance" mapstructure:"distance"`
	Age        float64  `yaml:"age" mapstructure:"age"`
	CloudyPath string   `yaml:"cloudypath" mapstructure:"cloudypath"`
	Elements   []string `yaml:"elements" mapstructure:"elements"`
	Resolution int      `yaml:"resolution" mapstructure:"resolution"`
	OutputDir  string   `yaml:"output_dir" mapstructure:"output_dir"`
}

// SyntheticConfig contains the synthetic observables inputs
type SyntheticConfig struct {
	SimPath   string `yaml:"simpath" mapstructure:"simpath"`
	SimFile   string `yaml:"simfile" mapstructure:"simfile"`
	IonsFile  string `yaml:"ionsfile" mapstructure:"ionsfile"`
	UnitsFile string `yaml:"unitsfile" mapstructure:"unitsfile"`
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// CloudsConfig contains the cloud diagnostics inputs
type CloudsConfig struct {
	SimPath         string   `yaml:"simpath" mapstructure:"simpath"`
	SimName         string   `yaml:"simname" mapstructure:"simname"`
	BoxX            string   `yaml:"box_x" mapstructure:"box_x"`
	BoxY            string   `yaml:"box_y" mapstructure:"box_y"`
	BoxZ            string   `yaml:"box_z" mapstructure:"box_z"`
	Snapshots       int      `yaml:"snapshots" mapstructure:"snapshots"`
	IDWidth         int      `yaml:"id_width" mapstructure:"id_width"`
	GeometryExt     string   `yaml:"geometry_ext" mapstructure:"geometry_ext"`
	SeriesExt       string   `yaml:"series_ext" mapstructure:"series_ext"`
	OutputDir       string   `yaml:"output_dir" mapstructure:"output_dir"`
	Variables       []string `yaml:"variables" mapstructure:"variables"`
	TracerThreshold float64  `yaml:"tracer_threshold" mapstructure:"tracer_threshold"`
	TemperatureUnit float64  `yaml:"temperature_unit" mapstructure:"temperature_unit"`
	Catalog         string   `yaml:"catalog" mapstructure:"catalog"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeConfig{Mode: "clouds"},
		Radiation: RadiationConfig{
			RunName:    "run",
			Elements:   []string{"H", "He", "C", "N", "O", "Si"},
			Resolution: 41,
			OutputDir:  "./",
		},
		Synthetic: SyntheticConfig{
			OutputDir: "./observables/",
		},
		Clouds: CloudsConfig{
			SimPath:         "./",
			SimName:         "windcloud",
			BoxX:            "0 64",
			BoxY:            "0 256",
			BoxZ:            "0 64",
			Snapshots:       81,
			IDWidth:         4,
			GeometryExt:     ".vtk",
			SeriesExt:       ".dat",
			OutputDir:       "./clouds/",
			Variables:       []string{"rho", "vx1", "vx2", "vx3", "prs", "tr1"},
			TracerThreshold: 0.1,
			TemperatureUnit: 1,
		},
	}
}

// LoadConfig reads the configuration file at path. The format follows the
// extension; .ini and .cfg files are parsed as INI. Values missing from the
// file fall back to DefaultConfig, and WINDCLOUD_<SECTION>_<KEY> environment
// variables override both.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errorsmod.Wrap(types.ErrConfiguration, "no config file given")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errorsmod.Wrapf(types.ErrConfiguration, "config file: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg", ".conf":
		v.SetConfigType("ini")
	}

	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errorsmod.Wrapf(types.ErrConfiguration, "error reading config file: %v", err)
	}
	if !v.InConfig("mode") {
		return nil, errorsmod.Wrapf(types.ErrConfiguration, "%s: missing [MODE] section", path)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errorsmod.Wrapf(types.ErrConfiguration, "error unmarshaling config: %v", err)
	}
	config.Radiation.Elements = splitFields(config.Radiation.Elements)
	config.Clouds.Variables = splitFields(config.Clouds.Variables)

	if err := validateConfig(&config); err != nil {
		return nil, errorsmod.Wrap(err, "invalid config")
	}
	return &config, nil
}

// setDefaults registers every key so that AutomaticEnv can override keys the
// file does not mention.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("mode.mode", "")

	v.SetDefault("radiation.run_name", d.Radiation.RunName)
	v.SetDefault("radiation.redshift", d.Radiation.Redshift)
	v.SetDefault("radiation.sedfile", d.Radiation.SEDFile)
	v.SetDefault("radiation.distance", d.Radiation.Distance)
	v.SetDefault("radiation.age", d.Radiation.Age)
	v.SetDefault("radiation.cloudypath", d.Radiation.CloudyPath)
	v.SetDefault("radiation.elements", d.Radiation.Elements)
	v.SetDefault("radiation.resolution", d.Radiation.Resolution)
	v.SetDefault("radiation.output_dir", d.Radiation.OutputDir)

	v.SetDefault("synthetic.simpath", d.Synthetic.SimPath)
	v.SetDefault("synthetic.simfile", d.Synthetic.SimFile)
	v.SetDefault("synthetic.ionsfile", d.Synthetic.IonsFile)
	v.SetDefault("synthetic.unitsfile", d.Synthetic.UnitsFile)
	v.SetDefault("synthetic.output_dir", d.Synthetic.OutputDir)

	// simpath, simname and the box have no defaults: they must come from the file
	v.SetDefault("clouds.simpath", "")
	v.SetDefault("clouds.simname", "")
	v.SetDefault("clouds.box_x", "")
	v.SetDefault("clouds.box_y", "")
	v.SetDefault("clouds.box_z", "")
	v.SetDefault("clouds.snapshots", d.Clouds.Snapshots)
	v.SetDefault("clouds.id_width", d.Clouds.IDWidth)
	v.SetDefault("clouds.geometry_ext", d.Clouds.GeometryExt)
	v.SetDefault("clouds.series_ext", d.Clouds.SeriesExt)
	v.SetDefault("clouds.output_dir", d.Clouds.OutputDir)
	v.SetDefault("clouds.variables", d.Clouds.Variables)
	v.SetDefault("clouds.tracer_threshold", d.Clouds.TracerThreshold)
	v.SetDefault("clouds.temperature_unit", d.Clouds.TemperatureUnit)
	v.SetDefault("clouds.catalog", d.Clouds.Catalog)
}

// splitFields accepts both list values and INI-style whitespace-separated
// strings ("rho vx1 vx2").
func splitFields(in []string) []string {
	var out []string
	for _, s := range in {
		out = append(out, strings.Fields(strings.ReplaceAll(s, ",", " "))...)
	}
	return out
}

// validateConfig checks what every mode needs. Section contents are checked
// by the Validate method of the section the selected mode reads.
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Mode.Mode) == "" {
		return errorsmod.Wrap(types.ErrConfiguration, "mode cannot be empty")
	}
	return nil
}

// Validate checks the keys the radiation mode reads
func (c RadiationConfig) Validate() error {
	if c.RunName == "" {
		return errorsmod.Wrap(types.ErrConfiguration, "RADIATION.run_name cannot be empty")
	}
	if c.Redshift < 0 {
		return errorsmod.Wrapf(types.ErrConfiguration, "RADIATION.redshift %g is negative", c.Redshift)
	}
	switch {
	case c.SEDFile != "":
		if c.Distance <= 0 {
			return errorsmod.Wrap(types.ErrConfiguration, "RADIATION.distance must be positive with a sedfile")
		}
	case c.CloudyPath != "":
		if len(c.Elements) == 0 {
			return errorsmod.Wrap(types.ErrConfiguration, "RADIATION.elements cannot be empty")
		}
		if c.Resolution < 2 {
			return errorsmod.Wrapf(types.ErrConfiguration, "RADIATION.resolution %d: need at least 2 grid points", c.Resolution)
		}
	default:
		return errorsmod.Wrap(types.ErrConfiguration, "RADIATION needs sedfile or cloudypath")
	}
	return nil
}

// Validate checks the keys the synthetic mode reads
func (c SyntheticConfig) Validate() error {
	required := map[string]string{
		"simfile":   c.SimFile,
		"ionsfile":  c.IonsFile,
		"unitsfile": c.UnitsFile,
	}
	for _, key := range []string{"simfile", "ionsfile", "unitsfile"} {
		if required[key] == "" {
			return errorsmod.Wrapf(types.ErrConfiguration, "SYNTHETIC.%s cannot be empty", key)
		}
	}
	return nil
}

// Validate checks the keys the clouds mode reads. The box ranges themselves
// are parsed by the diagnostics package.
func (c CloudsConfig) Validate() error {
	required := []struct{ key, val string }{
		{"simpath", c.SimPath},
		{"simname", c.SimName},
		{"box_x", c.BoxX},
		{"box_y", c.BoxY},
		{"box_z", c.BoxZ},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return errorsmod.Wrapf(types.ErrConfiguration, "CLOUDS.%s cannot be empty", r.key)
		}
	}
	if c.Snapshots < 1 {
		return errorsmod.Wrapf(types.ErrConfiguration, "CLOUDS.snapshots %d: need at least one", c.Snapshots)
	}
	if c.IDWidth < 1 {
		return errorsmod.Wrapf(types.ErrConfiguration, "CLOUDS.id_width %d: must be positive", c.IDWidth)
	}
	if c.TracerThreshold <= 0 || c.TracerThreshold >= 0.5 {
		return errorsmod.Wrapf(types.ErrConfiguration, "CLOUDS.tracer_threshold %g outside (0, 0.5)", c.TracerThreshold)
	}
	return nil
}

// TablePath returns where the diagnostics table of the run is written
func (c CloudsConfig) TablePath() string {
	return filepath.Join(c.OutputDir, c.SimName+"_diagnostics.dat")
}

// CutsDir returns the directory holding the cut images
func (c CloudsConfig) CutsDir() string {
	return filepath.Join(c.OutputDir, "cuts")
}

// SaveConfig writes config as YAML to path, creating its directory
func SaveConfig(config *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
