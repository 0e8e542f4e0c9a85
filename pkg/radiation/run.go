package radiation

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/utils"
)

// Run prepares the SED table when a sedfile is configured, otherwise the
// Cloudy decks under cloudypath. It returns the files written.
func Run(cfg utils.RadiationConfig) ([]string, error) {
	switch {
	case cfg.SEDFile != "":
		path, err := NewSED(cfg).Prepare()
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	case cfg.CloudyPath != "":
		pf, err := NewParameterFiles(cfg)
		if err != nil {
			return nil, err
		}
		ions, err := pf.IonFractions()
		if err != nil {
			return ions, err
		}
		hc, err := pf.HeatingCooling()
		return append(ions, hc...), err
	}
	return nil, errorsmod.Wrap(types.ErrConfiguration, "RADIATION needs sedfile or cloudypath")
}
