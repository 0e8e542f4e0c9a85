package snapshot

import (
	"path/filepath"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/logging"
	"github.com/oxygene76/windcloud/internal/types"
)

// Loader reads the fields of one snapshot
type Loader interface {
	Load(path string) (*Snapshot, error)
}

// FileLoader picks a reader by file extension. A self-describing VTK file
// fixes the run geometry; raw .dbl/.dat dumps are decoded against it, so the
// geometry snapshot must be loaded first.
type FileLoader struct {
	Variables []string

	geometry *Snapshot
}

// NewFileLoader returns a loader for raw dumps holding variables, in order.
func NewFileLoader(variables []string) *FileLoader {
	if len(variables) == 0 {
		variables = DefaultVariables
	}
	return &FileLoader{Variables: variables}
}

// Load implements Loader.
func (l *FileLoader) Load(path string) (*Snapshot, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".vtk":
		snap, err := ReadVTKFile(path)
		if err != nil {
			return nil, err
		}
		if l.geometry == nil {
			l.geometry = snap
			logging.Debugf("geometry %s from %s", snap.Shape, path)
		} else if snap.Shape != l.geometry.Shape {
			return nil, errorsmod.Wrapf(types.ErrLoad, "%s: grid %s differs from run grid %s", path, snap.Shape, l.geometry.Shape)
		}
		return snap, nil
	case ".dbl", ".dat":
		if l.geometry == nil {
			return nil, errorsmod.Wrapf(types.ErrLoad, "%s: raw dump loaded before any geometry snapshot", path)
		}
		snap, err := ReadRawFile(path, l.geometry.Shape, l.Variables)
		if err != nil {
			return nil, err
		}
		snap.Coords = l.geometry.Coords
		return snap, nil
	default:
		return nil, errorsmod.Wrapf(types.ErrLoad, "%s: unknown snapshot extension %q", path, ext)
	}
}
