package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/types"
)

// DefaultVariables is the PLUTO variable order of a hydro run with one
// passive tracer.
var DefaultVariables = []string{"rho", "vx1", "vx2", "vx3", "prs", "tr1"}

// ReadRawFile loads a PLUTO raw double-precision dump. The file holds one
// little-endian float64 block per variable, in the given order; trailing
// variables that are not listed are ignored.
func ReadRawFile(path string, shape Shape, variables []string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrLoad, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrLoad, err)
	}
	need := int64(shape.Cells()) * int64(len(variables)) * 8
	if info.Size() < need {
		return nil, errorsmod.Wrapf(types.ErrLoad, "%s: %d bytes, need %d for %d variables on a %s grid",
			path, info.Size(), need, len(variables), shape)
	}

	snap, err := ReadRaw(bufio.NewReader(f), shape, variables)
	if err != nil {
		return nil, errorsmod.Wrap(err, path)
	}
	snap.Path = path
	return snap, nil
}

// ReadRaw decodes raw variable blocks from r.
func ReadRaw(r io.Reader, shape Shape, variables []string) (*Snapshot, error) {
	if !shape.Valid() {
		return nil, errorsmod.Wrapf(types.ErrLoad, "raw data needs a grid shape, got %s", shape)
	}
	if len(variables) == 0 {
		return nil, errorsmod.Wrap(types.ErrLoad, "raw data needs a variable list")
	}

	snap := &Snapshot{Shape: shape, Fields: make(map[string][]float64, len(variables))}
	for _, name := range variables {
		data := make([]float64, shape.Cells())
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return nil, errorsmod.Wrapf(types.ErrLoad, "variable %s: %v", name, err)
		}
		snap.Fields[name] = data
	}
	return snap, nil
}

// WriteRaw encodes the named fields of snap in order, in the layout ReadRaw
// expects.
func WriteRaw(w io.Writer, snap *Snapshot, variables []string) error {
	for _, name := range variables {
		data, err := snap.Field(name)
		if err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
