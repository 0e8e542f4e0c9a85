package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/types"
)

// maxValues caps any single array a VTK header may announce.
const maxValues = 1 << 28

// ReadVTKFile loads a legacy-format VTK file.
func ReadVTKFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrLoad, err)
	}
	defer f.Close()

	snap, err := ReadVTK(f)
	if err != nil {
		return nil, errorsmod.Wrap(err, path)
	}
	snap.Path = path
	return snap, nil
}

// ReadVTK parses a legacy VTK stream holding a RECTILINEAR_GRID or
// STRUCTURED_POINTS dataset, as written by PLUTO. Cell and point data are
// both accepted; SCALARS, VECTORS and FIELD arrays become named fields.
// VECTORS "v" is split into "v1", "v2" and "v3".
func ReadVTK(r io.Reader) (*Snapshot, error) {
	vr := &vtkReader{r: bufio.NewReader(r)}
	snap, err := vr.read()
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrLoad, err.Error())
	}
	return snap, nil
}

type vtkReader struct {
	r      *bufio.Reader
	binary bool

	dims    [3]int
	nodes   [3][]float64
	origin  [3]float64
	spacing [3]float64
	points  bool
	count   int

	snap *Snapshot
}

func (v *vtkReader) read() (*Snapshot, error) {
	magic, err := v.line()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(magic), "# vtk datafile") {
		return nil, fmt.Errorf("not a legacy VTK file: %q", magic)
	}
	// title line
	if _, err := v.r.ReadString('\n'); err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	format, err := v.line()
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	switch strings.ToUpper(format) {
	case "BINARY":
		v.binary = true
	case "ASCII":
	default:
		return nil, fmt.Errorf("unknown data format %q", format)
	}

	v.snap = &Snapshot{Fields: make(map[string][]float64)}
	v.spacing = [3]float64{1, 1, 1}

	for {
		line, err := v.line()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		tok := strings.Fields(line)
		if err := v.section(tok); err != nil {
			return nil, err
		}
	}

	if !v.snap.Shape.Valid() {
		return nil, fmt.Errorf("no CELL_DATA or POINT_DATA section")
	}
	return v.snap, nil
}

func (v *vtkReader) section(tok []string) error {
	switch strings.ToUpper(tok[0]) {
	case "DATASET":
		if len(tok) < 2 {
			return fmt.Errorf("DATASET without type")
		}
		switch strings.ToUpper(tok[1]) {
		case "RECTILINEAR_GRID", "STRUCTURED_POINTS":
			return nil
		}
		return fmt.Errorf("unsupported dataset %s", tok[1])
	case "DIMENSIONS":
		ints, err := atoiN(tok[1:], 3)
		if err != nil {
			return fmt.Errorf("DIMENSIONS: %w", err)
		}
		for _, n := range ints {
			if n < 1 || n > maxValues {
				return fmt.Errorf("DIMENSIONS %v out of range", ints)
			}
		}
		copy(v.dims[:], ints)
		return nil
	case "ORIGIN":
		return parseFloat3(tok[1:], &v.origin)
	case "SPACING", "ASPECT_RATIO":
		return parseFloat3(tok[1:], &v.spacing)
	case "X_COORDINATES", "Y_COORDINATES", "Z_COORDINATES":
		axis := int(strings.ToUpper(tok[0])[0] - 'X')
		if len(tok) < 3 {
			return fmt.Errorf("%s: missing count or type", tok[0])
		}
		n, err := count(tok[1])
		if err != nil {
			return fmt.Errorf("%s count: %w", tok[0], err)
		}
		v.nodes[axis], err = v.values(n, tok[2])
		return err
	case "CELL_DATA", "POINT_DATA":
		if len(tok) < 2 {
			return fmt.Errorf("%s without count", tok[0])
		}
		n, err := count(tok[1])
		if err != nil {
			return fmt.Errorf("%s count: %w", tok[0], err)
		}
		if n == 0 {
			return fmt.Errorf("%s count is zero", tok[0])
		}
		v.count = n
		v.points = strings.ToUpper(tok[0]) == "POINT_DATA"
		return v.geometry()
	case "SCALARS":
		return v.scalars(tok)
	case "VECTORS":
		return v.vectors(tok)
	case "FIELD":
		return v.fieldData(tok)
	case "LOOKUP_TABLE":
		return nil
	}
	return fmt.Errorf("unexpected section %q", tok[0])
}

// geometry fixes the grid shape and cell-centre coordinates once the data
// section announces whether values live on cells or points.
func (v *vtkReader) geometry() error {
	var shape Shape
	for a := 0; a < 3; a++ {
		n := v.dims[a]
		if !v.points && n > 1 {
			n--
		}
		shape[a] = n
	}
	if shape.Cells() != v.count {
		return fmt.Errorf("dimensions %v hold %d values, data section declares %d", v.dims, shape.Cells(), v.count)
	}
	v.snap.Shape = shape

	for a := 0; a < 3; a++ {
		nodes := v.nodes[a]
		switch {
		case len(nodes) == 0:
			if v.points {
				v.snap.Coords[a] = uniformCoords(shape[a], v.origin[a]-v.spacing[a]/2, v.spacing[a])
			} else {
				v.snap.Coords[a] = uniformCoords(shape[a], v.origin[a], v.spacing[a])
			}
		case v.points || len(nodes) == 1:
			v.snap.Coords[a] = nodes
		default:
			centres := make([]float64, len(nodes)-1)
			for i := range centres {
				centres[i] = 0.5 * (nodes[i] + nodes[i+1])
			}
			v.snap.Coords[a] = centres
		}
	}
	return nil
}

func (v *vtkReader) scalars(tok []string) error {
	if len(tok) < 3 {
		return fmt.Errorf("SCALARS: missing name or type")
	}
	if v.count == 0 {
		return fmt.Errorf("SCALARS %s before CELL_DATA/POINT_DATA", tok[1])
	}
	if len(tok) > 3 && tok[3] != "1" {
		return fmt.Errorf("SCALARS %s: %s components not supported", tok[1], tok[3])
	}
	// LOOKUP_TABLE line precedes the values
	lut, err := v.line()
	if err != nil {
		return fmt.Errorf("SCALARS %s: %w", tok[1], err)
	}
	if !strings.HasPrefix(strings.ToUpper(lut), "LOOKUP_TABLE") {
		return fmt.Errorf("SCALARS %s: expected LOOKUP_TABLE, got %q", tok[1], lut)
	}
	data, err := v.values(v.count, tok[2])
	if err != nil {
		return fmt.Errorf("SCALARS %s: %w", tok[1], err)
	}
	v.snap.Fields[tok[1]] = data
	return nil
}

func (v *vtkReader) vectors(tok []string) error {
	if len(tok) < 3 {
		return fmt.Errorf("VECTORS: missing name or type")
	}
	if v.count == 0 {
		return fmt.Errorf("VECTORS %s before CELL_DATA/POINT_DATA", tok[1])
	}
	data, err := v.values(3*v.count, tok[2])
	if err != nil {
		return fmt.Errorf("VECTORS %s: %w", tok[1], err)
	}
	for c := 0; c < 3; c++ {
		comp := make([]float64, v.count)
		for i := range comp {
			comp[i] = data[3*i+c]
		}
		v.snap.Fields[tok[1]+strconv.Itoa(c+1)] = comp
	}
	return nil
}

// fieldData reads a FIELD block. Arrays matching the data count become
// fields; a single-valued TIME array sets the snapshot time; anything else is
// skipped.
func (v *vtkReader) fieldData(tok []string) error {
	if len(tok) < 3 {
		return fmt.Errorf("FIELD: missing array count")
	}
	arrays, err := count(tok[2])
	if err != nil {
		return fmt.Errorf("FIELD count: %w", err)
	}
	for n := 0; n < arrays; n++ {
		line, err := v.line()
		if err != nil {
			return fmt.Errorf("FIELD array %d: %w", n, err)
		}
		at := strings.Fields(line)
		if len(at) < 4 {
			return fmt.Errorf("FIELD array header %q", line)
		}
		dims, err := atoiN(at[1:3], 2)
		if err != nil {
			return fmt.Errorf("FIELD array %s: %w", at[0], err)
		}
		if dims[0] < 0 || dims[1] < 0 || (dims[0] > 0 && dims[1] > maxValues/dims[0]) {
			return fmt.Errorf("FIELD array %s: %d x %d values out of range", at[0], dims[0], dims[1])
		}
		data, err := v.values(dims[0]*dims[1], at[3])
		if err != nil {
			return fmt.Errorf("FIELD array %s: %w", at[0], err)
		}
		switch {
		case strings.EqualFold(at[0], "TIME") && len(data) == 1:
			v.snap.Time = data[0]
		case dims[0] == 1 && v.count > 0 && dims[1] == v.count:
			v.snap.Fields[at[0]] = data
		}
	}
	return nil
}

// values reads n numbers of the given VTK type. Binary data is big-endian.
func (v *vtkReader) values(n int, typ string) ([]float64, error) {
	if n < 0 || n > maxValues {
		return nil, fmt.Errorf("%d values out of range", n)
	}
	out := make([]float64, n)
	if !v.binary {
		for i := range out {
			if _, err := fmt.Fscan(v.r, &out[i]); err != nil {
				return nil, fmt.Errorf("value %d of %d: %w", i, n, err)
			}
		}
		return out, nil
	}

	switch strings.ToLower(typ) {
	case "float":
		buf := make([]float32, n)
		if err := binary.Read(v.r, binary.BigEndian, buf); err != nil {
			return nil, fmt.Errorf("read %d floats: %w", n, err)
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case "double":
		if err := binary.Read(v.r, binary.BigEndian, out); err != nil {
			return nil, fmt.Errorf("read %d doubles: %w", n, err)
		}
	default:
		return nil, fmt.Errorf("unsupported data type %q", typ)
	}
	return out, nil
}

// line returns the next non-blank line, trimmed.
func (v *vtkReader) line() (string, error) {
	for {
		s, err := v.r.ReadString('\n')
		s = strings.TrimSpace(s)
		if s != "" {
			return s, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// count parses a non-negative header count no larger than maxValues.
func count(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxValues {
		return 0, fmt.Errorf("%d out of range", n)
	}
	return n, nil
}

func atoiN(tok []string, n int) ([]int, error) {
	if len(tok) < n {
		return nil, fmt.Errorf("want %d integers, got %d", n, len(tok))
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		x, err := strconv.Atoi(tok[i])
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func parseFloat3(tok []string, dst *[3]float64) error {
	if len(tok) < 3 {
		return fmt.Errorf("want 3 numbers, got %d", len(tok))
	}
	for i := 0; i < 3; i++ {
		x, err := strconv.ParseFloat(tok[i], 64)
		if err != nil {
			return err
		}
		dst[i] = x
	}
	return nil
}
