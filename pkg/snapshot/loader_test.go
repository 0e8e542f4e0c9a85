package snapshot_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/windcloud/internal/testutil"
	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/snapshot"
)

func fixture() *snapshot.Snapshot {
	return testutil.CloudSnapshot(snapshot.Shape{6, 5, 4}, testutil.Cloud{
		Centre:   [3]float64{3, 2.5, 2},
		Radius:   1.5,
		Density:  100,
		Pressure: 1,
		Velocity: [3]float64{0.1, 0.2, 0.3},
		Tracer:   1,
	})
}

func TestReadVTKRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := fixture()
	path := filepath.Join(dir, "data.0000.vtk")
	testutil.WriteVTK(t, path, want)

	got, err := snapshot.ReadVTKFile(path)
	require.NoError(t, err)

	assert.Equal(t, want.Shape, got.Shape)
	assert.Equal(t, path, got.Path)
	assert.Equal(t, want.FieldNames(), got.FieldNames())
	for _, name := range want.FieldNames() {
		if diff := cmp.Diff(want.Fields[name], got.Fields[name]); diff != "" {
			t.Errorf("field %s mismatch (-want +got):\n%s", name, diff)
		}
	}
	for a := 0; a < 3; a++ {
		if diff := cmp.Diff(want.Coords[a], got.Coords[a]); diff != "" {
			t.Errorf("axis %d coords mismatch (-want +got):\n%s", a, diff)
		}
	}
}

func TestReadVTKStructuredPointsASCII(t *testing.T) {
	src := `# vtk DataFile Version 3.0
ascii points
ASCII
DATASET STRUCTURED_POINTS
DIMENSIONS 2 2 1
ORIGIN 0 0 0
SPACING 0.5 0.5 1
POINT_DATA 4
FIELD FieldData 1
TIME 1 1 double
2.5
SCALARS rho float
LOOKUP_TABLE default
1 2 3 4
VECTORS vx float
1 0 0  2 0 0  3 0 0  4 0 1
`
	snap, err := snapshot.ReadVTK(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, snapshot.Shape{2, 2, 1}, snap.Shape)
	assert.Equal(t, 2.5, snap.Time)
	assert.Equal(t, []float64{1, 2, 3, 4}, snap.Fields["rho"])
	assert.Equal(t, []float64{1, 2, 3, 4}, snap.Fields["vx1"])
	assert.Equal(t, []float64{0, 0, 0, 1}, snap.Fields["vx3"])
	assert.Equal(t, []float64{0, 0.5}, snap.Coords[0])
}

func TestReadVTKRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"not vtk":                   "hello\nworld\n",
		"unknown format":            "# vtk DataFile Version 2.0\nt\nXML\n",
		"count mismatch":            "# vtk DataFile Version 2.0\nt\nASCII\nDATASET STRUCTURED_POINTS\nDIMENSIONS 2 2 2\nCELL_DATA 7\n",
		"no data":                   "# vtk DataFile Version 2.0\nt\nASCII\nDATASET STRUCTURED_POINTS\nDIMENSIONS 2 2 2\n",
		"short values":              "# vtk DataFile Version 2.0\nt\nASCII\nDATASET STRUCTURED_POINTS\nDIMENSIONS 2 2 2\nCELL_DATA 1\nSCALARS rho float\nLOOKUP_TABLE default\n",
		"unstructured":              "# vtk DataFile Version 2.0\nt\nASCII\nDATASET UNSTRUCTURED_GRID\n",
		"negative coordinate count": "# vtk DataFile Version 2.0\nt\nASCII\nDATASET RECTILINEAR_GRID\nDIMENSIONS 2 2 2\nX_COORDINATES -1 double\n",
		"huge coordinate count":     "# vtk DataFile Version 2.0\nt\nBINARY\nDATASET RECTILINEAR_GRID\nDIMENSIONS 2 2 2\nX_COORDINATES 9000000000000000000 double\n",
		"negative dimensions":       "# vtk DataFile Version 2.0\nt\nASCII\nDATASET STRUCTURED_POINTS\nDIMENSIONS -2 2 2\nCELL_DATA 1\n",
		"negative cell count":       "# vtk DataFile Version 2.0\nt\nASCII\nDATASET STRUCTURED_POINTS\nDIMENSIONS 2 2 2\nCELL_DATA -1\n",
		"negative field dims":       "# vtk DataFile Version 2.0\nt\nASCII\nFIELD FieldData 1\nTIME -1 1 double\n",
		"overflowing field dims":    "# vtk DataFile Version 2.0\nt\nASCII\nFIELD FieldData 1\nTIME 4294967296 4294967296 double\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := snapshot.ReadVTK(strings.NewReader(src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrLoad), "got %v", err)
		})
	}
}

func TestFileLoaderRawAfterGeometry(t *testing.T) {
	dir := t.TempDir()
	geom := fixture()
	testutil.WriteVTK(t, filepath.Join(dir, "data.0000.vtk"), geom)
	testutil.WriteRaw(t, filepath.Join(dir, "data.0001.dat"), geom, snapshot.DefaultVariables)

	loader := snapshot.NewFileLoader(nil)

	_, err := loader.Load(filepath.Join(dir, "data.0001.dat"))
	require.Error(t, err, "raw dump before geometry must fail")
	assert.True(t, errors.Is(err, types.ErrLoad))

	vtk, err := loader.Load(filepath.Join(dir, "data.0000.vtk"))
	require.NoError(t, err)

	raw, err := loader.Load(filepath.Join(dir, "data.0001.dat"))
	require.NoError(t, err)
	assert.Equal(t, geom.Shape, raw.Shape)
	assert.Equal(t, geom.Fields["rho"], raw.Fields["rho"])
	assert.Equal(t, geom.Fields["tr1"], raw.Fields["tr1"])
	assert.Equal(t, vtk.Coords, raw.Coords)
}

func TestFileLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	geom := fixture()
	testutil.WriteVTK(t, filepath.Join(dir, "data.0000.vtk"), geom)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.0001.dat"), []byte{1, 2, 3}, 0o644))

	loader := snapshot.NewFileLoader([]string{"rho", "tr1"})
	_, err := loader.Load(filepath.Join(dir, "data.0000.vtk"))
	require.NoError(t, err)

	for _, path := range []string{
		filepath.Join(dir, "data.0001.dat"),
		filepath.Join(dir, "data.0002.dat"),
		filepath.Join(dir, "data.0003.h5"),
	} {
		_, err := loader.Load(path)
		require.Error(t, err, path)
		assert.True(t, errors.Is(err, types.ErrLoad), "%s: %v", path, err)
	}
}

func TestSnapshotFieldMissing(t *testing.T) {
	snap := fixture()
	_, err := snap.Field("bx1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrLoad))
}

func TestCellWidths(t *testing.T) {
	snap := &snapshot.Snapshot{
		Shape: snapshot.Shape{4, 1, 3},
		Coords: [3][]float64{
			{0.5, 1.5, 3, 5},
			{0},
			nil,
		},
	}

	if diff := cmp.Diff([]float64{1, 1.25, 1.75, 2}, snap.CellWidths(0)); diff != "" {
		t.Errorf("x widths (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{1}, snap.CellWidths(1))
	assert.Equal(t, []float64{1, 1, 1}, snap.CellWidths(2))
}
