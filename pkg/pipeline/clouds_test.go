package pipeline_test

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/windcloud/internal/testutil"
	"github.com/oxygene76/windcloud/internal/types"
	astromath "github.com/oxygene76/windcloud/pkg/astronomy/math"
	"github.com/oxygene76/windcloud/pkg/diagnostics"
	"github.com/oxygene76/windcloud/pkg/pipeline"
	"github.com/oxygene76/windcloud/pkg/snapshot"
	"github.com/oxygene76/windcloud/pkg/timeseries"
	"github.com/oxygene76/windcloud/pkg/utils"
)

var stubShape = snapshot.Shape{4, 4, 4}

var errDisk = errors.New("input/output error")

func stubConfig(t *testing.T, n int) utils.CloudsConfig {
	cfg := utils.DefaultConfig().Clouds
	cfg.SimPath = "/sims/wc1/"
	cfg.SimName = "wc1"
	cfg.BoxX, cfg.BoxY, cfg.BoxZ = "0 4", "0 4", "0 4"
	cfg.Snapshots = n
	cfg.OutputDir = filepath.Join(t.TempDir(), "clouds")
	return cfg
}

// stubLoader hands out empty snapshots whose Time is the snapshot index. It
// fails on the series file with index failAt.
type stubLoader struct {
	failAt int
	paths  []string
}

func (l *stubLoader) Load(path string) (*snapshot.Snapshot, error) {
	l.paths = append(l.paths, path)
	var k int
	if _, err := fmt.Sscanf(filepath.Base(path), "data.%d", &k); err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".dat" && k == l.failAt {
		return nil, errDisk
	}
	return &snapshot.Snapshot{Path: path, Shape: stubShape, Time: float64(k)}, nil
}

type stubEngine struct {
	cuts         []string
	failDiagnose int
	failCuts     int
}

func (e *stubEngine) Diagnose(snap *snapshot.Snapshot) (diagnostics.Tuple, error) {
	k := snap.Time
	if int(k) == e.failDiagnose {
		return diagnostics.Tuple{}, errors.New("no cloud")
	}
	return diagnostics.Tuple{
		Density:        k,
		Temperature:    k * 2,
		MixingFraction: 0.5,
		COMPosition:    k * 0.1,
		Offset:         astromath.Vector3{X: k, Y: k, Z: k},
		Velocity:       astromath.Vector3{X: 1, Y: 1, Z: 1},
	}, nil
}

func (e *stubEngine) EmitCuts(snap *snapshot.Snapshot, id snapshot.ID) error {
	if int(snap.Time) == e.failCuts {
		return errors.New("disk full")
	}
	e.cuts = append(e.cuts, id.Name)
	return nil
}

func newStubEngine() *stubEngine {
	return &stubEngine{failDiagnose: -1, failCuts: -1}
}

func factoryFor(e diagnostics.Engine) diagnostics.Factory {
	return func(*snapshot.Snapshot, diagnostics.SubBox) (diagnostics.Engine, error) {
		return e, nil
	}
}

func TestCloudsPipelineEndToEnd(t *testing.T) {
	const n = 81
	cfg := stubConfig(t, n)
	loader := &stubLoader{failAt: -1}
	engine := newStubEngine()
	var out bytes.Buffer

	p := pipeline.NewCloudsPipeline(cfg, loader, factoryFor(engine), nil, &out)
	assert.Equal(t, pipeline.StateInit, p.State())

	summary, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateDone, p.State())

	assert.Equal(t, "clouds", summary.Mode)
	assert.Equal(t, "wc1", summary.Name)
	assert.Equal(t, n, summary.Snapshots)
	assert.Equal(t, cfg.TablePath(), summary.OutputPath)
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))

	// geometry first, then every series file in order
	require.Len(t, loader.paths, n+1)
	assert.Equal(t, "/sims/wc1/data.0000.vtk", loader.paths[0])
	assert.Equal(t, "/sims/wc1/data.0000.dat", loader.paths[1])
	assert.Equal(t, "/sims/wc1/data.0080.dat", loader.paths[n])
	assert.Len(t, engine.cuts, n)
	assert.Equal(t, "0007", engine.cuts[7])

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "wc1_diagnostics.dat"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, n)
	assert.Equal(t, "0.0000000E+00  0.0000000E+00  5.0000000E-01  0.0000000E+00  0.0000000E+00  "+
		"0.0000000E+00  0.0000000E+00  1.0000000E+00  1.0000000E+00  1.0000000E+00", lines[0])
	assert.True(t, strings.HasPrefix(lines[80], "8.0000000E+01  1.6000000E+02  5.0000000E-01  8.0000000E+00  "), lines[80])
	for k, line := range lines {
		assert.True(t, strings.HasPrefix(line, fmt.Sprintf("%.7E  ", float64(k))), "row %d out of order", k)
	}

	progress := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, progress, n+1)
	assert.Equal(t, "Simulation 1 out of 81 done", progress[0])
	assert.Equal(t, "Simulation 81 out of 81 done", progress[n-1])
	assert.Equal(t, "DIAGNOSE and CUTS done", progress[n])

	_, err = p.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrAlreadyRun))
}

func TestCloudsPipelineLoadFailureWritesNothing(t *testing.T) {
	cfg := stubConfig(t, 81)
	var out bytes.Buffer
	var writes int
	writer := func(string, timeseries.Series) error {
		writes++
		return nil
	}

	p := pipeline.NewCloudsPipeline(cfg, &stubLoader{failAt: 5}, factoryFor(newStubEngine()), writer, &out)
	_, err := p.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrLoad))
	assert.True(t, errors.Is(err, errDisk), "cause lost: %v", err)
	assert.Contains(t, err.Error(), "snapshot 0005")
	assert.Equal(t, pipeline.StateFailed, p.State())
	assert.Zero(t, writes)
	assert.NotContains(t, out.String(), "DIAGNOSE and CUTS done")
	assert.Equal(t, 5, strings.Count(out.String(), "out of 81 done"))

	_, err = p.Run()
	assert.True(t, errors.Is(err, types.ErrAlreadyRun))
}

func TestCloudsPipelineLoadFailureLeavesExistingTable(t *testing.T) {
	cfg := stubConfig(t, 81)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.TablePath(), []byte("previous run\n"), 0o644))

	p := pipeline.NewCloudsPipeline(cfg, &stubLoader{failAt: 5}, factoryFor(newStubEngine()), nil, nil)
	_, err := p.Run()
	require.Error(t, err)

	data, err := os.ReadFile(cfg.TablePath())
	require.NoError(t, err)
	assert.Equal(t, "previous run\n", string(data))
}

func TestCloudsPipelineFailures(t *testing.T) {
	tests := map[string]struct {
		mutate  func(cfg *utils.CloudsConfig)
		loader  *stubLoader
		engine  *stubEngine
		factory func(e diagnostics.Engine) diagnostics.Factory
		writer  pipeline.TableWriter
		want    error
	}{
		"geometry missing": {
			loader: &stubLoader{failAt: 0},
			mutate: func(cfg *utils.CloudsConfig) { cfg.GeometryExt = ".dat" },
			want:   types.ErrLoad,
		},
		"missing simpath": {
			mutate: func(cfg *utils.CloudsConfig) { cfg.SimPath = "" },
			want:   types.ErrConfiguration,
		},
		"bad box": {
			mutate: func(cfg *utils.CloudsConfig) { cfg.BoxY = "3 1" },
			want:   types.ErrConfiguration,
		},
		"box outside grid": {
			mutate: func(cfg *utils.CloudsConfig) { cfg.BoxZ = "0 5" },
			want:   types.ErrConfiguration,
		},
		"engine rejects geometry": {
			factory: func(diagnostics.Engine) diagnostics.Factory {
				return func(*snapshot.Snapshot, diagnostics.SubBox) (diagnostics.Engine, error) {
					return nil, types.ErrConfiguration.Wrap("threshold")
				}
			},
			want: types.ErrConfiguration,
		},
		"diagnose": {
			engine: &stubEngine{failDiagnose: 3, failCuts: -1},
			want:   types.ErrDiagnose,
		},
		"cuts": {
			engine: &stubEngine{failDiagnose: -1, failCuts: 2},
			want:   types.ErrCuts,
		},
		"write": {
			writer: func(string, timeseries.Series) error { return errors.New("read-only file system") },
			want:   types.ErrWrite,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := stubConfig(t, 10)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			loader := tt.loader
			if loader == nil {
				loader = &stubLoader{failAt: -1}
			}
			engine := tt.engine
			if engine == nil {
				engine = newStubEngine()
			}
			factory := factoryFor(engine)
			if tt.factory != nil {
				factory = tt.factory(engine)
			}
			var out bytes.Buffer

			p := pipeline.NewCloudsPipeline(cfg, loader, factory, tt.writer, &out)
			_, err := p.Run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
			assert.Equal(t, pipeline.StateFailed, p.State())
			assert.NotContains(t, out.String(), "DIAGNOSE and CUTS done")
			_, statErr := os.Stat(cfg.TablePath())
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestCloudsFromConfigOnFiles(t *testing.T) {
	dir := t.TempDir()
	shape := snapshot.Shape{8, 10, 8}
	cloud := testutil.Cloud{Centre: [3]float64{4, 3, 4}, Radius: 2, Density: 10, Pressure: 1, Tracer: 1}

	testutil.WriteVTK(t, filepath.Join(dir, "data.0000.vtk"), testutil.CloudSnapshot(shape, cloud))
	for k := 0; k < 3; k++ {
		c := cloud
		c.Centre[1] += float64(k)
		c.Velocity = [3]float64{0, 1, 0}
		testutil.WriteRaw(t, filepath.Join(dir, fmt.Sprintf("data.%04d.dat", k)), testutil.CloudSnapshot(shape, c), snapshot.DefaultVariables)
	}

	cfg := utils.DefaultConfig().Clouds
	cfg.SimPath = dir + string(filepath.Separator)
	cfg.SimName = "wc2"
	cfg.BoxX, cfg.BoxY, cfg.BoxZ = "0 8", "0 10", "0 8"
	cfg.Snapshots = 3
	cfg.OutputDir = filepath.Join(dir, "clouds")

	var out bytes.Buffer
	summary, err := pipeline.NewCloudsFromConfig(cfg, &out).Run()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Snapshots)

	data, err := os.ReadFile(summary.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	for k, line := range lines {
		cols := strings.Split(line, "  ")
		require.Len(t, cols, timeseries.NumColumns)
		assert.Equal(t, "1.0000000E+01", cols[0], "density row %d", k)
		assert.Equal(t, fmt.Sprintf("%.7E", float64(k)), cols[5], "offset_y row %d", k)
		assert.Equal(t, "1.0000000E+00", cols[8], "velocity_y row %d", k)
	}

	for _, name := range []string{"wc2_rho_0000.png", "wc2_tr1_0002.png"} {
		_, err := os.Stat(filepath.Join(cfg.CutsDir(), name))
		assert.NoError(t, err, name)
	}
}

func TestCloudsFromConfigMissingSnapshot(t *testing.T) {
	dir := t.TempDir()
	shape := snapshot.Shape{8, 10, 8}
	cloud := testutil.Cloud{Centre: [3]float64{4, 3, 4}, Radius: 2, Density: 10, Pressure: 1, Tracer: 1}

	testutil.WriteVTK(t, filepath.Join(dir, "data.0000.vtk"), testutil.CloudSnapshot(shape, cloud))
	testutil.WriteRaw(t, filepath.Join(dir, "data.0000.dat"), testutil.CloudSnapshot(shape, cloud), snapshot.DefaultVariables)

	cfg := utils.DefaultConfig().Clouds
	cfg.SimPath = dir + string(filepath.Separator)
	cfg.SimName = "wc3"
	cfg.BoxX, cfg.BoxY, cfg.BoxZ = "0 8", "0 10", "0 8"
	cfg.Snapshots = 2
	cfg.OutputDir = filepath.Join(dir, "clouds")

	_, err := pipeline.NewCloudsFromConfig(cfg, nil).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrLoad), err.Error())
	assert.True(t, errors.Is(err, fs.ErrNotExist), err.Error())
	assert.Contains(t, err.Error(), "snapshot 0001")
}
