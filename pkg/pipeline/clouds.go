package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/logging"
	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/diagnostics"
	"github.com/oxygene76/windcloud/pkg/output"
	"github.com/oxygene76/windcloud/pkg/snapshot"
	"github.com/oxygene76/windcloud/pkg/timeseries"
	"github.com/oxygene76/windcloud/pkg/utils"
)

// State is the lifecycle position of a CloudsPipeline
type State int

const (
	StateInit State = iota
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// TableWriter persists a completed time series
type TableWriter func(path string, s timeseries.Series) error

// CloudsPipeline walks the snapshot sequence of one simulation, diagnoses
// every snapshot and writes the diagnostics table. It runs once.
type CloudsPipeline struct {
	cfg      utils.CloudsConfig
	loader   snapshot.Loader
	factory  diagnostics.Factory
	write    TableWriter
	progress *Progress

	state State
	now   func() time.Time
}

// NewCloudsPipeline wires a pipeline from its collaborators. A nil writer
// uses output.WriteTable.
func NewCloudsPipeline(cfg utils.CloudsConfig, loader snapshot.Loader, factory diagnostics.Factory, writer TableWriter, progress io.Writer) *CloudsPipeline {
	if writer == nil {
		writer = output.WriteTable
	}
	return &CloudsPipeline{
		cfg:      cfg,
		loader:   loader,
		factory:  factory,
		write:    writer,
		progress: NewProgress(progress),
		state:    StateInit,
		now:      time.Now,
	}
}

// NewCloudsFromConfig builds the file-backed pipeline: snapshots decoded by a
// FileLoader, diagnosed by a CloudEngine, with cuts under cfg.CutsDir().
func NewCloudsFromConfig(cfg utils.CloudsConfig, progress io.Writer) *CloudsPipeline {
	loader := snapshot.NewFileLoader(cfg.Variables)
	factory := diagnostics.NewFactory(diagnostics.Options{
		TracerThreshold: cfg.TracerThreshold,
		TemperatureUnit: cfg.TemperatureUnit,
		Cuts:            diagnostics.NewCutRenderer(cfg.CutsDir(), cfg.SimName),
	})
	return NewCloudsPipeline(cfg, loader, factory, nil, progress)
}

// State returns the current lifecycle state
func (p *CloudsPipeline) State() State {
	return p.state
}

// Run executes the pipeline. Any failure is terminal: the table is written
// only after every snapshot has been recorded.
func (p *CloudsPipeline) Run() (*types.RunSummary, error) {
	if p.state != StateInit {
		return nil, errorsmod.Wrapf(types.ErrAlreadyRun, "pipeline is %s", p.state)
	}
	start := p.now()

	engine, ids, err := p.init()
	if err != nil {
		return nil, p.fail(err)
	}

	p.state = StateRunning
	series, err := p.run(engine, ids)
	if err != nil {
		return nil, p.fail(err)
	}

	path := p.cfg.TablePath()
	if err := p.write(path, series); err != nil {
		return nil, p.fail(classify(err, types.ErrWrite, "table"))
	}
	p.progress.Done()
	p.state = StateDone

	end := p.now()
	return &types.RunSummary{
		Mode:       ModeClouds.String(),
		Name:       p.cfg.SimName,
		Snapshots:  series.Len(),
		OutputPath: path,
		StartedAt:  start,
		FinishedAt: end,
		Duration:   end.Sub(start),
	}, nil
}

// init validates the configuration and builds the engine from the geometry
// snapshot.
func (p *CloudsPipeline) init() (diagnostics.Engine, []snapshot.ID, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, nil, err
	}
	box, err := diagnostics.ParseSubBox(p.cfg.BoxX, p.cfg.BoxY, p.cfg.BoxZ)
	if err != nil {
		return nil, nil, err
	}

	ids := snapshot.Sequence(p.cfg.Snapshots, p.cfg.IDWidth)
	geometryPath := ids[0].Path(p.cfg.SimPath, p.cfg.GeometryExt)
	geometry, err := p.loader.Load(geometryPath)
	if err != nil {
		return nil, nil, classify(err, types.ErrLoad, "geometry "+geometryPath)
	}
	if err := box.Fits(geometry.Shape); err != nil {
		return nil, nil, err
	}
	logging.Debugf("geometry %s, box %v", geometry.Shape, box)

	engine, err := p.factory(geometry, box)
	if err != nil {
		return nil, nil, err
	}
	return engine, ids, nil
}

func (p *CloudsPipeline) run(engine diagnostics.Engine, ids []snapshot.ID) (timeseries.Series, error) {
	acc := timeseries.New(len(ids))
	for k, id := range ids {
		path := id.Path(p.cfg.SimPath, p.cfg.SeriesExt)
		snap, err := p.loader.Load(path)
		if err != nil {
			return timeseries.Series{}, classify(err, types.ErrLoad, "snapshot "+id.Name)
		}
		tuple, err := engine.Diagnose(snap)
		if err != nil {
			return timeseries.Series{}, classify(err, types.ErrDiagnose, "snapshot "+id.Name)
		}
		if err := acc.Record(k, tuple); err != nil {
			return timeseries.Series{}, err
		}
		logging.Debugf("snapshot %s: cloud offset %.4g", id, tuple.Offset.Magnitude())
		if err := engine.EmitCuts(snap, id); err != nil {
			return timeseries.Series{}, classify(err, types.ErrCuts, "snapshot "+id.Name)
		}
		p.progress.Snapshot(k, len(ids))
	}
	return acc.View(), nil
}

func (p *CloudsPipeline) fail(err error) error {
	p.state = StateFailed
	logging.Debugf("clouds pipeline failed: %v", err)
	return err
}

// classify makes sure err matches kind. The cause stays reachable through
// errors.Is either way.
func classify(err error, kind *errorsmod.Error, context string) error {
	if errors.Is(err, kind) {
		return errorsmod.Wrap(err, context)
	}
	return fmt.Errorf("%w: %s: %w", kind, context, err)
}
