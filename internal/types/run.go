package types

import "time"

// RunSummary describes a completed pipeline run
type RunSummary struct {
	Mode       string        `json:"mode"`
	Name       string        `json:"name"`
	Snapshots  int           `json:"snapshots"`
	OutputPath string        `json:"output_path"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}
