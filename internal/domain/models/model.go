package models

import "time"

// ModelHandle points at a persisted artifact without loading it.
type ModelHandle struct {
	Key      string
	Location string
	// Version changes whenever the artifact is replaced.
	Version string
}

// ArtifactMeta is stored next to the fitted model in every artifact.
type ArtifactMeta struct {
	Entity     string    `json:"entity"`
	Algorithm  string    `json:"algorithm"`
	Features   []string  `json:"features"`
	TrainedAt  time.Time `json:"trained_at"`
	Rows       int       `json:"rows"`
	HoldoutMAE *float64  `json:"holdout_mae,omitempty"`
}

// TrainingStatus is the per-entity result of a training run.
type TrainingStatus string

const (
	TrainingSuccess TrainingStatus = "success"
	TrainingFailure TrainingStatus = "failure"
)

// TrainingOutcome records what happened to one dataset in a training run.
type TrainingOutcome struct {
	RunID      string         `json:"run_id"`
	Entity     string         `json:"entity"`
	Status     TrainingStatus `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Rows       int            `json:"rows"`
	HoldoutMAE *float64       `json:"holdout_mae,omitempty"`
	Location   string         `json:"location,omitempty"`
	Duration   time.Duration  `json:"duration_ns"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Succeeded reports whether the entity produced a persisted artifact.
func (o TrainingOutcome) Succeeded() bool { return o.Status == TrainingSuccess }
