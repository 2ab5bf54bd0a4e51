package db

import (
	"context"

	"github.com/mlopslab/mlreg/pkg/domain"
)

// Interface is the store contract for experiments, parameters and metrics.
type Interface interface {
	// Save creates or updates an experiment.
	//
	// When rec.ExperimentId is empty, a new id "exp_<UTC yyyymmdd_hhmmss>"
	// is generated. Then:
	//
	// - no row for the id: insert the experiment (status defaults to
	// "running") and one parameter row per rec.Parameters entry.
	//
	// - a row exists: update status, end_time, duration, result and error
	// only. rec.Parameters is silently discarded; experiment_name,
	// function_name, module, start_time and created_at stay untouched.
	//
	// The existence check and the following write are atomic per
	// experiment id under concurrent callers.
	//
	// Returns
	//
	// - string: the resolved experiment id, in both branches.
	//
	// - error: ErrNameRequired when the insert branch is taken without
	// rec.ExperimentName; other errors come from the backend.
	Save(ctx context.Context, rec domain.ExperimentRecord) (string, error)

	// Get retrieves one experiment with its full parameter mapping and its
	// metric samples in insertion order.
	//
	// Returns
	//
	// - domain.Experiment
	//
	// - error: wrapping ErrMissing when no experiment has the id.
	Get(ctx context.Context, experimentId string) (domain.Experiment, error)

	// Find lists experiment summaries ordered by creation time descending
	// (most recent first). limit bounds the result length; limit <= 0 means
	// no rows.
	Find(ctx context.Context, limit int) ([]domain.ExperimentSummary, error)

	// AppendMetric inserts a new metric sample.
	//
	// It does not verify that the experiment exists; orphan samples are
	// accepted. Duplicated (key, step) pairs are retained as distinct rows.
	AppendMetric(ctx context.Context, experimentId string, key string, value float64, step *int) error
}

// Database bundles the store with the lifetime of its backing connection.
type Database interface {
	Experiments() Interface
	Close() error
}
