package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlopslab/mlreg/pkg/cmp"
)

// NewExperimentId derives an experiment id from the creation instant,
// second resolution, always UTC. Two creations within one second collide
// on purpose: the later one falls into the update branch of the store.
func NewExperimentId(t time.Time) string {
	return "exp_" + t.UTC().Format("20060102_150405")
}

// ExperimentStatus is the lifecycle state of an experiment.
type ExperimentStatus string

const (
	Running   ExperimentStatus = "running"
	Completed ExperimentStatus = "completed"
	Failed    ExperimentStatus = "failed"
)

// AsExperimentStatus parses s into ExperimentStatus.
func AsExperimentStatus(s string) (ExperimentStatus, error) {
	switch ExperimentStatus(s) {
	case Running:
		return Running, nil
	case Completed:
		return Completed, nil
	case Failed:
		return Failed, nil
	default:
		return "", fmt.Errorf("unknown experiment status: %s", s)
	}
}

func (s ExperimentStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further lifecycle transition is expected.
func (s ExperimentStatus) IsTerminal() bool {
	return s == Completed || s == Failed
}

// ExperimentBody is the per-experiment column set, without parameters and
// metrics.
type ExperimentBody struct {
	ExperimentId   string
	ExperimentName string
	FunctionName   string
	Module         string
	Status         ExperimentStatus
	StartTime      *time.Time
	EndTime        *time.Time

	// elapsed wall-clock seconds of the tracked call. Set only by the
	// terminal update.
	Duration *float64

	// string form of the tracked call's return value (Completed only).
	Result *string

	// string form of the tracked call's failure (Failed only).
	Error *string

	// set once by the store at creation, never updated.
	CreatedAt time.Time
}

// Experiment is one tracked invocation with its captured parameters and
// appended metric samples.
//
// Parameters are immutable after creation. Metrics keep insertion order;
// the store does not sort them by step or timestamp.
type Experiment struct {
	ExperimentBody

	Parameters map[string]json.RawMessage
	Metrics    []Metric
}

func (b ExperimentBody) Equal(o ExperimentBody) bool {
	return b.ExperimentId == o.ExperimentId &&
		b.ExperimentName == o.ExperimentName &&
		b.FunctionName == o.FunctionName &&
		b.Module == o.Module &&
		b.Status == o.Status &&
		cmp.PEqualWith(b.StartTime, o.StartTime, time.Time.Equal) &&
		cmp.PEqualWith(b.EndTime, o.EndTime, time.Time.Equal) &&
		cmp.PEqEq(b.Duration, o.Duration) &&
		cmp.PEqEq(b.Result, o.Result) &&
		cmp.PEqEq(b.Error, o.Error) &&
		b.CreatedAt.Equal(o.CreatedAt)
}

func (e Experiment) Equal(o Experiment) bool {
	return e.ExperimentBody.Equal(o.ExperimentBody) &&
		cmp.MapEqWith(
			e.Parameters, o.Parameters,
			func(a, b json.RawMessage) bool { return string(a) == string(b) },
		) &&
		cmp.SliceEqWith(
			e.Metrics, o.Metrics,
			func(a, b Metric) bool { return a.Equal(b) },
		)
}

// ExperimentSummary is the listing representation: identity and lifecycle
// only, no parameters, no metrics.
type ExperimentSummary struct {
	ExperimentId   string
	ExperimentName string
	Status         ExperimentStatus
	StartTime      *time.Time
	Duration       *float64
	CreatedAt      time.Time
}

func (s ExperimentSummary) Equal(o ExperimentSummary) bool {
	return s.ExperimentId == o.ExperimentId &&
		s.ExperimentName == o.ExperimentName &&
		s.Status == o.Status &&
		cmp.PEqualWith(s.StartTime, o.StartTime, time.Time.Equal) &&
		cmp.PEqEq(s.Duration, o.Duration) &&
		s.CreatedAt.Equal(o.CreatedAt)
}

// Metric is one appended sample. (Key, Step) pairs are not unique; duplicated
// samples are retained as distinct rows.
type Metric struct {
	Key       string
	Value     float64
	Step      *int
	Timestamp time.Time
}

func (m Metric) Equal(o Metric) bool {
	return m.Key == o.Key &&
		m.Value == o.Value &&
		cmp.PEqEq(m.Step, o.Step) &&
		m.Timestamp.Equal(o.Timestamp)
}

// ExperimentRecord is the payload of the upsert operation.
//
// When ExperimentId is empty, the store generates one. On the insert branch
// all fields are written and Parameters are captured; on the update branch
// only Status, EndTime, Duration, Result and Error are written and Parameters
// are silently discarded.
type ExperimentRecord struct {
	ExperimentId   string
	ExperimentName string
	FunctionName   string
	Module         string
	Status         ExperimentStatus
	Parameters     map[string]json.RawMessage
	StartTime      *time.Time
	EndTime        *time.Time
	Duration       *float64
	Result         *string
	Error          *string
}
