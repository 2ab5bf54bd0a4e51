package experiments

import (
	"encoding/json"

	"github.com/mlopslab/mlreg-api-types/internal/utils/cmp"
	"github.com/mlopslab/mlreg-api-types/misc/rfctime"
)

// Lifecycle status of an experiment.
//
// An experiment starts as "running" and ends as either "completed" or
// "failed". No transition is expected after a terminal status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TrackRequest is the body of POST /api/experiments/track.
//
// Every field is optional on the wire. ExperimentName is required only when
// the request creates a new experiment (no row for ExperimentId yet).
// Parameters are honored at creation only; servers discard them on update.
type TrackRequest struct {
	ExperimentId   string                     `json:"experiment_id,omitempty"`
	ExperimentName string                     `json:"experiment_name,omitempty"`
	FunctionName   string                     `json:"function_name,omitempty"`
	Module         string                     `json:"module,omitempty"`
	Status         string                     `json:"status,omitempty"`
	Parameters     map[string]json.RawMessage `json:"parameters,omitempty"`
	StartTime      *rfctime.RFC3339           `json:"start_time,omitempty"`
	EndTime        *rfctime.RFC3339           `json:"end_time,omitempty"`
	Duration       *float64                   `json:"duration,omitempty"`
	Result         *string                    `json:"result,omitempty"`
	Error          *string                    `json:"error,omitempty"`
}

type TrackResponse struct {
	ExperimentId string `json:"experiment_id"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
}

// Offline is the sentinel TrackResponse the SDK client returns when the
// registry is unreachable. The wrapped function still runs in that case.
func Offline() TrackResponse {
	return TrackResponse{ExperimentId: "offline", Status: "offline"}
}

// Detail is the full representation of an experiment, as returned by
// GET /api/experiments/{experiment_id}.
type Detail struct {
	ExperimentId   string                     `json:"experiment_id"`
	ExperimentName string                     `json:"experiment_name"`
	FunctionName   string                     `json:"function_name,omitempty"`
	Module         string                     `json:"module,omitempty"`
	Status         string                     `json:"status"`
	StartTime      *rfctime.RFC3339           `json:"start_time,omitempty"`
	EndTime        *rfctime.RFC3339           `json:"end_time,omitempty"`
	Duration       *float64                   `json:"duration,omitempty"`
	Result         *string                    `json:"result,omitempty"`
	Error          *string                    `json:"error,omitempty"`
	CreatedAt      rfctime.RFC3339            `json:"created_at"`
	Parameters     map[string]json.RawMessage `json:"parameters"`
	Metrics        []MetricPoint              `json:"metrics"`
}

func (d Detail) Equal(o Detail) bool {
	return d.ExperimentId == o.ExperimentId &&
		d.ExperimentName == o.ExperimentName &&
		d.FunctionName == o.FunctionName &&
		d.Module == o.Module &&
		d.Status == o.Status &&
		cmp.PEqualWith(d.StartTime, o.StartTime, rfctime.RFC3339.Equal) &&
		cmp.PEqualWith(d.EndTime, o.EndTime, rfctime.RFC3339.Equal) &&
		cmp.PEqEq(d.Duration, o.Duration) &&
		cmp.PEqEq(d.Result, o.Result) &&
		cmp.PEqEq(d.Error, o.Error) &&
		d.CreatedAt.Equal(o.CreatedAt) &&
		cmp.MapEqWith(d.Parameters, o.Parameters, rawJSONEq) &&
		cmp.SliceEqWith(d.Metrics, o.Metrics, MetricPoint.Equal)
}

// Summary is the per-experiment entry of GET /api/experiments .
// Parameters and metrics are omitted by design of the listing API.
type Summary struct {
	ExperimentId   string           `json:"experiment_id"`
	ExperimentName string           `json:"experiment_name"`
	Status         string           `json:"status"`
	StartTime      *rfctime.RFC3339 `json:"start_time,omitempty"`
	Duration       *float64         `json:"duration,omitempty"`
	CreatedAt      rfctime.RFC3339  `json:"created_at"`
}

func (s Summary) Equal(o Summary) bool {
	return s.ExperimentId == o.ExperimentId &&
		s.ExperimentName == o.ExperimentName &&
		s.Status == o.Status &&
		cmp.PEqualWith(s.StartTime, o.StartTime, rfctime.RFC3339.Equal) &&
		cmp.PEqEq(s.Duration, o.Duration) &&
		s.CreatedAt.Equal(o.CreatedAt)
}

type ListResponse struct {
	Experiments []Summary `json:"experiments"`
	Count       int       `json:"count"`
}

// MetricPoint is one appended sample of a time series.
//
// Samples sharing Key differ by Step; duplicated (Key, Step) pairs are legal
// and both samples are retained.
type MetricPoint struct {
	Key       string          `json:"key"`
	Value     float64         `json:"value"`
	Step      *int            `json:"step,omitempty"`
	Timestamp rfctime.RFC3339 `json:"timestamp"`
}

func (m MetricPoint) Equal(o MetricPoint) bool {
	return m.Key == o.Key &&
		m.Value == o.Value &&
		cmp.PEqEq(m.Step, o.Step) &&
		m.Timestamp.Equal(o.Timestamp)
}

// LogMetricRequest is the body of POST /api/experiments/{experiment_id}/metrics.
// Key and Value are required.
type LogMetricRequest struct {
	Key   string   `json:"key"`
	Value *float64 `json:"value"`
	Step  *int     `json:"step,omitempty"`
}

type LogMetricResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type Health struct {
	Status    string          `json:"status"`
	Service   string          `json:"service"`
	Timestamp rfctime.RFC3339 `json:"timestamp"`
}

func rawJSONEq(a, b json.RawMessage) bool {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return cmp.JSONEq(av, bv)
}
