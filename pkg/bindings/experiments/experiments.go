package experiments

import (
	"time"

	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
	"github.com/mlopslab/mlreg-api-types/misc/rfctime"
	"github.com/mlopslab/mlreg/pkg/domain"
	"github.com/mlopslab/mlreg/pkg/utils/slices"
)

func ComposeSummary(s domain.ExperimentSummary) apiexp.Summary {
	return apiexp.Summary{
		ExperimentId:   s.ExperimentId,
		ExperimentName: s.ExperimentName,
		Status:         s.Status.String(),
		StartTime:      composeTime(s.StartTime),
		Duration:       s.Duration,
		CreatedAt:      rfctime.New(s.CreatedAt),
	}
}

func ComposeDetail(e domain.Experiment) apiexp.Detail {
	return apiexp.Detail{
		ExperimentId:   e.ExperimentId,
		ExperimentName: e.ExperimentName,
		FunctionName:   e.FunctionName,
		Module:         e.Module,
		Status:         e.Status.String(),
		StartTime:      composeTime(e.StartTime),
		EndTime:        composeTime(e.EndTime),
		Duration:       e.Duration,
		Result:         e.Result,
		Error:          e.Error,
		CreatedAt:      rfctime.New(e.CreatedAt),
		Parameters:     e.Parameters,
		Metrics:        slices.Map(e.Metrics, composeMetricPoint),
	}
}

func composeMetricPoint(m domain.Metric) apiexp.MetricPoint {
	return apiexp.MetricPoint{
		Key:       m.Key,
		Value:     m.Value,
		Step:      m.Step,
		Timestamp: rfctime.New(m.Timestamp),
	}
}

func composeTime(t *time.Time) *rfctime.RFC3339 {
	if t == nil {
		return nil
	}
	rfc := rfctime.New(*t)
	return &rfc
}
