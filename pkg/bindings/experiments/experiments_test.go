package experiments_test

import (
	"encoding/json"
	"testing"
	"time"

	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
	"github.com/mlopslab/mlreg-api-types/misc/rfctime"
	bindexp "github.com/mlopslab/mlreg/pkg/bindings/experiments"
	"github.com/mlopslab/mlreg/pkg/domain"
	"github.com/mlopslab/mlreg/pkg/utils/pointer"
)

func TestComposeDetail(t *testing.T) {
	t.Run("it composes a full representation", func(t *testing.T) {
		startTime := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
		endTime := startTime.Add(90 * time.Second)
		createdAt := startTime.Add(50 * time.Millisecond)
		sampledAt := startTime.Add(30 * time.Second)

		given := domain.Experiment{
			ExperimentBody: domain.ExperimentBody{
				ExperimentId:   "exp_20260205_100000",
				ExperimentName: "train-classifier",
				FunctionName:   "train",
				Module:         "pipelines.training",
				Status:         domain.Completed,
				StartTime:      &startTime,
				EndTime:        &endTime,
				Duration:       pointer.Ref(90.0),
				Result:         pointer.Ref("0.93"),
				CreatedAt:      createdAt,
			},
			Parameters: map[string]json.RawMessage{
				"learning_rate": json.RawMessage(`0.01`),
			},
			Metrics: []domain.Metric{
				{Key: "loss", Value: 0.5, Step: pointer.Ref(2), Timestamp: sampledAt},
			},
		}

		actual := bindexp.ComposeDetail(given)

		expected := apiexp.Detail{
			ExperimentId:   "exp_20260205_100000",
			ExperimentName: "train-classifier",
			FunctionName:   "train",
			Module:         "pipelines.training",
			Status:         apiexp.StatusCompleted,
			StartTime:      pointer.Ref(rfctime.New(startTime)),
			EndTime:        pointer.Ref(rfctime.New(endTime)),
			Duration:       pointer.Ref(90.0),
			Result:         pointer.Ref("0.93"),
			CreatedAt:      rfctime.New(createdAt),
			Parameters: map[string]json.RawMessage{
				"learning_rate": json.RawMessage(`0.01`),
			},
			Metrics: []apiexp.MetricPoint{
				{Key: "loss", Value: 0.5, Step: pointer.Ref(2), Timestamp: rfctime.New(sampledAt)},
			},
		}

		if !actual.Equal(expected) {
			t.Errorf(
				"unmatch:\n===actual===\n%+v\n===expected===\n%+v",
				actual, expected,
			)
		}
	})

	t.Run("it leaves optional fields empty for a running experiment", func(t *testing.T) {
		createdAt := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)

		actual := bindexp.ComposeDetail(domain.Experiment{
			ExperimentBody: domain.ExperimentBody{
				ExperimentId:   "exp_20260205_100000",
				ExperimentName: "train-classifier",
				Status:         domain.Running,
				CreatedAt:      createdAt,
			},
			Parameters: map[string]json.RawMessage{},
			Metrics:    []domain.Metric{},
		})

		if actual.StartTime != nil || actual.EndTime != nil ||
			actual.Duration != nil || actual.Result != nil || actual.Error != nil {
			t.Errorf("optional fields should stay nil: %+v", actual)
		}
		if actual.Status != apiexp.StatusRunning {
			t.Errorf("unmatch status: %s", actual.Status)
		}
	})
}

func TestComposeSummary(t *testing.T) {
	t.Run("it composes a listing entry", func(t *testing.T) {
		startTime := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
		createdAt := startTime.Add(time.Millisecond)

		actual := bindexp.ComposeSummary(domain.ExperimentSummary{
			ExperimentId:   "exp_20260205_100000",
			ExperimentName: "train-classifier",
			Status:         domain.Failed,
			StartTime:      &startTime,
			Duration:       pointer.Ref(1.5),
			CreatedAt:      createdAt,
		})

		expected := apiexp.Summary{
			ExperimentId:   "exp_20260205_100000",
			ExperimentName: "train-classifier",
			Status:         apiexp.StatusFailed,
			StartTime:      pointer.Ref(rfctime.New(startTime)),
			Duration:       pointer.Ref(1.5),
			CreatedAt:      rfctime.New(createdAt),
		}

		if !actual.Equal(expected) {
			t.Errorf(
				"unmatch:\n===actual===\n%+v\n===expected===\n%+v",
				actual, expected,
			)
		}
	})
}
