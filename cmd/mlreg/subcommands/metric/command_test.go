package metric_test

import (
	"context"
	"errors"
	"io"
	"testing"

	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
	"github.com/mlopslab/mlreg/cmd/mlreg/subcommands/internal/commandline"
	"github.com/mlopslab/mlreg/cmd/mlreg/subcommands/logger"
	submetric "github.com/mlopslab/mlreg/cmd/mlreg/subcommands/metric"
	"github.com/mlopslab/mlreg/pkg/sdk/rest/mock"
	"github.com/youta-t/flarc"
)

func TestMetricCommand(t *testing.T) {
	type When struct {
		flag submetric.Flag
		args map[string][]string
		err  error
	}

	type Then struct {
		err    error
		sample *apiexp.LogMetricRequest
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			client := mock.New(t)
			client.Impl.LogMetric = func(
				ctx context.Context, experimentId string, req apiexp.LogMetricRequest,
			) (apiexp.LogMetricResponse, error) {
				if when.err != nil {
					return apiexp.LogMetricResponse{}, when.err
				}
				return apiexp.LogMetricResponse{
					Status:  "success",
					Message: "Metric logged for experiment " + experimentId,
				}, nil
			}

			testee := submetric.Task()

			actual := testee(
				context.Background(), logger.Null(), client,
				commandline.MockCommandline[submetric.Flag]{
					Stdout_: io.Discard,
					Stderr_: io.Discard,
					Flags_:  when.flag,
					Args_:   when.args,
				},
				[]any{},
			)
			if !errors.Is(actual, then.err) {
				t.Errorf("unmatch error: (actual, expected) = (%v, %v)", actual, then.err)
			}

			if then.sample == nil {
				if len(client.Calls.LogMetric) != 0 {
					t.Errorf("LogMetric should not be called: %+v", client.Calls.LogMetric)
				}
				return
			}

			if len(client.Calls.LogMetric) != 1 {
				t.Fatalf("LogMetric should be called once: %d", len(client.Calls.LogMetric))
			}
			logged := client.Calls.LogMetric[0]
			if logged.ExperimentId != when.args[submetric.ARG_EXPERIMENT_ID][0] {
				t.Errorf("unmatch id: %s", logged.ExperimentId)
			}
			if logged.Req.Key != then.sample.Key {
				t.Errorf("unmatch key: %s", logged.Req.Key)
			}
			if logged.Req.Value == nil || *logged.Req.Value != *then.sample.Value {
				t.Errorf("unmatch value: %v", logged.Req.Value)
			}
			if (logged.Req.Step == nil) != (then.sample.Step == nil) {
				t.Errorf("unmatch step: %v", logged.Req.Step)
			} else if logged.Req.Step != nil && *logged.Req.Step != *then.sample.Step {
				t.Errorf("unmatch step: %d", *logged.Req.Step)
			}
		}
	}

	value := func(v float64) *float64 { return &v }
	step := func(s int) *int { return &s }

	t.Run("it logs a sample without step", theory(
		When{
			args: map[string][]string{
				submetric.ARG_EXPERIMENT_ID: {"exp_20260205_100000"},
				submetric.ARG_KEY:           {"loss"},
				submetric.ARG_VALUE:         {"0.5"},
			},
		},
		Then{
			sample: &apiexp.LogMetricRequest{Key: "loss", Value: value(0.5)},
		},
	))

	t.Run("it logs a sample with step", theory(
		When{
			flag: submetric.Flag{Step: "10"},
			args: map[string][]string{
				submetric.ARG_EXPERIMENT_ID: {"exp_20260205_100000"},
				submetric.ARG_KEY:           {"loss"},
				submetric.ARG_VALUE:         {"0.25"},
			},
		},
		Then{
			sample: &apiexp.LogMetricRequest{Key: "loss", Value: value(0.25), Step: step(10)},
		},
	))

	t.Run("it rejects a non-numeric value", theory(
		When{
			args: map[string][]string{
				submetric.ARG_EXPERIMENT_ID: {"exp_20260205_100000"},
				submetric.ARG_KEY:           {"loss"},
				submetric.ARG_VALUE:         {"half"},
			},
		},
		Then{err: flarc.ErrUsage},
	))

	t.Run("it rejects a non-integer step", theory(
		When{
			flag: submetric.Flag{Step: "first"},
			args: map[string][]string{
				submetric.ARG_EXPERIMENT_ID: {"exp_20260205_100000"},
				submetric.ARG_KEY:           {"loss"},
				submetric.ARG_VALUE:         {"0.5"},
			},
		},
		Then{err: flarc.ErrUsage},
	))

	t.Run("it relays the client error", func(t *testing.T) {
		expectedError := errors.New("fake error")
		theory(
			When{
				args: map[string][]string{
					submetric.ARG_EXPERIMENT_ID: {"exp_20260205_100000"},
					submetric.ARG_KEY:           {"loss"},
					submetric.ARG_VALUE:         {"0.5"},
				},
				err: expectedError,
			},
			Then{
				err:    expectedError,
				sample: &apiexp.LogMetricRequest{Key: "loss", Value: value(0.5)},
			},
		)(t)
	})
}
