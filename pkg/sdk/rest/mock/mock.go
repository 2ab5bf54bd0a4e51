package mock

import (
	"context"
	"testing"

	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
	"github.com/mlopslab/mlreg/pkg/sdk/rest"
)

type LogMetricArgs struct {
	ExperimentId string
	Req          apiexp.LogMetricRequest
}

func New(t *testing.T) *mockClient {
	return &mockClient{t: t}
}

type mockClient struct {
	t    *testing.T
	Impl struct {
		Track           func(ctx context.Context, req apiexp.TrackRequest) (apiexp.TrackResponse, error)
		GetExperiment   func(ctx context.Context, experimentId string) (apiexp.Detail, error)
		FindExperiments func(ctx context.Context, limit int) (apiexp.ListResponse, error)
		LogMetric       func(ctx context.Context, experimentId string, req apiexp.LogMetricRequest) (apiexp.LogMetricResponse, error)
		Health          func(ctx context.Context) (apiexp.Health, error)
	}
	Calls struct {
		Track           []apiexp.TrackRequest
		GetExperiment   []string
		FindExperiments []int
		LogMetric       []LogMetricArgs
		Health          []struct{}
	}
}

var _ rest.Client = &mockClient{}

func (m *mockClient) Track(ctx context.Context, req apiexp.TrackRequest) (apiexp.TrackResponse, error) {
	m.t.Helper()

	m.Calls.Track = append(m.Calls.Track, req)
	if m.Impl.Track == nil {
		m.t.Fatal("Track is not ready to be called")
	}
	return m.Impl.Track(ctx, req)
}

func (m *mockClient) GetExperiment(ctx context.Context, experimentId string) (apiexp.Detail, error) {
	m.t.Helper()

	m.Calls.GetExperiment = append(m.Calls.GetExperiment, experimentId)
	if m.Impl.GetExperiment == nil {
		m.t.Fatal("GetExperiment is not ready to be called")
	}
	return m.Impl.GetExperiment(ctx, experimentId)
}

func (m *mockClient) FindExperiments(ctx context.Context, limit int) (apiexp.ListResponse, error) {
	m.t.Helper()

	m.Calls.FindExperiments = append(m.Calls.FindExperiments, limit)
	if m.Impl.FindExperiments == nil {
		m.t.Fatal("FindExperiments is not ready to be called")
	}
	return m.Impl.FindExperiments(ctx, limit)
}

func (m *mockClient) LogMetric(
	ctx context.Context, experimentId string, req apiexp.LogMetricRequest,
) (apiexp.LogMetricResponse, error) {
	m.t.Helper()

	m.Calls.LogMetric = append(m.Calls.LogMetric, LogMetricArgs{
		ExperimentId: experimentId, Req: req,
	})
	if m.Impl.LogMetric == nil {
		m.t.Fatal("LogMetric is not ready to be called")
	}
	return m.Impl.LogMetric(ctx, experimentId, req)
}

func (m *mockClient) Health(ctx context.Context) (apiexp.Health, error) {
	m.t.Helper()

	m.Calls.Health = append(m.Calls.Health, struct{}{})
	if m.Impl.Health == nil {
		m.t.Fatal("Health is not ready to be called")
	}
	return m.Impl.Health(ctx)
}
