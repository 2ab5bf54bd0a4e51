package mock

import (
	"context"
	"errors"

	"github.com/mlopslab/mlreg/pkg/domain"
	kdb "github.com/mlopslab/mlreg/pkg/domain/experiment/db"
	dbmock "github.com/mlopslab/mlreg/pkg/domain/internal/db/mock"
)

type ExperimentInterface struct {
	Impl struct {
		Save         func(ctx context.Context, rec domain.ExperimentRecord) (string, error)
		Get          func(ctx context.Context, experimentId string) (domain.Experiment, error)
		Find         func(ctx context.Context, limit int) ([]domain.ExperimentSummary, error)
		AppendMetric func(ctx context.Context, experimentId string, key string, value float64, step *int) error
	}

	Calls struct {
		Save         dbmock.CallLog[domain.ExperimentRecord]
		Get          dbmock.CallLog[string]
		Find         dbmock.CallLog[int]
		AppendMetric dbmock.CallLog[struct {
			ExperimentId string
			Key          string
			Value        float64
			Step         *int
		}]
	}
}

func NewExperimentInterface() *ExperimentInterface {
	return &ExperimentInterface{}
}

var _ kdb.Interface = &ExperimentInterface{}

func (m *ExperimentInterface) Save(ctx context.Context, rec domain.ExperimentRecord) (string, error) {
	m.Calls.Save = append(m.Calls.Save, rec)
	if m.Impl.Save != nil {
		return m.Impl.Save(ctx, rec)
	}

	panic(errors.New("it should not be called"))
}

func (m *ExperimentInterface) Get(ctx context.Context, experimentId string) (domain.Experiment, error) {
	m.Calls.Get = append(m.Calls.Get, experimentId)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, experimentId)
	}

	panic(errors.New("it should not be called"))
}

func (m *ExperimentInterface) Find(ctx context.Context, limit int) ([]domain.ExperimentSummary, error) {
	m.Calls.Find = append(m.Calls.Find, limit)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, limit)
	}

	panic(errors.New("it should not be called"))
}

func (m *ExperimentInterface) AppendMetric(ctx context.Context, experimentId string, key string, value float64, step *int) error {
	m.Calls.AppendMetric = append(m.Calls.AppendMetric, struct {
		ExperimentId string
		Key          string
		Value        float64
		Step         *int
	}{
		ExperimentId: experimentId,
		Key:          key,
		Value:        value,
		Step:         step,
	})
	if m.Impl.AppendMetric != nil {
		return m.Impl.AppendMetric(ctx, experimentId, key, value, step)
	}

	panic(errors.New("it should not be called"))
}
