package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	kpool "github.com/mlopslab/mlreg/pkg/conn/db/postgres/pool"
	"github.com/mlopslab/mlreg/pkg/domain"
	kdb "github.com/mlopslab/mlreg/pkg/domain/experiment/db"
	domerr "github.com/mlopslab/mlreg/pkg/domain/errors"
	"github.com/mlopslab/mlreg/pkg/domain/errors/dberrors"
)

type experimentStore struct {
	pool kpool.Pool
}

var _ kdb.Interface = &experimentStore{}

func newExperimentStore(pool kpool.Pool) kdb.Interface {
	return &experimentStore{pool: pool}
}

func (m *experimentStore) Save(ctx context.Context, rec domain.ExperimentRecord) (string, error) {
	experimentId := rec.ExperimentId
	if experimentId == "" {
		experimentId = domain.NewExperimentId(time.Now())
	}

	var exists bool
	if err := m.pool.QueryRow(
		ctx, `select exists (select 1 from "experiments" where "experiment_id" = $1)`, experimentId,
	).Scan(&exists); err != nil {
		return "", err
	}

	if exists {
		return experimentId, m.update(ctx, experimentId, rec)
	}

	err := m.insert(ctx, experimentId, rec)
	if isUniqueViolation(err) {
		// lost the race against a concurrent creation of the same id.
		// that creation settled the immutable fields; ours becomes an update.
		return experimentId, m.update(ctx, experimentId, rec)
	}
	return experimentId, err
}

func (m *experimentStore) insert(ctx context.Context, experimentId string, rec domain.ExperimentRecord) error {
	if rec.ExperimentName == "" {
		return domerr.ErrNameRequired
	}

	status := rec.Status
	if status == "" {
		status = domain.Running
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(
		ctx,
		`
		insert into "experiments"
		("experiment_id", "experiment_name", "function_name", "module", "status", "start_time")
		values ($1, $2, $3, $4, $5, $6)
		`,
		experimentId, rec.ExperimentName,
		nullIfEmpty(rec.FunctionName), nullIfEmpty(rec.Module),
		string(status), rec.StartTime,
	); err != nil {
		return err
	}

	keys := make([]string, 0, len(rec.Parameters))
	for key := range rec.Parameters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := tx.Exec(
			ctx,
			`insert into "parameters" ("experiment_id", "key", "value") values ($1, $2, $3)`,
			experimentId, key, string(rec.Parameters[key]),
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (m *experimentStore) update(ctx context.Context, experimentId string, rec domain.ExperimentRecord) error {
	status := rec.Status
	if status == "" {
		status = domain.Running
	}

	// single statement: atomic without an explicit transaction.
	_, err := m.pool.Exec(
		ctx,
		`
		update "experiments"
		set "status" = $1, "end_time" = $2, "duration" = $3, "result" = $4, "error" = $5
		where "experiment_id" = $6
		`,
		string(status), rec.EndTime, rec.Duration, rec.Result, rec.Error,
		experimentId,
	)
	return err
}

func (m *experimentStore) Get(ctx context.Context, experimentId string) (domain.Experiment, error) {
	var (
		body                 domain.ExperimentBody
		functionName, module pgtype.Text
		status               string
		startTime, endTime   pgtype.Timestamptz
		duration             pgtype.Float8
		result, experr       pgtype.Text
	)

	if err := m.pool.QueryRow(
		ctx,
		`
		select
			"experiment_id", "experiment_name", "function_name", "module",
			"status", "start_time", "end_time", "duration", "result", "error",
			"created_at"
		from "experiments" where "experiment_id" = $1
		`,
		experimentId,
	).Scan(
		&body.ExperimentId, &body.ExperimentName, &functionName, &module,
		&status, &startTime, &endTime, &duration, &result, &experr,
		&body.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Experiment{}, dberrors.Missing{
				Table: "experiments", Identity: experimentId,
			}
		}
		return domain.Experiment{}, err
	}

	body.FunctionName = textOrEmpty(functionName)
	body.Module = textOrEmpty(module)
	body.Status = domain.ExperimentStatus(status)
	body.StartTime = timeOrNil(startTime)
	body.EndTime = timeOrNil(endTime)
	if duration.Status == pgtype.Present {
		d := duration.Float
		body.Duration = &d
	}
	if result.Status == pgtype.Present {
		r := result.String
		body.Result = &r
	}
	if experr.Status == pgtype.Present {
		e := experr.String
		body.Error = &e
	}

	parameters, err := m.getParameters(ctx, experimentId)
	if err != nil {
		return domain.Experiment{}, err
	}

	metrics, err := m.getMetrics(ctx, experimentId)
	if err != nil {
		return domain.Experiment{}, err
	}

	return domain.Experiment{
		ExperimentBody: body,
		Parameters:     parameters,
		Metrics:        metrics,
	}, nil
}

func (m *experimentStore) getParameters(ctx context.Context, experimentId string) (map[string]json.RawMessage, error) {
	rows, err := m.pool.Query(
		ctx,
		`select "key", "value" from "parameters" where "experiment_id" = $1 order by "id"`,
		experimentId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parameters := map[string]json.RawMessage{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		parameters[key] = json.RawMessage(value)
	}
	return parameters, rows.Err()
}

func (m *experimentStore) getMetrics(ctx context.Context, experimentId string) ([]domain.Metric, error) {
	rows, err := m.pool.Query(
		ctx,
		`select "key", "value", "step", "timestamp" from "metrics" where "experiment_id" = $1 order by "id"`,
		experimentId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := []domain.Metric{}
	for rows.Next() {
		var (
			metric domain.Metric
			step   pgtype.Int4
		)
		if err := rows.Scan(&metric.Key, &metric.Value, &step, &metric.Timestamp); err != nil {
			return nil, err
		}
		if step.Status == pgtype.Present {
			s := int(step.Int)
			metric.Step = &s
		}
		metrics = append(metrics, metric)
	}
	return metrics, rows.Err()
}

func (m *experimentStore) Find(ctx context.Context, limit int) ([]domain.ExperimentSummary, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := m.pool.Query(
		ctx,
		`
		select "experiment_id", "experiment_name", "status", "start_time", "duration", "created_at"
		from "experiments"
		order by "created_at" desc, "id" desc
		limit $1
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []domain.ExperimentSummary{}
	for rows.Next() {
		var (
			summary   domain.ExperimentSummary
			status    string
			startTime pgtype.Timestamptz
			duration  pgtype.Float8
		)
		if err := rows.Scan(
			&summary.ExperimentId, &summary.ExperimentName, &status,
			&startTime, &duration, &summary.CreatedAt,
		); err != nil {
			return nil, err
		}
		summary.Status = domain.ExperimentStatus(status)
		summary.StartTime = timeOrNil(startTime)
		if duration.Status == pgtype.Present {
			d := duration.Float
			summary.Duration = &d
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (m *experimentStore) AppendMetric(
	ctx context.Context, experimentId string, key string, value float64, step *int,
) error {
	_, err := m.pool.Exec(
		ctx,
		`insert into "metrics" ("experiment_id", "key", "value", "step") values ($1, $2, $3, $4)`,
		experimentId, key, value, step,
	)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func textOrEmpty(t pgtype.Text) string {
	if t.Status != pgtype.Present {
		return ""
	}
	return t.String
}

func timeOrNil(t pgtype.Timestamptz) *time.Time {
	if t.Status != pgtype.Present {
		return nil
	}
	instant := t.Time
	return &instant
}
