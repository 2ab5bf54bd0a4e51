package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mlopslab/mlreg/pkg/domain"
	kdb "github.com/mlopslab/mlreg/pkg/domain/experiment/db"
	domerr "github.com/mlopslab/mlreg/pkg/domain/errors"
	"github.com/mlopslab/mlreg/pkg/domain/errors/dberrors"
)

// timestamps are stored as fixed-width UTC text, so that lexicographic
// order in SQL equals chronological order.
const timestampFormat = "2006-01-02 15:04:05.000000000"

const schema = `
create table if not exists "experiments" (
	"id" integer primary key autoincrement,
	"experiment_id" text unique,
	"experiment_name" text not null,
	"function_name" text,
	"module" text,
	"status" text default 'running',
	"start_time" text,
	"end_time" text,
	"duration" real,
	"result" text,
	"error" text,
	"created_at" text not null
);

create table if not exists "parameters" (
	"id" integer primary key autoincrement,
	"experiment_id" text,
	"key" text not null,
	"value" text not null,
	foreign key ("experiment_id") references "experiments"("experiment_id")
);

create table if not exists "metrics" (
	"id" integer primary key autoincrement,
	"experiment_id" text,
	"key" text not null,
	"value" real not null,
	"step" integer,
	"timestamp" text not null,
	foreign key ("experiment_id") references "experiments"("experiment_id")
);
`

type expDB struct {
	db *sql.DB
}

var (
	_ kdb.Interface = &expDB{}
	_ kdb.Database  = &expDB{}
)

// New opens (and initializes, if needed) an embedded experiment store at
// path.
func New(path string) (kdb.Database, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite has a single writer. One connection serializes each
	// existence-check + write pair of Save against concurrent callers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &expDB{db: db}, nil
}

func (m *expDB) Experiments() kdb.Interface {
	return m
}

func (m *expDB) Close() error {
	return m.db.Close()
}

func (m *expDB) Save(ctx context.Context, rec domain.ExperimentRecord) (string, error) {
	experimentId := rec.ExperimentId
	if experimentId == "" {
		experimentId = domain.NewExperimentId(time.Now())
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	status := rec.Status
	if status == "" {
		status = domain.Running
	}

	var rowid int64
	err = tx.QueryRowContext(
		ctx, `select "id" from "experiments" where "experiment_id" = ?`, experimentId,
	).Scan(&rowid)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if rec.ExperimentName == "" {
			return "", domerr.ErrNameRequired
		}

		if _, err := tx.ExecContext(
			ctx,
			`
			insert into "experiments"
			("experiment_id", "experiment_name", "function_name", "module", "status", "start_time", "created_at")
			values (?, ?, ?, ?, ?, ?, ?)
			`,
			experimentId, rec.ExperimentName,
			nullIfEmpty(rec.FunctionName), nullIfEmpty(rec.Module),
			string(status), formatTime(rec.StartTime),
			time.Now().UTC().Format(timestampFormat),
		); err != nil {
			return "", err
		}

		// parameters are captured here, once. Updates never touch them.
		keys := make([]string, 0, len(rec.Parameters))
		for key := range rec.Parameters {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, err := tx.ExecContext(
				ctx,
				`insert into "parameters" ("experiment_id", "key", "value") values (?, ?, ?)`,
				experimentId, key, string(rec.Parameters[key]),
			); err != nil {
				return "", err
			}
		}

	case err != nil:
		return "", err

	default:
		if _, err := tx.ExecContext(
			ctx,
			`
			update "experiments"
			set "status" = ?, "end_time" = ?, "duration" = ?, "result" = ?, "error" = ?
			where "experiment_id" = ?
			`,
			string(status), formatTime(rec.EndTime),
			rec.Duration, rec.Result, rec.Error,
			experimentId,
		); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return experimentId, nil
}

func (m *expDB) Get(ctx context.Context, experimentId string) (domain.Experiment, error) {
	var (
		body                 domain.ExperimentBody
		functionName, module sql.NullString
		status               string
		startTime, endTime   sql.NullString
		duration             sql.NullFloat64
		result, experr       sql.NullString
		createdAt            string
	)

	if err := m.db.QueryRowContext(
		ctx,
		`
		select
			"experiment_id", "experiment_name", "function_name", "module",
			"status", "start_time", "end_time", "duration", "result", "error",
			"created_at"
		from "experiments" where "experiment_id" = ?
		`,
		experimentId,
	).Scan(
		&body.ExperimentId, &body.ExperimentName, &functionName, &module,
		&status, &startTime, &endTime, &duration, &result, &experr,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Experiment{}, dberrors.Missing{
				Table: "experiments", Identity: experimentId,
			}
		}
		return domain.Experiment{}, err
	}

	body.FunctionName = functionName.String
	body.Module = module.String
	body.Status = domain.ExperimentStatus(status)
	if s, err := parseTime(startTime); err != nil {
		return domain.Experiment{}, err
	} else {
		body.StartTime = s
	}
	if e, err := parseTime(endTime); err != nil {
		return domain.Experiment{}, err
	} else {
		body.EndTime = e
	}
	if duration.Valid {
		body.Duration = &duration.Float64
	}
	if result.Valid {
		body.Result = &result.String
	}
	if experr.Valid {
		body.Error = &experr.String
	}
	if c, err := time.ParseInLocation(timestampFormat, createdAt, time.UTC); err != nil {
		return domain.Experiment{}, err
	} else {
		body.CreatedAt = c
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

func (m *expDB) getParameters(ctx context.Context, experimentId string) (map[string]json.RawMessage, error) {
	rows, err := m.db.QueryContext(
		ctx,
		`select "key", "value" from "parameters" where "experiment_id" = ? order by "id"`,
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

func (m *expDB) getMetrics(ctx context.Context, experimentId string) ([]domain.Metric, error) {
	rows, err := m.db.QueryContext(
		ctx,
		`select "key", "value", "step", "timestamp" from "metrics" where "experiment_id" = ? order by "id"`,
		experimentId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := []domain.Metric{}
	for rows.Next() {
		var (
			metric    domain.Metric
			step      sql.NullInt64
			timestamp string
		)
		if err := rows.Scan(&metric.Key, &metric.Value, &step, &timestamp); err != nil {
			return nil, err
		}
		if step.Valid {
			s := int(step.Int64)
			metric.Step = &s
		}
		ts, err := time.ParseInLocation(timestampFormat, timestamp, time.UTC)
		if err != nil {
			return nil, err
		}
		metric.Timestamp = ts
		metrics = append(metrics, metric)
	}
	return metrics, rows.Err()
}

func (m *expDB) Find(ctx context.Context, limit int) ([]domain.ExperimentSummary, error) {
	if limit < 0 {
		// negative LIMIT means unbounded in sqlite. not here.
		limit = 0
	}
	rows, err := m.db.QueryContext(
		ctx,
		`
		select "experiment_id", "experiment_name", "status", "start_time", "duration", "created_at"
		from "experiments"
		order by "created_at" desc, "id" desc
		limit ?
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
			startTime sql.NullString
			duration  sql.NullFloat64
			createdAt string
		)
		if err := rows.Scan(
			&summary.ExperimentId, &summary.ExperimentName, &status,
			&startTime, &duration, &createdAt,
		); err != nil {
			return nil, err
		}
		summary.Status = domain.ExperimentStatus(status)
		if s, err := parseTime(startTime); err != nil {
			return nil, err
		} else {
			summary.StartTime = s
		}
		if duration.Valid {
			summary.Duration = &duration.Float64
		}
		if c, err := time.ParseInLocation(timestampFormat, createdAt, time.UTC); err != nil {
			return nil, err
		} else {
			summary.CreatedAt = c
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (m *expDB) AppendMetric(
	ctx context.Context, experimentId string, key string, value float64, step *int,
) error {
	// no existence check of the experiment: orphan samples are accepted.
	_, err := m.db.ExecContext(
		ctx,
		`insert into "metrics" ("experiment_id", "key", "value", "step", "timestamp") values (?, ?, ?, ?, ?)`,
		experimentId, key, value, step,
		time.Now().UTC().Format(timestampFormat),
	)
	return err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timestampFormat)
	return &s
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.ParseInLocation(timestampFormat, s.String, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
