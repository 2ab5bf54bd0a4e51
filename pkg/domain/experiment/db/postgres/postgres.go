package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	kpool "github.com/mlopslab/mlreg/pkg/conn/db/postgres/pool"
	kdb "github.com/mlopslab/mlreg/pkg/domain/experiment/db"
)

const schema = `
create table if not exists "experiments" (
	"id" bigserial primary key,
	"experiment_id" varchar(255) unique,
	"experiment_name" varchar(255) not null,
	"function_name" varchar(255),
	"module" varchar(255),
	"status" varchar(50) default 'running',
	"start_time" timestamptz,
	"end_time" timestamptz,
	"duration" double precision,
	"result" text,
	"error" text,
	"created_at" timestamptz not null default now()
);

create table if not exists "parameters" (
	"id" bigserial primary key,
	"experiment_id" varchar(255) references "experiments"("experiment_id"),
	"key" varchar(255) not null,
	"value" text not null
);

-- metrics carry no foreign key: orphan samples are accepted.
create table if not exists "metrics" (
	"id" bigserial primary key,
	"experiment_id" varchar(255),
	"key" varchar(255) not null,
	"value" double precision not null,
	"step" integer,
	"timestamp" timestamptz not null default now()
);
`

type expDatabase struct {
	pool kpool.Pool
	exp  kdb.Interface
}

// New connects to postgres at url and initializes the experiment schema.
func New(ctx context.Context, url string) (kdb.Database, error) {
	rawpool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	pool := kpool.Wrap(rawpool)
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &expDatabase{
		pool: pool,
		exp:  newExperimentStore(pool),
	}, nil
}

func (d *expDatabase) Experiments() kdb.Interface {
	return d.exp
}

func (d *expDatabase) Close() error {
	d.pool.Close()
	return nil
}
