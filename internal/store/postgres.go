package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/law-makers/immocrawl/pkg/models"
)

// DefaultTable receives records when no table name is configured
const DefaultTable = "property_records"

// PostgresSink inserts records into a Postgres table in batches. Like the CSV
// output it never deduplicates: every record becomes a new row.
type PostgresSink struct {
	pool      *pgxpool.Pool
	table     string
	batchSize int
	batch     *pgx.Batch
}

// PostgresOptions configures OpenPostgres
type PostgresOptions struct {
	DSN       string
	Table     string
	MaxConns  int
	BatchSize int
}

// OpenPostgres connects to the database and creates the table if needed
func OpenPostgres(ctx context.Context, opts PostgresOptions) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = 2
	}
	cfg.MaxConns = int32(opts.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := newPostgresSink(pool, opts.Table, opts.BatchSize)
	if _, err := pool.Exec(ctx, s.createTableSQL()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create table %s: %w", s.table, err)
	}
	return s, nil
}

func newPostgresSink(pool *pgxpool.Pool, table string, batchSize int) *PostgresSink {
	if table == "" {
		table = DefaultTable
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &PostgresSink{
		pool:      pool,
		table:     pgx.Identifier{table}.Sanitize(),
		batchSize: batchSize,
		batch:     &pgx.Batch{},
	}
}

func (s *PostgresSink) createTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		row_id          BIGSERIAL PRIMARY KEY,
		id              TEXT NOT NULL,
		url             TEXT NOT NULL,
		title           TEXT NOT NULL,
		price           TEXT NOT NULL,
		location        TEXT NOT NULL,
		type            TEXT NOT NULL,
		area            TEXT NOT NULL,
		rooms           TEXT NOT NULL,
		bedrooms        TEXT NOT NULL,
		bathrooms       TEXT NOT NULL,
		description     TEXT NOT NULL,
		property_state  TEXT NOT NULL,
		jardin          TEXT NOT NULL,
		piscine         TEXT NOT NULL,
		cuisine_equiped TEXT NOT NULL,
		quartier        TEXT NOT NULL,
		status          TEXT NOT NULL,
		scraped_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
}

func (s *PostgresSink) insertSQL() string {
	return `INSERT INTO ` + s.table + `
		(id, url, title, price, location, type, area, rooms, bedrooms, bathrooms,
		 description, property_state, jardin, piscine, cuisine_equiped, quartier, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
}

// Write queues rec and sends the batch once it is full
func (s *PostgresSink) Write(ctx context.Context, rec models.PropertyRecord) error {
	row := rec.Row()
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}
	s.batch.Queue(s.insertSQL(), args...)

	if s.batch.Len() >= s.batchSize {
		return s.send(ctx)
	}
	return nil
}

func (s *PostgresSink) send(ctx context.Context) error {
	if s.batch.Len() == 0 {
		return nil
	}
	n := s.batch.Len()
	br := s.pool.SendBatch(ctx, s.batch)
	s.batch = &pgx.Batch{}

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert into %s: %w", s.table, err)
		}
	}
	return br.Close()
}

// Close sends pending rows and closes the pool
func (s *PostgresSink) Close() error {
	if s.pool == nil {
		return nil
	}
	err := s.send(context.Background())
	s.pool.Close()
	s.pool = nil
	return err
}
