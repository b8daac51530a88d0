// Package database opens the relational stores backing the application
// repository and creates the applications table when it is missing.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMaxConns is used when the caller passes a non-positive limit.
const DefaultMaxConns = 8

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	cfg.MaxConns = maxConns
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// PostgresSchema is the applications table. Constraint names are referenced
// by the repository when it maps unique violations to conflicts.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id BIGSERIAL PRIMARY KEY,
	reference_id TEXT NOT NULL,
	department TEXT NOT NULL,
	job_role TEXT NOT NULL,
	branch_location TEXT NOT NULL,
	employment_type TEXT NOT NULL,
	location TEXT NOT NULL,
	expected_salary BIGINT NOT NULL,
	interview_date DATE NOT NULL,
	joining_date DATE NOT NULL,
	full_name TEXT NOT NULL,
	father_name TEXT NOT NULL,
	dob DATE NOT NULL,
	permanent_address TEXT NOT NULL,
	email TEXT NOT NULL,
	mobile_number TEXT NOT NULL,
	ssc_year INTEGER NOT NULL,
	ssc_percentage NUMERIC(5,2) NOT NULL,
	ssc_doc TEXT NOT NULL,
	intermediate_year INTEGER NOT NULL,
	intermediate_percentage NUMERIC(5,2) NOT NULL,
	intermediate_doc TEXT NOT NULL,
	graduation_year INTEGER NOT NULL,
	graduation_percentage NUMERIC(5,2) NOT NULL,
	graduation_doc TEXT NOT NULL,
	college_name TEXT NOT NULL,
	register_number TEXT NOT NULL,
	additional_certification TEXT,
	additional_files TEXT,
	experience_status TEXT NOT NULL,
	years_of_experience INTEGER,
	previous_company TEXT,
	previous_job_role TEXT,
	status TEXT NOT NULL DEFAULT 'Pending',
	offer_letter TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT applications_reference_id_key UNIQUE (reference_id),
	CONSTRAINT applications_email_key UNIQUE (email),
	CONSTRAINT applications_mobile_number_key UNIQUE (mobile_number)
);
CREATE INDEX IF NOT EXISTS idx_applications_created_at ON applications(created_at DESC, id DESC);`

// EnsureSchema creates the applications table if needed. The table is never
// altered after creation.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
