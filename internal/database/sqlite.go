package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a SQLite database file. SQLite serialises writers, so the
// pool is limited to a single connection to avoid SQLITE_BUSY under load.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return db, nil
}

// SQLiteSchema mirrors PostgresSchema. Dates and timestamps are TEXT so the
// driver hands back exactly what was written.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	reference_id TEXT NOT NULL UNIQUE,
	department TEXT NOT NULL,
	job_role TEXT NOT NULL,
	branch_location TEXT NOT NULL,
	employment_type TEXT NOT NULL,
	location TEXT NOT NULL,
	expected_salary INTEGER NOT NULL,
	interview_date TEXT NOT NULL,
	joining_date TEXT NOT NULL,
	full_name TEXT NOT NULL,
	father_name TEXT NOT NULL,
	dob TEXT NOT NULL,
	permanent_address TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	mobile_number TEXT NOT NULL UNIQUE,
	ssc_year INTEGER NOT NULL,
	ssc_percentage REAL NOT NULL,
	ssc_doc TEXT NOT NULL,
	intermediate_year INTEGER NOT NULL,
	intermediate_percentage REAL NOT NULL,
	intermediate_doc TEXT NOT NULL,
	graduation_year INTEGER NOT NULL,
	graduation_percentage REAL NOT NULL,
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
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_created_at ON applications(created_at DESC, id DESC);`

// EnsureSQLiteSchema creates the applications table if needed.
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return nil
}
