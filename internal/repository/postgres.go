package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
	"github.com/dharsanguruparan/OfferDesk/internal/model"
)

const pgUniqueViolation = "23505"

var pgConstraintFields = map[string]string{
	"applications_email_key":         FieldEmail,
	"applications_mobile_number_key": FieldMobile,
	"applications_reference_id_key":  fieldReferenceID,
}

var pgEncoder = encoder{
	date: func(d model.Date) any { return d.Time },
	time: func(t time.Time) any { return t },
}

// PostgresRepository wraps all SQL used by the API against Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a repository over an open pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureUnique checks email first, then mobile number.
func (r *PostgresRepository) EnsureUnique(ctx context.Context, email, mobile string) error {
	checks := []struct{ field, column, value string }{
		{FieldEmail, "email", email},
		{FieldMobile, "mobile_number", mobile},
	}
	for _, c := range checks {
		var exists bool
		err := r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM applications WHERE `+c.column+` = $1)`, c.value,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check %s: %w", c.column, err)
		}
		if exists {
			return conflictFor(c.field, nil)
		}
	}
	return nil
}

// Create inserts a Pending application. A reference code collision is
// retried with a new code; an email or mobile collision is a Conflict.
func (r *PostgresRepository) Create(ctx context.Context, app *model.Application) error {
	query := `INSERT INTO applications (` + joinColumns() + `)
		VALUES (` + placeholders(len(insertColumns), true) + `)
		RETURNING id`
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := NewReference()
		if err != nil {
			return fmt.Errorf("generate reference: %w", err)
		}
		ts := now()
		app.ReferenceID = ref
		app.Status = model.StatusPending
		app.OfferLetter = nil
		app.CreatedAt = ts
		app.UpdatedAt = ts

		err = r.pool.QueryRow(ctx, query, pgEncoder.args(app)...).Scan(&app.ID)
		if err == nil {
			return nil
		}
		field, ok := pgUniqueField(err)
		if !ok {
			return fmt.Errorf("insert application: %w", err)
		}
		if field == fieldReferenceID {
			continue
		}
		return conflictFor(field, err)
	}
	return fmt.Errorf("insert application: no free reference code after %d attempts", maxReferenceAttempts)
}

// List returns applications newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]model.Application, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM applications ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()
	apps := []model.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// Get returns an application by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*model.Application, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("select application: %w", err)
	}
	return app, nil
}

// UpdateStatus sets the status. Any of the three values may follow any other.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.Application, error) {
	if !status.Valid() {
		return nil, invalidStatus(status)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), now(), id)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFound()
	}
	return r.Get(ctx, id)
}

// AttachOfferLetter records storedName as the application's offer letter.
func (r *PostgresRepository) AttachOfferLetter(ctx context.Context, id int64, storedName string) (*model.Application, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE applications SET offer_letter = $1, updated_at = $2 WHERE id = $3`,
		storedName, now(), id)
	if err != nil {
		return nil, fmt.Errorf("attach offer letter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFound()
	}
	return r.Get(ctx, id)
}

// OfferLetter looks up the letter by reference code and email.
func (r *PostgresRepository) OfferLetter(ctx context.Context, referenceID, email string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `
		SELECT offer_letter FROM applications
		WHERE reference_id = $1 AND email = $2 AND status = $3 AND offer_letter IS NOT NULL`,
		referenceID, email, string(model.StatusApproved),
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperror.NotFound("offer letter not found")
		}
		return "", fmt.Errorf("select offer letter: %w", err)
	}
	return name, nil
}

func pgUniqueField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return "", false
	}
	field, ok := pgConstraintFields[pgErr.ConstraintName]
	return field, ok
}
