package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
	"github.com/dharsanguruparan/OfferDesk/internal/model"
)

var sqliteEncoder = encoder{
	date: func(d model.Date) any { return d.String() },
	time: func(t time.Time) any { return t.UTC().Format(textTimeLayout) },
}

// SQLiteRepository stores applications in a SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLite constructs a repository over an open database.
func NewSQLite(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EnsureUnique checks email first, then mobile number.
func (r *SQLiteRepository) EnsureUnique(ctx context.Context, email, mobile string) error {
	checks := []struct{ field, column, value string }{
		{FieldEmail, "email", email},
		{FieldMobile, "mobile_number", mobile},
	}
	for _, c := range checks {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM applications WHERE `+c.column+` = ?)`, c.value,
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

// Create inserts a Pending application.
func (r *SQLiteRepository) Create(ctx context.Context, app *model.Application) error {
	query := `INSERT INTO applications (` + joinColumns() + `)
		VALUES (` + placeholders(len(insertColumns), false) + `)`
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

		res, err := r.db.ExecContext(ctx, query, sqliteEncoder.args(app)...)
		if err == nil {
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("read application id: %w", err)
			}
			app.ID = id
			return nil
		}
		field, ok := sqliteUniqueField(err)
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
func (r *SQLiteRepository) List(ctx context.Context) ([]model.Application, error) {
	rows, err := r.db.QueryContext(ctx,
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
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*model.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("select application: %w", err)
	}
	return app, nil
}

// UpdateStatus sets the status.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.Application, error) {
	if !status.Valid() {
		return nil, invalidStatus(status)
	}
	return r.update(ctx, id, `UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`, string(status))
}

// AttachOfferLetter records storedName as the application's offer letter.
func (r *SQLiteRepository) AttachOfferLetter(ctx context.Context, id int64, storedName string) (*model.Application, error) {
	return r.update(ctx, id, `UPDATE applications SET offer_letter = ?, updated_at = ? WHERE id = ?`, storedName)
}

func (r *SQLiteRepository) update(ctx context.Context, id int64, query, value string) (*model.Application, error) {
	res, err := r.db.ExecContext(ctx, query, value, sqliteEncoder.time(now()), id)
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	if n == 0 {
		return nil, notFound()
	}
	return r.Get(ctx, id)
}

// OfferLetter looks up the letter by reference code and email.
func (r *SQLiteRepository) OfferLetter(ctx context.Context, referenceID, email string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `
		SELECT offer_letter FROM applications
		WHERE reference_id = ? AND email = ? AND status = ? AND offer_letter IS NOT NULL`,
		referenceID, email, string(model.StatusApproved),
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperror.NotFound("offer letter not found")
		}
		return "", fmt.Errorf("select offer letter: %w", err)
	}
	return name, nil
}

// sqliteUniqueField maps "UNIQUE constraint failed: applications.<col>" to a
// conflict field.
func sqliteUniqueField(err error) (string, bool) {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) || sqlErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return "", false
	}
	msg := sqlErr.Error()
	for _, field := range []string{FieldEmail, FieldMobile, fieldReferenceID} {
		if strings.Contains(msg, "applications."+field) {
			return field, true
		}
	}
	return "", false
}
