// Package repository persists applications. Three backends share one
// contract: Postgres for production, SQLite for a single node and an
// in-memory map for tests and demo mode.
package repository

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
	"github.com/dharsanguruparan/OfferDesk/internal/model"
)

// Repository is the persistence contract used by the HTTP layer.
type Repository interface {
	// EnsureUnique returns a Conflict naming the first field already taken.
	EnsureUnique(ctx context.Context, email, mobile string) error
	// Create assigns id, reference code, Pending status and timestamps.
	Create(ctx context.Context, app *model.Application) error
	// List returns every application, newest first.
	List(ctx context.Context) ([]model.Application, error)
	Get(ctx context.Context, id int64) (*model.Application, error)
	UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.Application, error)
	AttachOfferLetter(ctx context.Context, id int64, storedName string) (*model.Application, error)
	// OfferLetter returns the stored name of the letter for an approved
	// application. Every other outcome is NotFound.
	OfferLetter(ctx context.Context, referenceID, email string) (string, error)
}

// Conflict fields.
const (
	FieldEmail       = "email"
	FieldMobile      = "mobile_number"
	fieldReferenceID = "reference_id"
)

const (
	referencePrefix   = "REF-"
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 8
	// maxReferenceAttempts bounds retries after a reference code collision.
	maxReferenceAttempts = 5
)

// NewReference returns REF- followed by eight characters from [A-Z0-9].
func NewReference() (string, error) {
	out := make([]byte, 0, len(referencePrefix)+referenceLength)
	out = append(out, referencePrefix...)
	buf := make([]byte, referenceLength)
	for len(out) < cap(out) {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// Bytes >= 252 are skipped so every character is equally likely.
			if int(b) >= 256-256%len(referenceAlphabet) {
				continue
			}
			out = append(out, referenceAlphabet[int(b)%len(referenceAlphabet)])
			if len(out) == cap(out) {
				break
			}
		}
	}
	return string(out), nil
}

func conflictFor(field string, cause error) error {
	switch field {
	case FieldEmail:
		return apperror.Conflict(FieldEmail, "Email already registered", cause)
	case FieldMobile:
		return apperror.Conflict(FieldMobile, "Mobile number already registered", cause)
	default:
		return apperror.Conflict(field, "duplicate "+field, cause)
	}
}

func notFound() error {
	return apperror.NotFound("application not found")
}

func invalidStatus(status model.Status) error {
	return apperror.InvalidArgument("invalid status " + string(status) + ": must be Pending, Approved or Rejected")
}

// now truncates to microseconds, the resolution Postgres keeps, so a record
// read back compares equal to the one that was written.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
