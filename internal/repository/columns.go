package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dharsanguruparan/OfferDesk/internal/model"
)

// insertColumns is every column except id, in insert order.
var insertColumns = []string{
	"reference_id",
	"department", "job_role", "branch_location", "employment_type", "location",
	"expected_salary", "interview_date", "joining_date",
	"full_name", "father_name", "dob", "permanent_address", "email", "mobile_number",
	"ssc_year", "ssc_percentage", "ssc_doc",
	"intermediate_year", "intermediate_percentage", "intermediate_doc",
	"graduation_year", "graduation_percentage", "graduation_doc",
	"college_name", "register_number",
	"additional_certification", "additional_files",
	"experience_status", "years_of_experience", "previous_company", "previous_job_role",
	"status", "offer_letter",
	"created_at", "updated_at",
}

var selectColumns = "id, " + joinColumns()

func joinColumns() string {
	return strings.Join(insertColumns, ", ")
}

// placeholders renders n bind markers. numbered selects $1..$n (Postgres)
// instead of ? (SQLite).
func placeholders(n int, numbered bool) string {
	parts := make([]string, n)
	for i := range parts {
		if numbered {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// encoder adapts dates and timestamps to what a driver stores.
type encoder struct {
	date func(model.Date) any
	time func(time.Time) any
}

func (e encoder) args(app *model.Application) []any {
	var years any
	if app.YearsOfExperience != nil {
		years = int64(*app.YearsOfExperience)
	}
	var offer any
	if app.OfferLetter != nil {
		offer = *app.OfferLetter
	}
	return []any{
		app.ReferenceID,
		app.Department, app.JobRole, app.BranchLocation, app.EmploymentType, app.Location,
		app.ExpectedSalary, e.date(app.InterviewDate), e.date(app.JoiningDate),
		app.FullName, app.FatherName, e.date(app.DOB), app.PermanentAddress, app.Email, app.MobileNumber,
		app.SSCYear, app.SSCPercentage, app.SSCDoc,
		app.IntermediateYear, app.IntermediatePercentage, app.IntermediateDoc,
		app.GraduationYear, app.GraduationPercentage, app.GraduationDoc,
		app.CollegeName, app.RegisterNumber,
		nullable(app.AdditionalCertification), nullable(app.AdditionalFiles),
		app.ExperienceStatus, years, nullable(app.PreviousCompany), nullable(app.PreviousJobRole),
		string(app.Status), offer,
		e.time(app.CreatedAt), e.time(app.UpdatedAt),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanApplication reads one row selected with selectColumns.
func scanApplication(row rowScanner) (*model.Application, error) {
	var (
		app             model.Application
		additionalCert  sql.NullString
		additionalFiles sql.NullString
		years           sql.NullInt64
		prevCompany     sql.NullString
		prevRole        sql.NullString
		status          string
		offer           sql.NullString
		created         timestamp
		updated         timestamp
	)
	err := row.Scan(
		&app.ID, &app.ReferenceID,
		&app.Department, &app.JobRole, &app.BranchLocation, &app.EmploymentType, &app.Location,
		&app.ExpectedSalary, &app.InterviewDate, &app.JoiningDate,
		&app.FullName, &app.FatherName, &app.DOB, &app.PermanentAddress, &app.Email, &app.MobileNumber,
		&app.SSCYear, &app.SSCPercentage, &app.SSCDoc,
		&app.IntermediateYear, &app.IntermediatePercentage, &app.IntermediateDoc,
		&app.GraduationYear, &app.GraduationPercentage, &app.GraduationDoc,
		&app.CollegeName, &app.RegisterNumber,
		&additionalCert, &additionalFiles,
		&app.ExperienceStatus, &years, &prevCompany, &prevRole,
		&status, &offer,
		&created, &updated,
	)
	if err != nil {
		return nil, err
	}
	app.AdditionalCertification = additionalCert.String
	app.AdditionalFiles = additionalFiles.String
	if years.Valid {
		y := int(years.Int64)
		app.YearsOfExperience = &y
	}
	app.PreviousCompany = prevCompany.String
	app.PreviousJobRole = prevRole.String
	app.Status = model.Status(status)
	if offer.Valid {
		name := offer.String
		app.OfferLetter = &name
	}
	app.CreatedAt = created.Time
	app.UpdatedAt = updated.Time
	return &app, nil
}

// textTimeLayout is fixed width so lexical order matches time order.
const textTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestamp scans both native timestamps and the TEXT form SQLite stores.
type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	parsed, err := time.Parse(textTimeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("scan timestamp: %w", err)
		}
	}
	t.Time = parsed.UTC()
	return nil
}
