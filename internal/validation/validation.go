// Package validation checks raw application form fields.
//
// Validate is pure: it never touches storage and returns the same issues, in
// the same order, for the same input. Every rule runs; nothing short-circuits.
// The order is required fields, numeric ranges, patterns, then the
// experience-dependent requirements.
package validation

import (
	"strings"

	"github.com/dharsanguruparan/OfferDesk/internal/model"
)

// Form field names as submitted by the client.
const (
	FieldDepartment              = "department"
	FieldJobRole                 = "job_role"
	FieldBranchLocation          = "branch_location"
	FieldEmploymentType          = "employment_type"
	FieldLocation                = "location"
	FieldExpectedSalary          = "expected_salary"
	FieldInterviewDate           = "interview_date"
	FieldJoiningDate             = "joining_date"
	FieldFullName                = "full_name"
	FieldFatherName              = "father_name"
	FieldDOB                     = "dob"
	FieldPermanentAddress        = "permanent_address"
	FieldEmail                   = "email"
	FieldMobileNumber            = "mobile_number"
	FieldSSCYear                 = "ssc_year"
	FieldSSCPercentage           = "ssc_percentage"
	FieldIntermediateYear        = "intermediate_year"
	FieldIntermediatePercentage  = "intermediate_percentage"
	FieldGraduationYear          = "graduation_year"
	FieldGraduationPercentage    = "graduation_percentage"
	FieldCollegeName             = "college_name"
	FieldRegisterNumber          = "register_number"
	FieldAdditionalCertification = "additional_certification"
	FieldExperienceStatus        = "experience_status"
	FieldYearsOfExperience       = "years_of_experience"
	FieldPreviousCompany         = "previous_company"
	FieldPreviousJobRole         = "previous_job_role"
)

// Document fields carried as multipart files.
const (
	DocSSC          = "ssc_doc"
	DocIntermediate = "intermediate_doc"
	DocGraduation   = "graduation_doc"
	DocAdditional   = "additional_files"
	DocOfferLetter  = "offerLetter"
)

// RequiredDocuments must each carry exactly one PDF on submission.
var RequiredDocuments = []string{DocSSC, DocIntermediate, DocGraduation}

// Reason is a machine-readable cause attached to an Issue.
type Reason string

const (
	ReasonRequired     Reason = "required"
	ReasonNotNumeric   Reason = "not_numeric"
	ReasonBelowMinimum Reason = "below_minimum"
	ReasonOutOfRange   Reason = "out_of_range"
	ReasonPattern      Reason = "pattern"
	ReasonTooShort     Reason = "too_short"
	ReasonNotAllowed   Reason = "not_allowed"
)

// Issue is one failed rule.
type Issue struct {
	Field   string `json:"field"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// Fields maps submitted field names to their raw values.
type Fields map[string]string

// Get returns the trimmed value of key.
func (f Fields) Get(key string) string {
	return strings.TrimSpace(f[key])
}

type requirement struct {
	field string
	label string
}

var requiredFields = []requirement{
	{FieldDepartment, "Department"},
	{FieldJobRole, "Job role"},
	{FieldBranchLocation, "Branch location"},
	{FieldEmploymentType, "Employment type"},
	{FieldLocation, "Location"},
	{FieldExpectedSalary, "Expected salary"},
	{FieldInterviewDate, "Interview date"},
	{FieldJoiningDate, "Joining date"},
	{FieldFullName, "Full name"},
	{FieldFatherName, "Father's name"},
	{FieldDOB, "Date of birth"},
	{FieldPermanentAddress, "Permanent address"},
	{FieldEmail, "Email"},
	{FieldMobileNumber, "Mobile number"},
	{FieldSSCYear, "SSC year"},
	{FieldSSCPercentage, "SSC percentage"},
	{FieldIntermediateYear, "Intermediate year"},
	{FieldIntermediatePercentage, "Intermediate percentage"},
	{FieldGraduationYear, "Graduation year"},
	{FieldGraduationPercentage, "Graduation percentage"},
	{FieldCollegeName, "College name"},
	{FieldRegisterNumber, "Register number"},
	{FieldExperienceStatus, "Experience status"},
}

// Validate returns every issue found in f. An empty result means f is valid.
func Validate(f Fields) []Issue {
	var issues []Issue
	add := func(field string, reason Reason, msg string) {
		issues = append(issues, Issue{Field: field, Reason: reason, Message: msg})
	}
	experienced := f.Get(FieldExperienceStatus) == model.ExperienceExperienced

	for _, req := range requiredFields {
		if f.Get(req.field) == "" {
			add(req.field, ReasonRequired, req.label+" is required")
		}
	}

	if v := f.Get(FieldExpectedSalary); v != "" {
		switch salaryReason(v) {
		case ReasonNotNumeric:
			add(FieldExpectedSalary, ReasonNotNumeric, "Expected salary must be a whole number")
		case ReasonBelowMinimum:
			add(FieldExpectedSalary, ReasonBelowMinimum, "Expected salary must be at least 100000")
		}
	}
	for _, y := range []requirement{
		{FieldSSCYear, "SSC year"},
		{FieldIntermediateYear, "Intermediate year"},
		{FieldGraduationYear, "Graduation year"},
	} {
		v := f.Get(y.field)
		if v == "" {
			continue
		}
		switch educationYearReason(v) {
		case ReasonNotNumeric:
			add(y.field, ReasonNotNumeric, y.label+" must be a number")
		case ReasonBelowMinimum:
			add(y.field, ReasonBelowMinimum, y.label+" must be 1985 or later")
		case ReasonOutOfRange:
			add(y.field, ReasonOutOfRange, y.label+" must be a year no later than 9999")
		}
	}
	if experienced {
		if v := f.Get(FieldYearsOfExperience); v != "" {
			switch experienceYearsReason(v) {
			case ReasonNotNumeric:
				add(FieldYearsOfExperience, ReasonNotNumeric, "Years of experience must be a number")
			case ReasonOutOfRange:
				add(FieldYearsOfExperience, ReasonOutOfRange, "Years of experience must be between 1 and 40")
			}
		}
	}

	for _, n := range []requirement{
		{FieldFullName, "Full name"},
		{FieldFatherName, "Father's name"},
		{FieldCollegeName, "College name"},
	} {
		if v := f.Get(n.field); v != "" && !IsAlphaWords(v) {
			add(n.field, ReasonPattern, n.label+" must contain only letters and single spaces")
		}
	}
	if experienced {
		if v := f.Get(FieldPreviousCompany); v != "" && !IsAlphaWords(v) {
			add(FieldPreviousCompany, ReasonPattern, "Previous company must contain only letters and single spaces")
		}
	}
	if v := f.Get(FieldEmail); v != "" && !IsAllowedEmail(v) {
		add(FieldEmail, ReasonPattern, "Email must be a gmail or outlook address")
	}
	if v := f.Get(FieldMobileNumber); v != "" && !IsMobileNumber(v) {
		add(FieldMobileNumber, ReasonPattern, "Mobile number must be 10 digits starting with 6, 7, 8 or 9")
	}
	for _, p := range []requirement{
		{FieldSSCPercentage, "SSC percentage"},
		{FieldIntermediatePercentage, "Intermediate percentage"},
		{FieldGraduationPercentage, "Graduation percentage"},
	} {
		if v := f.Get(p.field); v != "" && !IsPercentage(v) {
			add(p.field, ReasonPattern, p.label+" must be between 0 and 100 with at most 2 decimals")
		}
	}
	if v := f.Get(FieldRegisterNumber); v != "" && !IsAlphanumeric(v) {
		add(FieldRegisterNumber, ReasonPattern, "Register number must be alphanumeric")
	}
	for _, d := range []requirement{
		{FieldInterviewDate, "Interview date"},
		{FieldJoiningDate, "Joining date"},
		{FieldDOB, "Date of birth"},
	} {
		if v := f.Get(d.field); v != "" && !IsDate(v) {
			add(d.field, ReasonPattern, d.label+" must be a date in YYYY-MM-DD format")
		}
	}
	if v := f.Get(FieldPermanentAddress); v != "" && addressReason(v) != "" {
		add(FieldPermanentAddress, ReasonTooShort, "Permanent address must be at least 5 characters")
	}
	if v := f.Get(FieldExperienceStatus); v != "" && v != model.ExperienceFresher && !experienced {
		add(FieldExperienceStatus, ReasonNotAllowed, "Experience status must be fresher or experienced")
	}

	if experienced {
		if f.Get(FieldYearsOfExperience) == "" {
			add(FieldYearsOfExperience, ReasonRequired, "Years of experience is required for experienced applicants")
		}
		if f.Get(FieldPreviousCompany) == "" {
			add(FieldPreviousCompany, ReasonRequired, "Previous company is required for experienced applicants")
		}
		if f.Get(FieldPreviousJobRole) == "" {
			add(FieldPreviousJobRole, ReasonRequired, "Previous job role is required for experienced applicants")
		}
	}
	return issues
}

// Messages flattens issues into their human-readable messages.
func Messages(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Message)
	}
	return out
}
