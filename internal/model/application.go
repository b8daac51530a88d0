// Package model contains the Application entity shared across packages.
package model

import (
	"time"
)

// Status is the review state of an application.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Experience statuses accepted on the form.
const (
	ExperienceFresher     = "fresher"
	ExperienceExperienced = "experienced"
)

// Application is one applicant's submission plus its workflow state. Document
// fields hold opaque stored names issued by the file store, never paths.
type Application struct {
	ID          int64  `json:"id"`
	ReferenceID string `json:"reference_id"`

	Department     string `json:"department"`
	JobRole        string `json:"job_role"`
	BranchLocation string `json:"branch_location"`
	EmploymentType string `json:"employment_type"`
	Location       string `json:"location"`
	ExpectedSalary int64  `json:"expected_salary"`
	InterviewDate  Date   `json:"interview_date"`
	JoiningDate    Date   `json:"joining_date"`

	FullName         string `json:"full_name"`
	FatherName       string `json:"father_name"`
	DOB              Date   `json:"dob"`
	PermanentAddress string `json:"permanent_address"`
	Email            string `json:"email"`
	MobileNumber     string `json:"mobile_number"`

	SSCYear                int     `json:"ssc_year"`
	SSCPercentage          float64 `json:"ssc_percentage"`
	SSCDoc                 string  `json:"ssc_doc"`
	IntermediateYear       int     `json:"intermediate_year"`
	IntermediatePercentage float64 `json:"intermediate_percentage"`
	IntermediateDoc        string  `json:"intermediate_doc"`
	GraduationYear         int     `json:"graduation_year"`
	GraduationPercentage   float64 `json:"graduation_percentage"`
	GraduationDoc          string  `json:"graduation_doc"`
	CollegeName            string  `json:"college_name"`
	RegisterNumber         string  `json:"register_number"`

	AdditionalCertification string `json:"additional_certification,omitempty"`
	AdditionalFiles         string `json:"additional_files,omitempty"`

	ExperienceStatus  string `json:"experience_status"`
	YearsOfExperience *int   `json:"years_of_experience,omitempty"`
	PreviousCompany   string `json:"previous_company,omitempty"`
	PreviousJobRole   string `json:"previous_job_role,omitempty"`

	Status      Status  `json:"status"`
	OfferLetter *string `json:"offer_letter,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Documents lists the stored names referenced by the record.
func (a *Application) Documents() []string {
	docs := []string{a.SSCDoc, a.IntermediateDoc, a.GraduationDoc}
	if a.AdditionalFiles != "" {
		docs = append(docs, a.AdditionalFiles)
	}
	if a.OfferLetter != nil {
		docs = append(docs, *a.OfferLetter)
	}
	return docs
}
