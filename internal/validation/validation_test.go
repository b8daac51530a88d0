package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() Fields {
	return Fields{
		FieldDepartment:             "Operations",
		FieldJobRole:                "Branch Officer",
		FieldBranchLocation:         "Hyderabad Main",
		FieldEmploymentType:         "Full Time",
		FieldLocation:               "Hyderabad",
		FieldExpectedSalary:         "350000",
		FieldInterviewDate:          "2026-11-02",
		FieldJoiningDate:            "2026-12-01",
		FieldFullName:               "Asha Rani",
		FieldFatherName:             "Ravi Kumar",
		FieldDOB:                    "1998-04-17",
		FieldPermanentAddress:       "12 MG Road, Hyderabad",
		FieldEmail:                  "asha.rani@gmail.com",
		FieldMobileNumber:           "9876543210",
		FieldSSCYear:                "2013",
		FieldSSCPercentage:          "91.5",
		FieldIntermediateYear:       "2015",
		FieldIntermediatePercentage: "88",
		FieldGraduationYear:         "2019",
		FieldGraduationPercentage:   "76.25",
		FieldCollegeName:            "Osmania University",
		FieldRegisterNumber:         "OU2019CS042",
		FieldExperienceStatus:       "fresher",
	}
}

func withFields(overrides Fields) Fields {
	f := validFields()
	for k, v := range overrides {
		f[k] = v
	}
	return f
}

func issueFor(issues []Issue, field string) (Issue, bool) {
	for _, issue := range issues {
		if issue.Field == field {
			return issue, true
		}
	}
	return Issue{}, false
}

// =============================================================================
// Validate
// =============================================================================

func TestValidate_ValidFresher(t *testing.T) {
	assert.Empty(t, Validate(validFields()))
}

func TestValidate_ValidExperienced(t *testing.T) {
	f := withFields(Fields{
		FieldExperienceStatus:  "experienced",
		FieldYearsOfExperience: "4",
		FieldPreviousCompany:   "Acme Finance",
		FieldPreviousJobRole:   "Teller (II)",
	})
	assert.Empty(t, Validate(f))
}

func TestValidate_FresherIgnoresExperienceFields(t *testing.T) {
	f := withFields(Fields{
		FieldYearsOfExperience: "99",
		FieldPreviousCompany:   "Acme 123",
	})
	assert.Empty(t, Validate(f))
}

func TestValidate_SalaryBelowMinimum(t *testing.T) {
	issues := Validate(withFields(Fields{FieldExpectedSalary: "50000"}))

	issue, ok := issueFor(issues, FieldExpectedSalary)
	require.True(t, ok)
	assert.Equal(t, ReasonBelowMinimum, issue.Reason)
	assert.Contains(t, issue.Message, "salary")
}

func TestValidate_EmptyInputReportsEveryRequiredField(t *testing.T) {
	issues := Validate(Fields{})

	require.Len(t, issues, len(requiredFields))
	for i, req := range requiredFields {
		assert.Equal(t, req.field, issues[i].Field)
		assert.Equal(t, ReasonRequired, issues[i].Reason)
	}
}

func TestValidate_AllRulesRunWithoutShortCircuit(t *testing.T) {
	issues := Validate(withFields(Fields{
		FieldExpectedSalary: "10",
		FieldEmail:          "someone@yahoo.com",
		FieldMobileNumber:   "1234567890",
		FieldSSCYear:        "1970",
	}))

	fields := make([]string, 0, len(issues))
	for _, issue := range issues {
		fields = append(fields, issue.Field)
	}
	// ranges come before patterns
	assert.Equal(t, []string{FieldExpectedSalary, FieldSSCYear, FieldEmail, FieldMobileNumber}, fields)
}

func TestValidate_Deterministic(t *testing.T) {
	f := withFields(Fields{FieldEmail: "bad", FieldFullName: "A  B", FieldGraduationPercentage: "100.5"})
	assert.Equal(t, Validate(f), Validate(f))
}

func TestValidate_ExperiencedRequiresDetails(t *testing.T) {
	issues := Validate(withFields(Fields{FieldExperienceStatus: "experienced"}))

	for _, field := range []string{FieldYearsOfExperience, FieldPreviousCompany, FieldPreviousJobRole} {
		issue, ok := issueFor(issues, field)
		require.True(t, ok, field)
		assert.Equal(t, ReasonRequired, issue.Reason)
	}
}

func TestValidate_ExperienceYearsRange(t *testing.T) {
	base := Fields{
		FieldExperienceStatus: "experienced",
		FieldPreviousCompany:  "Acme",
		FieldPreviousJobRole:  "Clerk",
	}
	tests := []struct {
		years string
		want  Reason
	}{
		{"0", ReasonOutOfRange},
		{"41", ReasonOutOfRange},
		{"x", ReasonNotNumeric},
		{"1", ""},
		{"40", ""},
	}
	for _, tt := range tests {
		t.Run(tt.years, func(t *testing.T) {
			f := withFields(base)
			f[FieldYearsOfExperience] = tt.years
			issue, ok := issueFor(Validate(f), FieldYearsOfExperience)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, issue.Reason)
		})
	}
}

func TestValidate_UnknownExperienceStatus(t *testing.T) {
	issue, ok := issueFor(Validate(withFields(Fields{FieldExperienceStatus: "intern"})), FieldExperienceStatus)
	require.True(t, ok)
	assert.Equal(t, ReasonNotAllowed, issue.Reason)
}

func TestValidate_ShortAddressAndBadDate(t *testing.T) {
	issues := Validate(withFields(Fields{FieldPermanentAddress: "abc", FieldJoiningDate: "01/12/2026"}))

	addr, ok := issueFor(issues, FieldPermanentAddress)
	require.True(t, ok)
	assert.Equal(t, ReasonTooShort, addr.Reason)

	date, ok := issueFor(issues, FieldJoiningDate)
	require.True(t, ok)
	assert.Equal(t, ReasonPattern, date.Reason)

	// length counts characters, not bytes
	addr, ok = issueFor(Validate(withFields(Fields{FieldPermanentAddress: "गाँव"})), FieldPermanentAddress)
	require.True(t, ok)
	assert.Equal(t, ReasonTooShort, addr.Reason)

	_, ok = issueFor(Validate(withFields(Fields{FieldPermanentAddress: "गाँव 12"})), FieldPermanentAddress)
	assert.False(t, ok)
}

func TestValidate_EducationYearRange(t *testing.T) {
	tests := []struct {
		year string
		want Reason
	}{
		{"1984", ReasonBelowMinimum},
		{"1985", ""},
		{"9999", ""},
		{"10000", ReasonOutOfRange},
		{"3000000000", ReasonOutOfRange},
		{"99999999999999999999", ReasonNotNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.year, func(t *testing.T) {
			issue, ok := issueFor(Validate(withFields(Fields{FieldSSCYear: tt.year})), FieldSSCYear)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, issue.Reason)
		})
	}
}

func TestMessages(t *testing.T) {
	issues := []Issue{{Message: "a"}, {Message: "b"}}
	assert.Equal(t, []string{"a", "b"}, Messages(issues))
	assert.Empty(t, Messages(nil))
}

// =============================================================================
// Predicates
// =============================================================================

func TestIsAlphaWords(t *testing.T) {
	assert.True(t, IsAlphaWords("Asha"))
	assert.True(t, IsAlphaWords("Asha Rani Devi"))
	assert.False(t, IsAlphaWords("Asha  Rani"))
	assert.False(t, IsAlphaWords(" Asha"))
	assert.False(t, IsAlphaWords("Asha "))
	assert.False(t, IsAlphaWords("Asha2"))
	assert.False(t, IsAlphaWords(""))
}

func TestIsAllowedEmail(t *testing.T) {
	valid := []string{"a@gmail.com", "first.last@outlook.in", "x_y+z@gmail.org", "a@outlook.co.uk", "Asha.Rani@Gmail.COM"}
	invalid := []string{"a@yahoo.com", "a@gmail.net", "@gmail.com", "a@gmail.co.ukk", "a@gmail"}
	for _, s := range valid {
		assert.True(t, IsAllowedEmail(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsAllowedEmail(s), s)
	}
}

func TestIsMobileNumber(t *testing.T) {
	assert.True(t, IsMobileNumber("6000000000"))
	assert.True(t, IsMobileNumber("9999999999"))
	assert.False(t, IsMobileNumber("5999999999"))
	assert.False(t, IsMobileNumber("999999999"))
	assert.False(t, IsMobileNumber("99999999999"))
	assert.False(t, IsMobileNumber("99999x9999"))
}

func TestIsPercentage(t *testing.T) {
	valid := []string{"0", "7", "99.99", "100", "100.0", "100.00", "45.5"}
	invalid := []string{"100.01", "101", "-1", "45.555", "abc", "", ".5", "45."}
	for _, s := range valid {
		assert.True(t, IsPercentage(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsPercentage(s), s)
	}
}

func TestIsAlphanumeric(t *testing.T) {
	assert.True(t, IsAlphanumeric("AB12cd"))
	assert.False(t, IsAlphanumeric("AB-12"))
	assert.False(t, IsAlphanumeric(""))
}

func TestParseInt(t *testing.T) {
	n, ok := ParseInt("100000")
	assert.True(t, ok)
	assert.EqualValues(t, 100000, n)

	_, ok = ParseInt("1e5")
	assert.False(t, ok)
	_, ok = ParseInt("-5")
	assert.False(t, ok)
}

// =============================================================================
// Build
// =============================================================================

func TestBuild(t *testing.T) {
	f := withFields(Fields{
		FieldExperienceStatus:  "experienced",
		FieldYearsOfExperience: "3",
		FieldPreviousCompany:   "Acme",
		FieldPreviousJobRole:   "Clerk",
	})
	require.Empty(t, Validate(f))

	app, err := Build(f)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rani", app.FullName)
	assert.EqualValues(t, 350000, app.ExpectedSalary)
	assert.Equal(t, "2026-12-01", app.JoiningDate.String())
	assert.Equal(t, 2019, app.GraduationYear)
	assert.InDelta(t, 76.25, app.GraduationPercentage, 0.0001)
	require.NotNil(t, app.YearsOfExperience)
	assert.Equal(t, 3, *app.YearsOfExperience)
	assert.Equal(t, "Acme", app.PreviousCompany)
}

func TestBuild_NormalizesEmail(t *testing.T) {
	f := withFields(Fields{FieldEmail: "Asha.Rani@GMAIL.com"})
	require.Empty(t, Validate(f))

	app, err := Build(f)
	require.NoError(t, err)
	assert.Equal(t, "asha.rani@gmail.com", app.Email)
	assert.Equal(t, app.Email, NormalizeEmail(" ASHA.RANI@gmail.com "))
}

func TestBuild_FresherDropsExperienceFields(t *testing.T) {
	app, err := Build(withFields(Fields{FieldPreviousCompany: "Ignored"}))
	require.NoError(t, err)
	assert.Nil(t, app.YearsOfExperience)
	assert.Empty(t, app.PreviousCompany)
}

func TestBuild_RejectsUnvalidatedInput(t *testing.T) {
	_, err := Build(withFields(Fields{FieldExpectedSalary: "lots"}))
	assert.Error(t, err)
}
