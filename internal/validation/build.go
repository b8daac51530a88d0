package validation

import (
	"fmt"
	"strconv"

	"github.com/dharsanguruparan/OfferDesk/internal/model"
)

// Build converts fields that already passed Validate into an Application.
// Document references and workflow fields are left for the caller.
func Build(f Fields) (model.Application, error) {
	var (
		app model.Application
		err error
	)
	parseInt := func(key string) int64 {
		if err != nil {
			return 0
		}
		n, ok := ParseInt(f.Get(key))
		if !ok {
			err = fmt.Errorf("field %s: not an integer", key)
		}
		return n
	}
	parseFloat := func(key string) float64 {
		if err != nil {
			return 0
		}
		v, perr := strconv.ParseFloat(f.Get(key), 64)
		if perr != nil {
			err = fmt.Errorf("field %s: %w", key, perr)
		}
		return v
	}
	parseDate := func(key string) model.Date {
		if err != nil {
			return model.Date{}
		}
		d, perr := model.ParseDate(f.Get(key))
		if perr != nil {
			err = fmt.Errorf("field %s: %w", key, perr)
		}
		return d
	}

	app.Department = f.Get(FieldDepartment)
	app.JobRole = f.Get(FieldJobRole)
	app.BranchLocation = f.Get(FieldBranchLocation)
	app.EmploymentType = f.Get(FieldEmploymentType)
	app.Location = f.Get(FieldLocation)
	app.ExpectedSalary = parseInt(FieldExpectedSalary)
	app.InterviewDate = parseDate(FieldInterviewDate)
	app.JoiningDate = parseDate(FieldJoiningDate)

	app.FullName = f.Get(FieldFullName)
	app.FatherName = f.Get(FieldFatherName)
	app.DOB = parseDate(FieldDOB)
	app.PermanentAddress = f.Get(FieldPermanentAddress)
	app.Email = NormalizeEmail(f.Get(FieldEmail))
	app.MobileNumber = f.Get(FieldMobileNumber)

	app.SSCYear = int(parseInt(FieldSSCYear))
	app.SSCPercentage = parseFloat(FieldSSCPercentage)
	app.IntermediateYear = int(parseInt(FieldIntermediateYear))
	app.IntermediatePercentage = parseFloat(FieldIntermediatePercentage)
	app.GraduationYear = int(parseInt(FieldGraduationYear))
	app.GraduationPercentage = parseFloat(FieldGraduationPercentage)
	app.CollegeName = f.Get(FieldCollegeName)
	app.RegisterNumber = f.Get(FieldRegisterNumber)
	app.AdditionalCertification = f.Get(FieldAdditionalCertification)

	app.ExperienceStatus = f.Get(FieldExperienceStatus)
	if app.ExperienceStatus == model.ExperienceExperienced {
		years := int(parseInt(FieldYearsOfExperience))
		app.YearsOfExperience = &years
		app.PreviousCompany = f.Get(FieldPreviousCompany)
		app.PreviousJobRole = f.Get(FieldPreviousJobRole)
	}
	if err != nil {
		return model.Application{}, err
	}
	return app, nil
}
