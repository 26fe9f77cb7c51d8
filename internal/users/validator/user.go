package validator

import (
	"errors"
	"fmt"
	"strings"

	"medbook/pkg/logger"
	"medbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// UserValidator validates all three account shapes and their patch
// payloads with a single validator instance.
type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	v := validator.New()

	log.Info("User validator initialized successfully")

	return &UserValidator{
		validate: v,
		logger:   log,
	}
}

func (v *UserValidator) ValidatePatient(p *model.Patient) error {
	return v.validateStruct(p)
}

func (v *UserValidator) ValidateDoctor(d *model.Doctor) error {
	return v.validateStruct(d)
}

func (v *UserValidator) ValidateAdmin(a *model.Admin) error {
	return v.validateStruct(a)
}

func (v *UserValidator) ValidatePatientPatch(p *model.PatientPatch) error {
	return v.validateStruct(p)
}

func (v *UserValidator) ValidateDoctorPatch(p *model.DoctorPatch) error {
	return v.validateStruct(p)
}

func (v *UserValidator) ValidateAdminPatch(p *model.AdminPatch) error {
	return v.validateStruct(p)
}

func (v *UserValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *UserValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
