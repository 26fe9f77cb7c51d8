package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

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

type VisitValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVisitValidator(log *logger.Logger) *VisitValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock_time", validateClockTime); err != nil {
		log.Fatal("Failed to register 'clock_time' validator", "error", err)
	}

	log.Info("Visit validator initialized successfully")

	return &VisitValidator{
		validate: v,
		logger:   log,
	}
}

func validateClockTime(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", strings.TrimSpace(fl.Field().String()))
	return err == nil
}

func (v *VisitValidator) Validate(visit *model.Visit) error {
	if err := v.validate.Struct(visit); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(visit)
}

func (v *VisitValidator) validateBusinessRules(visit *model.Visit) error {
	var errs ValidationErrors

	if visit.Recurring {
		if visit.RecurringDayOfWeek == "" {
			errs = append(errs, ValidationError{
				Field:   "RecurringDayOfWeek",
				Message: "recurring visits must name a day of week",
			})
		}
		if visit.RecurringVisitTime == "" {
			errs = append(errs, ValidationError{
				Field:   "RecurringVisitTime",
				Message: "recurring visits must carry a time of day in HH:MM format",
			})
		}
	} else {
		if visit.VisitTime.IsZero() {
			errs = append(errs, ValidationError{
				Field:   "VisitTime",
				Message: "visit_time is required",
			})
		}
	}

	if visit.AvailableSlots > visit.Capacity {
		errs = append(errs, ValidationError{
			Field:   "AvailableSlots",
			Message: "available_slots cannot exceed capacity",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *VisitValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "clock_time":
			message = fmt.Sprintf("%s must be a time of day in HH:MM 24-hour format", err.Field())
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
