package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"visitorpass/pkg/logger"
	"visitorpass/pkg/model"
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

// First returns the message of the first failure, suitable for the single
// error string of the creation response.
func (v ValidationErrors) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].Message
}

type PassValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPassValidator(log *logger.Logger) *PassValidator {
	v := validator.New()

	// report JSON field names so messages match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("rfc3339", validateRFC3339); err != nil {
		log.Fatal("Failed to register 'rfc3339' validator", "error", err)
	}

	return &PassValidator{
		validate: v,
		logger:   log,
	}
}

func validateRFC3339(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func (v *PassValidator) Validate(req *model.CreatePassRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(req)
}

func (v *PassValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "rfc3339":
			message = fmt.Sprintf("%s must be an RFC 3339 timestamp", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

// validateBusinessRules rejects a caller-supplied window that ends before it
// starts. One-sided windows are completed by the service and are not checked
// here.
func (v *PassValidator) validateBusinessRules(req *model.CreatePassRequest) error {
	if req.ValidFrom == "" || req.ValidTo == "" {
		return nil
	}

	from, errFrom := time.Parse(time.RFC3339, strings.TrimSpace(req.ValidFrom))
	to, errTo := time.Parse(time.RFC3339, strings.TrimSpace(req.ValidTo))
	if errFrom != nil || errTo != nil {
		return nil
	}

	if to.Before(from) {
		return ValidationErrors{{
			Field:   "validTo",
			Message: "validTo must not be before validFrom",
		}}
	}
	return nil
}
