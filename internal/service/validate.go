package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"provider/internal/domain"
	"provider/internal/models"

	"github.com/go-playground/validator/v10"
)

// Validator checks request structs against their validate tags and reports
// failures as domain.ErrValidation.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		return models.IsKnownEventType(fl.Field().String())
	})
	return &Validator{validate: v}
}

func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Validationf("%v", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, translate(fe))
	}
	return domain.Validationf("%s", strings.Join(messages, "; "))
}

func translate(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "event_type":
		return fmt.Sprintf("%s: unknown event type %q, expected one of %s",
			fe.Field(), fe.Value(), strings.Join(models.KnownEventTypes, ", "))
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
