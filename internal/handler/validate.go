package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate      = newValidator()
	hundred       = decimal.NewFromInt(100)
	errValidation = errors.New("validation failed")
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal.Decimal is validated field-level; a custom type func returning
	// the same type would loop.
	if err := v.RegisterValidation("percent", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return !d.IsNegative() && d.LessThanOrEqual(hundred) && d.Equal(d.Round(2))
	}); err != nil {
		panic(fmt.Sprintf("register percent validation: %v", err))
	}

	return v
}

var validationMessages = map[string]string{
	"required": "is required",
	"uuid":     "must be a valid UUID",
	"percent":  "must be between 0 and 100 with at most two decimal places",
	"datetime": "must be a date in YYYY-MM-DD format",
	"max":      "is too long",
	"min":      "is too short",
}

// validateStruct returns a client-facing error describing the first invalid
// field, wrapping errValidation.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg, ok := validationMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		return fmt.Errorf("%w: %s %s", errValidation, fe.Field(), msg)
	}
	return fmt.Errorf("%w: %w", errValidation, err)
}
