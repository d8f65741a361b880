// Package validation wraps go-playground/validator for request and command structs.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/i18n"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json field names so details line up with request bodies
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Struct validates v and converts failures into a VALIDATION_ERROR AppError
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.BadRequest(err.Error())
	}

	details := make(map[string]string)
	for _, e := range validationErrors {
		details[e.Field()] = formatValidationError(e)
	}
	return errors.Validation(details)
}

func formatValidationError(e validator.FieldError) string {
	params := map[string]string{"param": e.Param()}
	switch e.Tag() {
	case "required", "notblank":
		return i18n.T("validation.required")
	case "gt":
		return i18n.T("validation.gt", params)
	case "min":
		return i18n.T("validation.min", params)
	case "max":
		return i18n.T("validation.max", params)
	case "oneof":
		return i18n.T("validation.oneof", params)
	default:
		return i18n.T("validation.invalid")
	}
}
