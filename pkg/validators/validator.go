// Package validators plugs go-playground/validator into echo.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate returns a *models.ValidationError describing every failing field.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &models.ValidationError{Message: "Invalid input"}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, models.FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email"
	case "min":
		return fmt.Sprintf("Length must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Length must be at most %s", fe.Param())
	case "excludes":
		return fmt.Sprintf("Cannot include %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of %s", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}
