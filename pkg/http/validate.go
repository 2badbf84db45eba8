package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so clients see the field they sent.
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

// ReadAndValidateRequest binds the body and query into req, fills its
// defaults and validates it. A nil result means req is usable.
func ReadAndValidateRequest(c echo.Context, req any) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Params:  fieldParams(fe),
			})
		}
		return out
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_MALFORMED", Message: fmt.Sprint(he.Message)}}
	}
	return []ValidationError{{Code: "ERR_MALFORMED", Message: err.Error()}}
}

func fieldMessage(fe validator.FieldError) string {
	field, p := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, p)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(p, " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, p)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, p)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, p)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, p)
	case "gtefield":
		return fmt.Sprintf("%s must not be below %s", field, p)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func fieldParams(fe validator.FieldError) map[string]any {
	switch fe.Tag() {
	case "min", "gte":
		return map[string]any{"min": fe.Param()}
	case "lte":
		return map[string]any{"max": fe.Param()}
	case "gt", "lt":
		return map[string]any{"value": fe.Param()}
	case "oneof":
		return map[string]any{"options": strings.Fields(fe.Param())}
	case "gtefield":
		return map[string]any{"field": fe.Param()}
	}
	return nil
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
