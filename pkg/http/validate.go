package http

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationError is one field-level problem in a 400 reply.
type ValidationError struct {
	Code    string `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string `json:"field,omitempty" example:"instrument"`
	Message string `json:"message,omitempty" example:"instrument is required"`
	Param   string `json:"param,omitempty"`
}

var (
	validate *validator.Validate

	stockCode = regexp.MustCompile(`^\d{6}$`)
	indexCode = regexp.MustCompile(`^\d{6}(\.(SH|SZ|BJ|sh|sz|bj))?$`)
)

func init() {
	validate = validator.New()
	// report json names, not Go field names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = validate.RegisterValidation("stock_code", func(fl validator.FieldLevel) bool {
		return stockCode.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("index_code", func(fl validator.FieldLevel) bool {
		return indexCode.MatchString(fl.Field().String())
	})
}

// ValidateStruct fills defaults then validates v. Used for payloads that
// do not come through echo, such as kafka messages and replay files.
func ValidateStruct(v interface{}) error {
	if err := defaults.Set(v); err != nil {
		return err
	}
	return validate.Struct(v)
}

// ReadAndValidateRequest binds, defaults and validates req. A nil result
// means the request is valid.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return ValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return ValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return ValidationErrors(err)
	}
	return nil
}

// ValidationErrors renders err as field-level details.
func ValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Param:   fe.Param(),
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: CodeBadRequest, Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: CodeBadRequest, Message: err.Error()}}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "stock_code":
		return fmt.Sprintf("%s must be a 6-digit instrument code", field)
	case "index_code":
		return fmt.Sprintf("%s must be a 6-digit index code, optionally suffixed .SH/.SZ/.BJ", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
