package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/servicekit/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// FieldError describes one failed struct tag rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"mapstructure", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return toSnakeCase(fld.Name)
		})
	})
	return validate
}

// Validate validates a struct using its `validate` tags. On failure it
// returns an *errors.AppError whose "fields" detail holds []FieldError.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("validation failed").WithCause(err)
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		fe := FieldError{
			Field:   fieldPath(e),
			Tag:     e.Tag(),
			Message: formatValidationError(e),
		}
		fieldErrors = append(fieldErrors, fe)
		messages = append(messages, fe.Field+": "+fe.Message)
	}

	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", fieldErrors)
}

// FieldErrors extracts the field errors from an error returned by Validate.
func FieldErrors(err error) []FieldError {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return nil
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	return fields
}

// fieldPath drops the top-level struct name from the namespace,
// "Identity.name" becomes "name".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "hostname_rfc1123", "ip":
		return "must be a hostname or IP address"
	case "oneof":
		return "must be one of: " + e.Param()
	case "dive":
		return "contains an invalid entry"
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
