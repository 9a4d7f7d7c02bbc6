package utils

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/turtacn/genguard/pkg/errors"
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

func init() {
	_ = defaultValidator.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return ValidateNotEmpty(fl.Field().String())
	})
}

// ValidateStruct validates a struct using the default validator.
// It returns an invalid_request AppError naming every failed field.
func ValidateStruct(s interface{}) apperrors.AppError {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.ErrInvalidRequest(err.Error())
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s %s", toSnakeCase(fe.Field()), formatValidationError(fe)))
	}
	sort.Strings(msgs)

	appErr := apperrors.ErrInvalidRequest(strings.Join(msgs, "; "))
	for _, fe := range validationErrors {
		appErr.WithMetadata(toSnakeCase(fe.Field()), fe.Tag())
	}
	return appErr
}

// formatValidationError creates a user-friendly error message for a validation error.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

// toSnakeCase converts a string from CamelCase to snake_case.
func toSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

// ValidateNotEmpty checks if a string is not empty.
func ValidateNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
