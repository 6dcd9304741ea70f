package common

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct applies `validate` struct tags and returns an AppError wrapping
// ErrValidation whose message lists every failed field.
func ValidateStruct(s interface{}) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewAppError("VALIDATION_ERROR", err.Error(), ErrValidation)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldError(fe).Error())
	}
	return NewAppError("VALIDATION_ERROR", strings.Join(msgs, "; "), ErrValidation)
}

func fieldError(fe validator.FieldError) ValidationError {
	ve := ValidationError{Field: fe.Field(), Value: fe.Value()}
	switch fe.Tag() {
	case "required":
		ve.Message = "is required"
	case "oneof":
		ve.Message = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		ve.Message = "must be at least " + fe.Param()
	case "max":
		ve.Message = "must be at most " + fe.Param()
	case "url":
		ve.Message = "must be a valid URL"
	default:
		ve.Message = "failed " + fe.Tag() + " check"
	}
	return ve
}
