package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/trustdot/reputation/pkg/errors"
)

// maxBodyBytes bounds request bodies; a review comment is the largest field.
const maxBodyBytes = 64 << 10

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return &ValidationError{Errors: ve}
		}
		return err
	}
	return nil
}

// Var validates a single value against a tag string, e.g. Var(id, "uuid").
func Var(value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return &ValidationError{Errors: ve}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors with readable messages.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", fe.Field(), message(fe)))
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each failing field to its message.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	numeric := false
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		numeric = true
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "min":
		if numeric {
			return fmt.Sprintf("must be at least %s", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if numeric {
			return fmt.Sprintf("must be at most %s", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeAndValidate decodes a JSON body into dst and validates it. Unknown
// fields and bodies over 64 KiB are rejected as apperrors.ErrInvalidInput.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode request body: %v", apperrors.ErrInvalidInput, err)
	}
	return Validate(dst)
}
