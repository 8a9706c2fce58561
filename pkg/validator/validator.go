package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldError is a single failed constraint, keyed by the JSON field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"required": "field required",
	"notblank": "must not be blank",
	"min":      "value is too small",
	"max":      "value is too large",
	"gt":       "value must be positive",
}

// Register installs the json tag name func and custom tags on v.
func Register(v *playground.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v.RegisterValidation("notblank", validators.NotBlank)
}

// New returns a standalone validator with the same registrations gin gets.
func New() *playground.Validate {
	v := playground.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Fields flattens validation errors; any other error yields nil.
func Fields(err error) []FieldError {
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed on %q", fe.Tag())
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// Describe renders err as "field: message; field: message". Errors that are
// not validation errors come back as their own text.
func Describe(err error) string {
	fields := Fields(err)
	if fields == nil {
		return err.Error()
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}
