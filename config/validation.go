package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	uulog "github.com/uu-dev/uu-bridge/log"
)

// validate is shared; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, err := uulog.ParseLevel(fl.Field().String())
		return err == nil
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
	return v
}

// ValidationError lists every invalid setting.
type ValidationError struct {
	Fields []FieldError
}

// FieldError describes one invalid setting.
type FieldError struct {
	Field string
	Rule  string
	Value any
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s=%v fails %q", f.Field, f.Value, f.Rule))
	}
	return "config validation failed: " + strings.Join(parts, "; ")
}

// Validate checks the settings against their validation tags.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Value: fe.Value(),
		})
	}
	return out
}
