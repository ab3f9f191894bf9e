// Package forms validates user input before it reaches the API and turns
// errors into the short messages shown to the user.
package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a client-side check failure. It is never sent to the server.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidationErrors holds every failed check of one form, in field order.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

// First returns the first failure, or nil.
func (e ValidationErrors) First() *ValidationError {
	if len(e) == 0 {
		return nil
	}
	return e[0]
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// amount is a decimal string that parses to a non-negative number
	err := v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		n, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
		return err == nil && n >= 0
	})
	if err != nil {
		panic(fmt.Sprintf("forms: failed to register amount validation: %v", err))
	}
	return v
}

// messages maps "<Field>.<tag>" to the text shown for that failure.
// A bare "<Field>" entry is used for any tag without its own text.
type messages map[string]string

func (m messages) lookup(fe validator.FieldError) string {
	if msg, ok := m[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := m[fe.StructField()]; ok {
		return msg
	}
	return fe.StructField() + " is invalid"
}

// check runs the struct validation and converts failures to ValidationErrors.
func check(form any, text messages) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &ValidationError{Field: fe.StructField(), Message: text.lookup(fe)})
	}
	return out
}
