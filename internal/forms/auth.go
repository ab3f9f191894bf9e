package forms

import (
	"strings"

	"github.com/mmynk/subtrack/internal/auth"
)

var credentialMessages = messages{
	"Name.required":        "Name is required",
	"Email.required":       "Email is required",
	"Email.email":          "Enter a valid email",
	"Password.required":    "Password is required",
	"Password.min":         "Password must be at least 6 characters",
	"AcceptTerms.required": "You must accept the terms and conditions",
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Credentials validates the form and returns what the authenticator needs.
func (f LoginForm) Credentials() (auth.Credentials, error) {
	f.Email = strings.TrimSpace(f.Email)
	if err := check(f, credentialMessages); err != nil {
		return auth.Credentials{}, err
	}
	return auth.Credentials{Email: f.Email, Password: f.Password}, nil
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Name        string `validate:"required"`
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6"`
	AcceptTerms bool   `validate:"required"`
}

// Registration validates the form and returns the sign-up request.
func (f RegisterForm) Registration() (auth.Registration, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	if err := check(f, credentialMessages); err != nil {
		return auth.Registration{}, err
	}
	return auth.Registration{Name: f.Name, Email: f.Email, Password: f.Password}, nil
}
