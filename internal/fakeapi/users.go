package fakeapi

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrEmailExists        = errors.New("email already registered")
)

const minPasswordLength = 6

type user struct {
	Name         string
	Email        string
	PasswordHash string
}

// register hashes the password and stores a new account.
// Callers must hold s.mu.
func (s *Server) register(name, email, password string) (*user, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	key := strings.ToLower(email)
	if _, exists := s.users[key]; exists {
		return nil, ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user{Name: name, Email: email, PasswordHash: string(hashed)}
	s.users[key] = u
	return u, nil
}

// authenticate verifies the email and password.
// Callers must hold s.mu.
func (s *Server) authenticate(email, password string) (*user, error) {
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
