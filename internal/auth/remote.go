package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mmynk/subtrack/internal/api"
	"github.com/mmynk/subtrack/internal/models"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
)

// Ensure RemoteAuthenticator implements Authenticator
var _ Authenticator = (*RemoteAuthenticator)(nil)

// RemoteAuthenticator authenticates against the API's /auth endpoints.
type RemoteAuthenticator struct {
	client *api.Client
}

// NewRemoteAuthenticator creates an authenticator that uses client.
func NewRemoteAuthenticator(client *api.Client) *RemoteAuthenticator {
	return &RemoteAuthenticator{client: client}
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login posts the credentials and returns the issued session.
func (a *RemoteAuthenticator) Login(ctx context.Context, creds Credentials) (*models.Session, error) {
	var resp authResponse
	if err := a.client.Post(ctx, loginPath, creds, &resp); err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.Status {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				return nil, ErrInvalidCredentials
			}
		}
		return nil, err
	}

	if resp.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	if resp.User == nil {
		resp.User = &models.User{Email: creds.Email}
	}
	return &models.Session{Token: resp.Token, User: resp.User}, nil
}

// Register posts the registration and returns the created user.
func (a *RemoteAuthenticator) Register(ctx context.Context, reg Registration) (*models.User, error) {
	var resp authResponse
	if err := a.client.Post(ctx, registerPath, reg, &resp); err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusConflict {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	if resp.User == nil {
		return &models.User{Name: reg.Name, Email: reg.Email}, nil
	}
	return resp.User, nil
}
