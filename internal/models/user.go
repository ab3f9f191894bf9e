package models

// User is the account record returned by the API on login.
type User struct {
	// Name is the display name. Optional; older accounts only carry Email.
	Name string `json:"name,omitempty"`

	// Email is the login identifier.
	Email string `json:"email"`
}

// DisplayName returns Name when set, otherwise Email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session is the client's authentication state.
// Token and User are always set and cleared together.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Authenticated reports whether the session holds a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}
