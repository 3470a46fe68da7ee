package models

// User is the identity stored in the session after an OIDC login.
// There is no user table; the session is the only source of truth.
type User struct {
	Sub     string `json:"sub"` // OIDC subject identifier
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// DisplayName returns the name to show in the header.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Sub
}

// EmailPtr returns the email for history records, nil when unknown.
func (u *User) EmailPtr() *string {
	if u == nil || u.Email == "" {
		return nil
	}
	email := u.Email
	return &email
}
