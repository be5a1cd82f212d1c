package models

import "errors"

// User is the profile returned by /api/auth/users/me/.
type User struct {
	ID        ID     `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	IsStaff   bool   `json:"is_staff"`
}

// Validate rejects a profile without identity.
func (u User) Validate() error {
	if u.ID.IsZero() || u.Username == "" {
		return errors.New("user: id and username are required")
	}
	return nil
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.Username
}

// Tokens is the pair issued by /api/auth/token/.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Validate requires an access token.
func (t Tokens) Validate() error {
	if t.Access == "" {
		return errors.New("tokens: access token missing")
	}
	return nil
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up request body.
type Registration struct {
	Username  string `json:"username"   validate:"required,between=3,30,alpha_dash"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,password"`
	FirstName string `json:"first_name,omitempty" validate:"max=150"`
	LastName  string `json:"last_name,omitempty"  validate:"max=150"`
}

// ProfileUpdate is the PATCH body for the profile. Empty fields are left out.
type ProfileUpdate struct {
	FirstName string `json:"first_name,omitempty" validate:"max=150"`
	LastName  string `json:"last_name,omitempty"  validate:"max=150"`
	Email     string `json:"email,omitempty"      validate:"nullable,email"`
	Phone     string `json:"phone,omitempty"      validate:"nullable,phone"`
}
