// Package services holds the storefront use cases that combine the stores
// with backend calls: checkout, catalog browsing, the account pages and the
// admin back office.
package services

import (
	"errors"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/pkg/session"
)

var (
	// ErrEmptyCart is returned by checkout when there is nothing to order.
	ErrEmptyCart = errors.New("services: cart is empty")
	// ErrForbidden is returned by admin operations for non-staff users.
	ErrForbidden = errors.New("services: staff access required")
)

// Identity is the part of the session the services consult.
type Identity interface {
	State() session.State
	User() (models.User, bool)
	IsAdmin() bool
}

func requireLogin(id Identity) error {
	if id.State() != session.Authenticated {
		return session.ErrNotAuthenticated
	}
	return nil
}

func requireAdmin(id Identity) error {
	if err := requireLogin(id); err != nil {
		return err
	}
	if !id.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
