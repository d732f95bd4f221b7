// Package role classifies senders into privilege classes.
package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/dymbot/internal/database"
)

// Role is the privilege class of a sender.
type Role int

// Roles, ordered by privilege.
const (
	Unknown Role = iota
	Customer
	Admin
	SuperAdmin
)

// IsAdmin reports whether r grants admin privileges.
func (r Role) IsAdmin() bool {
	return r == Admin || r == SuperAdmin
}

func (r Role) String() string {
	switch r {
	case Customer:
		return "customer"
	case Admin:
		return "admin"
	case SuperAdmin:
		return "super_admin"
	default:
		return "unknown"
	}
}

// Lookup is the subset of the store the classifier needs.
type Lookup interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	GetCustomer(ctx context.Context, userID int64) (*database.Customer, error)
}

// Classifier resolves the role of an identity.
type Classifier struct {
	superAdminID int64
	store        Lookup
	logger       *slog.Logger
}

// NewClassifier creates a classifier with superAdminID as the distinguished identity.
func NewClassifier(superAdminID int64, store Lookup, logger *slog.Logger) *Classifier {
	return &Classifier{
		superAdminID: superAdminID,
		store:        store,
		logger:       logger.With("component", "role_classifier"),
	}
}

// IsSuperAdmin reports whether userID is the distinguished identity.
func (c *Classifier) IsSuperAdmin(userID int64) bool {
	return userID == c.superAdminID
}

// Classify returns the role of userID. Store failures never grant privileges:
// they are logged and the lookup is treated as negative.
func (c *Classifier) Classify(ctx context.Context, userID int64) Role {
	if c.IsSuperAdmin(userID) {
		return SuperAdmin
	}

	isAdmin, err := c.store.IsAdmin(ctx, userID)
	switch {
	case err != nil:
		c.logger.ErrorContext(ctx, "Admin lookup failed, treating as non-admin", "user_id", userID, "error", err)
	case isAdmin:
		return Admin
	}

	customer, err := c.store.GetCustomer(ctx, userID)
	if err != nil {
		c.logger.ErrorContext(ctx, "Customer lookup failed, treating as unknown", "user_id", userID, "error", err)
		return Unknown
	}
	if customer != nil {
		return Customer
	}
	return Unknown
}

// ErrPrivilegeDenied is returned when an actor's role does not allow an operation.
var ErrPrivilegeDenied = errors.New("privilege denied")

// Actor is the classified sender of an event, threaded into every component.
type Actor struct {
	ID       int64
	Username string
	FullName string
	Role     Role
}

// Require returns ErrPrivilegeDenied unless the actor has at least role minRole.
func (a Actor) Require(minRole Role) error {
	if a.Role < minRole {
		return fmt.Errorf("%w: %s requires %s", ErrPrivilegeDenied, a.Role, minRole)
	}
	return nil
}
