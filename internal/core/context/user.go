// Package context carries request-scoped values: the authenticated principal
// and tracing identifiers.
package context

import (
	"context"
	"slices"
)

// Roles known to the service.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleCashier    = "cashier"
	RoleInventory  = "inventory"
	RoleAuditor    = "auditor"
)

// UserContext is the authenticated principal of a request.
type UserContext struct {
	UserID   string
	Username string
	Roles    []string
}

// IsSuperAdmin reports whether the principal bypasses role checks.
func (u *UserContext) IsSuperAdmin() bool {
	return slices.Contains(u.Roles, RoleSuperAdmin)
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasAnyRole reports whether the principal holds at least one of roles.
// A super admin holds every role.
func HasAnyRole(ctx context.Context, roles ...string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	if u.IsSuperAdmin() {
		return true
	}
	for _, r := range roles {
		if slices.Contains(u.Roles, r) {
			return true
		}
	}
	return false
}
