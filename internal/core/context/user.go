// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"slices"
)

// UserContext is the authenticated actor of a request.
type UserContext struct {
	UserID      string
	Email       string
	Permissions []string
	IsAdmin     bool
}

// HasPermission reports whether the actor may perform action.
// Admins implicitly hold every permission.
func (u *UserContext) HasPermission(action string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	return slices.Contains(u.Permissions, action) || slices.Contains(u.Permissions, "*")
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

// HasPermission checks the permission of the actor carried by ctx.
func HasPermission(ctx context.Context, action string) bool {
	return GetUser(ctx).HasPermission(action)
}
