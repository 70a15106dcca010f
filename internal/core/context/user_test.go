package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name   string
		user   *UserContext
		action string
		want   bool
	}{
		{"no user", nil, "orders:create", false},
		{"granted", &UserContext{UserID: "u1", Permissions: []string{"orders:create"}}, "orders:create", true},
		{"missing", &UserContext{UserID: "u1", Permissions: []string{"orders:read"}}, "orders:create", false},
		{"wildcard", &UserContext{UserID: "u1", Permissions: []string{"*"}}, "returns:approve", true},
		{"admin", &UserContext{UserID: "u1", IsAdmin: true}, "returns:delete", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.user != nil {
				ctx = WithUser(ctx, tt.user)
			}
			assert.Equal(t, tt.want, HasPermission(ctx, tt.action))
		})
	}
}

func TestGetUserID_Empty(t *testing.T) {
	assert.Empty(t, GetUserID(context.Background()))
	assert.Equal(t, "u7", GetUserID(WithUser(context.Background(), &UserContext{UserID: "u7"})))
}
