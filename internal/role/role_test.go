package role

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/logger"
)

type lookupStub struct {
	admins    map[int64]bool
	customers map[int64]bool
	adminErr  error
	custErr   error
	calls     int
}

func (l *lookupStub) IsAdmin(_ context.Context, userID int64) (bool, error) {
	l.calls++
	if l.adminErr != nil {
		return false, l.adminErr
	}
	return l.admins[userID], nil
}

func (l *lookupStub) GetCustomer(_ context.Context, userID int64) (*database.Customer, error) {
	l.calls++
	if l.custErr != nil {
		return nil, l.custErr
	}
	if l.customers[userID] {
		return &database.Customer{UserID: userID}, nil
	}
	return nil, nil
}

func TestClassify(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	tests := []struct {
		name string
		stub *lookupStub
		id   int64
		want Role
	}{
		{"admin", &lookupStub{admins: map[int64]bool{5: true}}, 5, Admin},
		{"customer", &lookupStub{customers: map[int64]bool{6: true}}, 6, Customer},
		{"admin wins over customer", &lookupStub{admins: map[int64]bool{7: true}, customers: map[int64]bool{7: true}}, 7, Admin},
		{"unknown", &lookupStub{}, 8, Unknown},
		{"admin lookup failure fails closed", &lookupStub{adminErr: boom, customers: map[int64]bool{9: true}}, 9, Customer},
		{"every lookup failing", &lookupStub{adminErr: boom, custErr: boom}, 10, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewClassifier(1, tt.stub, logger.Discard())
			require.Equal(t, tt.want, c.Classify(context.Background(), tt.id))
		})
	}
}

func TestSuperAdminSkipsStore(t *testing.T) {
	t.Parallel()

	stub := &lookupStub{adminErr: errors.New("must not be called")}
	c := NewClassifier(1, stub, logger.Discard())

	require.Equal(t, SuperAdmin, c.Classify(context.Background(), 1))
	require.Zero(t, stub.calls)
	require.True(t, c.IsSuperAdmin(1))
	require.False(t, c.IsSuperAdmin(2))
}

func TestRoleHelpers(t *testing.T) {
	t.Parallel()

	require.True(t, SuperAdmin.IsAdmin())
	require.True(t, Admin.IsAdmin())
	require.False(t, Customer.IsAdmin())
	require.False(t, Unknown.IsAdmin())
	require.Equal(t, "super_admin", SuperAdmin.String())
}

func TestActorRequire(t *testing.T) {
	t.Parallel()

	require.NoError(t, Actor{Role: SuperAdmin}.Require(SuperAdmin))
	require.NoError(t, Actor{Role: SuperAdmin}.Require(Admin))
	require.NoError(t, Actor{Role: Admin}.Require(Admin))
	require.ErrorIs(t, Actor{Role: Admin}.Require(SuperAdmin), ErrPrivilegeDenied)
	require.ErrorIs(t, Actor{Role: Customer}.Require(Admin), ErrPrivilegeDenied)
}
