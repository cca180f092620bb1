package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func newBootstrapService(t *testing.T) *BootstrapService {
	t.Helper()

	st := newTestStore(t)
	return &BootstrapService{Store: st, Roles: &RolesService{Store: st}}
}

func TestBootstrap(t *testing.T) {
	svc := newBootstrapService(t)
	ctx := context.Background()

	require.NoError(t, svc.Run(ctx, "root", "root@example.com", "bootstrap-password"))

	roles, err := svc.Store.Roles().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 5)

	acct, err := svc.Store.Accounts().GetByIdentifier(ctx, "root")
	require.NoError(t, err)
	require.True(t, acct.HasRole(domain.AdminRole))

	// A restart with different credentials changes nothing.
	require.NoError(t, svc.Run(ctx, "other", "other@example.com", "another-password"))

	accounts, err := svc.Store.Accounts().List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestBootstrapWithoutCredentials(t *testing.T) {
	svc := newBootstrapService(t)
	ctx := context.Background()

	// Missing credentials only warn; roles are still seeded.
	require.NoError(t, svc.Run(ctx, "", "", ""))

	roles, err := svc.Store.Roles().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 5)

	empty, err := svc.Store.Accounts().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)
}

func TestBootstrapSkipsNonEmptyDatabase(t *testing.T) {
	svc := newBootstrapService(t)
	ctx := context.Background()

	seedAccount(t, svc.Store, "existing")

	require.NoError(t, svc.Run(ctx, "root", "root@example.com", "bootstrap-password"))

	_, err := svc.Store.Accounts().GetByIdentifier(ctx, "root")
	require.Error(t, err, "no admin should be created when accounts exist")
}
