package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestDomains(t *testing.T) {
	svc := &DomainsService{Store: newTestStore(t)}
	ctx := context.Background()

	t.Run("creates with normalized names", func(t *testing.T) {
		d, err := svc.Create(ctx, "  Example.COM ")
		require.NoError(t, err)
		require.Equal(t, "example.com", d.Name)
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		for _, name := range []string{"", "nodots", "-bad.com", "spaces in.com", "trailing."} {
			_, err := svc.Create(ctx, name)
			require.ErrorIs(t, err, domain.ErrValidation, "name %q", name)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := svc.Create(ctx, "example.com")
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("list and delete", func(t *testing.T) {
		list, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, svc.Delete(ctx, list[0].ID))

		list, err = svc.List(ctx)
		require.NoError(t, err)
		require.Empty(t, list)
	})
}
