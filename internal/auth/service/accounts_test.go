package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	"github.com/aussiebroadwan/concierge/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newAccountService(t *testing.T) (*AccountService, map[string]domain.Role) {
	t.Helper()

	st := newTestStore(t)
	require.NoError(t, (&RolesService{Store: st}).EnsureDefaults(context.Background()))

	roles := make(map[string]domain.Role)
	list, err := st.Roles().ListAll(context.Background())
	require.NoError(t, err)
	for _, r := range list {
		roles[r.Name] = r
	}

	return &AccountService{Store: st}, roles
}

func TestAccountCreate(t *testing.T) {
	svc, roles := newAccountService(t)
	ctx := context.Background()

	t.Run("creates an account with role memberships", func(t *testing.T) {
		acct, err := svc.Create(ctx, CreateParams{
			Username: "alice",
			Email:    "Alice@Example.com",
			Name:     "Alice",
			LastName: "Smith",
			Password: "long-enough-password",
			RoleIDs:  []string{roles["admin"].ID, roles["manager"].ID},
		})
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", acct.Email, "emails are lowercased")
		require.ElementsMatch(t, []string{"admin", "manager"}, acct.Roles)
		require.True(t, acct.HasRole(domain.AdminRole))
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateParams{
			Username: "alice",
			Email:    "other@example.com",
			Password: "long-enough-password",
		})
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("validation failures", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateParams{Email: "x@example.com", Password: "long-enough-password"})
		require.ErrorIs(t, err, domain.ErrValidation, "missing username")

		_, err = svc.Create(ctx, CreateParams{Username: "bob", Email: "not-an-email", Password: "long-enough-password"})
		require.ErrorIs(t, err, domain.ErrValidation, "bad email")

		_, err = svc.Create(ctx, CreateParams{Username: "bob", Email: "bob@example.com", Password: "short"})
		require.ErrorIs(t, err, domain.ErrValidation, "short password")
	})

	t.Run("unknown role fails the whole create", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateParams{
			Username: "carol",
			Email:    "carol@example.com",
			Password: "long-enough-password",
			RoleIDs:  []string{"no-such-role"},
		})
		require.ErrorIs(t, err, domain.ErrValidation)

		_, err = svc.Store.Accounts().GetByIdentifier(ctx, "carol")
		require.Error(t, err, "the account must not have been created")
	})
}

func TestAccountUpdateProfile(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()
	acct := seedAccount(t, svc.Store, "alice")
	seedAccount(t, svc.Store, "bob")

	t.Run("updates the profile fields", func(t *testing.T) {
		got, err := svc.UpdateProfile(ctx, acct.ID, "new@example.com", "New", "Name")
		require.NoError(t, err)
		require.Equal(t, "new@example.com", got.Email)
		require.Equal(t, "New", got.Name)
		require.Equal(t, "Name", got.LastName)
	})

	t.Run("taken email", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, acct.ID, "bob@example.com", "Alice", "Smith")
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("bad email", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, acct.ID, "nope", "Alice", "Smith")
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestAccountPasswords(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()
	acct := seedAccount(t, svc.Store, "alice")

	t.Run("self-service change requires the current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, acct.ID, "wrong-password", "replacement-pass")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)

		require.NoError(t, svc.ChangePassword(ctx, acct.ID, testPassword, "replacement-pass"))

		got, err := svc.Store.Accounts().GetByID(ctx, acct.ID)
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("replacement-pass", got.PasswordHash))
	})

	t.Run("admin set needs no current password", func(t *testing.T) {
		require.NoError(t, svc.SetPassword(ctx, acct.ID, "admin-chosen-pass"))

		got, err := svc.Store.Accounts().GetByID(ctx, acct.ID)
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("admin-chosen-pass", got.PasswordHash))
	})

	t.Run("short passwords are rejected on both paths", func(t *testing.T) {
		require.ErrorIs(t, svc.ChangePassword(ctx, acct.ID, "admin-chosen-pass", "short"), domain.ErrValidation)
		require.ErrorIs(t, svc.SetPassword(ctx, acct.ID, "short"), domain.ErrValidation)
	})
}

func TestAccountDelete(t *testing.T) {
	svc, roles := newAccountService(t)
	ctx := context.Background()

	admin := seedAccount(t, svc.Store, "admin1")
	require.NoError(t, svc.Store.Accounts().ReplaceRoles(ctx, admin.ID, []string{roles["admin"].ID}))
	plain := seedAccount(t, svc.Store, "plain")

	t.Run("self-deletion is refused", func(t *testing.T) {
		require.ErrorIs(t, svc.Delete(ctx, admin.ID, admin.ID), domain.ErrPolicyViolation)
	})

	t.Run("the last admin cannot be deleted", func(t *testing.T) {
		require.ErrorIs(t, svc.Delete(ctx, plain.ID, admin.ID), domain.ErrPolicyViolation)
	})

	t.Run("an admin can be deleted once another exists", func(t *testing.T) {
		second := seedAccount(t, svc.Store, "admin2")
		require.NoError(t, svc.Store.Accounts().ReplaceRoles(ctx, second.ID, []string{roles["admin"].ID}))

		require.NoError(t, svc.Delete(ctx, second.ID, admin.ID))

		_, err := svc.Store.Accounts().GetByID(ctx, admin.ID)
		require.Error(t, err)
	})

	t.Run("unknown account", func(t *testing.T) {
		require.ErrorIs(t, svc.Delete(ctx, plain.ID, "no-such-id"), domain.ErrNotFound)
	})
}

func TestAssignRoles(t *testing.T) {
	svc, roles := newAccountService(t)
	ctx := context.Background()

	admin := seedAccount(t, svc.Store, "admin1")
	require.NoError(t, svc.Store.Accounts().ReplaceRoles(ctx, admin.ID, []string{roles["admin"].ID}))

	t.Run("the last admin cannot lose the admin role", func(t *testing.T) {
		_, err := svc.AssignRoles(ctx, admin.ID, []string{roles["manager"].ID})
		require.ErrorIs(t, err, domain.ErrPolicyViolation)
	})

	t.Run("keeping admin while adding roles is fine", func(t *testing.T) {
		got, err := svc.AssignRoles(ctx, admin.ID, []string{roles["admin"].ID, roles["manager"].ID})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"admin", "manager"}, got.Roles)
	})

	t.Run("with a second admin the role can move", func(t *testing.T) {
		second := seedAccount(t, svc.Store, "admin2")
		require.NoError(t, svc.Store.Accounts().ReplaceRoles(ctx, second.ID, []string{roles["admin"].ID}))

		got, err := svc.AssignRoles(ctx, admin.ID, []string{roles["manager"].ID})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"manager"}, got.Roles)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.AssignRoles(ctx, admin.ID, []string{"no-such-role"})
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestForceReset2FA(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	login := &LoginService{Store: svc.Store, Tokens: newTokenService(t), TwoFactor: &TwoFactorService{}}
	acct := seedAccount(t, svc.Store, "alice")
	enroll(t, login, acct.ID)

	hash := cryptox.FingerprintToken("123456")
	expires := time.Now().UTC().Add(10 * time.Minute)
	require.NoError(t, svc.Store.Accounts().SetRecoveryCode(ctx, acct.ID, &hash, &expires))

	require.NoError(t, svc.ForceReset2FA(ctx, acct.ID))

	got, err := svc.Store.Accounts().GetByID(ctx, acct.ID)
	require.NoError(t, err)
	require.False(t, got.TOTPEnabled)
	require.Nil(t, got.TOTPSecret)
	require.Nil(t, got.RecoveryCodeHash)

	count, err := svc.Store.BackupCodes().Count(ctx, acct.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}
