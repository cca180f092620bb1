package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, username, email, name, last_name, password_hash,
	last_login, totp_secret, totp_enabled,
	recovery_code_hash, recovery_code_expires,
	password_reset_hash, password_reset_expires,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a          domain.Account
		lastLogin  sql.NullTime
		totpSecret sql.NullString
		recHash    sql.NullString
		recExpires sql.NullTime
		rstHash    sql.NullString
		rstExpires sql.NullTime
	)

	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.Name, &a.LastName, &a.PasswordHash,
		&lastLogin, &totpSecret, &a.TOTPEnabled,
		&recHash, &recExpires,
		&rstHash, &rstExpires,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}

	a.LastLogin = mapNullTimePtr(lastLogin)
	a.TOTPSecret = mapNullStringPtr(totpSecret)
	a.RecoveryCodeHash = mapNullStringPtr(recHash)
	a.RecoveryCodeExpires = mapNullTimePtr(recExpires)
	a.PasswordResetHash = mapNullStringPtr(rstHash)
	a.PasswordResetExpires = mapNullTimePtr(rstExpires)
	return a, nil
}

func (r *accountsRepo) loadRoles(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ro.name
		FROM account_roles ar
		JOIN roles ro ON ro.id = ar.role_id
		WHERE ar.account_id = ?
		ORDER BY ro.name`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	if a.Roles, err = r.loadRoles(ctx, a.ID); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

func (r *accountsRepo) GetByIdentifier(ctx context.Context, identifier string) (domain.Account, error) {
	// username and email are both COLLATE NOCASE, so = is case-insensitive.
	// A username match outranks an email match, so one account's email can
	// never shadow another account's username.
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = ?1 OR email = ?1
		ORDER BY (username = ?1) DESC
		LIMIT 1`,
		identifier)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	if a.Roles, err = r.loadRoles(ctx, a.ID); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

func (r *accountsRepo) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One membership query for the lot, grouped in memory.
	memberships, err := r.db.QueryContext(ctx, `
		SELECT ar.account_id, ro.name
		FROM account_roles ar
		JOIN roles ro ON ro.id = ar.role_id
		ORDER BY ro.name`)
	if err != nil {
		return nil, err
	}
	defer memberships.Close()

	byAccount := make(map[string][]string)
	for memberships.Next() {
		var accountID, roleName string
		if err := memberships.Scan(&accountID, &roleName); err != nil {
			return nil, err
		}
		byAccount[accountID] = append(byAccount[accountID], roleName)
	}
	if err := memberships.Err(); err != nil {
		return nil, err
	}

	for i := range accounts {
		accounts[i].Roles = byAccount[accounts[i].ID]
	}
	return accounts, nil
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, name, last_name, password_hash)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Username, a.Email, a.Name, a.LastName, a.PasswordHash)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdateProfile(ctx context.Context, id, email, name, lastName string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET email = ?, name = ?, last_name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		email, name, lastName, id)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id, newHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		newHash, id)
	return err
}

func (r *accountsRepo) UpdateLastLogin(ctx context.Context, id string, when time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET last_login = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		when.UTC(), id)
	return err
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return err
}

func (r *accountsRepo) EnableTOTP(ctx context.Context, id, secret string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET totp_secret = ?, totp_enabled = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		secret, id)
	return err
}

func (r *accountsRepo) DisableTOTP(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET totp_secret = NULL, totp_enabled = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		id)
	return err
}

func (r *accountsRepo) SetRecoveryCode(ctx context.Context, id string, hash *string, expires *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET recovery_code_hash = ?, recovery_code_expires = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		mapOptionalString(hash), mapOptionalTime(expires), id)
	return err
}

func (r *accountsRepo) SetPasswordReset(ctx context.Context, id string, hash *string, expires *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET password_reset_hash = ?, password_reset_expires = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		mapOptionalString(hash), mapOptionalTime(expires), id)
	return err
}

func (r *accountsRepo) ClearExpiredCodes(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET recovery_code_hash = CASE WHEN recovery_code_expires < ?1 THEN NULL ELSE recovery_code_hash END,
		    recovery_code_expires = CASE WHEN recovery_code_expires < ?1 THEN NULL ELSE recovery_code_expires END,
		    password_reset_hash = CASE WHEN password_reset_expires < ?1 THEN NULL ELSE password_reset_hash END,
		    password_reset_expires = CASE WHEN password_reset_expires < ?1 THEN NULL ELSE password_reset_expires END
		WHERE (recovery_code_expires IS NOT NULL AND recovery_code_expires < ?1)
		   OR (password_reset_expires IS NOT NULL AND password_reset_expires < ?1)`,
		olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *accountsRepo) ReplaceRoles(ctx context.Context, accountID string, roleIDs []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM account_roles WHERE account_id = ?`, accountID); err != nil {
		return err
	}

	for _, roleID := range roleIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO account_roles (account_id, role_id) VALUES (?, ?)`,
			accountID, roleID); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *accountsRepo) CountWithRole(ctx context.Context, roleName string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM account_roles ar
		JOIN roles ro ON ro.id = ar.role_id
		WHERE ro.name = ?`, roleName).Scan(&count)
	return count, err
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
