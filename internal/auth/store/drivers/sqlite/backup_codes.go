package sqlite

import "context"

type backupCodesRepo struct {
	db dbtx
}

func (r *backupCodesRepo) Replace(ctx context.Context, accountID string, hashes []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM backup_codes WHERE account_id = ?`, accountID); err != nil {
		return err
	}

	for _, hash := range hashes {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO backup_codes (account_id, code_hash) VALUES (?, ?)`,
			accountID, hash); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

// Redeem deletes the matching row so a code can never be used twice. The
// delete-and-check is one statement, so two concurrent redemptions of the
// same code cannot both succeed.
func (r *backupCodesRepo) Redeem(ctx context.Context, accountID, hash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM backup_codes WHERE account_id = ? AND code_hash = ?`,
		accountID, hash)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *backupCodesRepo) DeleteAll(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM backup_codes WHERE account_id = ?`, accountID)
	return err
}

func (r *backupCodesRepo) Count(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM backup_codes WHERE account_id = ?`, accountID).
		Scan(&count)
	return count, err
}
