package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
)

type policyRepo struct {
	db dbtx
}

// Get returns the singleton policy row, creating the default one on first
// read. INSERT OR IGNORE keeps the create race-free when two requests hit a
// fresh database at once.
func (r *policyRepo) Get(ctx context.Context) (domain.SystemPolicy, error) {
	p, err := r.get(ctx)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.SystemPolicy{}, err
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO configuration (id, two_factor_enabled, app_name)
		VALUES (1, 0, ?)`, domain.DefaultAppName); err != nil {
		return domain.SystemPolicy{}, err
	}

	return r.get(ctx)
}

func (r *policyRepo) get(ctx context.Context) (domain.SystemPolicy, error) {
	var (
		p        domain.SystemPolicy
		senderID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT two_factor_enabled, app_name, recovery_sender_id, updated_at
		FROM configuration WHERE id = 1`).
		Scan(&p.TwoFactorEnabled, &p.AppName, &senderID, &p.UpdatedAt)
	if err != nil {
		return domain.SystemPolicy{}, err
	}
	p.RecoverySenderID = mapNullStringPtr(senderID)
	return p, nil
}

func (r *policyRepo) Update(ctx context.Context, p domain.SystemPolicy) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE configuration
		SET two_factor_enabled = ?, app_name = ?, recovery_sender_id = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1`,
		p.TwoFactorEnabled, p.AppName, mapOptionalString(p.RecoverySenderID))
	return err
}
