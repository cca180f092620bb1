package sqlite

import (
	"context"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
)

type domainsRepo struct {
	db dbtx
}

func (r *domainsRepo) List(ctx context.Context) ([]domain.HostedDomain, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM domains ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []domain.HostedDomain
	for rows.Next() {
		var d domain.HostedDomain
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (r *domainsRepo) Create(ctx context.Context, d domain.HostedDomain) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO domains (id, name) VALUES (?, ?)`, d.ID, d.Name)
	return mapConstraint(err)
}

func (r *domainsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM domains WHERE id = ?`, id)
	return err
}
