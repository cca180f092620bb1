package sqlite

import (
	"context"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
)

type sendersRepo struct {
	db dbtx
}

const senderColumns = `id, address, display_name, smtp_host, smtp_port,
	username, password, use_tls, created_at, updated_at`

func scanSender(row rowScanner) (domain.EmailSender, error) {
	var s domain.EmailSender
	err := row.Scan(
		&s.ID, &s.Address, &s.DisplayName, &s.SMTPHost, &s.SMTPPort,
		&s.Username, &s.Password, &s.UseTLS, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *sendersRepo) GetByID(ctx context.Context, id string) (domain.EmailSender, error) {
	s, err := scanSender(r.db.QueryRowContext(ctx,
		`SELECT `+senderColumns+` FROM email_senders WHERE id = ?`, id))
	if err != nil {
		return domain.EmailSender{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sendersRepo) List(ctx context.Context) ([]domain.EmailSender, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+senderColumns+` FROM email_senders ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var senders []domain.EmailSender
	for rows.Next() {
		s, err := scanSender(rows)
		if err != nil {
			return nil, err
		}
		senders = append(senders, s)
	}
	return senders, rows.Err()
}

func (r *sendersRepo) Create(ctx context.Context, s domain.EmailSender) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_senders
			(id, address, display_name, smtp_host, smtp_port, username, password, use_tls)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Address, s.DisplayName, s.SMTPHost, s.SMTPPort,
		s.Username, s.Password, s.UseTLS)
	return mapConstraint(err)
}

func (r *sendersRepo) Update(ctx context.Context, s domain.EmailSender) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_senders
		SET address = ?, display_name = ?, smtp_host = ?, smtp_port = ?,
		    username = ?, password = ?, use_tls = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		s.Address, s.DisplayName, s.SMTPHost, s.SMTPPort,
		s.Username, s.Password, s.UseTLS, s.ID)
	return mapConstraint(err)
}

func (r *sendersRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM email_senders WHERE id = ?`, id)
	return err
}

func (r *sendersRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_senders`).Scan(&count)
	return count, err
}
