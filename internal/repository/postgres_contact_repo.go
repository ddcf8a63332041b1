package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/portfoliopro/portfoliopro/internal/model"
)

// PostgresContactRepo はPostgreSQLを使用した問い合わせリポジトリ。
type PostgresContactRepo struct {
	db *sql.DB
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(db *sql.DB) *PostgresContactRepo {
	return &PostgresContactRepo{db: db}
}

// Create は問い合わせを作成する。
func (r *PostgresContactRepo) Create(ctx context.Context, c *model.ContactSubmission) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO contact_submissions (id, site_id, name, email, subject, message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		c.ID, nullString(c.SiteID), c.Name, c.Email, nullString(c.Subject), c.Message,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert contact submission: %w", err)
	}
	return nil
}

// ListByOwner はユーザーの所有サイト宛ての問い合わせを新しい順に返す。
func (r *PostgresContactRepo) ListByOwner(ctx context.Context, userID string) ([]*model.ContactSubmission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.site_id, c.name, c.email, c.subject, c.message, c.created_at
		 FROM contact_submissions c
		 INNER JOIN sites s ON s.id = c.site_id
		 WHERE s.user_id = $1
		 ORDER BY c.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*model.ContactSubmission
	for rows.Next() {
		c := &model.ContactSubmission{}
		var siteID, subject sql.NullString
		if err := rows.Scan(&c.ID, &siteID, &c.Name, &c.Email, &subject, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact submission: %w", err)
		}
		c.SiteID = siteID.String
		c.Subject = subject.String
		submissions = append(submissions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact submissions: %w", err)
	}
	return submissions, nil
}

// DeleteOlderThan はcutoffより前に作成された問い合わせを削除する。
func (r *PostgresContactRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM contact_submissions WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old contact submissions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ ContactRepository = (*PostgresContactRepo)(nil)
