package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoliopro/portfoliopro/internal/model"
)

func TestPostgresContactRepo_Create_WithoutSite(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresContactRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO contact_submissions (id, site_id, name, email, subject, message)`)).
		WithArgs("c1", nil, "Ann", "ann@example.com", nil, "Hello").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	c := &model.ContactSubmission{ID: "c1", Name: "Ann", Email: "ann@example.com", Message: "Hello"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, now, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresContactRepo_ListByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresContactRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.user_id = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_id", "name", "email", "subject", "message", "created_at"}).
			AddRow("c2", "s1", "Ann", "a@x.com", "Hi", "Second", now).
			AddRow("c1", "s1", "Ann", "a@x.com", nil, "First", now.Add(-time.Hour)))

	subs, err := repo.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "c2", subs[0].ID)
	assert.Equal(t, "", subs[1].Subject)
}

func TestPostgresContactRepo_DeleteOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresContactRepo(db)
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM contact_submissions WHERE created_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
