package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
)

// UserColumns はusersテーブルのSELECT/RETURNING用カラムリスト。
const UserColumns = "id, username, email, password_hash, full_name, bio, avatar_url, location, website, created_at, updated_at"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var fullName, bio, avatarURL, location, website sql.NullString
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&fullName, &bio, &avatarURL, &location, &website,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.FullName = fullName.String
	u.Bio = bio.String
	u.AvatarURL = avatarURL.String
	u.Location = location.String
	u.Website = website.String
	return u, nil
}

func (r *PostgresUserRepo) findOne(ctx context.Context, column, value string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+UserColumns+` FROM users WHERE `+column+` = $1`,
		value,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by %s: %w", column, err)
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username", username)
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, full_name)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		user.ID, user.Username, user.Email, user.PasswordHash, nullString(user.FullName),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return wrapUniqueViolation(err, "failed to insert user")
	}
	return nil
}

// Update は組み立て済みのUPDATE文を実行し、更新後のユーザーを返す。
func (r *PostgresUserRepo) Update(ctx context.Context, st *patch.Statement) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, st.SQL, st.Args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
