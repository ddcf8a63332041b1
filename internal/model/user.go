// Package model はドメインモデルを定義する。
package model

import "time"

// User はポートフォリオを作成するユーザーを表す。
// PasswordHashはbcryptハッシュであり、平文パスワードは保持しない。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Bio          string
	AvatarURL    string
	Location     string
	Website      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
