// Package auth はパスワード認証とアクセストークンの発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/repository"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

// MaxPasswordBytes はbcryptが受け付けるパスワードの最大バイト数。
const MaxPasswordBytes = 72

// RegisterInput はユーザー登録の入力。
// クライアント互換のため、passwordの代わりにpassword_hashキーも受け付ける（値は平文として扱う）。
type RegisterInput struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	PasswordHash string `json:"password_hash"`
	FullName     string `json:"full_name"`
}

// LoginInput はログインの入力。emailまたはusernameのいずれかを指定する。
type LoginInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Result は登録・ログイン成功時の結果。
type Result struct {
	User  *model.User
	Token string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo   repository.UserRepository
	tokens     *TokenIssuer
	bcryptCost int
	// dummyHash はユーザーが存在しない場合にも比較を行い、応答時間からの存在推測を防ぐ
	dummyHash []byte
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenIssuer, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("portfoliopro-dummy-password"), bcryptCost)
	return &Service{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}
}

// Register はユーザーを登録し、アクセストークンを発行する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	password := in.Password
	if password == "" {
		password = in.PasswordHash
	}

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.NewValidationError("email is not a valid address")
	}
	if len(password) < MinPasswordLength {
		return nil, model.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return nil, model.NewValidationError(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}

	if existing, err := s.userRepo.FindByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if existing != nil {
		return nil, model.NewUserExistsError()
	}
	if existing, err := s.userRepo.FindByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if existing != nil {
		return nil, model.NewUserExistsError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 事前確認と挿入の間に同名登録が割り込んだ場合
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewUserExistsError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return &Result{User: user, Token: token}, nil
}

// Login は認証情報を検証し、アクセストークンを発行する。
// ユーザー不在とパスワード不一致は同一のエラーを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (*Result, error) {
	identifier := strings.TrimSpace(in.Email)
	byEmail := identifier != ""
	if !byEmail {
		identifier = strings.TrimSpace(in.Username)
	}

	var missing []string
	if identifier == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	var user *model.User
	var err error
	if byEmail {
		user, err = s.userRepo.FindByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.userRepo.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		slog.Warn("login failed", slog.String("user_id", user.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Token: token}, nil
}

// CurrentUser は認証済みユーザーの情報を返す。
// トークン発行後にユーザーが削除された場合は401を返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError("User no longer exists")
	}
	return user, nil
}

// VerifyToken はアクセストークンを検証し、ユーザーIDを返す。
func (s *Service) VerifyToken(token string) (string, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
