// Package contact は訪問者からの問い合わせ受付を提供する。
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/ownership"
	"github.com/portfoliopro/portfoliopro/internal/repository"
	"github.com/portfoliopro/portfoliopro/internal/security"
)

// 入力文字数の上限
const (
	maxNameLength    = 200
	maxSubjectLength = 300
	maxMessageLength = 5000
)

// SubmissionRecorder は問い合わせの受付を記録する。
type SubmissionRecorder interface {
	RecordContactSubmission()
}

// SubmitInput は問い合わせの入力。SiteIDは省略できる。
type SubmitInput struct {
	SiteID  string `json:"site_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Service は問い合わせのサービス層。
type Service struct {
	contactRepo repository.ContactRepository
	siteRepo    repository.SiteRepository
	sanitizer   security.ContentSanitizer
	recorder    SubmissionRecorder
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(
	contactRepo repository.ContactRepository,
	siteRepo repository.SiteRepository,
	sanitizer security.ContentSanitizer,
	recorder SubmissionRecorder,
) *Service {
	return &Service{
		contactRepo: contactRepo,
		siteRepo:    siteRepo,
		sanitizer:   sanitizer,
		recorder:    recorder,
	}
}

// Submit は問い合わせを保存する。認証は不要。
// 本文などのテキストはタグを除去してから保存する。
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*model.ContactSubmission, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	message := strings.TrimSpace(in.Message)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, model.NewValidationError("email must be a valid email address")
	}
	switch {
	case len([]rune(name)) > maxNameLength:
		return nil, model.NewValidationError(fmt.Sprintf("name must be at most %d characters", maxNameLength))
	case len([]rune(in.Subject)) > maxSubjectLength:
		return nil, model.NewValidationError(fmt.Sprintf("subject must be at most %d characters", maxSubjectLength))
	case len([]rune(message)) > maxMessageLength:
		return nil, model.NewValidationError(fmt.Sprintf("message must be at most %d characters", maxMessageLength))
	}

	siteID := strings.TrimSpace(in.SiteID)
	if siteID != "" {
		if !ownership.ValidID(siteID) {
			return nil, model.NewNotFoundError(model.ResourceSite, siteID)
		}
		_, found, err := s.siteRepo.OwnerOf(ctx, siteID)
		if err != nil {
			return nil, fmt.Errorf("failed to find site: %w", err)
		}
		if !found {
			return nil, model.NewNotFoundError(model.ResourceSite, siteID)
		}
	}

	c := &model.ContactSubmission{
		ID:      uuid.New().String(),
		SiteID:  siteID,
		Name:    s.sanitizer.PlainText(name),
		Email:   email,
		Subject: s.sanitizer.PlainText(in.Subject),
		Message: s.sanitizer.PlainText(message),
	}
	if err := s.contactRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contact submission: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordContactSubmission()
	}
	slog.Info("contact submission received",
		slog.String("submission_id", c.ID),
		slog.String("site_id", siteID),
	)
	return c, nil
}

// ListForOwner はユーザーの所有サイト宛ての問い合わせを新しい順に返す。
func (s *Service) ListForOwner(ctx context.Context, userID string) ([]*model.ContactSubmission, error) {
	subs, err := s.contactRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact submissions: %w", err)
	}
	return subs, nil
}
