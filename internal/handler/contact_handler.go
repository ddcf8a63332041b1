package handler

import (
	"context"
	"net/http"

	"github.com/portfoliopro/portfoliopro/internal/contact"
	"github.com/portfoliopro/portfoliopro/internal/model"
)

// ContactServiceInterface は問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	Submit(ctx context.Context, in contact.SubmitInput) (*model.ContactSubmission, error)
}

// ContactHandler は公開サイトからの問い合わせ受付のHTTPハンドラー。認証不要。
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

// Submit は問い合わせを受け付ける。
// POST /api/contact/submit
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in contact.SubmitInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	submission, err := h.service.Submit(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toSubmissionResponse(submission))
}
