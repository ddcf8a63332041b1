package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/portfoliopro/portfoliopro/internal/model"
)

// --- モック定義 ---

type mockVerifier struct {
	verifyFn func(token string) (string, error)
}

func (m *mockVerifier) VerifyToken(token string) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(token)
	}
	return "", errors.New("not configured")
}

func acceptToken(valid, userID string) *mockVerifier {
	return &mockVerifier{
		verifyFn: func(token string) (string, error) {
			if token == valid {
				return userID, nil
			}
			return "", model.NewInvalidTokenError()
		},
	}
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.ErrorCode
}

// --- テスト ---

func TestAuthMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	mw := NewAuthMiddleware(acceptToken("valid-token", "user-123"))

	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sites", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedUserID != "user-123" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-123")
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	mw := NewAuthMiddleware(acceptToken("t", "u"))
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sites", nil)
	req.Header.Set("Authorization", "bearer t")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"no header", "", model.ErrCodeUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", model.ErrCodeUnauthorized},
		{"empty token", "Bearer   ", model.ErrCodeUnauthorized},
		{"no token", "Bearer", model.ErrCodeUnauthorized},
		{"invalid token", "Bearer forged", model.ErrCodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewAuthMiddleware(acceptToken("valid-token", "user-123"))
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("next handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/sites", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if code := decodeErrorCode(t, w); code != tt.wantCode {
				t.Errorf("error_code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_EmptySubjectIsRejected(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{verifyFn: func(string) (string, error) { return "", nil }})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sites", nil)
	req.Header.Set("Authorization", "Bearer x")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("expected error for context without user ID")
	}
	if id, err := UserIDFromContext(ContextWithUserID(req.Context(), "u")); err != nil || id != "u" {
		t.Errorf("UserIDFromContext = %q, %v", id, err)
	}
}
