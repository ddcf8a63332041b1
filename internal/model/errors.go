// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// ErrorKind はエラーの種別を表す。HTTPステータスは種別のみから決定する。
type ErrorKind string

const (
	// KindValidation は入力不備（必須項目の欠落、形式不正）。
	KindValidation ErrorKind = "validation"
	// KindUnauthorized は認証情報の欠落・不正・期限切れ。
	KindUnauthorized ErrorKind = "unauthorized"
	// KindForbidden は認証済みだが所有者ではない。
	KindForbidden ErrorKind = "forbidden"
	// KindNotFound は対象リソースが存在しない。
	KindNotFound ErrorKind = "not_found"
	// KindInternal はインフラ障害などの想定外エラー。
	KindInternal ErrorKind = "internal"
	// KindRateLimited はレート制限の超過。レートリミッターのみが生成する。
	KindRateLimited ErrorKind = "rate_limited"
)

// APIError は統一エラーフォーマットを表す。
type APIError struct {
	Kind    ErrorKind // エラー種別
	Code    string    // エラーコード
	Message string    // エラーメッセージ
	Details any       // 補足情報（不足フィールド一覧など）。省略可
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnknownFields      = "UNKNOWN_FIELDS"
	ErrCodeNoUpdatableFields  = "NO_UPDATABLE_FIELDS"
	ErrCodeUserExists         = "USER_EXISTS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidUpload      = "INVALID_UPLOAD"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// Resource はオーナーチェーンの対象となるリソース種別。
type Resource string

const (
	ResourceUser       Resource = "user"
	ResourceSite       Resource = "site"
	ResourceProject    Resource = "project"
	ResourceAsset      Resource = "asset"
	ResourceSubmission Resource = "submission"
)

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeInvalidRequest,
		Message: fmt.Sprintf("Invalid request body: %s", reason),
	}
}

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingFieldsError(fields ...string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeMissingFields,
		Message: fmt.Sprintf("Missing required fields: %s", strings.Join(fields, ", ")),
		Details: map[string]any{"fields": fields},
	}
}

// NewValidationError は一般的なバリデーションエラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// NewUnknownFieldsError は許可リスト外のフィールドを含む更新要求のエラーを生成する。
func NewUnknownFieldsError(fields []string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeUnknownFields,
		Message: fmt.Sprintf("Unknown or read-only fields: %s", strings.Join(fields, ", ")),
		Details: map[string]any{"fields": fields},
	}
}

// NewNoUpdatableFieldsError は更新対象フィールドが1つもない場合のエラーを生成する。
func NewNoUpdatableFieldsError() *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeNoUpdatableFields,
		Message: "No updatable fields provided",
	}
}

// NewUserExistsError はユーザー名またはメールアドレスの重複エラーを生成する。
func NewUserExistsError() *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeUserExists,
		Message: "Username or email is already registered",
	}
}

// NewUnauthorizedError は認証が必要な場合のエラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	if message == "" {
		message = "Authentication required"
	}
	return &APIError{
		Kind:    KindUnauthorized,
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// NewInvalidTokenError はトークンが不正または期限切れの場合のエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Kind:    KindUnauthorized,
		Code:    ErrCodeInvalidToken,
		Message: "Invalid or expired token",
	}
}

// NewInvalidCredentialsError は認証情報が一致しない場合のエラーを生成する。
// ユーザーの存在有無を推測されないよう、常に同一メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:    KindUnauthorized,
		Code:    ErrCodeInvalidCredentials,
		Message: "Invalid credentials",
	}
}

// NewForbiddenError は所有者以外による操作のエラーを生成する。
func NewForbiddenError(resource Resource) *APIError {
	return &APIError{
		Kind:    KindForbidden,
		Code:    ErrCodeForbidden,
		Message: fmt.Sprintf("Access denied to %s", resource),
	}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(resource Resource, id string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Code:    strings.ToUpper(string(resource)) + "_NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", strings.ToUpper(string(resource[:1]))+string(resource[1:]), id),
	}
}

// NewInvalidUploadError はアップロードファイルが不正な場合のエラーを生成する。
func NewInvalidUploadError(reason string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeInvalidUpload,
		Message: fmt.Sprintf("Invalid upload: %s", reason),
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Kind:    KindRateLimited,
		Code:    ErrCodeRateLimited,
		Message: "Too many requests, please try again later",
	}
}

// NewInternalError は内部エラーの汎用レスポンスを生成する。
// 詳細はログのみに記録し、呼び出し元には一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Kind:    KindInternal,
		Code:    ErrCodeInternal,
		Message: "Internal server error",
	}
}
