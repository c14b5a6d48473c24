// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, network, upstream, engagement, system
	Action   string // ユーザー向け対処方法
	Status   int    // ゲートウェイが返すHTTPステータスの目安
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNetwork           = "NETWORK_ERROR"
	ErrCodeUpstreamStatus    = "UPSTREAM_STATUS"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeValidation        = "VALIDATION_FAILED"
	ErrCodeAuthRequired      = "AUTH_REQUIRED"
	ErrCodeAuthFailed        = "AUTH_FAILED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeSessionExpired    = "SESSION_EXPIRED"
	ErrCodeActionInProgress  = "ACTION_IN_PROGRESS"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewNetworkError は通信失敗エラーを生成する。
func NewNetworkError(err error) *APIError {
	return &APIError{
		Code:     ErrCodeNetwork,
		Message:  fmt.Sprintf("サーバーとの通信に失敗しました: %v", err),
		Category: "network",
		Action:   "ネットワーク接続を確認し、しばらく待ってから再度お試しください。",
		Status:   http.StatusBadGateway,
	}
}

// NewUpstreamStatusError はバックエンドが2xx以外を返した場合のエラーを生成する。
// detailにはバックエンドが返したメッセージを渡す（空でもよい）。
func NewUpstreamStatusError(statusCode int, detail string) *APIError {
	msg := fmt.Sprintf("サーバーがステータス %d を返しました", statusCode)
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	return &APIError{
		Code:     ErrCodeUpstreamStatus,
		Message:  msg,
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
		Status:   http.StatusBadGateway,
	}
}

// NewMalformedResponseError はレスポンスJSONの解析に失敗した場合のエラーを生成する。
func NewMalformedResponseError(err error) *APIError {
	return &APIError{
		Code:     ErrCodeMalformedResponse,
		Message:  fmt.Sprintf("サーバーの応答を解析できませんでした: %v", err),
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
		Status:   http.StatusBadGateway,
	}
}

// NewValidationError は入力値の検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容が正しくありません: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Status:   http.StatusBadRequest,
	}
}

// NewAuthRequiredError は未ログイン状態で認証が必要な操作を行った場合のエラーを生成する。
func NewAuthRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthRequired,
		Message:  "この操作にはログインが必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
		Status:   http.StatusUnauthorized,
	}
}

// NewAuthFailedError はバックエンドが認証を拒否した場合のエラーを生成する。
func NewAuthFailedError(detail string) *APIError {
	msg := "認証に失敗しました。"
	if detail != "" {
		msg = fmt.Sprintf("認証に失敗しました: %s", detail)
	}
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  msg,
		Category: "auth",
		Action:   "ログインし直してください。",
		Status:   http.StatusUnauthorized,
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
		Status:   http.StatusForbidden,
	}
}

// NewSessionExpiredError はセッション切れエラーを生成する。
// 呼び出し元はセッションを破棄し、ログイン画面へ誘導する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "セッションの有効期限が切れました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
		Status:   http.StatusUnauthorized,
	}
}

// NewActionInProgressError は同一記事への操作が処理中の場合のエラーを生成する。
func NewActionInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeActionInProgress,
		Message:  "前の操作を処理中です。",
		Category: "engagement",
		Action:   "処理が完了してから再度お試しください。",
		Status:   http.StatusConflict,
	}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません。", resource),
		Category: "upstream",
		Action:   "指定内容を確認してください。",
		Status:   http.StatusNotFound,
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
		Status:   http.StatusInternalServerError,
	}
}

// HasCode はerrがAPIErrorで指定コードを持つかを判定する。
func HasCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// IsAuthFailure は認証失敗（バックエンドの拒否またはセッション切れ）かを判定する。
// このエラーを受け取った呼び出し元はセッションを破棄する。
func IsAuthFailure(err error) bool {
	return HasCode(err, ErrCodeAuthFailed) || HasCode(err, ErrCodeSessionExpired)
}

// IsValidation は入力検証エラーかを判定する。
func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidation)
}
