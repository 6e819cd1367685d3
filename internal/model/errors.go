// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, subscription, log, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInvalidAccessToken  = "INVALID_ACCESS_TOKEN"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidChannelID    = "INVALID_CHANNEL_ID"
	ErrCodeInvalidSubscriberID = "INVALID_SUBSCRIBER_ID"
	ErrCodeChannelNotFound     = "CHANNEL_NOT_FOUND"
	ErrCodeInvalidLogFilter    = "INVALID_LOG_FILTER"
	ErrCodeLogsNotFound        = "LOGS_NOT_FOUND"
	ErrCodeRateLimited         = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewUnauthorizedError は認証情報が存在しない場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "unauthorized request",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidAccessTokenError はアクセストークンの検証に失敗した場合のエラーを生成する。
// 検証エラーのメッセージをそのまま含める。
func NewInvalidAccessTokenError(reason string) *APIError {
	msg := reason
	if msg == "" {
		msg = "invalid access token"
	}
	return &APIError{
		Code:     ErrCodeInvalidAccessToken,
		Message:  msg,
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUserNotFoundError はトークンに対応するユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "Invalid access token",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidCredentialsError はログイン情報が一致しない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析に失敗した場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidChannelIDError はチャンネルIDの形式が不正な場合のエラーを生成する。
func NewInvalidChannelIDError(channelID string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidChannelID,
		Message:  fmt.Sprintf("Invalid channelId: %s", channelID),
		Category: "validation",
		Action:   "チャンネルIDを確認してください。",
	}
}

// NewInvalidSubscriberIDError は購読者IDの形式が不正な場合のエラーを生成する。
func NewInvalidSubscriberIDError(subscriberID string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSubscriberID,
		Message:  fmt.Sprintf("Invalid subscriber ID: %s", subscriberID),
		Category: "validation",
		Action:   "購読者IDを確認してください。",
	}
}

// NewChannelNotFoundError は購読対象のチャンネルが存在しない場合のエラーを生成する。
func NewChannelNotFoundError(channelID string) *APIError {
	return &APIError{
		Code:     ErrCodeChannelNotFound,
		Message:  fmt.Sprintf("指定されたチャンネルが見つかりません: %s", channelID),
		Category: "subscription",
		Action:   "チャンネルIDを確認してください。",
	}
}

// NewInvalidLogFilterError はログ検索条件が不正な場合のエラーを生成する。
func NewInvalidLogFilterError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLogFilter,
		Message:  fmt.Sprintf("無効な検索条件です: %s", reason),
		Category: "validation",
		Action:   "date は YYYY-MM-DD、startTime/endTime は HH:MM 形式で指定し、時刻を指定する場合は date も指定してください。",
	}
}

// NewLogsNotFoundError は条件に一致するログが存在しない場合のエラーを生成する。
func NewLogsNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeLogsNotFound,
		Message:  "Logs not found",
		Category: "log",
		Action:   "検索条件を変更してください。",
	}
}

// NewRateLimitError はレート制限を超過した場合のエラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Retry-After ヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、レスポンスには含めない。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
