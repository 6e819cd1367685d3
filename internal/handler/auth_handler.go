// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/tubeline/internal/middleware"
	"github.com/hitoshi/tubeline/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限。
const maxRequestBodyBytes = 1 << 20

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login は資格情報を検証し、アクセストークンを発行する。
	Login(ctx context.Context, login, password string) (*loginResult, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler はログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。usernameとemailのどちらかが必須。
type loginRequest struct {
	Username string `json:"username" validate:"required_without=Email,max=64"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// loginResult はログイン成功時の結果。
type loginResult struct {
	User        userResponse
	AccessToken string
	ExpiresAt   time.Time
}

// loginResponse はログインのレスポンスデータ。
type loginResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
}

var (
	requestValidator     *validator.Validate
	requestValidatorOnce sync.Once
)

// getRequestValidator はJSONタグ名でエラーを報告するバリデーターを返す。
func getRequestValidator() *validator.Validate {
	requestValidatorOnce.Do(func() {
		requestValidator = validator.New(validator.WithRequiredStructEnabled())
		requestValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return requestValidator
}

// decodeAndValidate はJSONボディを読み込み、構造体タグで検証する。
func decodeAndValidate(r *http.Request, w http.ResponseWriter, dst interface{}) *model.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.NewInvalidRequestError("リクエストボディの解析に失敗しました")
	}
	if err := getRequestValidator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return model.NewInvalidRequestError(verrs[0].Field() + " is invalid")
		}
		return model.NewInvalidRequestError(err.Error())
	}
	return nil
}

// Login は資格情報を検証し、アクセストークンをCookieとボディの両方で返す。
// POST /api/v1/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := decodeAndValidate(r, w, &req); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	login := req.Username
	if login == "" {
		login = req.Email
	}

	result, err := h.service.Login(r.Context(), login, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookieName,
		Value:    result.AccessToken,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.WriteSuccessResponse(w, http.StatusOK, loginResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
	}, "User logged in successfully")
}

// Logout はアクセストークンCookieを削除する。
// トークン自体はステートレスなため、失効は有効期限に任せる。
// POST /api/v1/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.WriteSuccessResponse(w, http.StatusOK, struct{}{}, "User logged out successfully")
}
