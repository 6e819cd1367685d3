package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/tubeline/internal/filelog"
	"github.com/hitoshi/tubeline/internal/middleware"
)

// SubscriptionServiceInterface は購読ハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// Toggle は購読を反転し、操作後に購読状態であればtrueを返す。
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	// ListChannelSubscribers はチャンネルの購読者一覧を返す。
	ListChannelSubscribers(ctx context.Context, callerID, channelID string) ([]channelSubscriberResponse, error)
	// ListSubscribedChannels はユーザーが購読しているチャンネル一覧を返す。
	ListSubscribedChannels(ctx context.Context, callerID, subscriberID string) ([]subscribedChannelResponse, error)
}

// SubscriptionHandler は購読管理のHTTPハンドラー。
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
	fileLog FileLogger
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
func NewSubscriptionHandler(service SubscriptionServiceInterface, fileLog FileLogger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		fileLog: fileLog,
	}
}

// toggleResponse は購読トグルのレスポンスデータ。
type toggleResponse struct {
	Subscribed bool `json:"subscribed"`
}

// subscriberProfileResponse は購読者一覧の1件に含まれる購読者情報。
type subscriberProfileResponse struct {
	ID                     string `json:"_id"`
	Username               string `json:"username"`
	FullName               string `json:"fullname"`
	Avatar                 string `json:"avatar"`
	SubscribedToSubscriber bool   `json:"subscribedtosubscriber"`
	SubscriberCount        int    `json:"subscribercount"`
}

// channelSubscriberResponse はチャンネル購読者一覧の1件。
type channelSubscriberResponse struct {
	ID         string                    `json:"_id"`
	Subscriber subscriberProfileResponse `json:"subscriber"`
}

// videoResponse は購読チャンネル一覧に含まれる動画情報。
type videoResponse struct {
	ID          string    `json:"_id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	CreatedAt   time.Time `json:"createdAt"`
	Views       int64     `json:"views"`
}

// channelProfileResponse は購読チャンネル一覧の1件に含まれるチャンネル情報。
type channelProfileResponse struct {
	ID          string          `json:"_id"`
	Username    string          `json:"username"`
	FullName    string          `json:"fullname"`
	Avatar      string          `json:"avatar"`
	Videos      []videoResponse `json:"videos"`
	LatestVideo *videoResponse  `json:"latestVideo"`
}

// subscribedChannelResponse は購読チャンネル一覧の1件。
type subscribedChannelResponse struct {
	ID                string                 `json:"_id"`
	SubscribedChannel channelProfileResponse `json:"subscribedChannel"`
}

// ToggleSubscription はチャンネルの購読を登録または解除する。
// POST /api/v1/subscriptions/{id}
func (h *SubscriptionHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	channelID := chi.URLParam(r, "id")
	h.fileLog.Write(filelog.LevelInfo, fmt.Sprintf(
		"Toggle subscription request received. Method: %s, URL: %s, User ID: %s, Channel ID: %s",
		r.Method, r.URL.String(), userID, channelID,
	))

	subscribed, err := h.service.Toggle(r.Context(), userID, channelID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	middleware.WriteSuccessResponse(w, http.StatusOK, toggleResponse{Subscribed: subscribed}, message)
}

// GetChannelSubscribers はチャンネルの購読者一覧を取得する。
// GET /api/v1/subscriptions/{id}/subscribers
func (h *SubscriptionHandler) GetChannelSubscribers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	channelID := chi.URLParam(r, "id")
	h.fileLog.Write(filelog.LevelInfo, fmt.Sprintf(
		"Get channel subscribers request received. Method: %s, URL: %s, User ID: %s, Channel ID: %s",
		r.Method, r.URL.String(), userID, channelID,
	))

	subscribers, err := h.service.ListChannelSubscribers(r.Context(), userID, channelID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteSuccessResponse(w, http.StatusOK, subscribers, "Subscribers fetched successfully")
}

// GetSubscribedChannels はユーザーが購読しているチャンネル一覧を取得する。
// GET /api/v1/subscriptions/{id}/channels
func (h *SubscriptionHandler) GetSubscribedChannels(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	subscriberID := chi.URLParam(r, "id")
	h.fileLog.Write(filelog.LevelInfo, fmt.Sprintf(
		"Get subscribed channels request received. Method: %s, URL: %s, User ID: %s, Subscriber ID: %s",
		r.Method, r.URL.String(), userID, subscriberID,
	))

	channels, err := h.service.ListSubscribedChannels(r.Context(), userID, subscriberID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteSuccessResponse(w, http.StatusOK, channels, "Successfully retrieved subscribed channels")
}
