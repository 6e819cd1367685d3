package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/tubeline/internal/middleware"
	"github.com/hitoshi/tubeline/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	loginFn func(ctx context.Context, login, password string) (*loginResult, error)
}

func (m *mockAuthService) Login(ctx context.Context, login, password string) (*loginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, login, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

type mockSubscriptionService struct {
	toggleFn                 func(ctx context.Context, subscriberID, channelID string) (bool, error)
	listChannelSubscribersFn func(ctx context.Context, callerID, channelID string) ([]channelSubscriberResponse, error)
	listSubscribedChannelsFn func(ctx context.Context, callerID, subscriberID string) ([]subscribedChannelResponse, error)
}

func (m *mockSubscriptionService) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, subscriberID, channelID)
	}
	return false, nil
}

func (m *mockSubscriptionService) ListChannelSubscribers(ctx context.Context, callerID, channelID string) ([]channelSubscriberResponse, error) {
	if m.listChannelSubscribersFn != nil {
		return m.listChannelSubscribersFn(ctx, callerID, channelID)
	}
	return []channelSubscriberResponse{}, nil
}

func (m *mockSubscriptionService) ListSubscribedChannels(ctx context.Context, callerID, subscriberID string) ([]subscribedChannelResponse, error) {
	if m.listSubscribedChannelsFn != nil {
		return m.listSubscribedChannelsFn(ctx, callerID, subscriberID)
	}
	return []subscribedChannelResponse{}, nil
}

type mockLogService struct {
	getLogFn func(ctx context.Context, userID string, filter logFilterParams) ([]logEntryResponse, error)
}

func (m *mockLogService) GetLog(ctx context.Context, userID string, filter logFilterParams) ([]logEntryResponse, error) {
	if m.getLogFn != nil {
		return m.getLogFn(ctx, userID, filter)
	}
	return nil, model.NewLogsNotFoundError()
}

type mockUserService struct {
	getProfileFn func(ctx context.Context, userID string) (*userResponse, error)
}

func (m *mockUserService) GetProfile(ctx context.Context, userID string) (*userResponse, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}

// mockFileLog は書き込まれた行を記録する。
type mockFileLog struct {
	mu    sync.Mutex
	lines []fileLogLine
}

type fileLogLine struct {
	level   string
	message string
}

func (m *mockFileLog) Write(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, fileLogLine{level, message})
}

func (m *mockFileLog) all() []fileLogLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fileLogLine(nil), m.lines...)
}

// mockAuthenticator はトークン文字列をそのままユーザーIDとみなす。
type mockAuthenticator struct {
	users map[string]*model.User
}

func (m *mockAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthorizedError()
	}
	u, ok := m.users[token]
	if !ok {
		return nil, model.NewInvalidAccessTokenError("token is malformed")
	}
	return u, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(context.Context) error { return m.err }

// --- ヘルパー ---

const (
	testUserID    = "11111111-1111-1111-1111-111111111111"
	testChannelID = "22222222-2222-2222-2222-222222222222"
)

// newAuthedRequest は認証済みユーザーIDとURLパラメータを設定したリクエストを返す。
func newAuthedRequest(method, target, userID string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = middleware.ContextWithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

// decodeEnvelope はレスポンスボディをエンベロープとして読み込み、dataをdstに展開する。
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) middleware.Envelope {
	t.Helper()
	var raw struct {
		middleware.Envelope
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if dst != nil {
		if err := json.Unmarshal(raw.Data, dst); err != nil {
			t.Fatalf("failed to decode data: %v (raw: %s)", err, raw.Data)
		}
	}
	return raw.Envelope
}

func assertErrorCode(t *testing.T, env middleware.Envelope, code string) {
	t.Helper()
	if env.Success {
		t.Error("success should be false")
	}
	if env.Error == nil {
		t.Fatalf("error detail missing, want code %s", code)
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}
