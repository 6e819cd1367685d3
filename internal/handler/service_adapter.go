package handler

import (
	"context"

	"github.com/hitoshi/tubeline/internal/auth"
	"github.com/hitoshi/tubeline/internal/logquery"
	"github.com/hitoshi/tubeline/internal/model"
	"github.com/hitoshi/tubeline/internal/subscription"
	"github.com/hitoshi/tubeline/internal/user"
)

// AuthServiceAdapter は auth.Service を AuthServiceInterface に適合させるアダプタ。
type AuthServiceAdapter struct {
	svc *auth.Service
}

// NewAuthServiceAdapter はAuthServiceAdapterを生成する。
func NewAuthServiceAdapter(svc *auth.Service) *AuthServiceAdapter {
	return &AuthServiceAdapter{svc: svc}
}

// Login はログイン結果をhandlerレスポンス型で返す。
func (a *AuthServiceAdapter) Login(ctx context.Context, login, password string) (*loginResult, error) {
	res, err := a.svc.Login(ctx, login, password)
	if err != nil {
		return nil, err
	}
	return &loginResult{
		User:        toUserResponse(res.User),
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
	}, nil
}

// SubscriptionServiceAdapter は subscription.Service を SubscriptionServiceInterface に適合させるアダプタ。
type SubscriptionServiceAdapter struct {
	svc *subscription.Service
}

// NewSubscriptionServiceAdapter はSubscriptionServiceAdapterを生成する。
func NewSubscriptionServiceAdapter(svc *subscription.Service) *SubscriptionServiceAdapter {
	return &SubscriptionServiceAdapter{svc: svc}
}

// Toggle は購読を反転する。
func (a *SubscriptionServiceAdapter) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return a.svc.Toggle(ctx, subscriberID, channelID)
}

// ListChannelSubscribers はチャンネルの購読者一覧をhandlerレスポンス型で返す。
func (a *SubscriptionServiceAdapter) ListChannelSubscribers(ctx context.Context, callerID, channelID string) ([]channelSubscriberResponse, error) {
	subs, err := a.svc.ListChannelSubscribers(ctx, callerID, channelID)
	if err != nil {
		return nil, err
	}

	results := make([]channelSubscriberResponse, len(subs))
	for i, s := range subs {
		results[i] = channelSubscriberResponse{
			ID: s.SubscriptionID,
			Subscriber: subscriberProfileResponse{
				ID:                     s.Subscriber.ID,
				Username:               s.Subscriber.Username,
				FullName:               s.Subscriber.FullName,
				Avatar:                 s.Subscriber.Avatar,
				SubscribedToSubscriber: s.SubscribedToSubscriber,
				SubscriberCount:        s.SubscriberCount,
			},
		}
	}
	return results, nil
}

// ListSubscribedChannels は購読チャンネル一覧をhandlerレスポンス型で返す。
// 動画のないチャンネルは videos が空配列、latestVideo が null になる。
func (a *SubscriptionServiceAdapter) ListSubscribedChannels(ctx context.Context, callerID, subscriberID string) ([]subscribedChannelResponse, error) {
	channels, err := a.svc.ListSubscribedChannels(ctx, callerID, subscriberID)
	if err != nil {
		return nil, err
	}

	results := make([]subscribedChannelResponse, len(channels))
	for i := range channels {
		ch := &channels[i]
		videos := make([]videoResponse, len(ch.Videos))
		for j, v := range ch.Videos {
			videos[j] = toVideoResponse(v)
		}

		var latest *videoResponse
		if v := ch.LatestVideo(); v != nil {
			lv := toVideoResponse(*v)
			latest = &lv
		}

		results[i] = subscribedChannelResponse{
			ID: ch.SubscriptionID,
			SubscribedChannel: channelProfileResponse{
				ID:          ch.Channel.ID,
				Username:    ch.Channel.Username,
				FullName:    ch.Channel.FullName,
				Avatar:      ch.Channel.Avatar,
				Videos:      videos,
				LatestVideo: latest,
			},
		}
	}
	return results, nil
}

// LogServiceAdapter は logquery.Service を LogServiceInterface に適合させるアダプタ。
type LogServiceAdapter struct {
	svc *logquery.Service
}

// NewLogServiceAdapter はLogServiceAdapterを生成する。
func NewLogServiceAdapter(svc *logquery.Service) *LogServiceAdapter {
	return &LogServiceAdapter{svc: svc}
}

// GetLog はログ一覧をhandlerレスポンス型で返す。
func (a *LogServiceAdapter) GetLog(ctx context.Context, userID string, filter logFilterParams) ([]logEntryResponse, error) {
	records, err := a.svc.GetLog(ctx, userID, logquery.Query{
		Date:      filter.Date,
		StartTime: filter.StartTime,
		EndTime:   filter.EndTime,
	})
	if err != nil {
		return nil, err
	}

	results := make([]logEntryResponse, len(records))
	for i, rec := range records {
		results[i] = logEntryResponse{
			LogType:   rec.LogType,
			Message:   rec.Message,
			Timestamp: rec.Timestamp,
		}
	}
	return results, nil
}

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// GetProfile はユーザーの公開プロフィールを返す。
func (a *UserServiceAdapter) GetProfile(ctx context.Context, userID string) (*userResponse, error) {
	u, err := a.svc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toVideoResponse(v model.Video) videoResponse {
	return videoResponse{
		ID:          v.ID,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Owner:       v.OwnerID,
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration,
		CreatedAt:   v.CreatedAt,
		Views:       v.Views,
	}
}

// --- compile-time interface checks ---

var _ AuthServiceInterface = (*AuthServiceAdapter)(nil)
var _ SubscriptionServiceInterface = (*SubscriptionServiceAdapter)(nil)
var _ LogServiceInterface = (*LogServiceAdapter)(nil)
var _ UserServiceInterface = (*UserServiceAdapter)(nil)
