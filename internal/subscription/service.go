// Package subscription は購読管理のドメインロジックを提供する。
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hitoshi/tubeline/internal/filelog"
	"github.com/hitoshi/tubeline/internal/model"
	"github.com/hitoshi/tubeline/internal/repository"
	"github.com/hitoshi/tubeline/internal/security"
)

// ActivityRecorder はユーザーのアクティビティ履歴を記録するインターフェース。
// logquery.Service が実装する。
type ActivityRecorder interface {
	Record(ctx context.Context, userID, logType, message string) error
}

// ToggleMetrics は購読トグルの結果を記録するインターフェース。
type ToggleMetrics interface {
	RecordSubscriptionToggle(subscribed bool)
}

// Service は購読管理のサービス層。
// 購読トグル、チャンネル購読者一覧、購読チャンネル一覧のビジネスロジックを提供する。
type Service struct {
	subRepo   repository.SubscriptionRepository
	videoRepo repository.VideoRepository
	sanitizer security.TextSanitizer
	fileLog   filelog.Logger
	activity  ActivityRecorder
	metrics   ToggleMetrics
}

// NewService はServiceの新しいインスタンスを生成する。
// activityとmetricsはnilでもよい。
func NewService(
	subRepo repository.SubscriptionRepository,
	videoRepo repository.VideoRepository,
	sanitizer security.TextSanitizer,
	fileLog filelog.Logger,
	activity ActivityRecorder,
	metrics ToggleMetrics,
) *Service {
	return &Service{
		subRepo:   subRepo,
		videoRepo: videoRepo,
		sanitizer: sanitizer,
		fileLog:   fileLog,
		activity:  activity,
		metrics:   metrics,
	}
}

// Toggle は購読者からチャンネルへの購読を反転する。
// 戻り値は操作後に購読状態であればtrue。
func (s *Service) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	id, ok := normalizeID(channelID)
	if !ok {
		s.fileLog.Write(filelog.LevelWarn, fmt.Sprintf("Invalid channelId provided. User ID: %s", subscriberID))
		return false, model.NewInvalidChannelIDError(channelID)
	}

	subscribed, err := s.subRepo.Toggle(ctx, subscriberID, id)
	if errors.Is(err, repository.ErrChannelNotFound) {
		s.fileLog.Write(filelog.LevelWarn, fmt.Sprintf("Channel not found. User ID: %s, Channel ID: %s", subscriberID, id))
		return false, model.NewChannelNotFoundError(id)
	}
	if err != nil {
		s.fileLog.Write(filelog.LevelError, fmt.Sprintf("Error toggling subscription. User ID: %s", subscriberID))
		return false, fmt.Errorf("購読のトグルに失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSubscriptionToggle(subscribed)
	}

	if subscribed {
		s.fileLog.Write(filelog.LevelInfo, fmt.Sprintf("Subscription created successfully. User ID: %s", subscriberID))
		s.recordActivity(ctx, subscriberID, fmt.Sprintf("Subscribed to channel %s", id))
	} else {
		s.fileLog.Write(filelog.LevelInfo, fmt.Sprintf("Subscription removed successfully. User ID: %s", subscriberID))
		s.recordActivity(ctx, subscriberID, fmt.Sprintf("Unsubscribed from channel %s", id))
	}

	return subscribed, nil
}

// ListChannelSubscribers はチャンネルの購読者一覧を返す。
// callerIDはファイルログの記録にのみ使用する。
func (s *Service) ListChannelSubscribers(ctx context.Context, callerID, channelID string) ([]model.ChannelSubscriber, error) {
	id, ok := normalizeID(channelID)
	if !ok {
		s.fileLog.Write(filelog.LevelWarn, fmt.Sprintf("Invalid channelId provided. User ID: %s", callerID))
		return nil, model.NewInvalidChannelIDError(channelID)
	}

	subscribers, err := s.subRepo.ListChannelSubscribers(ctx, id)
	if err != nil {
		s.fileLog.Write(filelog.LevelError, fmt.Sprintf("Error fetching subscribers. User ID: %s", callerID))
		return nil, fmt.Errorf("購読者一覧の取得に失敗しました: %w", err)
	}

	s.fileLog.Write(filelog.LevelInfo, fmt.Sprintf("Subscribers fetched successfully. User ID: %s", callerID))
	return subscribers, nil
}

// ListSubscribedChannels はユーザーが購読しているチャンネル一覧を動画付きで返す。
// 各チャンネルの動画は挿入順で、動画のないチャンネルも空の一覧として含める。
func (s *Service) ListSubscribedChannels(ctx context.Context, callerID, subscriberID string) ([]model.SubscribedChannel, error) {
	id, ok := normalizeID(subscriberID)
	if !ok {
		s.fileLog.Write(filelog.LevelWarn, fmt.Sprintf("Invalid subscriberId provided. User ID: %s", callerID))
		return nil, model.NewInvalidSubscriberIDError(subscriberID)
	}

	channels, err := s.subRepo.ListSubscribedChannels(ctx, id)
	if err != nil {
		s.fileLog.Write(filelog.LevelError, fmt.Sprintf("Error fetching subscribed channels. User ID: %s", callerID))
		return nil, fmt.Errorf("購読チャンネル一覧の取得に失敗しました: %w", err)
	}

	ownerIDs := make([]string, len(channels))
	for i := range channels {
		ownerIDs[i] = channels[i].Channel.ID
	}

	videos, err := s.videoRepo.ListByOwners(ctx, ownerIDs)
	if err != nil {
		s.fileLog.Write(filelog.LevelError, fmt.Sprintf("Error fetching subscribed channels. User ID: %s", callerID))
		return nil, fmt.Errorf("チャンネル動画の取得に失敗しました: %w", err)
	}

	for i := range channels {
		list := videos[channels[i].Channel.ID]
		channels[i].Videos = make([]model.Video, len(list))
		for j, v := range list {
			v.Title = s.sanitizer.SanitizeText(v.Title)
			v.Description = s.sanitizer.SanitizeText(v.Description)
			channels[i].Videos[j] = v
		}
	}

	s.fileLog.Write(filelog.LevelInfo, fmt.Sprintf("Subscribed channels fetched successfully. User ID: %s", callerID))
	return channels, nil
}

// recordActivity はアクティビティ履歴を記録する。失敗は呼び出し元に返さない。
func (s *Service) recordActivity(ctx context.Context, userID, message string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, userID, filelog.LevelInfo, message); err != nil {
		slog.Warn("failed to record subscription activity",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// normalizeID はIDがUUIDとして妥当かを検証し、正規化した文字列を返す。
func normalizeID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
