// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/tubeline/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	// パスワードハッシュとリフレッシュトークンは取得しない。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindCredentialsByLogin はユーザー名またはメールアドレスで資格情報付きのユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindCredentialsByLogin(ctx context.Context, login string) (*model.UserCredentials, error)
}

// SubscriptionRepository は購読データの永続化インターフェース。
type SubscriptionRepository interface {
	// Toggle は購読エッジの有無を反転する。
	// 削除した場合はfalse、作成した場合（または並行トグルで既に存在した場合）はtrueを返す。
	// チャンネルが存在しない場合は ErrChannelNotFound を返す。
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)

	// ListChannelSubscribers はチャンネルの購読者一覧を相互購読フラグと購読者数付きで返す。
	ListChannelSubscribers(ctx context.Context, channelID string) ([]model.ChannelSubscriber, error)

	// ListSubscribedChannels はユーザーが購読しているチャンネル一覧を返す。
	// 動画は含まない。動画は VideoRepository.ListByOwners で取得する。
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]model.SubscribedChannel, error)
}

// VideoRepository は動画データの参照インターフェース。
type VideoRepository interface {
	// ListByOwners は指定した投稿者たちの動画を投稿者ごとに挿入順で返す。
	ListByOwners(ctx context.Context, ownerIDs []string) (map[string][]model.Video, error)
}

// LogRepository はユーザーイベントログの永続化インターフェース。
type LogRepository interface {
	// Create はログを1件保存する。
	Create(ctx context.Context, record *model.LogRecord) error

	// List はフィルタに一致するログをtimestamp降順で返す。
	List(ctx context.Context, filter model.LogFilter) ([]model.LogRecord, error)
}
