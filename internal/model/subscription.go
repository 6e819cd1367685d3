package model

import "time"

// Subscription は購読者からチャンネルへの有向エッジを表す。
// (SubscriberID, ChannelID) の組はたかだか1件。
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// ChannelSubscriber はチャンネルの購読者1件と、その購読者自身の購読状況を表す。
type ChannelSubscriber struct {
	SubscriptionID string
	Subscriber     User
	// SubscribedToSubscriber は対象チャンネル自身がこの購読者を購読しているか（相互フォロー）。
	SubscribedToSubscriber bool
	// SubscriberCount はこの購読者自身の購読者数。
	SubscriberCount int
}

// SubscribedChannel はユーザーが購読しているチャンネル1件と、その動画一覧を表す。
type SubscribedChannel struct {
	SubscriptionID string
	Channel        User
	// Videos は挿入順（seq昇順）の動画一覧。
	Videos []Video
}

// LatestVideo は動画一覧の末尾（挿入順で最後）の動画を返す。
// 作成日時の最大値ではない点に注意。動画がない場合はnilを返す。
func (c *SubscribedChannel) LatestVideo() *Video {
	if len(c.Videos) == 0 {
		return nil
	}
	return &c.Videos[len(c.Videos)-1]
}
