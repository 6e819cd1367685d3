// Package model はドメインモデルを定義する。
package model

import "time"

// Video はユーザー（owner）が投稿した動画を表す。
// このサービスでは購読チャンネル一覧の表示にのみ参照する。
type Video struct {
	ID          string
	Seq         int64 // 挿入順
	OwnerID     string
	VideoFile   string
	Thumbnail   string
	Title       string
	Description string
	Duration    float64 // 秒
	Views       int64
	CreatedAt   time.Time
}
