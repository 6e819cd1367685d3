package model

import "time"

// LogRecord はDBに永続化されたユーザーごとのイベントログを表す。
// ファイルロガーが出力するテキスト行とは別物。
type LogRecord struct {
	ID        string
	UserID    string
	LogType   string
	Message   string
	Timestamp time.Time
}

// LogFilter はログ検索の条件を表す。
// From/To がnilの場合はその方向の制限なし。範囲は [From, To)。
type LogFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
}
