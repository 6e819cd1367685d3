// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// チャンネルとして購読される側も同じエンティティで表現する。
type User struct {
	ID        string
	Username  string
	Email     string
	FullName  string
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredentials はログイン時の資格情報検証に使うユーザー情報。
// パスワードハッシュを含むため、認証ゲートやレスポンスには使用しない。
type UserCredentials struct {
	User
	PasswordHash string
}
