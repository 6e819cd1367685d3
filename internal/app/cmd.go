package app

import (
	"fmt"
	"strings"
)

// Command はアプリケーションの起動モード（サブコマンド）。
type Command string

const (
	CommandServe   Command = "serve"   // APIサーバー
	CommandWorker  Command = "worker"  // ログ保持期間の管理ジョブ
	CommandMigrate Command = "migrate" // スキーママイグレーション

	// CommandHealthcheck はdistrolessイメージ用のヘルスチェック。設定を読み込まない。
	CommandHealthcheck Command = "healthcheck"
)

// commands はUsageの表示順。
var commands = []struct {
	cmd  Command
	desc string
}{
	{CommandServe, "start the HTTP API server (default)"},
	{CommandWorker, "run the log retention job and serve /health and /metrics"},
	{CommandMigrate, "apply pending database migrations"},
	{CommandHealthcheck, "probe GET /health on the local server"},
}

// ParseCommand は先頭の引数からサブコマンドを解析する。
// 引数がなければCommandServe、未知のサブコマンドはエラーとする。
// 2番目以降の引数は無視する。
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 || args[0] == "" {
		return CommandServe, nil
	}

	for _, c := range commands {
		if string(c.cmd) == args[0] {
			return c.cmd, nil
		}
	}
	return "", fmt.Errorf("unknown command %q\n%s", args[0], Usage())
}

// Usage はサブコマンドの一覧を返す。
func Usage() string {
	var b strings.Builder
	b.WriteString("usage: tubeline [command]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-12s %s\n", c.cmd, c.desc)
	}
	return b.String()
}
