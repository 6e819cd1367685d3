// Package filelog はレベル名ごとのテキストファイルに1行ずつログを追記するロガーを提供する。
//
// 出力先は <dir>/<level>.txt、1行の形式は
//
//	01/02/2006, 03:04:05 PM - LEVEL : message
//
// 呼び出し側はブロックせず、エラーも受け取らない。書き込みは単一のゴルーチンが
// 有界キューから取り出して順に行う。
package filelog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ログレベル
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// TimestampLayout は各行の先頭に付与する日時の書式（12時間表記・秒まで）。
const TimestampLayout = "01/02/2006, 03:04:05 PM"

// DefaultQueueSize はキュー長の既定値。
const DefaultQueueSize = 1024

// Metrics はファイルロガーの破棄・失敗を記録するインターフェース。
// metrics.Collector の部分集合。
type Metrics interface {
	RecordFileLogDropped(level string)
	RecordFileLogFailure(level string)
}

// Logger はファイルロガーの利用側インターフェース。
type Logger interface {
	Write(level, message string)
}

type entry struct {
	level string
	line  string
}

// Writer は非同期のファイルロガー。
type Writer struct {
	dir     string
	queue   chan entry
	done    chan struct{}
	metrics Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool

	dirOnce sync.Once
	dirErr  error
}

// Option はWriterの設定を変更する。
type Option func(*Writer)

// WithMetrics はメトリクス記録先を設定する。
func WithMetrics(m Metrics) Option {
	return func(w *Writer) { w.metrics = m }
}

// WithLogger は書き込み失敗を通知するslogロガーを設定する。
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// WithClock は日時の取得元を差し替える。テスト用。
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// New はWriterを生成し、書き込みゴルーチンを起動する。
// queueSizeが0以下の場合は DefaultQueueSize を使用する。
func New(dir string, queueSize int, opts ...Option) *Writer {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	w := &Writer{
		dir:    dir,
		queue:  make(chan entry, queueSize),
		done:   make(chan struct{}),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w
}

// FormatLine はログ1行分の文字列を生成する。末尾に改行を含む。
func FormatLine(ts time.Time, level, message string) string {
	return fmt.Sprintf("%s - %s : %s\n", ts.Format(TimestampLayout), strings.ToUpper(level), message)
}

// Write はログ行をキューに積む。
// キューが満杯、またはClose済みの場合は行を破棄してメトリクスに記録する。
func (w *Writer) Write(level, message string) {
	e := entry{level: level, line: FormatLine(w.now(), level, message)}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.recordDropped(level)
		return
	}

	select {
	case w.queue <- e:
	default:
		w.recordDropped(level)
	}
}

// Info はinfoレベルのログを書き込む。
func (w *Writer) Info(message string) { w.Write(LevelInfo, message) }

// Warn はwarnレベルのログを書き込む。
func (w *Writer) Warn(message string) { w.Write(LevelWarn, message) }

// Error はerrorレベルのログを書き込む。
func (w *Writer) Error(message string) { w.Write(LevelError, message) }

// Close は新規の書き込みを止め、キューに残った行を書き出してから戻る。
// ctxが先に終了した場合はctxのエラーを返す。
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for e := range w.queue {
		w.append(e)
	}
}

func (w *Writer) append(e entry) {
	w.dirOnce.Do(func() {
		w.dirErr = os.MkdirAll(w.dir, 0o755)
	})
	if w.dirErr != nil {
		w.recordFailure(e.level, w.dirErr)
		return
	}

	path := filepath.Join(w.dir, filepath.Base(e.level)+".txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		w.recordFailure(e.level, err)
		return
	}
	_, err = f.WriteString(e.line)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		w.recordFailure(e.level, err)
	}
}

func (w *Writer) recordDropped(level string) {
	if w.metrics != nil {
		w.metrics.RecordFileLogDropped(level)
	}
}

func (w *Writer) recordFailure(level string, err error) {
	if w.metrics != nil {
		w.metrics.RecordFileLogFailure(level)
	}
	w.logger.Warn("failed to write file log",
		slog.String("level", level),
		slog.String("dir", w.dir),
		slog.String("error", err.Error()),
	)
}

// compile-time interface check
var _ Logger = (*Writer)(nil)
