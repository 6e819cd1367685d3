// Package logquery はユーザーイベントログの検索と記録を提供する。
package logquery

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hitoshi/tubeline/internal/model"
	"github.com/hitoshi/tubeline/internal/repository"
)

// Query はログ検索のクエリパラメータ。
// date は YYYY-MM-DD、startTime/endTime は HH:MM（UTC）。
type Query struct {
	Date      string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `query:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime   string `query:"endTime" validate:"omitempty,datetime=15:04"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator はクエリ検証用のvalidatorを返す。
// エラー中のフィールド名はqueryタグの名前を使う。
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// BuildFilter はクエリからログ検索フィルタを組み立てる。
//
// date 指定時は [date 00:00Z, 翌日 00:00Z)。startTime は下限を、endTime は上限を
// 同日の指定時刻（秒は0）で狭める。時刻だけを指定して date を省略することはできない。
func BuildFilter(userID string, q Query) (model.LogFilter, error) {
	filter := model.LogFilter{UserID: userID}

	if err := getValidator().Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return filter, model.NewInvalidLogFilterError(fmt.Sprintf("%s must match %s", fe.Field(), fe.Param()))
		}
		return filter, model.NewInvalidLogFilterError(err.Error())
	}

	if q.Date == "" {
		if q.StartTime != "" || q.EndTime != "" {
			return filter, model.NewInvalidLogFilterError("startTime/endTime require date")
		}
		return filter, nil
	}

	dayStart, err := time.ParseInLocation("2006-01-02", q.Date, time.UTC)
	if err != nil {
		return filter, model.NewInvalidLogFilterError(err.Error())
	}
	from := dayStart
	to := dayStart.AddDate(0, 0, 1)

	if q.StartTime != "" {
		start, err := parseClock(dayStart, q.StartTime)
		if err != nil {
			return filter, model.NewInvalidLogFilterError(err.Error())
		}
		if start.After(from) {
			from = start
		}
	}
	if q.EndTime != "" {
		end, err := parseClock(dayStart, q.EndTime)
		if err != nil {
			return filter, model.NewInvalidLogFilterError(err.Error())
		}
		if end.Before(to) {
			to = end
		}
	}

	filter.From = &from
	filter.To = &to
	return filter, nil
}

// parseClock は日付の00:00Zに HH:MM を加えた時刻を返す。
func parseClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// Service はログ検索・記録のサービス層。
type Service struct {
	repo repository.LogRepository
	now  func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.LogRepository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// GetLog は呼び出しユーザー自身のログをtimestamp降順で返す。
// 該当するログがない場合は LOGS_NOT_FOUND を返す。
func (s *Service) GetLog(ctx context.Context, userID string, q Query) ([]model.LogRecord, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, model.NewUnauthorizedError()
	}

	filter, err := BuildFilter(userID, q)
	if err != nil {
		return nil, err
	}

	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ログの検索に失敗しました: %w", err)
	}
	if len(logs) == 0 {
		return nil, model.NewLogsNotFoundError()
	}
	return logs, nil
}

// Record はユーザーのイベントログを1件保存する。
func (s *Service) Record(ctx context.Context, userID, logType, message string) error {
	record := &model.LogRecord{
		ID:        uuid.New().String(),
		UserID:    userID,
		LogType:   logType,
		Message:   message,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("ログの記録に失敗しました: %w", err)
	}
	return nil
}
