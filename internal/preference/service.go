// Package preference はUIのテーマ設定を一元管理する。
// 全ての画面はこのサービスからテーマを読み、変更は購読者に通知される。
package preference

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/newsportal/internal/model"
	"github.com/hitoshi/newsportal/internal/repository"
)

// DefaultTheme は未保存の場合に使うテーマ。
const DefaultTheme = model.ThemeLight

// Listener はテーマ変更の通知を受け取る関数。
type Listener func(subject string, theme model.Theme)

// Service はテーマ設定の読み書きと変更通知を提供する。
type Service struct {
	repo   repository.PreferenceRepository
	logger *slog.Logger

	mu        sync.RWMutex
	listeners []Listener
}

// NewService はServiceを生成する。
func NewService(repo repository.PreferenceRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Theme はsubjectのテーマを返す。未保存の場合はDefaultThemeを返す。
func (s *Service) Theme(ctx context.Context, subject string) (model.Theme, error) {
	theme, err := s.repo.FindTheme(ctx, subject)
	if err != nil {
		return "", fmt.Errorf("failed to find theme: %w", err)
	}
	if theme == "" {
		return DefaultTheme, nil
	}
	return theme, nil
}

// SetTheme はテーマを保存し、購読者に通知する。
func (s *Service) SetTheme(ctx context.Context, subject string, theme model.Theme) error {
	if _, err := model.ParseTheme(string(theme)); err != nil {
		return err
	}
	if subject == "" {
		return model.NewValidationError("テーマの保存先が指定されていません")
	}
	if err := s.repo.SaveTheme(ctx, subject, theme); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}

	s.logger.Debug("theme changed",
		slog.String("subject", subject),
		slog.String("theme", string(theme)),
	)
	s.notify(subject, theme)
	return nil
}

// ToggleTheme は現在のテーマを反転して保存し、新しいテーマを返す。
func (s *Service) ToggleTheme(ctx context.Context, subject string) (model.Theme, error) {
	current, err := s.Theme(ctx, subject)
	if err != nil {
		return "", err
	}
	next := current.Toggle()
	if err := s.SetTheme(ctx, subject, next); err != nil {
		return "", err
	}
	return next, nil
}

// Subscribe はテーマ変更の通知先を登録する。
// 返される関数を呼ぶと登録を解除する。
func (s *Service) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.listeners[idx] = nil
		})
	}
}

func (s *Service) notify(subject string, theme model.Theme) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		if fn != nil {
			listeners = append(listeners, fn)
		}
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(subject, theme)
	}
}
