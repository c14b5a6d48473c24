// Package session はポータルのログインセッションのライフサイクルを管理する。
// ログインでセッションを発行し、ログアウトまたは認証失敗で破棄する。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/newsportal/internal/model"
	"github.com/hitoshi/newsportal/internal/repository"
)

// Authenticator はバックエンドの認証APIのインターフェース。
// backend.Clientが実装する。
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*model.LoginResult, error)
	Register(ctx context.Context, cred model.Credentials) error
}

// ManagerConfig はセッション管理の設定。
type ManagerConfig struct {
	MaxAge int // セッション有効期間（秒）
}

// Manager はセッションの発行・参照・破棄を行う。
type Manager struct {
	auth   Authenticator
	repo   repository.SessionRepository
	config ManagerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewManager はManagerを生成する。
func NewManager(auth Authenticator, repo repository.SessionRepository, config ManagerConfig, logger *slog.Logger) *Manager {
	return &Manager{
		auth:   auth,
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Login はバックエンドで資格情報を検証し、新しいセッションを発行する。
// 認証に失敗した場合は何も保存しない。
func (m *Manager) Login(ctx context.Context, username, password string) (*model.Session, error) {
	result, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	now := m.now()
	sess := &model.Session{
		ID:        uuid.NewString(),
		Token:     result.Token,
		Username:  result.Username,
		Role:      result.Role,
		ExpiresAt: now.Add(time.Duration(m.config.MaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := m.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Info("user logged in",
		slog.String("username", sess.Username),
		slog.String("role", string(sess.Role)),
	)
	return sess, nil
}

// Register はユーザーを登録する。セッションは発行しない。
func (m *Manager) Register(ctx context.Context, cred model.Credentials) error {
	if err := m.auth.Register(ctx, cred); err != nil {
		return err
	}
	m.logger.Info("user registered", slog.String("username", cred.Username))
	return nil
}

// Current は有効なセッションを返す。存在しない場合と期限切れの場合はnilを返す。
func (m *Manager) Current(ctx context.Context, id string) (*model.Session, error) {
	sess, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if sess == nil || sess.Expired(m.now()) {
		return nil, nil
	}
	return sess, nil
}

// Logout はセッションを破棄する。
func (m *Manager) Logout(ctx context.Context, id string) error {
	if err := m.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.logger.Info("user logged out")
	return nil
}

// Expire はバックエンドがトークンを拒否したセッションを破棄する。
// 呼び出し元はこの後ログインを促す。
func (m *Manager) Expire(ctx context.Context, sess *model.Session) error {
	if sess == nil {
		return nil
	}
	if err := m.repo.DeleteByID(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}
	m.logger.Warn("session expired by backend",
		slog.String("username", sess.Username),
	)
	return nil
}

// PurgeExpired は期限切れのセッションをまとめて削除し、削除件数を返す。
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	n, err := m.repo.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}
