package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/newsportal/internal/model"
)

// MemorySessionRepo はDATABASE_URL未設定時に使用するインメモリのセッションリポジトリ。
// プロセス再起動で内容は失われる。
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	now      func() time.Time
}

// NewMemorySessionRepo はMemorySessionRepoを生成する。
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]model.Session),
		now:      time.Now,
	}
}

// Create はセッションを作成する。
func (r *MemorySessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *MemorySessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.Expired(r.now()) {
		return nil, nil
	}
	return &s, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *MemorySessionRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// DeleteExpired は期限切れセッションを削除する。
func (r *MemorySessionRepo) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.Expired(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// MemoryPreferenceRepo はインメモリのテーマ設定リポジトリ。
type MemoryPreferenceRepo struct {
	mu     sync.RWMutex
	themes map[string]model.Theme
}

// NewMemoryPreferenceRepo はMemoryPreferenceRepoを生成する。
func NewMemoryPreferenceRepo() *MemoryPreferenceRepo {
	return &MemoryPreferenceRepo{themes: make(map[string]model.Theme)}
}

// FindTheme は保存済みのテーマを返す。
func (r *MemoryPreferenceRepo) FindTheme(_ context.Context, subject string) (model.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.themes[subject], nil
}

// SaveTheme はテーマを保存する。
func (r *MemoryPreferenceRepo) SaveTheme(_ context.Context, subject string, theme model.Theme) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes[subject] = theme
	return nil
}

var (
	_ SessionRepository    = (*MemorySessionRepo)(nil)
	_ PreferenceRepository = (*MemoryPreferenceRepo)(nil)
)
