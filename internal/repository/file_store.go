package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/newsportal/internal/model"
)

// FileStore はCLI用のYAMLファイルストア。
// 端末ごとに1つのセッションとテーマ設定を保持する。
// トークンを含むため、ファイルは0600で作成する。
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// fileState はYAMLファイルの内容。
type fileState struct {
	Session *fileSession      `yaml:"session,omitempty"`
	Themes  map[string]string `yaml:"themes,omitempty"`
}

type fileSession struct {
	ID        string    `yaml:"id"`
	Token     string    `yaml:"token"`
	Username  string    `yaml:"username"`
	Role      string    `yaml:"role"`
	ExpiresAt time.Time `yaml:"expires_at"`
	CreatedAt time.Time `yaml:"created_at"`
}

// NewFileStore はFileStoreを生成する。ファイルは最初の書き込み時に作成される。
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path はストアのファイルパスを返す。
func (s *FileStore) Path() string {
	return s.path
}

// Create はセッションを保存する。既存のセッションは置き換える。
func (s *FileStore) Create(_ context.Context, session *model.Session) error {
	return s.update(func(st *fileState) {
		st.Session = &fileSession{
			ID:        session.ID,
			Token:     session.Token,
			Username:  session.Username,
			Role:      string(session.Role),
			ExpiresAt: session.ExpiresAt,
			CreatedAt: session.CreatedAt,
		}
	})
}

// FindByID は保存済みセッションのIDが一致し、期限内であれば返す。
// idが空の場合は保存済みのセッションをそのまま対象にする。
func (s *FileStore) FindByID(_ context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return nil, err
	}
	if st.Session == nil || (id != "" && st.Session.ID != id) {
		return nil, nil
	}
	session := &model.Session{
		ID:        st.Session.ID,
		Token:     st.Session.Token,
		Username:  st.Session.Username,
		Role:      model.ParseRole(st.Session.Role),
		ExpiresAt: st.Session.ExpiresAt,
		CreatedAt: st.Session.CreatedAt,
	}
	if session.Expired(s.now()) {
		return nil, nil
	}
	return session, nil
}

// DeleteByID は保存済みセッションのIDが一致すれば削除する。idが空の場合は無条件に削除する。
func (s *FileStore) DeleteByID(_ context.Context, id string) error {
	return s.update(func(st *fileState) {
		if st.Session != nil && (id == "" || st.Session.ID == id) {
			st.Session = nil
		}
	})
}

// DeleteExpired は期限切れのセッションを削除する。
func (s *FileStore) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	n := 0
	err := s.update(func(st *fileState) {
		if st.Session != nil && !st.Session.ExpiresAt.IsZero() && !before.Before(st.Session.ExpiresAt) {
			st.Session = nil
			n = 1
		}
	})
	return n, err
}

// FindTheme は保存済みのテーマを返す。
func (s *FileStore) FindTheme(_ context.Context, subject string) (model.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return "", err
	}
	return model.Theme(st.Themes[subject]), nil
}

// SaveTheme はテーマを保存する。
func (s *FileStore) SaveTheme(_ context.Context, subject string, theme model.Theme) error {
	return s.update(func(st *fileState) {
		if st.Themes == nil {
			st.Themes = make(map[string]string)
		}
		st.Themes[subject] = string(theme)
	})
}

func (s *FileStore) update(fn func(st *fileState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	fn(st)
	return s.save(st)
}

func (s *FileStore) load() (*fileState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &fileState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	st := &fileState{}
	if err := yaml.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", s.path, err)
	}
	return st, nil
}

func (s *FileStore) save(st *fileState) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

var (
	_ SessionRepository    = (*FileStore)(nil)
	_ PreferenceRepository = (*FileStore)(nil)
)
