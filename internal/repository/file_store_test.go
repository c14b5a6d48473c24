package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hitoshi/newsportal/internal/model"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "nested", "session.yaml"))
}

func TestFileStore_SessionRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	err := store.Create(ctx, &model.Session{
		ID:        "s-1",
		Token:     "jwt",
		Username:  "alice",
		Role:      model.RoleAdmin,
		ExpiresAt: expires,
	})
	if err != nil {
		t.Fatalf("Create がエラーを返した: %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("ファイルが作成されていない: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("ファイル権限 = %o, want 600", perm)
	}

	// 別インスタンスから読み込めること（プロセスをまたいだ永続化）
	reopened := NewFileStore(store.Path())
	got, err := reopened.FindByID(ctx, "")
	if err != nil {
		t.Fatalf("FindByID がエラーを返した: %v", err)
	}
	if got == nil {
		t.Fatal("保存したセッションが見つからない")
	}
	if got.Token != "jwt" || got.Role != model.RoleAdmin || !got.ExpiresAt.Equal(expires) {
		t.Errorf("session = %+v", got)
	}

	if got, _ := reopened.FindByID(ctx, "other"); got != nil {
		t.Errorf("IDが一致しない場合は nil であるべき: %+v", got)
	}

	if err := reopened.DeleteByID(ctx, "s-1"); err != nil {
		t.Fatalf("DeleteByID がエラーを返した: %v", err)
	}
	if got, _ := store.FindByID(ctx, ""); got != nil {
		t.Errorf("削除後は nil であるべき: %+v", got)
	}
}

func TestFileStore_ExpiredSession(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Create(ctx, &model.Session{ID: "s", Token: "t", ExpiresAt: now.Add(-time.Second)})

	if got, _ := store.FindByID(ctx, ""); got != nil {
		t.Errorf("期限切れセッションは nil であるべき: %+v", got)
	}
	n, err := store.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Errorf("DeleteExpired = %d, %v; want 1", n, err)
	}
}

func TestFileStore_ThemeKeepsSession(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	store.Create(ctx, &model.Session{ID: "s", Token: "t"})
	if err := store.SaveTheme(ctx, "alice", model.ThemeDark); err != nil {
		t.Fatalf("SaveTheme がエラーを返した: %v", err)
	}

	theme, err := store.FindTheme(ctx, "alice")
	if err != nil || theme != model.ThemeDark {
		t.Errorf("FindTheme = %q, %v", theme, err)
	}
	if got, _ := store.FindByID(ctx, "s"); got == nil {
		t.Error("テーマの保存でセッションが消えてはならない")
	}
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := newTestFileStore(t)

	got, err := store.FindByID(context.Background(), "")
	if err != nil || got != nil {
		t.Errorf("ファイルがない場合は nil, nil であるべき: %+v, %v", got, err)
	}
}

func TestFileStore_CorruptFile_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("session: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(path).FindByID(context.Background(), "")
	if err == nil {
		t.Error("壊れたYAMLはエラーを返すべき")
	}
}
