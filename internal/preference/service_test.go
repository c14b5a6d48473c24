package preference

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hitoshi/newsportal/internal/model"
	"github.com/hitoshi/newsportal/internal/repository"
)

type mockPreferenceRepo struct {
	findThemeFn func(ctx context.Context, subject string) (model.Theme, error)
	saveThemeFn func(ctx context.Context, subject string, theme model.Theme) error
}

func (m *mockPreferenceRepo) FindTheme(ctx context.Context, subject string) (model.Theme, error) {
	if m.findThemeFn != nil {
		return m.findThemeFn(ctx, subject)
	}
	return "", nil
}

func (m *mockPreferenceRepo) SaveTheme(ctx context.Context, subject string, theme model.Theme) error {
	if m.saveThemeFn != nil {
		return m.saveThemeFn(ctx, subject, theme)
	}
	return nil
}

func newTestService(repo repository.PreferenceRepository) *Service {
	var buf bytes.Buffer
	return NewService(repo, slog.New(slog.NewJSONHandler(&buf, nil)))
}

func TestService_Theme_DefaultsToLight(t *testing.T) {
	s := newTestService(repository.NewMemoryPreferenceRepo())

	theme, err := s.Theme(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Theme がエラーを返した: %v", err)
	}
	if theme != model.ThemeLight {
		t.Errorf("theme = %q, want light", theme)
	}
}

func TestService_SetAndToggle(t *testing.T) {
	s := newTestService(repository.NewMemoryPreferenceRepo())
	ctx := context.Background()

	if err := s.SetTheme(ctx, "alice", model.ThemeDark); err != nil {
		t.Fatalf("SetTheme がエラーを返した: %v", err)
	}
	if theme, _ := s.Theme(ctx, "alice"); theme != model.ThemeDark {
		t.Errorf("theme = %q, want dark", theme)
	}

	next, err := s.ToggleTheme(ctx, "alice")
	if err != nil {
		t.Fatalf("ToggleTheme がエラーを返した: %v", err)
	}
	if next != model.ThemeLight {
		t.Errorf("ToggleTheme = %q, want light", next)
	}

	// 他のsubjectには影響しない
	if theme, _ := s.Theme(ctx, "bob"); theme != model.ThemeLight {
		t.Errorf("bob の theme = %q, want light", theme)
	}
}

func TestService_SetTheme_Invalid(t *testing.T) {
	saved := false
	s := newTestService(&mockPreferenceRepo{saveThemeFn: func(ctx context.Context, subject string, theme model.Theme) error {
		saved = true
		return nil
	}})

	if err := s.SetTheme(context.Background(), "alice", model.Theme("sepia")); !model.IsValidation(err) {
		t.Errorf("err = %v, want validation error", err)
	}
	if err := s.SetTheme(context.Background(), "", model.ThemeDark); !model.IsValidation(err) {
		t.Errorf("空のsubjectは検証エラーであるべき: %v", err)
	}
	if saved {
		t.Error("不正な入力で保存してはならない")
	}
}

func TestService_Subscribe(t *testing.T) {
	s := newTestService(repository.NewMemoryPreferenceRepo())
	ctx := context.Background()

	type event struct {
		subject string
		theme   model.Theme
	}
	var events []event
	unsubscribe := s.Subscribe(func(subject string, theme model.Theme) {
		events = append(events, event{subject, theme})
	})

	if err := s.SetTheme(ctx, "alice", model.ThemeDark); err != nil {
		t.Fatalf("SetTheme がエラーを返した: %v", err)
	}
	if _, err := s.ToggleTheme(ctx, "alice"); err != nil {
		t.Fatalf("ToggleTheme がエラーを返した: %v", err)
	}

	want := []event{{"alice", model.ThemeDark}, {"alice", model.ThemeLight}}
	if len(events) != len(want) {
		t.Fatalf("通知回数 = %d, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %+v, want %+v", i, events[i], want[i])
		}
	}

	unsubscribe()
	unsubscribe()
	if err := s.SetTheme(ctx, "alice", model.ThemeDark); err != nil {
		t.Fatalf("SetTheme がエラーを返した: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("解除後は通知されないべき: %d", len(events))
	}
}

func TestService_SaveFailureDoesNotNotify(t *testing.T) {
	saveErr := errors.New("disk full")
	s := newTestService(&mockPreferenceRepo{saveThemeFn: func(ctx context.Context, subject string, theme model.Theme) error {
		return saveErr
	}})
	notified := false
	s.Subscribe(func(string, model.Theme) { notified = true })

	if err := s.SetTheme(context.Background(), "alice", model.ThemeDark); !errors.Is(err, saveErr) {
		t.Errorf("err = %v, want wrapped saveErr", err)
	}
	if notified {
		t.Error("保存に失敗した場合は通知しないべき")
	}
}
