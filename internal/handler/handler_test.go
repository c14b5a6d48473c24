package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/newsportal/internal/middleware"
	"github.com/hitoshi/newsportal/internal/model"
)

const testCSRFToken = "test-csrf-token"

// --- モック ---

type mockSessionService struct {
	mu         sync.Mutex
	sessions   map[string]*model.Session
	expired    []string
	loggedOut  []string
	loginFn    func(ctx context.Context, username, password string) (*model.Session, error)
	registerFn func(ctx context.Context, cred model.Credentials) error
}

func newMockSessionService() *mockSessionService {
	return &mockSessionService{
		sessions: map[string]*model.Session{
			"sess-alice": {
				ID:        "sess-alice",
				Token:     "tok-alice",
				Username:  "alice",
				Role:      model.RoleUser,
				ExpiresAt: time.Now().Add(time.Hour),
			},
			"sess-admin": {
				ID:        "sess-admin",
				Token:     "tok-admin",
				Username:  "root",
				Role:      model.RoleAdmin,
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}
}

func (m *mockSessionService) Current(ctx context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id], nil
}

func (m *mockSessionService) Login(ctx context.Context, username, password string) (*model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, model.NewAuthFailedError("")
}

func (m *mockSessionService) Register(ctx context.Context, cred model.Credentials) error {
	if m.registerFn != nil {
		return m.registerFn(ctx, cred)
	}
	return nil
}

func (m *mockSessionService) Logout(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggedOut = append(m.loggedOut, id)
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionService) Expire(ctx context.Context, sess *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expired = append(m.expired, sess.ID)
	delete(m.sessions, sess.ID)
	return nil
}

type mockNewsService struct {
	searchFn     func(ctx context.Context, title string) ([]model.Article, error)
	getFn        func(ctx context.Context, id int64) (*model.Article, error)
	browseFn     func(ctx context.Context, category string) ([]model.Article, error)
	categoriesFn func(ctx context.Context) ([]model.Category, error)
}

func (m *mockNewsService) Search(ctx context.Context, title string) ([]model.Article, error) {
	return m.searchFn(ctx, title)
}

func (m *mockNewsService) Get(ctx context.Context, id int64) (*model.Article, error) {
	return m.getFn(ctx, id)
}

func (m *mockNewsService) Browse(ctx context.Context, category string) ([]model.Article, error) {
	return m.browseFn(ctx, category)
}

func (m *mockNewsService) Categories(ctx context.Context) ([]model.Category, error) {
	return m.categoriesFn(ctx)
}

type mockLikeService struct {
	statusFn func(ctx context.Context, sess *model.Session, article model.Article) (model.LikeStatus, error)
	toggleFn func(ctx context.Context, sess *model.Session, article model.Article, action model.LikeAction) (model.LikeStatus, error)
}

func (m *mockLikeService) Status(ctx context.Context, sess *model.Session, article model.Article) (model.LikeStatus, error) {
	return m.statusFn(ctx, sess, article)
}

func (m *mockLikeService) ToggleFetched(ctx context.Context, sess *model.Session, article model.Article, action model.LikeAction) (model.LikeStatus, error) {
	return m.toggleFn(ctx, sess, article, action)
}

type mockCommentService struct {
	listFn func(ctx context.Context, sess *model.Session, article model.Article) ([]model.Comment, error)
	postFn func(ctx context.Context, sess *model.Session, article model.Article, content string) ([]model.Comment, error)
}

func (m *mockCommentService) List(ctx context.Context, sess *model.Session, article model.Article) ([]model.Comment, error) {
	return m.listFn(ctx, sess, article)
}

func (m *mockCommentService) Post(ctx context.Context, sess *model.Session, article model.Article, content string) ([]model.Comment, error) {
	return m.postFn(ctx, sess, article, content)
}

type mockThemeService struct {
	mu     sync.Mutex
	themes map[string]model.Theme
}

func (m *mockThemeService) Theme(ctx context.Context, subject string) (model.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.themes[subject]; ok {
		return t, nil
	}
	return model.ThemeLight, nil
}

func (m *mockThemeService) SetTheme(ctx context.Context, subject string, theme model.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.themes[subject] = theme
	return nil
}

func (m *mockThemeService) ToggleTheme(ctx context.Context, subject string) (model.Theme, error) {
	current, _ := m.Theme(ctx, subject)
	next := current.Toggle()
	return next, m.SetTheme(ctx, subject, next)
}

type mockDashboardService struct {
	dashboardFn func(ctx context.Context, sess *model.Session) (*model.Dashboard, error)
	profileFn   func(ctx context.Context, sess *model.Session) (*model.ProfileView, error)
}

func (m *mockDashboardService) Dashboard(ctx context.Context, sess *model.Session) (*model.Dashboard, error) {
	return m.dashboardFn(ctx, sess)
}

func (m *mockDashboardService) Profile(ctx context.Context, sess *model.Session) (*model.ProfileView, error) {
	return m.profileFn(ctx, sess)
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// --- ヘルパー ---

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newTestDeps は全サービスをモックで埋めたRouterDepsを返す。
// テストごとに必要なモックだけを差し替えて使う。
func newTestDeps(t *testing.T) (*RouterDeps, *mockSessionService) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(), logger)
	t.Cleanup(rl.Stop)

	sessions := newMockSessionService()
	return &RouterDeps{
		Logger:            logger,
		SessionFinder:     sessions,
		Cookies:           middleware.CookieConfig{MaxAge: 3600},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Sessions:          sessions,
		News:              &mockNewsService{},
		Likes:             &mockLikeService{},
		Comments:          &mockCommentService{},
		Themes:            &mockThemeService{themes: map[string]model.Theme{}},
		Dashboard:         &mockDashboardService{},
	}, sessions
}

// doRequest はルーターにリクエストを送る。
// 状態変更メソッドにはCSRFトークンのCookieとヘッダーを付与する。
func doRequest(router http.Handler, method, path, body, sessionID string) *httptest.ResponseRecorder {
	req := newJSONRequest(method, path, body)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sessionID})
	}
	if method != http.MethodGet {
		req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
		req.Header.Set("X-CSRF-Token", testCSRFToken)
	}
	return serve(router, req)
}

func newJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[middleware.ErrorResponseBody](t, w).Code
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
