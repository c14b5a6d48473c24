// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/newsportal/internal/model"
)

const (
	// SessionCookieName はポータルセッションIDを保持するCookieの名前。
	SessionCookieName = "portal_session"
	// VisitorCookieName は未ログインの訪問者を識別するCookieの名前。
	VisitorCookieName = "portal_visitor"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	sessionContextKey = contextKey("session")
	visitorContextKey = contextKey("visitor")
)

// CookieConfig はゲートウェイが発行するCookieの属性。
type CookieConfig struct {
	Secure bool
	Domain string
	MaxAge int // セッションCookieの有効期間（秒）
}

// SessionFinder はセッションの検索に必要なインターフェース。
// session.Managerが実装する。
type SessionFinder interface {
	Current(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionLoader はCookieからセッションを読み取り、リクエストコンテキストに注入するミドルウェアを返す。
// 未ログインのリクエストもそのまま通す。認証が必要なルートにはRequireSessionを併用する。
// 未ログインの訪問者には訪問者IDのCookieを発行する。
func NewSessionLoader(finder SessionFinder, config CookieConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				sess, err := finder.Current(ctx, cookie.Value)
				if err != nil {
					logger.Error("failed to find session",
						slog.String("error", err.Error()),
					)
				}
				if sess != nil {
					ctx = ContextWithSession(ctx, sess)
				} else {
					ClearSessionCookie(w, config)
				}
			}

			visitor := ""
			if cookie, err := r.Cookie(VisitorCookieName); err == nil && cookie.Value != "" {
				visitor = cookie.Value
			} else {
				visitor = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookieName,
					Value:    visitor,
					Path:     "/",
					Domain:   config.Domain,
					MaxAge:   365 * 24 * 60 * 60,
					HttpOnly: true,
					Secure:   config.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx = ContextWithVisitor(ctx, visitor)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession はログイン済みでないリクエストに401 AUTH_REQUIREDを返すミドルウェア。
// NewSessionLoaderの後に配置する。
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).Authenticated() {
			apiErr := model.NewAuthRequiredError()
			WriteErrorResponse(w, apiErr.Status, apiErr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// 未ログインの場合はnilを返す。
func SessionFromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// VisitorFromContext は訪問者IDを取得する。
func VisitorFromContext(ctx context.Context) string {
	v, _ := ctx.Value(visitorContextKey).(string)
	return v
}

// ContextWithVisitor はコンテキストに訪問者IDを注入する。
// テーマ設定など未ログインでも訪問者ごとに保持する値の主体になる。
func ContextWithVisitor(ctx context.Context, visitor string) context.Context {
	return context.WithValue(ctx, visitorContextKey, visitor)
}

// SetSessionCookie はセッションIDをHTTP Only Cookieに設定する。
func SetSessionCookie(w http.ResponseWriter, config CookieConfig, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   config.MaxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie はセッションCookieを削除する。
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
