package engagement

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/newsportal/internal/metrics"
	"github.com/hitoshi/newsportal/internal/model"
)

// CommentBackend はコメント操作に必要なバックエンドAPI。
type CommentBackend interface {
	ListComments(ctx context.Context, newsURL string) ([]model.Comment, error)
	PostComment(ctx context.Context, token string, newsURL, content string) error
}

// CommentPanel は1つの記事のコメント一覧と投稿フォームの状態を保持する。
// 一覧はバックエンドの順序のまま保持し、並べ替えない。
type CommentPanel struct {
	backend CommentBackend
	mirror  *MirrorSync
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	session *model.Session
	article model.Article

	mu       sync.Mutex
	comments []model.Comment
}

// NewCommentPanel はCommentPanelを生成する。
func NewCommentPanel(backend CommentBackend, mirror *MirrorSync, mc metrics.MetricsCollector, logger *slog.Logger, sess *model.Session, article model.Article) *CommentPanel {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &CommentPanel{
		backend: backend,
		mirror:  mirror,
		metrics: mc,
		logger:  logger,
		session: sess,
		article: article,
	}
}

// CanPost は投稿フォームを表示するかを返す。未ログインの場合はログインを促す表示にする。
func (p *CommentPanel) CanPost() bool {
	return p.session.Authenticated()
}

// Comments は表示中のコメント一覧を返す。
func (p *CommentPanel) Comments() []model.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Comment(nil), p.comments...)
}

// List はコメント一覧を取得して表示を置き換える。
func (p *CommentPanel) List(ctx context.Context) ([]model.Comment, error) {
	key := p.article.CommentKey()
	if key == "" {
		return nil, model.NewValidationError("記事の参照が不正です")
	}
	comments, err := p.backend.ListComments(ctx, key)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.comments = comments
	p.mu.Unlock()
	return append([]model.Comment(nil), comments...), nil
}

// Post はコメントを投稿し、一覧を再取得して返す。
// 空白のみの内容と未ログインは通信せずにエラーを返す。
func (p *CommentPanel) Post(ctx context.Context, content string) ([]model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.NewValidationError("コメントを入力してください")
	}
	if !p.session.Authenticated() {
		return nil, model.NewAuthRequiredError()
	}
	key := p.article.CommentKey()
	if key == "" {
		return nil, model.NewValidationError("記事の参照が不正です")
	}

	if err := p.mirror.Ensure(ctx, p.session.Token, p.article); err != nil {
		return nil, err
	}
	if err := p.backend.PostComment(ctx, p.session.Token, key, content); err != nil {
		p.logger.Warn("コメントの投稿に失敗しました",
			slog.String("article", p.article.Ref.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	p.metrics.RecordCommentPosted()

	return p.List(ctx)
}

// Comments は記事ごとのCommentPanelを生成する。
// ゲートウェイはリクエストごと、CLIはコマンドごとにパネルを作る。
type Comments struct {
	backend CommentBackend
	mirror  *MirrorSync
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewComments はCommentsを生成する。
func NewComments(backend CommentBackend, mirror *MirrorSync, mc metrics.MetricsCollector, logger *slog.Logger) *Comments {
	return &Comments{backend: backend, mirror: mirror, metrics: mc, logger: logger}
}

// Panel はセッションと記事に対するCommentPanelを返す。
func (c *Comments) Panel(sess *model.Session, article model.Article) *CommentPanel {
	return NewCommentPanel(c.backend, c.mirror, c.metrics, c.logger, sess, article)
}

// List は記事のコメント一覧をバックエンドの順序で返す。
func (c *Comments) List(ctx context.Context, sess *model.Session, article model.Article) ([]model.Comment, error) {
	return c.Panel(sess, article).List(ctx)
}

// Post はコメントを投稿し、再取得した一覧を返す。
func (c *Comments) Post(ctx context.Context, sess *model.Session, article model.Article, content string) ([]model.Comment, error) {
	return c.Panel(sess, article).Post(ctx, content)
}
