package engagement

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/newsportal/internal/metrics"
	"github.com/hitoshi/newsportal/internal/model"
)

// LikeBackend は評価操作に必要なバックエンドAPI。
type LikeBackend interface {
	LikeStatus(ctx context.Context, token string, key model.NewsKey) (model.LikeStatus, error)
	PutLike(ctx context.Context, token string, key model.NewsKey, value bool) error
	RemoveLike(ctx context.Context, token string, key model.NewsKey) error
}

// Toggler はミラー同期・評価の登録/取消・再取得を1つの操作として順に実行する。
type Toggler struct {
	mirror  *MirrorSync
	likes   LikeBackend
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewToggler はTogglerを生成する。
func NewToggler(mirror *MirrorSync, likes LikeBackend, mc metrics.MetricsCollector, logger *slog.Logger) *Toggler {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Toggler{mirror: mirror, likes: likes, metrics: mc, logger: logger}
}

// Status は記事の集計値とユーザーの評価状態をバックエンドから取得する。
// ミラー同期前の外部記事はバックエンドに存在しないため、未評価の空の集計として扱う。
func (t *Toggler) Status(ctx context.Context, sess *model.Session, article model.Article) (model.LikeStatus, error) {
	if !sess.Authenticated() {
		return model.LikeStatus{}, model.NewAuthRequiredError()
	}
	if !article.Ref.Valid() {
		return model.LikeStatus{}, model.NewValidationError("記事の参照が不正です")
	}

	status, err := t.likes.LikeStatus(ctx, sess.Token, article.NewsKey())
	if err != nil {
		if article.Ref.Kind() == model.SourceExternal && model.HasCode(err, model.ErrCodeNotFound) {
			return model.LikeStatus{State: model.LikeStateNone}, nil
		}
		return model.LikeStatus{}, err
	}
	return status, nil
}

// Toggle は現在の状態currentに対してactionを適用し、再取得した状態を返す。
// currentとactionが同じ状態なら評価を取り消し、異なれば登録する。
// いずれかの段階で失敗した場合はそこで中断し、エラーを返す。
func (t *Toggler) Toggle(ctx context.Context, sess *model.Session, article model.Article, current model.LikeState, action model.LikeAction) (model.LikeStatus, error) {
	return t.apply(ctx, sess, article, action, func(context.Context) (model.LikeState, error) {
		return current, nil
	})
}

// ToggleFetched はミラー同期の後にバックエンドから現在の状態を取得し、actionを適用する。
// 未同期の外部記事でも状態の取得より先に同期が完了する。
func (t *Toggler) ToggleFetched(ctx context.Context, sess *model.Session, article model.Article, action model.LikeAction) (model.LikeStatus, error) {
	return t.apply(ctx, sess, article, action, func(ctx context.Context) (model.LikeState, error) {
		status, err := t.likes.LikeStatus(ctx, sess.Token, article.NewsKey())
		return status.State, err
	})
}

func (t *Toggler) apply(ctx context.Context, sess *model.Session, article model.Article, action model.LikeAction, current func(context.Context) (model.LikeState, error)) (model.LikeStatus, error) {
	if !sess.Authenticated() {
		return model.LikeStatus{}, model.NewAuthRequiredError()
	}
	if !article.Ref.Valid() {
		return model.LikeStatus{}, model.NewValidationError("記事の参照が不正です")
	}

	status, err := t.toggle(ctx, sess, article, action, current)
	t.metrics.RecordLikeToggle(string(action), err == nil)
	if err != nil {
		t.logger.Warn("評価の更新に失敗しました",
			slog.String("article", article.Ref.String()),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		return model.LikeStatus{}, err
	}
	return status, nil
}

func (t *Toggler) toggle(ctx context.Context, sess *model.Session, article model.Article, action model.LikeAction, currentFn func(context.Context) (model.LikeState, error)) (model.LikeStatus, error) {
	// 1. 外部記事はミラー同期を待つ
	if err := t.mirror.Ensure(ctx, sess.Token, article); err != nil {
		return model.LikeStatus{}, err
	}

	current, err := currentFn(ctx)
	if err != nil {
		return model.LikeStatus{}, err
	}

	// 2. 同じ操作なら取消、異なれば登録
	key := article.NewsKey()
	if current == action.State() {
		if err := t.likes.RemoveLike(ctx, sess.Token, key); err != nil {
			return model.LikeStatus{}, err
		}
	} else {
		if err := t.likes.PutLike(ctx, sess.Token, key, action.Value()); err != nil {
			return model.LikeStatus{}, err
		}
	}

	// 3. 集計値はローカルで加算せず、必ず再取得する
	return t.likes.LikeStatus(ctx, sess.Token, key)
}

// LikePanel は1つの記事に対する評価表示の状態を保持する。
// 操作の実行中は次の操作を受け付けない。
type LikePanel struct {
	toggler *Toggler
	session *model.Session
	article model.Article

	mu     sync.Mutex
	status model.LikeStatus
	busy   bool
}

// NewLikePanel はLikePanelを生成する。初期状態は未評価・集計0。
func NewLikePanel(toggler *Toggler, sess *model.Session, article model.Article) *LikePanel {
	return &LikePanel{
		toggler: toggler,
		session: sess,
		article: article,
		status:  model.LikeStatus{State: model.LikeStateNone},
	}
}

// Status は表示中の状態を返す。
func (p *LikePanel) Status() model.LikeStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Busy は操作の実行中かを返す。実行中は評価ボタンを無効にする。
func (p *LikePanel) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Load はバックエンドから状態を取得して表示を置き換える。
func (p *LikePanel) Load(ctx context.Context) (model.LikeStatus, error) {
	if err := p.begin(); err != nil {
		return p.Status(), err
	}
	status, err := p.toggler.Status(ctx, p.session, p.article)
	return p.finish(status, err)
}

// Toggle はactionを適用する。未ログインの場合は通信せずにAUTH_REQUIREDを返す。
// 失敗した場合は表示中の状態を変更しない。
func (p *LikePanel) Toggle(ctx context.Context, action model.LikeAction) (model.LikeStatus, error) {
	if !p.session.Authenticated() {
		return p.Status(), model.NewAuthRequiredError()
	}
	if err := p.begin(); err != nil {
		return p.Status(), err
	}

	p.mu.Lock()
	current := p.status.State
	p.mu.Unlock()

	status, err := p.toggler.Toggle(ctx, p.session, p.article, current, action)
	return p.finish(status, err)
}

// ToggleFetched は表示中の状態ではなくバックエンドの現在の状態に対してactionを適用する。
// 表示を読み込んでいない呼び出し元（CLIなど）が使う。
func (p *LikePanel) ToggleFetched(ctx context.Context, action model.LikeAction) (model.LikeStatus, error) {
	if !p.session.Authenticated() {
		return p.Status(), model.NewAuthRequiredError()
	}
	if err := p.begin(); err != nil {
		return p.Status(), err
	}
	status, err := p.toggler.ToggleFetched(ctx, p.session, p.article, action)
	return p.finish(status, err)
}

func (p *LikePanel) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return model.NewActionInProgressError()
	}
	p.busy = true
	return nil
}

func (p *LikePanel) finish(status model.LikeStatus, err error) (model.LikeStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = false
	if err != nil {
		return p.status, err
	}
	p.status = status
	return p.status, nil
}
