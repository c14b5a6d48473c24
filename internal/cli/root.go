// Package cli はニュースポータルのコマンドラインインターフェースを提供する。
// ゲートウェイと同じビューサービスを端末から操作し、セッションはローカルのYAMLファイルに保存する。
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hitoshi/newsportal/internal/config"
	"github.com/hitoshi/newsportal/internal/logger"
	"github.com/hitoshi/newsportal/internal/model"
	"github.com/hitoshi/newsportal/internal/portal"
	"github.com/hitoshi/newsportal/internal/repository"
)

// Env はCLIの入出力と環境変数の参照先。
type Env struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Getenv func(string) string
}

// DefaultEnv は標準入出力とos.Getenvを使うEnvを返す。
func DefaultEnv() Env {
	return Env{In: os.Stdin, Out: os.Stdout, Err: os.Stderr, Getenv: os.Getenv}
}

// flags はグローバルフラグの値。
type flags struct {
	backendURL  string
	sessionFile string
	noColor     bool
	verbose     bool
}

// runtime は1回のコマンド実行で共有する状態。
// PersistentPreRunEで組み立てる。
type runtime struct {
	env     Env
	flags   flags
	cfg     *config.Config
	logger  *slog.Logger
	printer *Printer
	store   *repository.FileStore
	svc     *portal.Services
}

// NewRootCommand はルートコマンドを生成する。
func NewRootCommand(env Env) *cobra.Command {
	rt := &runtime{env: env}

	root := &cobra.Command{
		Use:   "newsportal",
		Short: "News portal CLI",
		Long: `newsportal はニュースポータルをターミナルから操作するCLIです。

Example usage:
  newsportal login alice             # ログイン（パスワードは標準入力から）
  newsportal news browse tech        # カテゴリ別の記事と外部ヘッドライン
  newsportal like 42                 # 自サイト記事を高評価
  newsportal comments post 42 "Nice" # コメント投稿
  newsportal theme toggle            # ライト/ダーク切り替え`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init()
		},
	}
	root.SetIn(env.In)
	root.SetOut(env.Out)
	root.SetErr(env.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&rt.flags.backendURL, "backend", "", "backend base URL (default: $BACKEND_BASE_URL)")
	pf.StringVar(&rt.flags.sessionFile, "session-file", "", "session file path (default: $SESSION_FILE)")
	pf.BoolVar(&rt.flags.noColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&rt.flags.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newRegisterCommand(rt),
		newWhoamiCommand(rt),
		newNewsCommand(rt),
		newLikeCommand(rt, model.LikeActionLike),
		newLikeCommand(rt, model.LikeActionDislike),
		newCommentsCommand(rt),
		newThemeCommand(rt),
		newDashboardCommand(rt),
		newProfileCommand(rt),
		newAdminCommand(rt),
	)

	return root
}

// Execute はargsでCLIを実行する。エラーはPrinterで出力済みの状態で返す。
func Execute(env Env, args []string) error {
	root := NewRootCommand(env)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		p := NewPrinter(env.Out, env.Err, false)
		p.Error("%s", describeError(err))
	}
	return err
}

// init はフラグと環境変数から設定を読み込み、サービス群を組み立てる。
func (rt *runtime) init() error {
	getenv := func(key string) string {
		switch {
		case key == "BACKEND_BASE_URL" && rt.flags.backendURL != "":
			return rt.flags.backendURL
		case key == "SESSION_FILE" && rt.flags.sessionFile != "":
			return rt.flags.sessionFile
		}
		return rt.env.Getenv(key)
	}

	cfg, err := config.LoadFrom(getenv)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	rt.cfg = cfg

	level := logger.ParseLevel(cfg.LogLevel)
	if rt.flags.verbose {
		level = slog.LevelDebug
	} else if level < slog.LevelWarn {
		// 通常時は結果表示を妨げないよう警告以上のみ出力する
		level = slog.LevelWarn
	}
	rt.logger = logger.SetupText(rt.env.Err, level)

	// color.NoColor はNO_COLORと端末判定を反映している
	rt.printer = NewPrinter(rt.env.Out, rt.env.Err, !rt.flags.noColor && !color.NoColor)

	rt.store = repository.NewFileStore(cfg.SessionFile)
	rt.svc = portal.NewServices(cfg, portal.Stores{
		Sessions:    rt.store,
		Preferences: rt.store,
	}, nil, rt.logger)

	rt.svc.Themes.Subscribe(func(subject string, theme model.Theme) {
		rt.logger.Debug("theme updated", slog.String("subject", subject), slog.String("theme", string(theme)))
	})
	return nil
}

// session は保存済みのセッションを返す。未ログインの場合はnilを返す。
func (rt *runtime) session(ctx context.Context) (*model.Session, error) {
	return rt.svc.Sessions.Current(ctx, "")
}

// requireSession はログイン済みのセッションを返す。未ログインの場合はAUTH_REQUIREDを返す。
func (rt *runtime) requireSession(ctx context.Context) (*model.Session, error) {
	sess, err := rt.session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return nil, model.NewAuthRequiredError()
	}
	return sess, nil
}

// checkAuth はログイン中の操作で認証失敗が返された場合にセッションを破棄する。
// errはそのまま返す。
func (rt *runtime) checkAuth(ctx context.Context, sess *model.Session, err error) error {
	if err == nil || !model.IsAuthFailure(err) || !sess.Authenticated() {
		return err
	}
	if expErr := rt.svc.Sessions.Expire(ctx, sess); expErr != nil {
		rt.logger.Error("failed to expire session", slog.String("error", expErr.Error()))
	}
	rt.printer.Warning("セッションが無効になりました。再度ログインしてください。")
	return err
}

// describeError はAPIErrorの場合に対処方法を含むメッセージを返す。
func describeError(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Action != "" {
		return fmt.Sprintf("%s (%s)", apiErr.Message, apiErr.Action)
	}
	return err.Error()
}
