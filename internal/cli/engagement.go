package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hitoshi/newsportal/internal/engagement"
	"github.com/hitoshi/newsportal/internal/model"
)

// articleFlags は外部記事のミラー同期に使う記事情報。
type articleFlags struct {
	title       string
	description string
	image       string
	category    string
}

func (f *articleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "external article title")
	cmd.Flags().StringVar(&f.description, "description", "", "external article description")
	cmd.Flags().StringVar(&f.image, "image", "", "external article image URL")
	cmd.Flags().StringVar(&f.category, "category", "", "external article category")
}

// resolve は "<id>" または "<url>" の指定から記事を組み立てる。
func (f *articleFlags) resolve(key string) (model.Article, error) {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		ref := model.ExternalRef(key)
		return model.Article{
			Ref:         ref,
			URL:         key,
			Title:       f.title,
			Description: f.description,
			ImageURL:    f.image,
			Category:    f.category,
		}, nil
	}
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id <= 0 {
		return model.Article{}, model.NewValidationError("記事はIDまたはhttp(s)のURLで指定してください")
	}
	return model.Article{Ref: model.LocalRef(id)}, nil
}

// withLink はIDで指定したローカル記事をバックエンドから取得し直す。
// ミラー同期済みの記事はURLが評価・コメントのキーになるため、IDだけでは足りない。
func (rt *runtime) withLink(ctx context.Context, article model.Article) (model.Article, error) {
	if article.Ref.Kind() != model.SourceLocal || article.URL != "" {
		return article, nil
	}
	stored, err := rt.svc.News.Get(ctx, article.Ref.ID())
	if err != nil {
		return model.Article{}, err
	}
	return *stored, nil
}

func newLikeCommand(rt *runtime, action model.LikeAction) *cobra.Command {
	var af articleFlags
	cmd := &cobra.Command{
		Use:   string(action) + " <id|url>",
		Short: "Toggle " + string(action) + " on an article",
		Long: `記事の評価を切り替えます。同じ評価を再度行うと取り消します。
外部記事（URL指定）は評価の前にバックエンドへ同期されます。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := af.resolve(args[0])
			if err != nil {
				return err
			}
			sess, err := rt.session(cmd.Context())
			if err != nil {
				return err
			}

			if sess.Authenticated() {
				if article, err = rt.withLink(cmd.Context(), article); err != nil {
					return err
				}
			}
			panel := engagement.NewLikePanel(rt.svc.Likes, sess, article)
			status, err := panel.ToggleFetched(cmd.Context(), action)
			if err != nil {
				return rt.checkAuth(cmd.Context(), sess, err)
			}
			rt.printLikeStatus(status)
			return nil
		},
	}
	af.register(cmd)
	return cmd
}

func newCommentsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and post comments",
	}

	var listFlags articleFlags
	list := &cobra.Command{
		Use:   "list <id|url>",
		Short: "List comments of an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := listFlags.resolve(args[0])
			if err != nil {
				return err
			}
			sess, err := rt.session(cmd.Context())
			if err != nil {
				return err
			}
			if article, err = rt.withLink(cmd.Context(), article); err != nil {
				return err
			}
			panel := rt.svc.Comments.Panel(sess, article)
			comments, err := panel.List(cmd.Context())
			if err != nil {
				return err
			}
			rt.printComments(comments)
			if !panel.CanPost() {
				rt.printer.Info("コメントを投稿するには newsportal login でログインしてください")
			}
			return nil
		},
	}
	listFlags.register(list)

	var postFlags articleFlags
	post := &cobra.Command{
		Use:   "post <id|url> <content>",
		Short: "Post a comment and show the refreshed list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := postFlags.resolve(args[0])
			if err != nil {
				return err
			}
			sess, err := rt.session(cmd.Context())
			if err != nil {
				return err
			}
			if !sess.Authenticated() {
				return model.NewAuthRequiredError()
			}
			if article, err = rt.withLink(cmd.Context(), article); err != nil {
				return err
			}
			comments, err := rt.svc.Comments.Panel(sess, article).Post(cmd.Context(), args[1])
			if err != nil {
				return rt.checkAuth(cmd.Context(), sess, err)
			}
			rt.printer.Success("コメントを投稿しました")
			rt.printComments(comments)
			return nil
		},
	}
	postFlags.register(post)

	cmd.AddCommand(list, post)
	return cmd
}
