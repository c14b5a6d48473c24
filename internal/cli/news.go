package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hitoshi/newsportal/internal/engagement"
	"github.com/hitoshi/newsportal/internal/model"
)

func newNewsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Browse news articles",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the latest local articles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				articles, err := rt.svc.News.Latest(cmd.Context())
				if err != nil {
					return err
				}
				rt.printArticles(articles)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show an article with its like status and comments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				article, err := rt.svc.News.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				rt.printArticle(*article)

				sess, err := rt.session(cmd.Context())
				if err != nil {
					return err
				}
				if sess.Authenticated() {
					status, err := engagement.NewLikePanel(rt.svc.Likes, sess, *article).Load(cmd.Context())
					if err != nil {
						return rt.checkAuth(cmd.Context(), sess, err)
					}
					rt.printLikeStatus(status)
				}

				comments, err := rt.svc.Comments.List(cmd.Context(), sess, *article)
				if err != nil {
					return err
				}
				rt.printComments(comments)
				return nil
			},
		},
		&cobra.Command{
			Use:   "search [title]",
			Short: "Search local articles by title",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				title := ""
				if len(args) == 1 {
					title = args[0]
				}
				articles, err := rt.svc.News.Search(cmd.Context(), title)
				if err != nil {
					return err
				}
				rt.printArticles(articles)
				return nil
			},
		},
		&cobra.Command{
			Use:   "browse <category>",
			Short: "List local articles and external headlines of a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				articles, err := rt.svc.News.Browse(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rt.printArticles(articles)
				return nil
			},
		},
		&cobra.Command{
			Use:   "categories",
			Short: "List categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				categories, err := rt.svc.News.Categories(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(categories))
				for _, c := range categories {
					rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name})
				}
				rt.printer.Table([]string{"ID", "Name"}, rows)
				return nil
			},
		},
	)
	return cmd
}

func (rt *runtime) printArticles(articles []model.Article) {
	if len(articles) == 0 {
		rt.printer.Info("記事がありません")
		return
	}
	rows := make([][]string, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, []string{
			articleKey(a),
			string(a.Ref.Kind()),
			truncate(a.Title, 60),
			a.Category,
			sourceOf(a),
		})
	}
	rt.printer.Table([]string{"Key", "Source", "Title", "Category", "By"}, rows)
}

func (rt *runtime) printArticle(a model.Article) {
	rt.printer.Header(a.Title)
	if a.Description != "" {
		rt.printer.Print("%s", a.Description)
	}
	meta := []string{articleKey(a)}
	if a.Category != "" {
		meta = append(meta, a.Category)
	}
	if by := sourceOf(a); by != "" {
		meta = append(meta, by)
	}
	if a.PublishedAt != nil {
		meta = append(meta, a.PublishedAt.Local().Format("2006-01-02 15:04"))
	}
	rt.printer.Print("%s", rt.printer.Dim(strings.Join(meta, " | ")))
}

func (rt *runtime) printLikeStatus(s model.LikeStatus) {
	rt.printer.Print("👍 %d  👎 %d  (%s)", s.LikeCount, s.DislikeCount, s.State)
}

func (rt *runtime) printComments(comments []model.Comment) {
	rt.printer.Header("Comments")
	if len(comments) == 0 {
		rt.printer.Info("コメントはまだありません")
		return
	}
	for _, c := range comments {
		rt.printer.Print("%s %s", rt.printer.Bold(c.Username), rt.printer.Dim(c.CreatedAt.Local().Format("2006-01-02 15:04")))
		rt.printer.Print("  %s", c.Content)
	}
}

// articleKey は記事を指定し直すためのキーを返す。自サイト記事はID、外部記事はURL。
func articleKey(a model.Article) string {
	switch a.Ref.Kind() {
	case model.SourceLocal:
		return strconv.FormatInt(a.Ref.ID(), 10)
	case model.SourceExternal:
		return a.Ref.URL()
	default:
		return "-"
	}
}

func sourceOf(a model.Article) string {
	switch a.Ref.Kind() {
	case model.SourceLocal:
		return a.CreatedBy
	case model.SourceExternal:
		return a.SourceLabel
	default:
		return ""
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("記事IDは正の整数で指定してください")
	}
	return id, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
