package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hitoshi/newsportal/internal/model"
)

func newDashboardCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the admin dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := rt.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			d, err := rt.svc.Dashboard.Dashboard(cmd.Context(), sess)
			if err != nil {
				return rt.checkAuth(cmd.Context(), sess, err)
			}

			rt.printer.Header("Activity")
			rt.printer.Table([]string{"Users", "News", "Comments", "Likes", "New today"}, [][]string{{
				strconv.Itoa(d.Stats.TotalUsers),
				strconv.Itoa(d.Stats.TotalNews),
				strconv.Itoa(d.Stats.TotalComments),
				strconv.Itoa(d.Stats.TotalLikes),
				strconv.Itoa(d.Stats.NewUsersToday),
			}})

			rt.printer.Header("Recent users")
			rt.printUsers(d.RecentUsers)

			rt.printer.Header("All users")
			rt.printUsers(d.Users)

			rt.printer.Header("Categories")
			rows := make([][]string, 0, len(d.Categories))
			for _, c := range d.Categories {
				rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name})
			}
			rt.printer.Table([]string{"ID", "Name"}, rows)

			rt.printer.Header("News")
			rt.printArticles(d.News)
			return nil
		},
	}
}

func newProfileCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := rt.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			view, err := rt.svc.Dashboard.Profile(cmd.Context(), sess)
			if err != nil {
				return rt.checkAuth(cmd.Context(), sess, err)
			}

			p := view.Profile
			rt.printer.Header(p.Username)
			rt.printer.Print("email: %s", p.Email)
			rt.printer.Print("role: %s", p.Role)
			rt.printer.Print("likes: %d  comments: %d", p.LikeCount, p.CommentCount)

			rt.printer.Header("Your articles")
			rt.printArticles(view.Articles)
			return nil
		},
	}
}

func (rt *runtime) printUsers(users []model.User) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		created := ""
		if !u.CreatedAt.IsZero() {
			created = u.CreatedAt.Local().Format("2006-01-02")
		}
		rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Username, u.Email, string(u.Role), created})
	}
	rt.printer.Table([]string{"ID", "Username", "Email", "Role", "Created"}, rows)
}
