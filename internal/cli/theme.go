package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hitoshi/newsportal/internal/model"
)

// localThemeSubject は未ログイン時にこの端末のテーマを保存するキー。
const localThemeSubject = "local"

func newThemeCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the color theme",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show the current theme",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				subject, err := rt.themeSubject(cmd.Context())
				if err != nil {
					return err
				}
				theme, err := rt.svc.Themes.Theme(cmd.Context(), subject)
				if err != nil {
					return err
				}
				rt.printer.Print("%s", theme)
				return nil
			},
		},
		&cobra.Command{
			Use:       "set <light|dark>",
			Short:     "Set the theme",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(model.ThemeLight), string(model.ThemeDark)},
			RunE: func(cmd *cobra.Command, args []string) error {
				theme, err := model.ParseTheme(args[0])
				if err != nil {
					return err
				}
				subject, err := rt.themeSubject(cmd.Context())
				if err != nil {
					return err
				}
				if err := rt.svc.Themes.SetTheme(cmd.Context(), subject, theme); err != nil {
					return err
				}
				rt.printer.Success("テーマを %s に設定しました", theme)
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Switch between light and dark",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				subject, err := rt.themeSubject(cmd.Context())
				if err != nil {
					return err
				}
				theme, err := rt.svc.Themes.ToggleTheme(cmd.Context(), subject)
				if err != nil {
					return err
				}
				rt.printer.Success("テーマを %s に切り替えました", theme)
				return nil
			},
		},
	)
	return cmd
}

// themeSubject はゲートウェイと同じ規則でテーマの保存キーを返す。
func (rt *runtime) themeSubject(ctx context.Context) (string, error) {
	sess, err := rt.session(ctx)
	if err != nil {
		return "", err
	}
	if sess.Authenticated() {
		return "user:" + sess.Username, nil
	}
	return localThemeSubject, nil
}
