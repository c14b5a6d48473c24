package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hitoshi/newsportal/internal/model"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and save the session",
		Long: `バックエンドにログインし、セッションをローカルファイルに保存します。
--password を省略した場合は標準入力から1行読み込みます。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}

			sess, err := rt.svc.Sessions.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			rt.printer.Success("%s としてログインしました (role: %s)", sess.Username, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (default: read from stdin)")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := rt.session(cmd.Context())
			if err != nil {
				return err
			}
			if sess == nil {
				rt.printer.Info("ログインしていません")
				return nil
			}
			if err := rt.svc.Sessions.Logout(cmd.Context(), sess.ID); err != nil {
				return err
			}
			rt.printer.Success("ログアウトしました")
			return nil
		},
	}
}

func newRegisterCommand(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Register a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}

			err := rt.svc.Sessions.Register(cmd.Context(), model.Credentials{
				Username: args[0],
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			rt.printer.Success("%s を登録しました。login でログインしてください", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (default: read from stdin)")
	return cmd
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := rt.session(cmd.Context())
			if err != nil {
				return err
			}
			if !sess.Authenticated() {
				rt.printer.Info("ログインしていません")
				return nil
			}
			rt.printer.Print("%s (%s)", rt.printer.Bold(sess.Username), sess.Role)
			rt.printer.Print("%s", rt.printer.Dim("expires: "+sess.ExpiresAt.Local().Format("2006-01-02 15:04")))
			return nil
		},
	}
}

// readLine はrから1行読み込み、改行を除いて返す。
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
