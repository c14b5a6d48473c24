package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hitoshi/newsportal/internal/model"
)

// newAdminCommand は管理者向けのコンテンツ・ユーザー管理コマンドを生成する。
// 権限の判定はバックエンドが行い、拒否された場合はFORBIDDENを表示する。
func newAdminCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage news, categories and users (admin only)",
	}
	cmd.AddCommand(
		newAdminNewsCommand(rt),
		newAdminCategoryCommand(rt),
		newAdminUserCommand(rt),
	)
	return cmd
}

func newAdminNewsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Create or delete local articles",
	}

	var draft model.NewsDraft
	var photoPath string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a local article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := rt.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if photoPath != "" {
				data, err := os.ReadFile(photoPath)
				if err != nil {
					return fmt.Errorf("failed to read photo: %w", err)
				}
				draft.Photo = data
				draft.PhotoName = filepath.Base(photoPath)
			}
			draft.CreatedBy = sess.Username

			if err := rt.svc.Backend.CreateNews(cmd.Context(), sess.Token, draft); err != nil {
				return rt.checkAuth(cmd.Context(), sess, err)
			}
			rt.printer.Success("記事「%s」を登録しました", draft.Title)
			return nil
		},
	}
	create.Flags().StringVar(&draft.Title, "title", "", "article title (required)")
	create.Flags().StringVar(&draft.Description, "description", "", "article body")
	create.Flags().StringVar(&draft.Category, "category", "", "category name")
	create.Flags().StringVar(&photoPath, "photo", "", "path to an image file")

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a local article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			sess, err := rt.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.svc.Backend.DeleteNews(cmd.Context(), sess.Token, id); err != nil {
				return rt.checkAuth(cmd.Context(), sess, err)
			}
			rt.printer.Success("記事 %d を削除しました", id)
			return nil
		},
	}

	cmd.AddCommand(create, remove)
	return cmd
}

func newAdminCategoryCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Add or delete categories",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := rt.requireSession(cmd.Context())
				if err != nil {
					return err
				}
				if err := rt.svc.Backend.CreateCategory(cmd.Context(), sess.Token, args[0]); err != nil {
					return rt.checkAuth(cmd.Context(), sess, err)
				}
				rt.printer.Success("カテゴリ「%s」を追加しました", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || id <= 0 {
					return model.NewValidationError("カテゴリIDは正の整数で指定してください")
				}
				sess, err := rt.requireSession(cmd.Context())
				if err != nil {
					return err
				}
				if err := rt.svc.Backend.DeleteCategory(cmd.Context(), sess.Token, id); err != nil {
					return rt.checkAuth(cmd.Context(), sess, err)
				}
				rt.printer.Success("カテゴリ %d を削除しました", id)
				return nil
			},
		},
	)
	return cmd
}

func newAdminUserCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return model.NewValidationError("ユーザーIDは正の整数で指定してください")
			}
			sess, err := rt.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.svc.Backend.DeleteUser(cmd.Context(), sess.Token, id); err != nil {
				return rt.checkAuth(cmd.Context(), sess, err)
			}
			rt.printer.Success("ユーザー %d を削除しました", id)
			return nil
		},
	})
	return cmd
}
