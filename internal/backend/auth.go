package backend

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/newsportal/internal/model"
)

// Login は資格情報でログインし、トークンとユーザー情報を返す。
func (c *Client) Login(ctx context.Context, username, password string) (*model.LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, model.NewValidationError("ユーザー名とパスワードを入力してください")
	}
	var resp loginJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodPost,
		path:     "/api/auth/login",
		endpoint: "/api/auth/login",
		body:     credentialsJSON{Username: username, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, model.NewAuthFailedError("トークンが返されませんでした")
	}
	if resp.Username == "" {
		resp.Username = username
	}
	return &model.LoginResult{
		Token:    resp.Token,
		Username: resp.Username,
		Role:     model.ParseRole(resp.Role),
	}, nil
}

// Register はユーザーを新規登録する。
func (c *Client) Register(ctx context.Context, cred model.Credentials) error {
	if strings.TrimSpace(cred.Username) == "" || cred.Password == "" || strings.TrimSpace(cred.Email) == "" {
		return model.NewValidationError("ユーザー名・メールアドレス・パスワードは必須です")
	}
	return c.doJSON(ctx, call{
		method:   http.MethodPost,
		path:     "/api/auth/register",
		endpoint: "/api/auth/register",
		body: credentialsJSON{
			Username: cred.Username,
			Email:    cred.Email,
			Password: cred.Password,
		},
	}, nil)
}

// Profile はログインユーザーのプロフィールを取得する。
func (c *Client) Profile(ctx context.Context, token string) (*model.Profile, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var resp profileJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     "/api/auth/profile",
		endpoint: "/api/auth/profile",
		token:    token,
		resource: "ユーザー",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &model.Profile{
		User:         resp.userJSON.toModel(),
		LikeCount:    resp.LikeCount,
		CommentCount: resp.CommentCount,
	}, nil
}

// ActivityStats は管理ダッシュボードの利用統計を取得する。
func (c *Client) ActivityStats(ctx context.Context, token string) (*model.ActivityStats, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var resp activityStatsJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     "/api/auth/activity-stats",
		endpoint: "/api/auth/activity-stats",
		token:    token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &model.ActivityStats{
		TotalUsers:    resp.TotalUsers,
		TotalNews:     resp.TotalNews,
		TotalComments: resp.TotalComments,
		TotalLikes:    resp.TotalLikes,
		NewUsersToday: resp.NewUsersToday,
	}, nil
}

// RecentUsers は最近登録されたユーザーを取得する。
func (c *Client) RecentUsers(ctx context.Context, token string) ([]model.User, error) {
	return c.listUsers(ctx, token, "/api/auth/recent-users")
}

// ListUsers は全ユーザーを取得する。管理者トークンが必要。
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.User, error) {
	return c.listUsers(ctx, token, "/api/auth/all-users")
}

func (c *Client) listUsers(ctx context.Context, token, path string) ([]model.User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var items []userJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     path,
		endpoint: path,
		token:    token,
	}, &items)
	if err != nil {
		return nil, err
	}
	return toUsers(items), nil
}

// DeleteUser はユーザーを削除する。管理者トークンが必要。
func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.doJSON(ctx, call{
		method:   http.MethodDelete,
		path:     "/api/auth/all-users/" + strconv.FormatInt(id, 10),
		endpoint: "/api/auth/all-users/:id",
		token:    token,
		resource: "ユーザー",
	}, nil)
}
