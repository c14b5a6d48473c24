package backend

import (
	"strings"
	"time"

	"github.com/hitoshi/newsportal/internal/model"
)

// newsJSON はニュースAPIが返す記事のJSON表現。
type newsJSON struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Image       string     `json:"image"`
	URL         string     `json:"url"`
	CreateBy    string     `json:"create_by"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   *time.Time `json:"created_at"`
}

// toArticle はローカル記事としてmodel.Articleに変換する。
// 相対パスの画像はバックエンドのベースURLで解決する。
func (n newsJSON) toArticle(baseURL string) model.Article {
	published := n.PublishedAt
	if published == nil {
		published = n.CreatedAt
	}
	return model.Article{
		Ref:         model.LocalRef(n.ID),
		Title:       n.Title,
		Description: n.Description,
		ImageURL:    resolveImage(baseURL, n.Image),
		URL:         n.URL,
		Category:    n.Category,
		SourceLabel: string(model.SourceLocal),
		CreatedBy:   n.CreateBy,
		PublishedAt: published,
	}
}

func resolveImage(baseURL, image string) string {
	switch {
	case image == "":
		return ""
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return image
	default:
		return baseURL + "/" + strings.TrimLeft(image, "/")
	}
}

func toArticles(baseURL string, items []newsJSON) []model.Article {
	articles := make([]model.Article, 0, len(items))
	for _, n := range items {
		articles = append(articles, n.toArticle(baseURL))
	}
	return articles
}

// syncExternalJSON は POST /api/news/sync-external のリクエストボディ。
type syncExternalJSON struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URLToImage  string     `json:"urlToImage"`
	PublishedAt *time.Time `json:"publishedAt"`
	Category    string     `json:"category"`
}

// likeStatusJSON は GET /api/likes のレスポンス。
type likeStatusJSON struct {
	LikeCount      int   `json:"likeCount"`
	DislikeCount   int   `json:"dislikeCount"`
	UserLikeStatus *bool `json:"userLikeStatus"`
}

func (l likeStatusJSON) toModel() model.LikeStatus {
	return model.LikeStatus{
		LikeCount:    l.LikeCount,
		DislikeCount: l.DislikeCount,
		State:        model.LikeStateFromWire(l.UserLikeStatus),
	}
}

// likeRequestJSON は POST/DELETE /api/likes のリクエストボディ。
// DELETEではValueを送らない。
type likeRequestJSON struct {
	IDNews model.NewsKey `json:"id_news"`
	Value  *bool         `json:"value,omitempty"`
}

// commentJSON はコメントのJSON表現。
type commentJSON struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	NewsURL   string    `json:"news_url"`
}

func (c commentJSON) toModel() model.Comment {
	return model.Comment{
		ID:        c.ID,
		Username:  c.Username,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		NewsURL:   c.NewsURL,
	}
}

// postCommentJSON は POST /api/comments のリクエストボディ。
type postCommentJSON struct {
	Content string `json:"content"`
	NewsURL string `json:"news_url"`
}

type categoryJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type userJSON struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u userJSON) toModel() model.User {
	return model.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      model.ParseRole(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toUsers(items []userJSON) []model.User {
	users := make([]model.User, 0, len(items))
	for _, u := range items {
		users = append(users, u.toModel())
	}
	return users
}

type profileJSON struct {
	userJSON
	LikeCount    int `json:"likeCount"`
	CommentCount int `json:"commentCount"`
}

type activityStatsJSON struct {
	TotalUsers    int `json:"totalUsers"`
	TotalNews     int `json:"totalNews"`
	TotalComments int `json:"totalComments"`
	TotalLikes    int `json:"totalLikes"`
	NewUsersToday int `json:"newUsersToday"`
}

type credentialsJSON struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type loginJSON struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
