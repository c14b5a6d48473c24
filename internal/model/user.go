package model

import "time"

// User はバックエンドに登録されたユーザーを表す。
type User struct {
	ID        int64
	Username  string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// Profile はログインユーザー自身のプロフィールを表す。
type Profile struct {
	User
	LikeCount    int
	CommentCount int
}

// Category はニュースのカテゴリを表す。
type Category struct {
	ID   int64
	Name string
}

// ActivityStats は管理ダッシュボードの利用統計を表す。
type ActivityStats struct {
	TotalUsers    int
	TotalNews     int
	TotalComments int
	TotalLikes    int
	NewUsersToday int
}

// Credentials はログイン・ユーザー登録の入力を表す。
type Credentials struct {
	Username string
	Email    string
	Password string
}

// LoginResult はログインAPIの応答を表す。
type LoginResult struct {
	Token    string
	Username string
	Role     Role
}

// Dashboard は管理ダッシュボード画面の表示内容を表す。
// 全ての取得が成功した場合のみ生成される。
type Dashboard struct {
	Stats       ActivityStats
	RecentUsers []User
	Users       []User
	Categories  []Category
	News        []Article
}

// ProfileView はプロフィール画面の表示内容を表す。
type ProfileView struct {
	Profile  Profile
	Articles []Article
}
