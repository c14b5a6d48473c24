package model

import "time"

// LikeState はユーザーと記事の組ごとの評価状態を表す。
// none、liked、dislikedのいずれか1つだけが成り立つ。
type LikeState string

const (
	// LikeStateNone は未評価。
	LikeStateNone LikeState = "none"
	// LikeStateLiked は高評価済み。
	LikeStateLiked LikeState = "liked"
	// LikeStateDisliked は低評価済み。
	LikeStateDisliked LikeState = "disliked"
)

// LikeStateFromWire はバックエンドの userLikeStatus（true/false/null）を変換する。
func LikeStateFromWire(v *bool) LikeState {
	switch {
	case v == nil:
		return LikeStateNone
	case *v:
		return LikeStateLiked
	default:
		return LikeStateDisliked
	}
}

// LikeAction はユーザーが要求する評価操作を表す。
type LikeAction string

const (
	// LikeActionLike は高評価。
	LikeActionLike LikeAction = "like"
	// LikeActionDislike は低評価。
	LikeActionDislike LikeAction = "dislike"
)

// ParseLikeAction は文字列をLikeActionに変換する。
func ParseLikeAction(s string) (LikeAction, error) {
	switch LikeAction(s) {
	case LikeActionLike, LikeActionDislike:
		return LikeAction(s), nil
	default:
		return "", NewValidationError("action には like または dislike を指定してください")
	}
}

// State は操作が成立した後の状態を返す。
func (a LikeAction) State() LikeState {
	if a == LikeActionLike {
		return LikeStateLiked
	}
	return LikeStateDisliked
}

// Value はPOST /api/likes に送るbool値を返す（true=like, false=dislike）。
func (a LikeAction) Value() bool {
	return a == LikeActionLike
}

// LikeStatus は記事の集計値とログインユーザーの評価状態を表す。
// 常にバックエンドから再取得した値で置き換え、ローカルでは加算しない。
type LikeStatus struct {
	LikeCount    int
	DislikeCount int
	State        LikeState
}

// Comment は記事へのコメントを表す。クライアントからは追記のみ。
type Comment struct {
	ID        int64
	Username  string
	Content   string
	CreatedAt time.Time
	NewsURL   string
}
