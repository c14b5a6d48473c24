package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Source は記事の出所を表す。
type Source string

const (
	// SourceLocal はバックエンドのニューステーブルに登録された記事。
	SourceLocal Source = "local"
	// SourceExternal は外部ヘッドラインAPIから取得した記事。
	SourceExternal Source = "external"
)

// ArticleRef は記事の識別子を表すタグ付き共用体。
// ローカル記事は整数ID、外部記事はURLで識別する。
// ゼロ値は無効な参照であり、LocalRefまたはExternalRefで生成すること。
type ArticleRef struct {
	kind Source
	id   int64
	url  string
}

// LocalRef はローカル記事の参照を生成する。
func LocalRef(id int64) ArticleRef {
	return ArticleRef{kind: SourceLocal, id: id}
}

// ExternalRef は外部記事の参照を生成する。
func ExternalRef(url string) ArticleRef {
	return ArticleRef{kind: SourceExternal, url: url}
}

// Kind は参照の種別を返す。
func (r ArticleRef) Kind() Source {
	return r.kind
}

// ID はローカル記事のIDを返す。外部記事では0。
func (r ArticleRef) ID() int64 {
	return r.id
}

// URL は外部記事のURLを返す。ローカル記事では空文字列。
func (r ArticleRef) URL() string {
	return r.url
}

// Valid は参照が識別子を持つかを返す。
func (r ArticleRef) Valid() bool {
	switch r.kind {
	case SourceLocal:
		return r.id > 0
	case SourceExternal:
		return r.url != ""
	default:
		return false
	}
}

// NewsKey は /api/likes の id_news に送る値を返す。
// ローカル記事は整数ID、外部記事はミラー同期済みのURLをそのまま使う。
func (r ArticleRef) NewsKey() NewsKey {
	switch r.kind {
	case SourceLocal:
		return NewsKey{id: r.id}
	case SourceExternal:
		return NewsKey{url: r.url}
	default:
		return NewsKey{}
	}
}

// CommentKey は /api/comments の news_url に送る値を返す。
func (r ArticleRef) CommentKey() string {
	switch r.kind {
	case SourceLocal:
		return strconv.FormatInt(r.id, 10)
	case SourceExternal:
		return r.url
	default:
		return ""
	}
}

// String はログ出力用の表現を返す。
func (r ArticleRef) String() string {
	switch r.kind {
	case SourceLocal:
		return fmt.Sprintf("local:%d", r.id)
	case SourceExternal:
		return "external:" + r.url
	default:
		return "invalid"
	}
}

// NewsKey は id_news の値。JSONでは整数またはURL文字列になる。
type NewsKey struct {
	id  int64
	url string
}

// String はクエリパラメータ用の文字列を返す。
func (k NewsKey) String() string {
	if k.url != "" {
		return k.url
	}
	return strconv.FormatInt(k.id, 10)
}

// MarshalJSON はjson.Marshalerを実装する。
func (k NewsKey) MarshalJSON() ([]byte, error) {
	if k.url != "" {
		return json.Marshal(k.url)
	}
	return json.Marshal(k.id)
}

// Article はポータルで表示する記事を表す。
// ローカル記事と外部記事の両方をこの型で扱い、Refで出所を区別する。
type Article struct {
	Ref         ArticleRef
	Title       string
	Description string
	ImageURL    string
	URL         string
	Category    string
	SourceLabel string
	CreatedBy   string
	PublishedAt *time.Time
}

// ExternalArticle はミラー同期APIに送る外部記事のフィールドを表す。
type ExternalArticle struct {
	URL         string
	Title       string
	Description string
	ImageURL    string
	PublishedAt *time.Time
	Category    string
}

// Link は記事のURLを返す。ミラー同期済みの記事はローカル参照でもURLを持つ。
func (a Article) Link() string {
	if a.URL != "" {
		return a.URL
	}
	return a.Ref.URL()
}

// NewsKey は /api/likes の id_news に送る値を返す。
// URLを持つ記事はURL、持たないローカル記事は整数IDを使う。
// ミラー同期の前後で同じ記事のキーが変わらない。
func (a Article) NewsKey() NewsKey {
	if link := a.Link(); link != "" {
		return NewsKey{url: link}
	}
	return a.Ref.NewsKey()
}

// CommentKey は /api/comments の news_url に送る値を返す。
// NewsKeyと同じく、URLを持つ記事はURLをキーにする。
func (a Article) CommentKey() string {
	if link := a.Link(); link != "" {
		return link
	}
	return a.Ref.CommentKey()
}

// ExternalFields は外部記事としてミラー同期に必要なフィールドを取り出す。
func (a Article) ExternalFields() ExternalArticle {
	return ExternalArticle{
		URL:         a.Ref.URL(),
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		PublishedAt: a.PublishedAt,
		Category:    a.Category,
	}
}

// NewsDraft は管理画面からの記事登録内容を表す。
type NewsDraft struct {
	Title       string
	Description string
	Category    string
	CreatedBy   string
	PhotoName   string
	Photo       []byte
}
