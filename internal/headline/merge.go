package headline

import "github.com/hitoshi/newsportal/internal/model"

// Merge はローカル記事と外部記事を出所のタグ付きで1つの一覧にまとめる。
// ローカル記事をバックエンドの順序で先に並べ、外部記事を取得元の順序で後に続ける。
// ローカル記事と同じURLを持つ外部記事はミラー同期済みとみなして除外する。
func Merge(local, external []model.Article) []model.Article {
	merged := make([]model.Article, 0, len(local)+len(external))
	mirrored := make(map[string]struct{}, len(local))

	for _, a := range local {
		if a.SourceLabel == "" {
			a.SourceLabel = string(model.SourceLocal)
		}
		merged = append(merged, a)
		if a.URL != "" {
			mirrored[a.URL] = struct{}{}
		}
	}

	for _, a := range external {
		switch a.Ref.Kind() {
		case model.SourceExternal:
			if _, ok := mirrored[a.Ref.URL()]; ok {
				continue
			}
			if a.SourceLabel == "" {
				a.SourceLabel = string(model.SourceExternal)
			}
			merged = append(merged, a)
		case model.SourceLocal:
			// 取得元がローカル参照を返すことはない
			continue
		}
	}

	return merged
}
