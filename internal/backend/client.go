// Package backend はニュースポータルのREST APIクライアントを提供する。
// 全てのエンドポイント呼び出しはエラーを model.APIError に分類して返し、自動リトライは行わない。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/newsportal/internal/metrics"
	"github.com/hitoshi/newsportal/internal/model"
)

// maxResponseSize はレスポンスボディの最大読み取りサイズ（10MB）。
const maxResponseSize = 10 << 20

// Client はバックエンドREST APIのクライアント。
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientのタイムアウトが呼び出しのタイムアウトになる（ゼロ値ならタイムアウトなし）。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger, mc metrics.MetricsCollector) *Client {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
		metrics:    mc,
	}
}

// BaseURL はバックエンドのベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call は1回のAPI呼び出しの内容を表す。
type call struct {
	method   string
	path     string     // ベースURLからの相対パス（エスケープ済み）
	endpoint string     // メトリクス・ログ用のパステンプレート
	query    url.Values // nilの場合はクエリなし
	token    string     // 空の場合はAuthorizationヘッダーを付けない
	body     any        // JSONとして送信する。nilの場合はボディなし
	resource string     // 404時のメッセージに使うリソース名
}

// doJSON はJSONリクエストを送信し、成功時はレスポンスをoutにデコードする。
// outがnilの場合はレスポンスボディを読み捨てる。
func (c *Client) doJSON(ctx context.Context, cl call, out any) error {
	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, cl, body)
	if err != nil {
		return err
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, cl, out)
}

// newRequest はAuthorizationヘッダー付きのHTTPリクエストを生成する。
func (c *Client) newRequest(ctx context.Context, cl call, body io.Reader) (*http.Request, error) {
	reqURL := c.baseURL + cl.path
	if len(cl.query) > 0 {
		reqURL += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "NewsPortal/1.0")
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	return req, nil
}

// do はリクエストを実行し、ステータスとボディを分類する。
func (c *Client) do(req *http.Request, cl call, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("バックエンドAPIの呼び出しに失敗しました",
			slog.String("endpoint", cl.endpoint),
			slog.String("method", cl.method),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordBackendFailure(cl.endpoint, model.ErrCodeNetwork)
		return model.NewNetworkError(err)
	}
	defer resp.Body.Close()
	c.metrics.RecordBackendRequest(cl.endpoint, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("endpoint", cl.endpoint),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordBackendFailure(cl.endpoint, model.ErrCodeNetwork)
		return model.NewNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classifyStatus(resp.StatusCode, data, cl.resource)
		c.logger.Warn("バックエンドAPIがエラーステータスを返しました",
			slog.String("endpoint", cl.endpoint),
			slog.String("method", cl.method),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		c.metrics.RecordBackendFailure(cl.endpoint, apiErr.Code)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("バックエンドAPIのレスポンスのパースに失敗しました",
			slog.String("endpoint", cl.endpoint),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordBackendFailure(cl.endpoint, model.ErrCodeMalformedResponse)
		return model.NewMalformedResponseError(err)
	}
	return nil
}

// classifyStatus は2xx以外のステータスをエラー分類に変換する。
func classifyStatus(status int, body []byte, resource string) *model.APIError {
	detail := errorDetail(body)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.NewAuthFailedError(detail)
	case http.StatusNotFound:
		if resource == "" {
			resource = "リソース"
		}
		return model.NewNotFoundError(resource)
	default:
		return model.NewUpstreamStatusError(status, detail)
	}
}

// errorDetail はエラーレスポンスの {message} または {error} を取り出す。
func errorDetail(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// requireToken は認証が必要な呼び出しでトークンの有無を検査する。
// 未ログインの場合はリクエストを送らずにエラーを返す。
func requireToken(token string) error {
	if token == "" {
		return model.NewAuthRequiredError()
	}
	return nil
}
