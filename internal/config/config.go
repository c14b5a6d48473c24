package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backend
	BackendBaseURL string
	BackendTimeout time.Duration // 0 の場合はトランスポートのデフォルト（タイムアウトなし）

	// Database（空の場合はインメモリストアを使用する）
	DatabaseURL string

	// Headline
	HeadlineAPIURL  string
	HeadlineAPIKey  string
	HeadlineCountry string
	HeadlineRSSURLs map[string]string // category -> feed URL。"*" はデフォルトフィード
	HeadlineTimeout time.Duration
	HeadlineMaxSize int64

	// Session
	SessionMaxAge int
	SessionFile   string

	// Rate Limit
	RateLimitGeneral    int
	RateLimitEngagement int

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom は指定された参照関数からConfigを読み込む。
// CLIではフラグ値を優先する参照関数を渡す。
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	l := loader{getenv: getenv}

	// Required fields
	var missing []string

	cfg.BackendBaseURL = strings.TrimRight(getenv("BACKEND_BASE_URL"), "/")
	if cfg.BackendBaseURL == "" {
		missing = append(missing, "BACKEND_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.BackendTimeout = l.duration("BACKEND_TIMEOUT", 0)
	cfg.DatabaseURL = getenv("DATABASE_URL")
	cfg.HeadlineAPIURL = strings.TrimRight(l.string("HEADLINE_API_URL", "https://newsapi.org/v2"), "/")
	cfg.HeadlineAPIKey = getenv("HEADLINE_API_KEY")
	cfg.HeadlineCountry = l.string("HEADLINE_COUNTRY", "us")
	cfg.HeadlineRSSURLs = parseFeedMap(getenv("HEADLINE_RSS_URLS"))
	cfg.HeadlineTimeout = l.duration("HEADLINE_TIMEOUT", 10*time.Second)
	cfg.HeadlineMaxSize = l.int64("HEADLINE_MAX_SIZE", 2097152)
	cfg.SessionMaxAge = l.int("SESSION_MAX_AGE", 86400)
	cfg.SessionFile = l.string("SESSION_FILE", defaultSessionFile())
	cfg.RateLimitGeneral = l.int("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitEngagement = l.int("RATE_LIMIT_ENGAGEMENT", 30)
	cfg.LogLevel = l.string("LOG_LEVEL", "info")
	cfg.ServerPort = l.string("SERVER_PORT", "8080")
	cfg.BaseURL = l.string("BASE_URL", "http://localhost:"+cfg.ServerPort)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getenv("COOKIE_DOMAIN")
	cfg.CORSAllowedOrigin = l.string("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// HeadlinesEnabled は外部ヘッドラインの取得元が設定されているかを返す。
func (c *Config) HeadlinesEnabled() bool {
	return c.HeadlineAPIKey != "" || len(c.HeadlineRSSURLs) > 0
}

// parseFeedMap は "category=url,category=url" 形式をパースする。
// "=" を含まない要素はデフォルトフィード（キー "*"）として扱う。
func parseFeedMap(v string) map[string]string {
	if v == "" {
		return nil
	}
	feeds := make(map[string]string)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		category, url, ok := strings.Cut(part, "=")
		if !ok {
			feeds["*"] = part
			continue
		}
		feeds[strings.TrimSpace(category)] = strings.TrimSpace(url)
	}
	return feeds
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".newsportal-session.yaml"
	}
	return filepath.Join(dir, "newsportal", "session.yaml")
}

type loader struct {
	getenv func(string) string
}

func (l loader) string(key, defaultVal string) string {
	if v := l.getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (l loader) int(key string, defaultVal int) int {
	v := l.getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func (l loader) int64(key string, defaultVal int64) int64 {
	v := l.getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func (l loader) duration(key string, defaultVal time.Duration) time.Duration {
	v := l.getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
