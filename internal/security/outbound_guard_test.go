package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewClient_Timeout はタイムアウト設定が反映されることを検証する。
func TestNewClient_Timeout(t *testing.T) {
	guard := NewOutboundGuard()
	client := guard.NewClient(5 * time.Second)
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("expected timeout %v, got %v", 5*time.Second, client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Error("expected custom Transport")
	}
}

// TestNewClient_BlocksLoopback はループバックへの接続がブロックされることを検証する。
// httptestサーバーは127.0.0.1で起動されるため、safeurlがブロックする。
func TestNewClient_BlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewOutboundGuard().NewClient(5 * time.Second)

	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

// TestValidateURL は取得先URLの静的検証を検証する。
func TestValidateURL(t *testing.T) {
	guard := NewOutboundGuard()

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://newsapi.org/v2", false},
		{"http://feeds.example.com/rss.xml", false},
		{"https://93.184.216.34/feed", false},
		{"", true},
		{"not-a-url", true},
		{"ftp://example.com/feed", true},
		{"file:///etc/passwd", true},
		{"http://localhost/feed", true},
		{"http://api.localhost/feed", true},
		{"http://127.0.0.1/feed", true},
		{"http://10.0.0.1/feed", true},
		{"http://172.16.0.1/feed", true},
		{"http://192.168.1.1/feed", true},
		{"http://169.254.169.254/latest/meta-data/", true},
		{"http://0.0.0.0/feed", true},
		{"http://[::1]/feed", true},
		{"http://[fd00::1]/feed", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := guard.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

// TestOutboundGuardInterface はインターフェースを実装していることを検証する。
func TestOutboundGuardInterface(t *testing.T) {
	var _ OutboundGuard = NewOutboundGuard()
}
