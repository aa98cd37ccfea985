package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/eventforge/internal/pkg/logger"
)

func completionServer(t *testing.T, calls *int32, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: want=%q got=%q", "/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("auth header: got=%q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if status != http.StatusOK {
			http.Error(w, `{"error":"nope"}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{"choices": []any{}}
		if content != "" {
			resp["choices"] = []any{map[string]any{"message": map[string]any{"content": content}}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInvokeWithoutKeyMakesNoCall(t *testing.T) {
	var calls int32
	srv := completionServer(t, &calls, http.StatusOK, "hi")
	g := New(Config{BaseURL: srv.URL}, logger.Nop())
	if g.Available() {
		t.Fatalf("gateway without key must be unavailable")
	}
	_, err := g.Invoke(context.Background(), []Message{User("x")}, 0.5, 10)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable got=%v", err)
	}
	if calls != 0 {
		t.Fatalf("network calls: want=0 got=%d", calls)
	}
}

func TestInvokeReturnsContent(t *testing.T) {
	var calls int32
	srv := completionServer(t, &calls, http.StatusOK, " hello ")
	g := New(Config{BaseURL: srv.URL, APIKey: "k"}, logger.Nop())
	out, err := g.Invoke(context.Background(), []Message{System("s"), User("u")}, 0.7, 100)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "hello" {
		t.Fatalf("content: want=%q got=%q", "hello", out)
	}
}

func TestInvokeNon2xxIsModelCallError(t *testing.T) {
	var calls int32
	srv := completionServer(t, &calls, http.StatusTooManyRequests, "")
	g := New(Config{BaseURL: srv.URL, APIKey: "k"}, logger.Nop())
	_, err := g.Invoke(context.Background(), []Message{User("u")}, 0.7, 100)
	var mce *ModelCallError
	if !errors.As(err, &mce) || mce.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("want ModelCallError 429 got=%v", err)
	}
	if calls != 1 {
		t.Fatalf("gateway must not retry: calls=%d", calls)
	}
}

func TestInvokeEmptyChoices(t *testing.T) {
	var calls int32
	srv := completionServer(t, &calls, http.StatusOK, "")
	g := New(Config{BaseURL: srv.URL, APIKey: "k"}, logger.Nop())
	_, err := g.Invoke(context.Background(), []Message{User("u")}, 0.7, 100)
	var mce *ModelCallError
	if !errors.As(err, &mce) || mce.Detail != "empty choices" {
		t.Fatalf("want empty choices error got=%v", err)
	}
}

func TestInvokeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	g := New(Config{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond}, logger.Nop())
	_, err := g.Invoke(context.Background(), []Message{User("u")}, 0.7, 100)
	var mce *ModelCallError
	if !errors.As(err, &mce) || mce.Detail != "timeout" {
		t.Fatalf("want timeout ModelCallError got=%v", err)
	}
}

func TestInvokeUsesCacheUnlessBypassed(t *testing.T) {
	var calls int32
	srv := completionServer(t, &calls, http.StatusOK, "cached")
	g := New(Config{BaseURL: srv.URL, APIKey: "k"}, logger.Nop(), WithCache(NewMemoryCache()))
	msgs := []Message{User("same")}
	for i := 0; i < 3; i++ {
		if _, err := g.Invoke(context.Background(), msgs, 0.7, 100); err != nil {
			t.Fatalf("Invoke: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("cached calls: want=1 got=%d", calls)
	}
	if _, err := g.Invoke(NoCache(context.Background()), msgs, 0.7, 100); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if calls != 2 {
		t.Fatalf("NoCache must hit the network: calls=%d", calls)
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemoryCache()
	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.Set(context.Background(), "k", "v", time.Minute)
	if _, ok, _ := c.Get(context.Background(), "k"); !ok {
		t.Fatalf("expected hit")
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Fatalf("expected expiry")
	}
}

func TestConfigFromEnvFallsBackToOpenAIKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "deepseek")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-x")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("LLM_MODEL", "")
	cfg := ConfigFromEnv(logger.Nop())
	if cfg.APIKey != "sk-x" {
		t.Fatalf("api key: want=%q got=%q", "sk-x", cfg.APIKey)
	}
	if cfg.BaseURL != "https://api.deepseek.com/v1" || cfg.Model != "deepseek-chat" {
		t.Fatalf("provider defaults not applied: %+v", cfg)
	}
}
