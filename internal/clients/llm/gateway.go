package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: "system", Content: content} }
func User(content string) Message   { return Message{Role: "user", Content: content} }

// Gateway is the only path to the language model.
type Gateway interface {
	Available() bool
	Invoke(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
}

type gateway struct {
	cfg        Config
	log        *logger.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      ResponseCache
	metrics    *observability.Metrics
}

type Option func(*gateway)

func WithHTTPClient(c *http.Client) Option { return func(g *gateway) { g.httpClient = c } }

func WithCache(c ResponseCache) Option { return func(g *gateway) { g.cache = c } }

func WithMetrics(m *observability.Metrics) Option { return func(g *gateway) { g.metrics = m } }

func New(cfg Config, log *logger.Logger, opts ...Option) Gateway {
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	g := &gateway{
		cfg:        cfg,
		log:        log.With("client", "ModelGateway", "provider", cfg.Provider, "model", cfg.Model),
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
	}
	for _, o := range opts {
		o(g)
	}
	if !g.Available() {
		g.log.Warn("No LLM api key configured; model-backed generation disabled")
	}
	return g
}

func (g *gateway) Available() bool { return g.cfg.APIKey != "" }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Invoke performs exactly one chat completion call bounded by the configured timeout.
func (g *gateway) Invoke(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if !g.Available() {
		return "", ErrUnavailable
	}

	useCache := g.cache != nil && !cacheDisabled(ctx)
	var key string
	if useCache {
		key = cacheKey(g.cfg.Model, messages, temperature, maxTokens)
		if v, ok, err := g.cache.Get(ctx, key); err != nil {
			g.log.Warn("LLM cache read failed", "error", err)
		} else if ok {
			g.metrics.IncLLMCache("hit")
			return v, nil
		}
		g.metrics.IncLLMCache("miss")
	}

	ctx, span := observability.Tracer().Start(ctx, "llm.invoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", g.cfg.Provider),
		attribute.String("llm.model", g.cfg.Model),
		attribute.Int("llm.messages", len(messages)),
	)

	start := time.Now()
	out, err := g.call(ctx, messages, temperature, maxTokens)
	status := "ok"
	if err != nil {
		status = errorStatus(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	}
	g.metrics.ObserveLLMRequest(g.cfg.Provider, status, time.Since(start))
	if err != nil {
		return "", err
	}

	if useCache {
		if err := g.cache.Set(ctx, key, out, g.cfg.CacheTTL); err != nil {
			g.log.Warn("LLM cache write failed", "error", err)
		}
	}
	return out, nil
}

func (g *gateway) call(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", &ModelCallError{Detail: "rate limiter", Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", &ModelCallError{Detail: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, g.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &ModelCallError{Detail: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", transportError(ctx, callCtx, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", transportError(ctx, callCtx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ModelCallError{StatusCode: resp.StatusCode, Detail: snippet(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ModelCallError{Detail: "decode response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &ModelCallError{Detail: "empty choices"}
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", &ModelCallError{Detail: "empty content"}
	}
	return content, nil
}

// transportError distinguishes caller cancellation from the per-call timeout.
func transportError(parent, callCtx context.Context, err error) error {
	if parent.Err() != nil {
		return &ModelCallError{Detail: "context done", Err: parent.Err()}
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &ModelCallError{Detail: "timeout", Err: context.DeadlineExceeded}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &ModelCallError{Detail: "timeout", Err: err}
	}
	return &ModelCallError{Detail: "transport", Err: err}
}

func errorStatus(err error) string {
	var mce *ModelCallError
	if errors.As(err, &mce) {
		if mce.StatusCode > 0 {
			return strconv.Itoa(mce.StatusCode)
		}
		return strings.ReplaceAll(mce.Detail, " ", "_")
	}
	return "error"
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
