package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":    "gen-123",
		"model": "anthropic/claude-sonnet-4.5",
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
	return string(b)
}

func newTestClient(srv *httptest.Server) *OpenRouterClient {
	return NewOpenRouterClient(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		RPM:     60000,
		Timeout: 5 * time.Second,
	})
}

func TestOpenRouter_GenerateText(t *testing.T) {
	var gotAuth string
	var gotBody openRouterRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		io.WriteString(w, okReply(`[{"date": "2020-01-01"}]`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	out, err := c.GenerateText(context.Background(), "system prompt", "chunk text")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if out != `[{"date": "2020-01-01"}]` {
		t.Errorf("out = %q", out)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotBody.Messages)
	}
}

func TestOpenRouter_GenerateVision(t *testing.T) {
	var rawBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, okReply("[]"))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.GenerateVision(context.Background(), "read these pages", [][]byte{[]byte("png-1"), []byte("png-2")})
	if err != nil {
		t.Fatalf("GenerateVision() error = %v", err)
	}

	if n := strings.Count(string(rawBody), "data:image/png;base64,"); n != 2 {
		t.Errorf("data URLs in body = %d, want 2", n)
	}

	if _, err := c.GenerateVision(context.Background(), "prompt", nil); err == nil {
		t.Error("GenerateVision() accepted an empty image batch")
	}
}

// TestOpenRouter_RateLimited verifies a 429 comes back classified and
// transient, with the server's suggested wait, after exactly one request.
func TestOpenRouter_RateLimited(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"code": 429, "message": "rate limited"}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.GenerateText(context.Background(), "p", "t")

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if perr.Kind != KindRateLimit {
		t.Errorf("kind = %v, want rate_limit", perr.Kind)
	}
	if !perr.Transient() {
		t.Error("rate limit error should be transient")
	}
	if perr.RetryAfter != 7*time.Second {
		t.Errorf("retry after = %v, want 7s", perr.RetryAfter)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (client must not retry internally)", hits)
	}
}

func TestOpenRouter_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": {"code": 401, "message": "invalid api key"}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.GenerateText(context.Background(), "p", "t")

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if perr.Kind != KindAuth || perr.Transient() {
		t.Errorf("kind = %v transient = %v, want terminal auth", perr.Kind, perr.Transient())
	}
	if perr.StatusCode != 401 {
		t.Errorf("status = %d", perr.StatusCode)
	}
}

// TestOpenRouter_ErrorInA200 covers moderation refusals delivered as an error
// object with HTTP 200.
func TestOpenRouter_ErrorInA200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id": "gen-1", "choices": [], "error": {"code": 403, "message": "flagged"}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.GenerateText(context.Background(), "p", "t")

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if perr.Kind != KindAuth {
		t.Errorf("kind = %v, want auth for embedded 403", perr.Kind)
	}
}

func TestOpenRouter_ContentFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices": [{"message": {"role": "assistant", "content": ""}, "finish_reason": "content_filter"}]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.GenerateText(context.Background(), "p", "t")

	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindContentPolicy {
		t.Errorf("error = %v, want content_policy", err)
	}
	if IsTransient(err) {
		t.Error("content policy errors must not be retried")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("30"); d != 30*time.Second {
		t.Errorf("parseRetryAfter(30) = %v", d)
	}
	if d := parseRetryAfter(""); d != 0 {
		t.Errorf("parseRetryAfter(empty) = %v", d)
	}
	if d := parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"); d != 0 {
		t.Errorf("parseRetryAfter(http-date) = %v, want 0", d)
	}
}
