package providers

import (
	"context"
	"sync"
	"time"
)

const MockName = "mock"

// MockCall records one call made against the mock, in arrival order.
type MockCall struct {
	Vision bool
	Prompt string
	Text   string
	Images int
}

// MockClient is a scriptable ModelPort for testing.
//
// Replies are consumed in call order. When the script runs out, ResponseText
// is returned. Errors can be injected for specific call indices (0-based) or
// for every call via Err.
type MockClient struct {
	Latency      time.Duration
	ResponseText string
	Replies      []string       // Consumed one per call
	Err          error          // Returned on every call when set
	ErrAt        map[int]error  // Returned for specific call indices
	Gate         chan struct{}  // When set, each call blocks until it can receive
	OnCall       func(MockCall) // Invoked synchronously before returning

	mu    sync.Mutex
	calls []MockCall
}

// NewMockClient creates a mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "[]",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockName
}

// GenerateText returns the next scripted reply.
func (c *MockClient) GenerateText(ctx context.Context, prompt, chunkText string) (string, error) {
	return c.respond(ctx, MockCall{Prompt: prompt, Text: chunkText})
}

// GenerateVision returns the next scripted reply.
func (c *MockClient) GenerateVision(ctx context.Context, prompt string, images [][]byte) (string, error) {
	return c.respond(ctx, MockCall{Vision: true, Prompt: prompt, Images: len(images)})
}

func (c *MockClient) respond(ctx context.Context, call MockCall) (string, error) {
	c.mu.Lock()
	idx := len(c.calls)
	c.calls = append(c.calls, call)
	reply := c.ResponseText
	if idx < len(c.Replies) {
		reply = c.Replies[idx]
	}
	var err error
	if c.Err != nil {
		err = c.Err
	} else if e, ok := c.ErrAt[idx]; ok {
		err = e
	}
	onCall := c.OnCall
	gate := c.Gate
	c.mu.Unlock()

	if onCall != nil {
		onCall(call)
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err != nil {
		return "", err
	}
	return reply, nil
}

// Calls returns a copy of all recorded calls.
func (c *MockClient) Calls() []MockCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MockCall, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns the number of calls made.
func (c *MockClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Verify interface
var _ ModelPort = (*MockClient)(nil)
