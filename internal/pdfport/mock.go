package pdfport

import (
	"context"
	"fmt"
	"sync"

	"github.com/casechron/casechron/internal/chronology"
)

// Mock is a scriptable PdfPort for testing.
type Mock struct {
	// Text per segment ID; TextDefault when absent.
	Texts       map[string]string
	TextDefault string
	TextErr     error

	// RenderErr fails all renders. Rendered images are one placeholder
	// byte slice per page tagged with the page number.
	RenderErr error

	mu      sync.Mutex
	renders []PageRange
}

// GetText returns the scripted text for the segment.
func (m *Mock) GetText(ctx context.Context, seg chronology.Segment) (string, error) {
	if m.TextErr != nil {
		return "", m.TextErr
	}
	if t, ok := m.Texts[seg.ID]; ok {
		return t, nil
	}
	return m.TextDefault, nil
}

// RenderPages returns one placeholder PNG per page.
func (m *Mock) RenderPages(ctx context.Context, pr PageRange, dpi int) ([][]byte, error) {
	m.mu.Lock()
	m.renders = append(m.renders, pr)
	m.mu.Unlock()

	if m.RenderErr != nil {
		return nil, m.RenderErr
	}

	images := make([][]byte, 0, pr.Pages())
	for p := pr.Start; p <= pr.End; p++ {
		images = append(images, []byte(fmt.Sprintf("png-page-%d", p)))
	}
	return images, nil
}

// Renders returns a copy of all render requests, in arrival order.
func (m *Mock) Renders() []PageRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PageRange, len(m.renders))
	copy(out, m.renders)
	return out
}

// Verify interface
var _ PdfPort = (*Mock)(nil)
