// Package pdfport provides the PDF port: page text extraction and page
// rendering for one open case file.
package pdfport

import (
	"context"

	"github.com/casechron/casechron/internal/chronology"
)

// PageRange is a contiguous, 1-indexed, inclusive page span.
type PageRange struct {
	Start int
	End   int
}

// Pages returns the number of pages in the range.
func (r PageRange) Pages() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// PdfPort is the abstract interface the extraction pipeline uses for PDF
// access. Both operations are potentially slow I/O; retry for flaky readers
// is the implementation's concern, not the pipeline's.
type PdfPort interface {
	// GetText returns the machine-readable text layer for a segment's pages.
	GetText(ctx context.Context, seg chronology.Segment) (string, error)

	// RenderPages rasterizes a page range to PNG images at the given DPI,
	// in page order.
	RenderPages(ctx context.Context, pr PageRange, dpi int) ([][]byte, error)
}
