package pdfport

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/casechron/casechron/internal/chronology"
)

// Document implements PdfPort for a single case-file PDF on disk.
//
// Text extraction and rendering shell out to poppler-utils (pdftotext,
// pdftoppm); pdfcpu handles structural reads (page count, outline).
type Document struct {
	path      string
	pageCount int
	logger    *slog.Logger
}

// Open validates the PDF and reads its page count.
func Open(path string, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("PDF has no pages: %s", path)
	}

	return &Document{
		path:      path,
		pageCount: count,
		logger:    logger.With("component", "pdfport", "file", filepath.Base(path)),
	}, nil
}

// Path returns the document's file path.
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the document's page count.
func (d *Document) PageCount() int {
	return d.pageCount
}

// GetText extracts the text layer for a segment's page range using pdftotext.
// Scanned pages with no text layer yield little or no output, which is what
// the density router keys on.
func (d *Document) GetText(ctx context.Context, seg chronology.Segment) (string, error) {
	if seg.StartPage < 1 || seg.EndPage > d.pageCount || seg.EndPage < seg.StartPage {
		return "", fmt.Errorf("segment %s page range %d-%d outside document (1-%d)",
			seg.ID, seg.StartPage, seg.EndPage, d.pageCount)
	}

	// -layout preserves column/table structure, which matters for lab
	// reports and medication lists. "-" writes to stdout.
	cmd := exec.CommandContext(ctx, "pdftotext",
		"-f", strconv.Itoa(seg.StartPage),
		"-l", strconv.Itoa(seg.EndPage),
		"-layout",
		d.path,
		"-",
	)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %w (output: %s)", err, errBuf.String())
	}

	d.logger.Debug("extracted text", "segment", seg.ID, "pages", seg.PageCount(), "chars", out.Len())
	return out.String(), nil
}

// RenderPages rasterizes a page range to PNGs at the given DPI, in page
// order. Pages render concurrently up to NumCPU.
func (d *Document) RenderPages(ctx context.Context, pr PageRange, dpi int) ([][]byte, error) {
	if pr.Start < 1 || pr.End > d.pageCount || pr.End < pr.Start {
		return nil, fmt.Errorf("page range %d-%d outside document (1-%d)", pr.Start, pr.End, d.pageCount)
	}
	if dpi <= 0 {
		dpi = 200
	}

	n := pr.Pages()
	images := make([][]byte, n)

	type result struct {
		idx int
		err error
	}

	results := make(chan result, n)
	sem := make(chan struct{}, runtime.NumCPU())

	for i := 0; i < n; i++ {
		sem <- struct{}{} // acquire
		go func(idx int) {
			defer func() { <-sem }() // release

			data, err := d.renderPage(ctx, pr.Start+idx, dpi)
			if err == nil {
				images[idx] = data
			}
			results <- result{idx: idx, err: err}
		}(i)
	}

	for i := 0; i < n; i++ {
		r := <-results
		if r.err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", pr.Start+r.idx, r.err)
		}
	}

	d.logger.Debug("rendered pages", "start", pr.Start, "end", pr.End, "dpi", dpi)
	return images, nil
}

// renderPage renders a single page using pdftoppm (poppler-utils).
func (d *Document) renderPage(ctx context.Context, page, dpi int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "casechron-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := strconv.Itoa(page)

	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		d.path,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}

// Verify interface
var _ PdfPort = (*Document)(nil)
