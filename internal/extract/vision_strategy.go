package extract

import (
	"context"
	"log/slog"

	"github.com/casechron/casechron/internal/chronology"
	"github.com/casechron/casechron/internal/pdfport"
	"github.com/casechron/casechron/internal/prompts"
	"github.com/casechron/casechron/internal/providers"
)

// DefaultRenderDPI is the default rasterization resolution for vision calls.
const DefaultRenderDPI = 200

// VisionStrategy extracts entries from rendered page images with a single
// vision-model call per page range. There is no intra-segment chunking:
// image token cost bounds batch size, and callers pass ranges already
// bounded (the recovery pass restricts itself to a handful of pages).
type VisionStrategy struct {
	model   providers.ModelPort
	pdf     pdfport.PdfPort
	prompts prompts.Provider
	parser  *Parser
	retrier *Retrier
	dpi     int
	logger  *slog.Logger
}

// NewVisionStrategy wires a vision strategy. dpi <= 0 uses the default.
func NewVisionStrategy(model providers.ModelPort, pdf pdfport.PdfPort, pp prompts.Provider, parser *Parser, retrier *Retrier, dpi int, logger *slog.Logger) *VisionStrategy {
	if dpi <= 0 {
		dpi = DefaultRenderDPI
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionStrategy{
		model:   model,
		pdf:     pdf,
		prompts: pp,
		parser:  parser,
		retrier: retrier,
		dpi:     dpi,
		logger:  logger.With("component", "vision_strategy"),
	}
}

// Extract processes a segment's full page range.
func (s *VisionStrategy) Extract(ctx context.Context, seg chronology.Segment) chronology.SegmentResult {
	pr := pdfport.PageRange{Start: seg.StartPage, End: seg.EndPage}
	return s.ExtractRange(ctx, seg, pr, prompts.KeyVision)
}

// ExtractRange processes a bounded page subset of a segment with the given
// prompt. Failure semantics match the text strategy with exactly one
// "chunk": the whole image batch succeeds or fails as FailedChunks=[0].
func (s *VisionStrategy) ExtractRange(ctx context.Context, seg chronology.Segment, pr pdfport.PageRange, key prompts.Key) chronology.SegmentResult {
	result := chronology.SegmentResult{
		SegmentID:    seg.ID,
		StrategyUsed: chronology.StrategyVision,
	}
	log := s.logger.With("segment", seg.ID)

	fail := func(err error) chronology.SegmentResult {
		result.PartialFailure = true
		result.FailedChunks = []int{0}
		result.Err = err.Error()
		return result
	}

	prompt, err := s.prompts.Render(key, map[string]int{
		"StartPage": pr.Start,
		"EndPage":   pr.End,
	})
	if err != nil {
		return fail(err)
	}

	images, err := s.pdf.RenderPages(ctx, pr, s.dpi)
	if err != nil {
		log.Warn("page render failed", "start", pr.Start, "end", pr.End, "error", err)
		return fail(err)
	}

	reply, err := s.retrier.Do(ctx, func(ctx context.Context) (string, error) {
		return s.model.GenerateVision(ctx, prompt, images)
	})
	if err != nil {
		log.Warn("vision model call failed", "start", pr.Start, "end", pr.End, "error", err)
		return fail(err)
	}

	entries, repaired, err := s.parser.Parse(reply)
	if err != nil {
		log.Warn("vision parse failed after repair", "error", err)
		return fail(err)
	}
	if repaired {
		log.Debug("vision reply needed repair")
	}

	result.Entries = entries
	return result
}
