package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casechron/casechron/internal/chronology"
	"github.com/casechron/casechron/internal/pdfport"
)

// DefaultMaxConcurrent is the default number of segments processed at once.
const DefaultMaxConcurrent = 5

// Scheduler fans segments out to the extraction strategies under a fixed
// concurrency bound and reassembles results in input order.
type Scheduler struct {
	pdf           pdfport.PdfPort
	router        *Router
	text          *TextStrategy
	vision        *VisionStrategy
	recovery      *RecoveryPass
	citations     *CitationResolver
	maxConcurrent int
	logger        *slog.Logger
}

// SchedulerConfig wires a scheduler. All components are required except
// MaxConcurrent (default 5) and Logger.
type SchedulerConfig struct {
	Pdf           pdfport.PdfPort
	Router        *Router
	Text          *TextStrategy
	Vision        *VisionStrategy
	Recovery      *RecoveryPass
	Citations     *CitationResolver
	MaxConcurrent int
	Logger        *slog.Logger
}

// NewScheduler validates the wiring. Nil components are programmer errors
// and fail construction immediately.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	switch {
	case cfg.Pdf == nil:
		return nil, fmt.Errorf("pdf port is required")
	case cfg.Router == nil:
		return nil, fmt.Errorf("router is required")
	case cfg.Text == nil:
		return nil, fmt.Errorf("text strategy is required")
	case cfg.Vision == nil:
		return nil, fmt.Errorf("vision strategy is required")
	case cfg.Recovery == nil:
		return nil, fmt.Errorf("recovery pass is required")
	case cfg.Citations == nil:
		return nil, fmt.Errorf("citation resolver is required")
	}

	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		pdf:           cfg.Pdf,
		router:        cfg.Router,
		text:          cfg.Text,
		vision:        cfg.Vision,
		recovery:      cfg.Recovery,
		citations:     cfg.Citations,
		maxConcurrent: cfg.MaxConcurrent,
		logger:        logger.With("component", "scheduler"),
	}, nil
}

// Run processes all segments and returns one result per segment, in input
// order, regardless of individual failures. A segment's total failure never
// cancels its siblings; context cancellation stops pending and in-flight
// segments, which report a cancellation result, while finished results are
// kept.
//
// The semaphore is the only shared mutable state: it is held from the start
// of a segment's strategy until its recovery pass completes, so recovery
// vision calls count against the same concurrency budget.
func (s *Scheduler) Run(ctx context.Context, segments []chronology.Segment) []chronology.SegmentResult {
	results := make([]chronology.SegmentResult, len(segments))
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	s.logger.Info("starting extraction run", "segments", len(segments), "max_concurrent", s.maxConcurrent)

	for i, seg := range segments {
		wg.Add(1)
		go func(i int, seg chronology.Segment) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = cancelledResult(seg, ctx.Err())
				return
			}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("segment processing panicked", "segment", seg.ID, "panic", r)
					results[i] = chronology.SegmentResult{
						SegmentID:      seg.ID,
						PartialFailure: true,
						Err:            fmt.Sprintf("panic: %v", r),
					}
				}
			}()

			results[i] = s.processSegment(ctx, seg)
		}(i, seg)
	}

	wg.Wait()
	s.logger.Info("extraction run complete", "segments", len(segments))
	return results
}

// processSegment runs route → strategy → recovery → citations for one
// segment. Holds the scheduler's semaphore for its whole duration.
func (s *Scheduler) processSegment(ctx context.Context, seg chronology.Segment) chronology.SegmentResult {
	if ctx.Err() != nil {
		return cancelledResult(seg, ctx.Err())
	}

	log := s.logger.With("segment", seg.ID)

	text, err := s.pdf.GetText(ctx, seg)
	strategy := chronology.StrategyVision
	if err != nil {
		// No text layer is not fatal: the segment can still be read
		// from page images.
		log.Warn("text extraction failed, routing to vision", "error", err)
	} else {
		strategy = s.router.Route(seg, text)
	}
	log.Debug("routed segment", "strategy", strategy, "pages", seg.PageCount())

	var result chronology.SegmentResult
	switch strategy {
	case chronology.StrategyText:
		result = s.text.Extract(ctx, seg, text)
	default:
		result = s.vision.Extract(ctx, seg)
	}

	result = s.recovery.Recover(ctx, seg, result)
	result = s.citations.Resolve(seg, result)

	log.Info("segment complete",
		"strategy", result.StrategyUsed,
		"entries", len(result.Entries),
		"partial_failure", result.PartialFailure,
		"failed_chunks", len(result.FailedChunks))
	return result
}

func cancelledResult(seg chronology.Segment, err error) chronology.SegmentResult {
	msg := "cancelled"
	if err != nil {
		msg = err.Error()
	}
	return chronology.SegmentResult{
		SegmentID:      seg.ID,
		PartialFailure: true,
		Err:            msg,
	}
}
