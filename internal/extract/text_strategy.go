package extract

import (
	"context"
	"log/slog"

	"github.com/casechron/casechron/internal/chronology"
	"github.com/casechron/casechron/internal/prompts"
	"github.com/casechron/casechron/internal/providers"
)

// TextStrategy extracts entries from a segment's text layer: one model call
// per chunk, chunks strictly in order.
type TextStrategy struct {
	model         providers.ModelPort
	prompts       prompts.Provider
	parser        *Parser
	retrier       *Retrier
	maxChunkChars int
	logger        *slog.Logger
}

// NewTextStrategy wires a text strategy. maxChunkChars <= 0 uses the default.
func NewTextStrategy(model providers.ModelPort, pp prompts.Provider, parser *Parser, retrier *Retrier, maxChunkChars int, logger *slog.Logger) *TextStrategy {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStrategy{
		model:         model,
		prompts:       pp,
		parser:        parser,
		retrier:       retrier,
		maxChunkChars: maxChunkChars,
		logger:        logger.With("component", "text_strategy"),
	}
}

// Extract processes one segment's extracted text.
//
// Chunks are dispatched sequentially, never concurrently with each other:
// citation and narrative continuity across a segment depend on order, and no
// chunk's call is issued before the previous chunk's result is recorded. A
// chunk whose call or parse fails is recorded in FailedChunks and its
// siblings continue.
func (s *TextStrategy) Extract(ctx context.Context, seg chronology.Segment, extractedText string) chronology.SegmentResult {
	result := chronology.SegmentResult{
		SegmentID:    seg.ID,
		StrategyUsed: chronology.StrategyText,
	}

	prompt, err := s.prompts.For(prompts.KeyText)
	if err != nil {
		result.PartialFailure = true
		result.Err = err.Error()
		return result
	}

	var chunks []chronology.Chunk
	if len(extractedText) <= s.maxChunkChars {
		chunks = []chronology.Chunk{{SegmentID: seg.ID, Index: 0, Text: extractedText, CharStart: 0, CharEnd: len(extractedText)}}
	} else {
		chunks = SplitChunks(seg.ID, extractedText, s.maxChunkChars)
	}

	log := s.logger.With("segment", seg.ID)
	log.Debug("extracting segment text", "chunks", len(chunks), "chars", len(extractedText))

	for _, chunk := range chunks {
		if ctx.Err() != nil {
			result.FailedChunks = append(result.FailedChunks, chunk.Index)
			continue
		}

		chunkText := chunk.Text
		reply, err := s.retrier.Do(ctx, func(ctx context.Context) (string, error) {
			return s.model.GenerateText(ctx, prompt, chunkText)
		})
		if err != nil {
			log.Warn("chunk model call failed", "chunk", chunk.Index, "error", err)
			result.FailedChunks = append(result.FailedChunks, chunk.Index)
			continue
		}

		entries, repaired, err := s.parser.Parse(reply)
		if err != nil {
			log.Warn("chunk parse failed after repair", "chunk", chunk.Index, "error", err)
			result.FailedChunks = append(result.FailedChunks, chunk.Index)
			continue
		}
		if repaired {
			log.Debug("chunk reply needed repair", "chunk", chunk.Index)
		}

		result.Entries = append(result.Entries, entries...)
	}

	if len(result.FailedChunks) > 0 {
		result.PartialFailure = true
		if len(result.FailedChunks) == len(chunks) {
			result.Err = "all chunks failed"
		}
	}

	return result
}
