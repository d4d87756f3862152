// Package providers implements the model port: the single place outbound
// network calls to language-model APIs occur.
package providers

import "context"

// ModelPort is the abstract interface the extraction pipeline calls for all
// model interaction. Implementations classify their failures as transient or
// terminal via typed *Error values so the retry layer can decide whether to
// retry without knowing provider details.
type ModelPort interface {
	// GenerateText sends a prompt plus one chunk of document text and
	// returns the model's raw textual reply.
	GenerateText(ctx context.Context, prompt, chunkText string) (string, error)

	// GenerateVision sends a prompt plus a batch of rendered page images
	// (PNG bytes) and returns the model's raw textual reply.
	GenerateVision(ctx context.Context, prompt string, images [][]byte) (string, error)

	// Name returns the provider identifier (e.g. "openrouter").
	Name() string
}
