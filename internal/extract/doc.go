// Package extract implements the chronology extraction pipeline: routing of
// exhibit segments to a text or vision strategy, paragraph-aware chunking of
// oversized text, retry around model calls, repair of truncated model
// output, a recovery pass for low-information entries, citation resolution,
// and bounded-concurrency scheduling across segments.
package extract
