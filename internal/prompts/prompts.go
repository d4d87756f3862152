// Package prompts provides prompt management with embedded defaults and
// optional on-disk overrides.
//
// Embedded .tmpl files are the source of truth. An override directory may
// shadow any prompt by key: a file named <key>.tmpl with optional YAML
// front matter replaces the embedded text.
package prompts

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Key identifies a prompt.
type Key string

const (
	// KeyText is the system prompt for text-chunk extraction.
	KeyText Key = "extract.text"
	// KeyVision is the prompt for vision extraction over rendered pages.
	KeyVision Key = "extract.vision"
	// KeyRecovery is the prompt for the sparse-entry recovery pass.
	KeyRecovery Key = "extract.recovery"
)

// Provider resolves prompt text for the extraction strategies.
type Provider interface {
	// For returns the resolved prompt text for a key.
	For(key Key) (string, error)

	// Render executes the prompt for a key as a template with data.
	Render(key Key, data any) (string, error)
}

// frontMatter is the optional YAML header on override files.
type frontMatter struct {
	Description string `yaml:"description"`
	Note        string `yaml:"note"`
}

type prompt struct {
	Key         Key
	Text        string
	Description string
	Hash        string
	IsOverride  bool
}

// Store is the default Provider: embedded templates plus overrides.
type Store struct {
	mu      sync.RWMutex
	prompts map[Key]prompt
	logger  *slog.Logger
}

// NewStore loads embedded prompts and applies overrides from overrideDir
// (ignored when empty or missing).
func NewStore(overrideDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		prompts: make(map[Key]prompt),
		logger:  logger.With("component", "prompts"),
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded templates: %w", err)
	}
	for _, e := range entries {
		data, err := templateFS.ReadFile("templates/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded template %s: %w", e.Name(), err)
		}
		key := Key(strings.TrimSuffix(e.Name(), ".tmpl"))
		s.prompts[key] = prompt{
			Key:  key,
			Text: string(data),
			Hash: hashText(string(data)),
		}
	}

	if overrideDir != "" {
		if err := s.loadOverrides(overrideDir); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// loadOverrides shadows embedded prompts with files from dir.
func (s *Store) loadOverrides(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read override dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tmpl") {
			continue
		}
		key := Key(strings.TrimSuffix(e.Name(), ".tmpl"))
		if _, ok := s.prompts[key]; !ok {
			s.logger.Warn("override file does not match any prompt key", "file", e.Name())
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("failed to read override %s: %w", e.Name(), err)
		}

		text, fm := splitFrontMatter(string(data))
		s.prompts[key] = prompt{
			Key:         key,
			Text:        text,
			Description: fm.Description,
			Hash:        hashText(text),
			IsOverride:  true,
		}
		s.logger.Info("loaded prompt override", "key", key)
	}
	return nil
}

// For returns the resolved prompt text for a key.
func (s *Store) For(key Key) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[key]
	if !ok {
		return "", fmt.Errorf("unknown prompt key: %s", key)
	}
	return p.Text, nil
}

// Render executes the prompt for a key as a template with data.
func (s *Store) Render(key Key, data any) (string, error) {
	text, err := s.For(key)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(string(key)).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template %s: %w", key, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", key, err)
	}
	return buf.String(), nil
}

// splitFrontMatter separates an optional "---" YAML header from the body.
func splitFrontMatter(raw string) (string, frontMatter) {
	var fm frontMatter
	if !strings.HasPrefix(raw, "---\n") {
		return raw, fm
	}
	rest := raw[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return raw, fm
	}
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return raw, frontMatter{}
	}
	return rest[idx+5:], fm
}

// hashText returns a SHA256 hash of the text for change detection.
func hashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Verify interface
var _ Provider = (*Store)(nil)
