// Package seed reads quote and verse catalogs from YAML.
package seed

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/guideon/internal/domain"
)

// namespace for ids derived from item text, so re-imports are idempotent.
var namespace = uuid.MustParse("5b7c1f0e-3f7a-4b8e-9a51-0d9e2f6c4a10")

type catalog struct {
	Quotes []entry `yaml:"quotes"`
	Verses []entry `yaml:"verses"`
}

type entry struct {
	ID          string   `yaml:"id"`
	Text        string   `yaml:"text"`
	Themes      []string `yaml:"themes"`
	Source      string   `yaml:"source"`
	Verse       string   `yaml:"verse"`
	Reference   string   `yaml:"reference"`
	Translation string   `yaml:"translation"`
}

// LoadFile parses the catalog at path.
func LoadFile(path string) ([]domain.ThemedItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a catalog. Entries without text or themes are rejected.
func Load(r io.Reader) ([]domain.ThemedItem, error) {
	var c catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}

	items := make([]domain.ThemedItem, 0, len(c.Quotes)+len(c.Verses))
	for i, e := range c.Quotes {
		it, err := e.toItem(domain.KindQuote)
		if err != nil {
			return nil, fmt.Errorf("quotes[%d]: %w", i, err)
		}
		items = append(items, it)
	}
	for i, e := range c.Verses {
		it, err := e.toItem(domain.KindVerse)
		if err != nil {
			return nil, fmt.Errorf("verses[%d]: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func (e entry) toItem(kind domain.ItemKind) (domain.ThemedItem, error) {
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return domain.ThemedItem{}, fmt.Errorf("text is required")
	}

	themes := make([]string, 0, len(e.Themes))
	for _, th := range e.Themes {
		if th = domain.NormalizeTheme(th); th != "" {
			themes = append(themes, th)
		}
	}
	if len(themes) == 0 {
		return domain.ThemedItem{}, fmt.Errorf("at least one theme is required")
	}

	id := strings.TrimSpace(e.ID)
	if id == "" {
		id = uuid.NewSHA1(namespace, []byte(string(kind)+"\x00"+text)).String()
	}

	return domain.ThemedItem{
		ID:          id,
		Kind:        kind,
		Text:        text,
		Themes:      themes,
		Source:      strings.TrimSpace(e.Source),
		Verse:       strings.TrimSpace(e.Verse),
		Reference:   strings.TrimSpace(e.Reference),
		Translation: strings.TrimSpace(e.Translation),
	}, nil
}
