package domain

import "strings"

// ItemKind identifies which content collection an item comes from.
type ItemKind string

const (
	KindQuote ItemKind = "quote"
	KindVerse ItemKind = "verse"
)

// Collection returns the document collection holding items of this kind.
func (k ItemKind) Collection() string {
	switch k {
	case KindVerse:
		return "verses"
	default:
		return "quotes"
	}
}

// ThemedItem is a quote or a scripture verse tagged with one or more themes.
// Quotes carry Source (and sometimes Verse); verses carry Reference and Translation.
type ThemedItem struct {
	ID          string
	Kind        ItemKind
	Text        string
	Themes      []string
	Source      string
	Verse       string
	Reference   string
	Translation string
}

// NormalizeTheme lowercases and trims a theme so lookups and cursors agree.
func NormalizeTheme(theme string) string {
	return strings.ToLower(strings.TrimSpace(theme))
}

// ItemIDs returns the ids of items in order.
func ItemIDs(items []ThemedItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
