package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/PabloGalante/guideon/internal/domain"
)

// ContentStore serves quotes and verses from memory, usually loaded from a seed file.
type ContentStore struct {
	mu    sync.RWMutex
	items map[domain.ItemKind][]domain.ThemedItem
}

func NewContentStore(items ...domain.ThemedItem) *ContentStore {
	s := &ContentStore{
		items: make(map[domain.ItemKind][]domain.ThemedItem),
	}
	s.Add(items...)
	return s
}

// Add stores items; items with an existing id replace the old copy.
func (s *ContentStore) Add(items ...domain.ThemedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		themes := make([]string, 0, len(it.Themes))
		for _, th := range it.Themes {
			themes = append(themes, domain.NormalizeTheme(th))
		}
		it.Themes = themes

		list := s.items[it.Kind]
		idx := slices.IndexFunc(list, func(x domain.ThemedItem) bool { return x.ID == it.ID })
		if idx >= 0 {
			list[idx] = it
		} else {
			list = append(list, it)
		}
		s.items[it.Kind] = list
	}
}

// Remove deletes the item with id from kind.
func (s *ContentStore) Remove(kind domain.ItemKind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[kind] = slices.DeleteFunc(s.items[kind], func(x domain.ThemedItem) bool { return x.ID == id })
}

func (s *ContentStore) ListByTheme(_ context.Context, kind domain.ItemKind, theme string) ([]domain.ThemedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	theme = domain.NormalizeTheme(theme)
	var out []domain.ThemedItem
	for _, it := range s.items[kind] {
		if slices.Contains(it.Themes, theme) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *ContentStore) ListAny(_ context.Context, kind domain.ItemKind, limit int) ([]domain.ThemedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.items[kind]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return append([]domain.ThemedItem(nil), list...), nil
}
