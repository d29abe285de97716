package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/PabloGalante/guideon/internal/domain"
)

type itemDoc struct {
	Text        string   `firestore:"text"`
	Themes      []string `firestore:"themes"`
	Source      string   `firestore:"source,omitempty"`
	Verse       string   `firestore:"verse,omitempty"`
	Reference   string   `firestore:"reference,omitempty"`
	Translation string   `firestore:"translation,omitempty"`
}

// ─────────────────────────────────────────
// ContentSource implementation
// ─────────────────────────────────────────

func (s *Store) ListByTheme(ctx context.Context, kind domain.ItemKind, theme string) ([]domain.ThemedItem, error) {
	q := s.itemsCol(kind).Where("themes", "array-contains", domain.NormalizeTheme(theme))
	items, err := s.readItems(ctx, kind, q)
	if err != nil {
		return nil, fmt.Errorf("firestore ListByTheme %s: %w", kind.Collection(), err)
	}
	return items, nil
}

func (s *Store) ListAny(ctx context.Context, kind domain.ItemKind, limit int) ([]domain.ThemedItem, error) {
	q := s.itemsCol(kind).Query
	if limit > 0 {
		q = q.Limit(limit)
	}
	items, err := s.readItems(ctx, kind, q)
	if err != nil {
		return nil, fmt.Errorf("firestore ListAny %s: %w", kind.Collection(), err)
	}
	return items, nil
}

func (s *Store) readItems(ctx context.Context, kind domain.ItemKind, q firestore.Query) ([]domain.ThemedItem, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []domain.ThemedItem
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var doc itemDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode itemDoc %s: %w", snap.Ref.ID, err)
		}

		out = append(out, domain.ThemedItem{
			ID:          snap.Ref.ID,
			Kind:        kind,
			Text:        doc.Text,
			Themes:      doc.Themes,
			Source:      doc.Source,
			Verse:       doc.Verse,
			Reference:   doc.Reference,
			Translation: doc.Translation,
		})
	}
	return out, nil
}

// ImportItems upserts items into their collections, keyed by item id.
// Used by the seed tool; the relay itself never writes content.
func (s *Store) ImportItems(ctx context.Context, items []domain.ThemedItem) (int, error) {
	bw := s.client.BulkWriter(ctx)

	jobs := make([]*firestore.BulkWriterJob, 0, len(items))
	for _, it := range items {
		themes := make([]string, 0, len(it.Themes))
		for _, th := range it.Themes {
			themes = append(themes, domain.NormalizeTheme(th))
		}
		doc := itemDoc{
			Text:        it.Text,
			Themes:      themes,
			Source:      it.Source,
			Verse:       it.Verse,
			Reference:   it.Reference,
			Translation: it.Translation,
		}
		job, err := bw.Set(s.itemsCol(it.Kind).Doc(it.ID), doc)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("firestore ImportItems enqueue %s: %w", it.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	written := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written++
	}
	if firstErr != nil {
		return written, fmt.Errorf("firestore ImportItems: %w", firstErr)
	}
	return written, nil
}
