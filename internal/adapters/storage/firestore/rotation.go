package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/PabloGalante/guideon/internal/domain"
)

type rotationDoc struct {
	Kind      string    `firestore:"kind"`
	Theme     string    `firestore:"theme"`
	Order     []string  `firestore:"order"`
	Index     int       `firestore:"index"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// ─────────────────────────────────────────
// RotationStore implementation
// ─────────────────────────────────────────

func (s *Store) GetCursor(ctx context.Context, userID domain.UserID, key domain.RotationKey) (*domain.RotationCursor, error) {
	snap, err := s.rotationDoc(userID, key).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetCursor: %w", err)
	}

	var doc rotationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetCursor decode: %w", err)
	}

	return &domain.RotationCursor{
		Key:       key,
		Order:     doc.Order,
		Index:     doc.Index,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// SaveCursor merges the cursor fields; other fields on the record are kept.
func (s *Store) SaveCursor(ctx context.Context, userID domain.UserID, cursor *domain.RotationCursor) error {
	doc := map[string]interface{}{
		"kind":      string(cursor.Key.Kind),
		"theme":     cursor.Key.Theme,
		"order":     cursor.Order,
		"index":     cursor.Index,
		"updatedAt": cursor.UpdatedAt,
	}

	_, err := s.rotationDoc(userID, cursor.Key).Set(ctx, doc, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore SaveCursor: %w", err)
	}
	return nil
}
