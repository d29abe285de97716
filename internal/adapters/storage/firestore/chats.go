package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/PabloGalante/guideon/internal/domain"
)

type turnDoc struct {
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content,omitempty"`
	Cipher    string    `firestore:"cipher,omitempty"`
	Nonce     string    `firestore:"nonce,omitempty"`
	Timestamp time.Time `firestore:"timestamp"`
	Mode      string    `firestore:"mode"`
	Theme     string    `firestore:"theme"`
}

type dailyLogDoc struct {
	UserID    string    `firestore:"userId"`
	Day       string    `firestore:"day"`
	LastTheme string    `firestore:"lastTheme"`
	UpdatedAt time.Time `firestore:"updatedAt"`
	Messages  []turnDoc `firestore:"messages"`
}

// ─────────────────────────────────────────
// ChatLogStore implementation
// ─────────────────────────────────────────

// AppendTurns upserts the day document and appends turns with ArrayUnion,
// so concurrent writers never overwrite each other's messages.
func (s *Store) AppendTurns(ctx context.Context, userID domain.UserID, day, theme string, turns []domain.Turn) error {
	elems := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		elems = append(elems, turnElement(t))
	}

	doc := map[string]interface{}{
		"userId":    string(userID),
		"day":       day,
		"lastTheme": theme,
		"updatedAt": firestore.ServerTimestamp,
		"messages":  firestore.ArrayUnion(elems...),
	}

	_, err := s.chatsCol(userID).Doc(day).Set(ctx, doc, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore AppendTurns: %w", err)
	}
	return nil
}

// turnElement builds the array element; exactly one of content or cipher+nonce is present.
func turnElement(t domain.Turn) map[string]interface{} {
	m := map[string]interface{}{
		"role":      string(t.Role),
		"timestamp": t.Timestamp,
		"mode":      string(t.Mode),
		"theme":     t.Theme,
	}
	if t.IsEncrypted() {
		m["cipher"] = t.Cipher
		m["nonce"] = t.Nonce
	} else {
		m["content"] = t.Content
	}
	return m
}

func (s *Store) GetDailyLog(ctx context.Context, userID domain.UserID, day string) (*domain.DailyLog, error) {
	snap, err := s.chatsCol(userID).Doc(day).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetDailyLog: %w", err)
	}

	log, err := decodeDailyLog(snap)
	if err != nil {
		return nil, fmt.Errorf("firestore GetDailyLog decode: %w", err)
	}
	return log, nil
}

func (s *Store) ListRecentLogs(ctx context.Context, userID domain.UserID, limit int) ([]*domain.DailyLog, error) {
	q := s.chatsCol(userID).OrderBy("updatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.DailyLog
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListRecentLogs: %w", err)
		}

		log, err := decodeDailyLog(snap)
		if err != nil {
			return nil, fmt.Errorf("decode dailyLogDoc: %w", err)
		}
		out = append(out, log)
	}
	return out, nil
}

func decodeDailyLog(snap *firestore.DocumentSnapshot) (*domain.DailyLog, error) {
	var doc dailyLogDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}

	day := doc.Day
	if day == "" {
		day = snap.Ref.ID
	}

	msgs := make([]domain.Turn, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		msgs = append(msgs, domain.Turn{
			Role:      domain.Role(m.Role),
			Content:   m.Content,
			Cipher:    m.Cipher,
			Nonce:     m.Nonce,
			Timestamp: m.Timestamp,
			Mode:      domain.Mode(m.Mode),
			Theme:     m.Theme,
		})
	}

	return &domain.DailyLog{
		UserID:    domain.UserID(doc.UserID),
		Day:       day,
		LastTheme: doc.LastTheme,
		UpdatedAt: doc.UpdatedAt,
		Messages:  msgs,
	}, nil
}
