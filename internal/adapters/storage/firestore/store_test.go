package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/guideon/internal/domain"
)

func TestTurnElementShapes(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	plain := turnElement(domain.Turn{Role: domain.RoleUser, Content: "hi", Timestamp: ts, Mode: domain.ModeChat, Theme: "hope"})
	assert.Equal(t, map[string]interface{}{
		"role":      "user",
		"content":   "hi",
		"timestamp": ts,
		"mode":      "chat",
		"theme":     "hope",
	}, plain)

	sealed := turnElement(domain.Turn{Role: domain.RoleAssistant, Cipher: "Y2lwaGVy", Nonce: "bm9uY2U=", Timestamp: ts, Mode: domain.ModeQuote, Theme: "hope"})
	assert.NotContains(t, sealed, "content")
	assert.Equal(t, "Y2lwaGVy", sealed["cipher"])
	assert.Equal(t, "bm9uY2U=", sealed["nonce"])
}

// newEmulatorStore connects to the Firestore emulator when FIRESTORE_EMULATOR_HOST is set.
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "guideon-test")
	require.NoError(t, err)
	s := NewStoreWithClient(client)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEmulatorChatsAppendAndList(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()
	user := domain.UserID("u-" + uuid.NewString())
	ts := time.Now().UTC()

	require.NoError(t, s.AppendTurns(ctx, user, "2026-03-13", "hope", []domain.Turn{
		{Role: domain.RoleUser, Content: "t1", Timestamp: ts, Mode: domain.ModeChat, Theme: "hope"},
		{Role: domain.RoleAssistant, Content: "r1", Timestamp: ts.Add(time.Nanosecond), Mode: domain.ModeChat, Theme: "hope"},
	}))
	require.NoError(t, s.AppendTurns(ctx, user, "2026-03-13", "grief", []domain.Turn{
		{Role: domain.RoleUser, Cipher: "c", Nonce: "n", Timestamp: ts.Add(time.Second), Mode: domain.ModeChat, Theme: "grief"},
	}))
	require.NoError(t, s.AppendTurns(ctx, user, "2026-03-14", "hope", []domain.Turn{
		{Role: domain.RoleUser, Content: "t2", Timestamp: ts.Add(time.Minute), Mode: domain.ModeChat, Theme: "hope"},
	}))

	log, err := s.GetDailyLog(ctx, user, "2026-03-13")
	require.NoError(t, err)
	require.Len(t, log.Messages, 3)
	assert.Equal(t, "t1", log.Messages[0].Content)
	assert.Equal(t, "r1", log.Messages[1].Content)
	assert.True(t, log.Messages[2].IsEncrypted())
	assert.Equal(t, "grief", log.LastTheme)

	logs, err := s.ListRecentLogs(ctx, user, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "2026-03-14", logs[0].Day)

	_, err = s.GetDailyLog(ctx, user, "2020-01-01")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmulatorRotationAndContent(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()
	user := domain.UserID("u-" + uuid.NewString())
	key := domain.NewRotationKey(domain.KindQuote, "Hope")

	_, err := s.GetCursor(ctx, user, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.SaveCursor(ctx, user, &domain.RotationCursor{Key: key, Order: []string{"b", "a"}, Index: 1, UpdatedAt: time.Now().UTC()}))
	cur, err := s.GetCursor(ctx, user, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, cur.Order)
	assert.Equal(t, 1, cur.Index)

	theme := "theme-" + uuid.NewString()
	n, err := s.ImportItems(ctx, []domain.ThemedItem{
		{ID: uuid.NewString(), Kind: domain.KindVerse, Text: "Be still", Reference: "Psalm 46:10", Themes: []string{theme}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	items, err := s.ListByTheme(ctx, domain.KindVerse, theme)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Psalm 46:10", items[0].Reference)
}
