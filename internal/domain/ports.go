package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when the requested document does not exist.
var ErrNotFound = errors.New("not found")

// LLMClient defines how the core application interacts with an LLM service.
type LLMClient interface {
	GenerateReply(ctx context.Context, messages []ChatMessage) (string, error)
}

// IdentityVerifier turns a bearer credential into the caller's user id.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (UserID, error)
}

// ContentSource reads themed quotes and verses.
type ContentSource interface {
	// ListByTheme returns every item of kind whose themes contain theme.
	ListByTheme(ctx context.Context, kind ItemKind, theme string) ([]ThemedItem, error)
	// ListAny returns up to limit items of kind regardless of theme.
	ListAny(ctx context.Context, kind ItemKind, limit int) ([]ThemedItem, error)
}

// RotationStore persists per-user rotation cursors.
type RotationStore interface {
	// GetCursor returns ErrNotFound when the user has no cursor for key.
	GetCursor(ctx context.Context, userID UserID, key RotationKey) (*RotationCursor, error)
	// SaveCursor merges order, index and updatedAt into the cursor record.
	SaveCursor(ctx context.Context, userID UserID, cursor *RotationCursor) error
}

// ChatLogStore persists daily conversation logs.
type ChatLogStore interface {
	// AppendTurns appends turns to the day's log, creating it if needed,
	// and sets lastTheme. It must not rewrite existing messages.
	AppendTurns(ctx context.Context, userID UserID, day, theme string, turns []Turn) error
	// GetDailyLog returns ErrNotFound when the user has no log for day.
	GetDailyLog(ctx context.Context, userID UserID, day string) (*DailyLog, error)
	// ListRecentLogs returns up to limit logs, most recently updated first.
	ListRecentLogs(ctx context.Context, userID UserID, limit int) ([]*DailyLog, error)
}
