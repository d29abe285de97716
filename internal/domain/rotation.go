package domain

import (
	"strings"
	"time"
)

// RotationKey identifies one rotation cursor inside a user's namespace.
type RotationKey struct {
	Kind  ItemKind
	Theme string
}

func NewRotationKey(kind ItemKind, theme string) RotationKey {
	return RotationKey{Kind: kind, Theme: NormalizeTheme(theme)}
}

// DocID is the document id of the cursor, e.g. "quote_hope".
func (k RotationKey) DocID() string {
	theme := strings.ReplaceAll(k.Theme, "/", "_")
	return string(k.Kind) + "_" + theme
}

// RotationCursor walks a shuffled permutation of a themed candidate set.
// Order is the candidate id set at the time of the last rebuild and
// Index is always in [0, len(Order)).
type RotationCursor struct {
	Key       RotationKey
	Order     []string
	Index     int
	UpdatedAt time.Time
}
