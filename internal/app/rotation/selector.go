package rotation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/PabloGalante/guideon/internal/domain"
)

// ErrNoItemAvailable is returned when the candidate set is empty.
var ErrNoItemAvailable = errors.New("no item available")

// Shuffler permutes n elements in place. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// DefaultShuffler uses the process-wide math/rand/v2 source, which is safe
// for concurrent use.
func DefaultShuffler() Shuffler {
	return globalShuffler{}
}

// Selection is the outcome of a successful Select. Warning carries a
// cursor load/save failure that did not prevent the pick.
type Selection struct {
	ID      string
	Cursor  domain.RotationCursor
	Rebuilt bool
	Warning error
}

// Selector hands out themed items per user without repeating an item
// until every candidate has been returned once.
type Selector struct {
	store   domain.RotationStore
	shuffle Shuffler
	now     func() time.Time
}

func NewSelector(store domain.RotationStore, shuffle Shuffler) *Selector {
	if shuffle == nil {
		shuffle = DefaultShuffler()
	}
	return &Selector{
		store:   store,
		shuffle: shuffle,
		now:     time.Now,
	}
}

// WithClock overrides the clock used for cursor updatedAt.
func (s *Selector) WithClock(now func() time.Time) *Selector {
	s.now = now
	return s
}

// Select returns the next candidate id for (userID, kind, theme).
//
// The stored order is first filtered to ids still in candidateIDs. When the
// filtered length differs from len(candidateIDs) the order is rebuilt as a
// fresh permutation with index 0. The index is not reconciled after
// filtering.
func (s *Selector) Select(
	ctx context.Context,
	userID domain.UserID,
	kind domain.ItemKind,
	theme string,
	candidateIDs []string,
) (Selection, error) {
	key := domain.NewRotationKey(kind, theme)

	var warning error
	var order []string
	index := 0

	cur, err := s.store.GetCursor(ctx, userID, key)
	switch {
	case err == nil && cur != nil:
		order = cur.Order
		index = cur.Index
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		warning = fmt.Errorf("load rotation cursor %s: %w", key.DocID(), err)
	}

	present := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		present[id] = struct{}{}
	}
	filtered := make([]string, 0, len(order))
	for _, id := range order {
		if _, ok := present[id]; ok {
			filtered = append(filtered, id)
		}
	}

	rebuilt := false
	if len(filtered) != len(candidateIDs) {
		filtered = append([]string(nil), candidateIDs...)
		s.shuffle.Shuffle(len(filtered), func(i, j int) {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		})
		index = 0
		rebuilt = true
	}

	if len(candidateIDs) == 0 {
		return Selection{Warning: warning}, ErrNoItemAvailable
	}

	n := len(filtered)
	pos := ((index % n) + n) % n
	pick := filtered[pos]

	next := domain.RotationCursor{
		Key:       key,
		Order:     filtered,
		Index:     (pos + 1) % n,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.SaveCursor(ctx, userID, &next); err != nil {
		warning = errors.Join(warning, fmt.Errorf("save rotation cursor %s: %w", key.DocID(), err))
	}

	return Selection{
		ID:      pick,
		Cursor:  next,
		Rebuilt: rebuilt,
		Warning: warning,
	}, nil
}
