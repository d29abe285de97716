package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PabloGalante/guideon/internal/domain"
)

// ChatLogStore is an in-memory domain.ChatLogStore.
// It is NOT persistent and is only suitable for development / local mode.
type ChatLogStore struct {
	mu   sync.RWMutex
	logs map[domain.UserID]map[string]*domain.DailyLog
	now  func() time.Time
}

func NewChatLogStore() *ChatLogStore {
	return &ChatLogStore{
		logs: make(map[domain.UserID]map[string]*domain.DailyLog),
		now:  time.Now,
	}
}

// WithClock overrides the clock used for updatedAt.
func (s *ChatLogStore) WithClock(now func() time.Time) *ChatLogStore {
	s.now = now
	return s
}

func (s *ChatLogStore) AppendTurns(_ context.Context, userID domain.UserID, day, theme string, turns []domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay, ok := s.logs[userID]
	if !ok {
		byDay = make(map[string]*domain.DailyLog)
		s.logs[userID] = byDay
	}

	log, ok := byDay[day]
	if !ok {
		log = &domain.DailyLog{UserID: userID, Day: day}
		byDay[day] = log
	}

	log.LastTheme = theme
	log.UpdatedAt = s.now().UTC()
	log.Messages = append(log.Messages, turns...)
	return nil
}

func (s *ChatLogStore) GetDailyLog(_ context.Context, userID domain.UserID, day string) (*domain.DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[userID][day]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyLog(log), nil
}

func (s *ChatLogStore) ListRecentLogs(_ context.Context, userID domain.UserID, limit int) ([]*domain.DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.DailyLog, 0, len(s.logs[userID]))
	for _, log := range s.logs[userID] {
		out = append(out, copyLog(log))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].Day > out[j].Day
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyLog(log *domain.DailyLog) *domain.DailyLog {
	c := *log
	c.Messages = append([]domain.Turn(nil), log.Messages...)
	return &c
}
