package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/guideon/internal/domain"
	"github.com/PabloGalante/guideon/internal/envelope"
)

const (
	DefaultLimitDays = 7
	MaxLimitDays     = 30
)

// ErrInvalidDay is returned when Query.Day is not YYYY-MM-DD.
var ErrInvalidDay = errors.New("day must be formatted as YYYY-MM-DD")

// Query selects which logs to read. A non-empty Day wins over LimitDays.
type Query struct {
	Day       string
	LimitDays int
}

// MessageView is a stored turn with its content recovered when possible.
type MessageView struct {
	Role      domain.Role
	Content   string
	Encrypted bool
	Timestamp time.Time
	Mode      domain.Mode
	Theme     string
}

// LogView is a DailyLog ready to be returned to its owner.
type LogView struct {
	Day       string
	LastTheme string
	UpdatedAt time.Time
	Messages  []MessageView
}

// Reader returns a user's daily logs.
type Reader struct {
	store    domain.ChatLogStore
	envelope *envelope.Envelope
	maxDays  int
}

func NewReader(store domain.ChatLogStore, env *envelope.Envelope) *Reader {
	return &Reader{
		store:    store,
		envelope: env,
		maxDays:  MaxLimitDays,
	}
}

// WithMaxDays lowers the upper clamp for LimitDays. Values outside [1,30] are ignored.
func (r *Reader) WithMaxDays(n int) *Reader {
	if n >= 1 && n <= MaxLimitDays {
		r.maxDays = n
	}
	return r
}

// ClampLimit applies the default and the [1,max] bounds to a requested day count.
func (r *Reader) ClampLimit(n int) int {
	if n <= 0 {
		n = DefaultLimitDays
	}
	if n > r.maxDays {
		n = r.maxDays
	}
	return n
}

// Read returns the requested logs, newest first when no Day is given.
func (r *Reader) Read(ctx context.Context, userID domain.UserID, q Query) ([]LogView, error) {
	if q.Day != "" {
		if _, err := time.Parse(domain.DayLayout, q.Day); err != nil {
			return nil, ErrInvalidDay
		}
		log, err := r.store.GetDailyLog(ctx, userID, q.Day)
		if errors.Is(err, domain.ErrNotFound) {
			return []LogView{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get daily log %s: %w", q.Day, err)
		}
		return []LogView{r.view(log)}, nil
	}

	logs, err := r.store.ListRecentLogs(ctx, userID, r.ClampLimit(q.LimitDays))
	if err != nil {
		return nil, fmt.Errorf("list recent logs: %w", err)
	}

	out := make([]LogView, 0, len(logs))
	for _, log := range logs {
		out = append(out, r.view(log))
	}
	return out, nil
}

func (r *Reader) view(log *domain.DailyLog) LogView {
	msgs := make([]MessageView, 0, len(log.Messages))
	for _, t := range log.Messages {
		msgs = append(msgs, r.message(t))
	}
	return LogView{
		Day:       log.Day,
		LastTheme: log.LastTheme,
		UpdatedAt: log.UpdatedAt,
		Messages:  msgs,
	}
}

func (r *Reader) message(t domain.Turn) MessageView {
	v := MessageView{
		Role:      t.Role,
		Timestamp: t.Timestamp,
		Mode:      t.Mode,
		Theme:     t.Theme,
	}
	if !t.IsEncrypted() || !r.envelope.Enabled() {
		v.Content = t.Content
		return v
	}
	v.Encrypted = true
	if text, ok := r.envelope.Open(t.Cipher, t.Nonce); ok {
		v.Content = text
	}
	return v
}
