package history

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/guideon/internal/domain"
	"github.com/PabloGalante/guideon/internal/envelope"
)

// TurnInput is one completed user/assistant exchange.
type TurnInput struct {
	UserID           domain.UserID
	Theme            string
	UserMessage      string
	AssistantMessage string
	Mode             domain.Mode
}

// RecordResult reports where the pair went. Warning is set when the write
// failed; Record itself never fails.
type RecordResult struct {
	Day       string
	Encrypted bool
	Warning   error
}

// Recorder appends exchanges into per-user daily logs.
type Recorder struct {
	store    domain.ChatLogStore
	envelope *envelope.Envelope
	now      func() time.Time
}

// NewRecorder builds a Recorder. A nil or disabled envelope stores plaintext.
func NewRecorder(store domain.ChatLogStore, env *envelope.Envelope) *Recorder {
	return &Recorder{
		store:    store,
		envelope: env,
		now:      time.Now,
	}
}

// WithClock overrides the clock used for the day bucket and turn timestamps.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record appends the user turn and the assistant turn, in that order, to
// the current UTC day's log.
func (r *Recorder) Record(ctx context.Context, in TurnInput) RecordResult {
	now := r.now().UTC()
	day := domain.DayKey(now)
	theme := domain.NormalizeTheme(in.Theme)

	userTurn := r.seal(domain.Turn{
		Role:      domain.RoleUser,
		Timestamp: now,
		Mode:      in.Mode,
		Theme:     theme,
	}, in.UserMessage)

	// One nanosecond apart so the two elements never collapse in a set-union append.
	assistantTurn := r.seal(domain.Turn{
		Role:      domain.RoleAssistant,
		Timestamp: now.Add(time.Nanosecond),
		Mode:      in.Mode,
		Theme:     theme,
	}, in.AssistantMessage)

	res := RecordResult{
		Day:       day,
		Encrypted: userTurn.IsEncrypted() || assistantTurn.IsEncrypted(),
	}

	if err := r.store.AppendTurns(ctx, in.UserID, day, theme, []domain.Turn{userTurn, assistantTurn}); err != nil {
		res.Warning = fmt.Errorf("append turns for %s: %w", day, err)
	}
	return res
}

func (r *Recorder) seal(t domain.Turn, text string) domain.Turn {
	if sealed, ok := r.envelope.Seal(text); ok {
		t.Cipher = sealed.Cipher
		t.Nonce = sealed.Nonce
		return t
	}
	t.Content = text
	return t
}
