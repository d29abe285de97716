package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/guideon/internal/app/history"
	"github.com/PabloGalante/guideon/internal/app/rotation"
	"github.com/PabloGalante/guideon/internal/domain"
	"github.com/PabloGalante/guideon/internal/observability"
)

// FallbackReply is returned whenever the language model fails or answers empty.
const FallbackReply = "I am sorry, I do not know that."

// verseFallbackLimit bounds the any-theme verse candidates used when a theme has none.
const verseFallbackLimit = 50

var (
	// ErrInvalidInput is returned when theme or message is missing.
	ErrInvalidInput = errors.New("missing theme or message")
	// ErrNoContent is returned when no quote or verse can be selected for the theme.
	ErrNoContent = errors.New("no content for theme")
)

// Deps are the collaborators of a Service. Recorder and Metrics are optional.
type Deps struct {
	LLM      domain.LLMClient
	Content  domain.ContentSource
	Selector *rotation.Selector
	Recorder *history.Recorder
	Reader   *history.Reader
	Metrics  *observability.Metrics
}

type Service struct {
	llm      domain.LLMClient
	content  domain.ContentSource
	selector *rotation.Selector
	recorder *history.Recorder
	reader   *history.Reader
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{
		llm:      d.LLM,
		content:  d.Content,
		selector: d.Selector,
		recorder: d.Recorder,
		reader:   d.Reader,
		metrics:  d.Metrics,
		now:      time.Now,
	}
}

type RespondInput struct {
	UserID      domain.UserID
	Theme       string
	Message     string
	AskForQuote bool
	AskForVerse bool
	// History is the client-held chat transcript, only used in chat mode.
	History []domain.ChatMessage
}

type RespondOutput struct {
	Mode  domain.Mode
	Theme string
	// Item is the selected quote or verse; nil in chat mode.
	Item     *domain.ThemedItem
	Reply    string
	Fallback bool
	// Day is the log the exchange was appended to, empty when not persisted.
	Day       string
	Encrypted bool
}

// ModeFor picks verse over quote over chat.
func ModeFor(askForQuote, askForVerse bool) domain.Mode {
	switch {
	case askForVerse:
		return domain.ModeVerse
	case askForQuote:
		return domain.ModeQuote
	default:
		return domain.ModeChat
	}
}

// Respond runs one relay request: select content when the mode needs it,
// ask the model, then record the exchange.
func (s *Service) Respond(ctx context.Context, in RespondInput) (*RespondOutput, error) {
	rawTheme := strings.TrimSpace(in.Theme)
	message := strings.TrimSpace(in.Message)
	if rawTheme == "" || message == "" {
		return nil, ErrInvalidInput
	}

	mode := ModeFor(in.AskForQuote, in.AskForVerse)
	theme := domain.NormalizeTheme(rawTheme)

	log := observability.LoggerFromContext(ctx).With(
		"mode", mode,
		"theme", theme,
	)
	log.Info("handling relay request")

	out := &RespondOutput{Mode: mode, Theme: theme}

	var prompt []domain.ChatMessage
	switch mode {
	case domain.ModeVerse, domain.ModeQuote:
		kind := domain.KindQuote
		if mode == domain.ModeVerse {
			kind = domain.KindVerse
		}
		item, err := s.pick(ctx, in.UserID, kind, theme)
		if err != nil {
			if errors.Is(err, ErrNoContent) {
				log.Warn("no content for theme", "kind", kind)
				s.countRequest(mode, "no_content")
			} else {
				log.Error("content selection failed", "error", err)
				s.countRequest(mode, "error")
			}
			return nil, err
		}
		out.Item = item
		if kind == domain.KindVerse {
			prompt = verseMessages(rawTheme, in.Message, *item)
		} else {
			prompt = quoteMessages(rawTheme, in.Message, *item)
		}
	default:
		prompt = chatMessages(rawTheme, in.History, in.Message)
	}

	out.Reply, out.Fallback = s.generate(ctx, mode, prompt)

	if s.recorder != nil {
		res := s.recorder.Record(ctx, history.TurnInput{
			UserID:           in.UserID,
			Theme:            theme,
			UserMessage:      in.Message,
			AssistantMessage: out.Reply,
			Mode:             mode,
		})
		if res.Warning != nil {
			log.Warn("failed to persist conversation", "error", res.Warning)
			if s.metrics != nil {
				s.metrics.PersistenceFailures.Inc()
			}
		} else {
			out.Day = res.Day
			out.Encrypted = res.Encrypted
		}
	}

	outcome := "ok"
	if out.Fallback {
		outcome = "fallback"
	}
	s.countRequest(mode, outcome)
	log.Info("relay request completed", "fallback", out.Fallback)

	return out, nil
}

func (s *Service) pick(ctx context.Context, userID domain.UserID, kind domain.ItemKind, theme string) (*domain.ThemedItem, error) {
	items, err := s.content.ListByTheme(ctx, kind, theme)
	if err != nil {
		return nil, fmt.Errorf("list %s for %q: %w", kind.Collection(), theme, err)
	}
	if len(items) == 0 && kind == domain.KindVerse {
		items, err = s.content.ListAny(ctx, kind, verseFallbackLimit)
		if err != nil {
			return nil, fmt.Errorf("list any verses: %w", err)
		}
	}
	if len(items) == 0 {
		if s.metrics != nil {
			s.metrics.ContentUnavailable.WithLabelValues(string(kind)).Inc()
		}
		return nil, ErrNoContent
	}

	sel, err := s.selector.Select(ctx, userID, kind, theme, domain.ItemIDs(items))
	if sel.Warning != nil {
		observability.LoggerFromContext(ctx).Warn("rotation cursor not persisted", "kind", kind, "error", sel.Warning)
		if s.metrics != nil {
			s.metrics.RotationWarnings.Inc()
		}
	}
	if err != nil {
		if errors.Is(err, rotation.ErrNoItemAvailable) {
			return nil, ErrNoContent
		}
		return nil, err
	}

	for i := range items {
		if items[i].ID == sel.ID {
			item := items[i]
			return &item, nil
		}
	}
	return nil, fmt.Errorf("selected id %q not in candidates", sel.ID)
}

func (s *Service) generate(ctx context.Context, mode domain.Mode, prompt []domain.ChatMessage) (string, bool) {
	start := s.now()
	reply, err := s.llm.GenerateReply(ctx, prompt)
	if s.metrics != nil {
		s.metrics.LLMLatency.WithLabelValues(string(mode)).Observe(s.now().Sub(start).Seconds())
	}

	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		if err != nil {
			observability.LoggerFromContext(ctx).Error("llm call failed", "error", err)
		}
		if s.metrics != nil {
			s.metrics.LLMFallbacks.WithLabelValues(string(mode)).Inc()
		}
		return FallbackReply, true
	}
	return reply, false
}

func (s *Service) countRequest(mode domain.Mode, outcome string) {
	if s.metrics != nil {
		s.metrics.Requests.WithLabelValues(string(mode), outcome).Inc()
	}
}

// History returns the caller's stored logs.
func (s *Service) History(ctx context.Context, userID domain.UserID, q history.Query) ([]history.LogView, error) {
	logs, err := s.reader.Read(ctx, userID, q)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to read history", "error", err, "day", q.Day)
		return nil, err
	}
	return logs, nil
}
