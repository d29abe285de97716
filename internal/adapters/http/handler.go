package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PabloGalante/guideon/internal/adapters/auth"
	"github.com/PabloGalante/guideon/internal/app/conversation"
	"github.com/PabloGalante/guideon/internal/app/history"
	"github.com/PabloGalante/guideon/internal/domain"
	"github.com/PabloGalante/guideon/internal/observability"
)

const maxBodyBytes = 64 << 10

// RateLimiter reports whether key may make another request now.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Options configures NewServer. Limiter and Metrics are optional.
type Options struct {
	Verifier   domain.IdentityVerifier
	Limiter    RateLimiter
	Metrics    *observability.Metrics
	CORSOrigin string
}

type Server struct {
	svc      *conversation.Service
	verifier domain.IdentityVerifier
	limiter  RateLimiter
	metrics  *observability.Metrics
}

func NewServer(svc *conversation.Service, opts Options) http.Handler {
	s := &Server{
		svc:      svc,
		verifier: opts.Verifier,
		limiter:  opts.Limiter,
		metrics:  opts.Metrics,
	}
	mux := http.NewServeMux()

	// POST → quote, verse or chat reply
	mux.HandleFunc("/api/generateQuoteInterpretation", s.handleRelay)

	// GET ?day=YYYY-MM-DD or ?limitDays=N
	mux.HandleFunc("/api/history", s.handleHistory)

	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	return chainMiddlewares(mux,
		withLogging,
		withRequestID,
		withCORS(opts.CORSOrigin),
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type relayRequest struct {
	Theme       string         `json:"theme"`
	Message     string         `json:"message"`
	AskForQuote bool           `json:"askForQuote"`
	AskForVerse bool           `json:"askForVerse"`
	History     []historyEntry `json:"history,omitempty"`
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type quotePayload struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Verse  string `json:"verse,omitempty"`
	Theme  string `json:"theme"`
}

type versePayload struct {
	Text        string `json:"text"`
	Reference   string `json:"reference"`
	Translation string `json:"translation,omitempty"`
	Theme       string `json:"theme"`
}

type quoteResponse struct {
	Quote          quotePayload `json:"quote"`
	Interpretation string       `json:"interpretation"`
}

type verseResponse struct {
	Verse          versePayload `json:"verse"`
	Interpretation string       `json:"interpretation"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type historyResponse struct {
	Logs []dailyLogResponse `json:"logs"`
}

type dailyLogResponse struct {
	Day       string            `json:"day"`
	LastTheme string            `json:"lastTheme"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Messages  []messageResponse `json:"messages"`
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Encrypted bool      `json:"encrypted"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
	Theme     string    `json:"theme"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	ctx := observability.WithUserID(r.Context(), string(userID))

	if !s.allow(ctx, userID) {
		writeError(w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	var req relayRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Missing theme or message")
		return
	}

	hist := make([]domain.ChatMessage, 0, len(req.History))
	for _, h := range req.History {
		hist = append(hist, domain.ChatMessage{Role: domain.Role(h.Role), Content: h.Content})
	}

	out, err := s.svc.Respond(ctx, conversation.RespondInput{
		UserID:      userID,
		Theme:       req.Theme,
		Message:     req.Message,
		AskForQuote: req.AskForQuote,
		AskForVerse: req.AskForVerse,
		History:     hist,
	})
	switch {
	case errors.Is(err, conversation.ErrInvalidInput):
		badRequest(w, "Missing theme or message")
		return
	case errors.Is(err, conversation.ErrNoContent):
		writeError(w, http.StatusNotFound, noContentMessage(req, strings.TrimSpace(req.Theme)))
		return
	case err != nil:
		internalError(w, err)
		return
	}

	switch out.Mode {
	case domain.ModeVerse:
		writeJSON(w, http.StatusOK, verseResponse{
			Verse: versePayload{
				Text:        out.Item.Text,
				Reference:   out.Item.Reference,
				Translation: out.Item.Translation,
				Theme:       out.Theme,
			},
			Interpretation: out.Reply,
		})
	case domain.ModeQuote:
		writeJSON(w, http.StatusOK, quoteResponse{
			Quote: quotePayload{
				Text:   out.Item.Text,
				Source: out.Item.Source,
				Verse:  out.Item.Verse,
				Theme:  out.Theme,
			},
			Interpretation: out.Reply,
		})
	default:
		writeJSON(w, http.StatusOK, chatResponse{Reply: out.Reply})
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	ctx := observability.WithUserID(r.Context(), string(userID))

	q := history.Query{Day: strings.TrimSpace(r.URL.Query().Get("day"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("limitDays")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(w, "limitDays must be an integer")
			return
		}
		q.LimitDays = n
	}

	logs, err := s.svc.History(ctx, userID, q)
	if errors.Is(err, history.ErrInvalidDay) {
		badRequest(w, err.Error())
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Logs: toLogsResponse(logs)})
}

// ─────────────────────────────────────────────
// Auth & rate limiting
// ─────────────────────────────────────────────

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	userID, err := s.verifier.VerifyIDToken(r.Context(), auth.BearerToken(r.Header.Get("Authorization")))
	if err != nil || userID == "" {
		observability.LoggerFromContext(r.Context()).Warn("rejected request", "error", err)
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

// allow fails open when the limiter itself errors.
func (s *Server) allow(ctx context.Context, userID domain.UserID) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(ctx, string(userID))
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("rate limiter unavailable", "error", err)
		return true
	}
	if !ok && s.metrics != nil {
		s.metrics.RateLimited.Inc()
	}
	return ok
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func noContentMessage(req relayRequest, theme string) string {
	if conversation.ModeFor(req.AskForQuote, req.AskForVerse) == domain.ModeVerse {
		return fmt.Sprintf("No verses available for theme: %s", theme)
	}
	return fmt.Sprintf("No quotes for theme: %s", theme)
}

func toLogsResponse(logs []history.LogView) []dailyLogResponse {
	out := make([]dailyLogResponse, 0, len(logs))
	for _, l := range logs {
		msgs := make([]messageResponse, 0, len(l.Messages))
		for _, m := range l.Messages {
			msgs = append(msgs, messageResponse{
				Role:      string(m.Role),
				Content:   m.Content,
				Encrypted: m.Encrypted,
				Timestamp: m.Timestamp,
				Mode:      string(m.Mode),
				Theme:     m.Theme,
			})
		}
		out = append(out, dailyLogResponse{
			Day:       l.Day,
			LastTheme: l.LastTheme,
			UpdatedAt: l.UpdatedAt,
			Messages:  msgs,
		})
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func internalError(w http.ResponseWriter, _ error) {
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
