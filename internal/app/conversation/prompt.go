package conversation

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/guideon/internal/domain"
)

const (
	maxHistoryMessages = 8
	maxMessageRunes    = 2000
)

func quoteMessages(theme, message string, quote domain.ThemedItem) []domain.ChatMessage {
	system := fmt.Sprintf("You are GuideOn, an empathetic, concise mental-health companion. The user's mood is %s. "+
		"Use the quote to give a short, validating interpretation and ONE practical action step. "+
		"Avoid sounding clinical; be warm and brief.", theme)

	source := quote.Source
	if source == "" {
		source = "Unknown"
	}
	var user strings.Builder
	fmt.Fprintf(&user, "User message: %s\nQuote: \"%s\" — %s", message, quote.Text, source)
	if quote.Verse != "" {
		fmt.Fprintf(&user, " (%s)", quote.Verse)
	}

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: user.String()},
	}
}

func verseMessages(theme, message string, verse domain.ThemedItem) []domain.ChatMessage {
	system := fmt.Sprintf("You are GuideOn, an empathetic, concise companion. The user's mood is %s. "+
		"Use the Bible verse to offer a short, compassionate interpretation (2-5 sentences max) and ONE gentle, practical application. "+
		"Be sensitive and non-preachy, welcoming users of varying beliefs.", theme)

	var refParts []string
	for _, p := range []string{verse.Reference, verse.Translation} {
		if p != "" {
			refParts = append(refParts, p)
		}
	}
	var user strings.Builder
	fmt.Fprintf(&user, "User message: %s\nBible verse: \"%s\"", message, verse.Text)
	if len(refParts) > 0 {
		fmt.Fprintf(&user, " — %s", strings.Join(refParts, " "))
	}

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: user.String()},
	}
}

// chatMessages keeps the last few history entries, each clipped, and appends the new message.
func chatMessages(theme string, history []domain.ChatMessage, message string) []domain.ChatMessage {
	system := fmt.Sprintf("You are GuideOn, an empathetic, concise companion. The user's mood is %s. "+
		"Respond briefly (1-3 sentences), validate feelings, and ask ONE gentle follow-up. "+
		"Do NOT provide a quote unless explicitly asked.", theme)

	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	out := make([]domain.ChatMessage, 0, len(history)+2)
	out = append(out, domain.ChatMessage{Role: domain.RoleSystem, Content: system})
	for _, m := range history {
		if m.Role == "" || m.Content == "" {
			continue
		}
		role := domain.RoleUser
		if m.Role == domain.RoleAssistant {
			role = domain.RoleAssistant
		}
		out = append(out, domain.ChatMessage{Role: role, Content: clip(m.Content)})
	}
	out = append(out, domain.ChatMessage{Role: domain.RoleUser, Content: clip(message)})
	return out
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageRunes {
		return s
	}
	return string(r[:maxMessageRunes])
}
