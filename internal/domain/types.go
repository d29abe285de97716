package domain

import "time"

type UserID string

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Mode is the kind of exchange a turn belongs to.
type Mode string

const (
	ModeChat  Mode = "chat"  // free conversation, no new item
	ModeQuote Mode = "quote" // interpretation of a themed quote
	ModeVerse Mode = "verse" // interpretation of a themed scripture verse
)

type Timestamp = time.Time

// DayLayout is the calendar-day bucket format used for daily logs.
const DayLayout = "2006-01-02"

// DayKey returns the UTC calendar day of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
