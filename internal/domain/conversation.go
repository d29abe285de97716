package domain

// Turn is one side of a stored exchange. It has either Content (plaintext)
// or Cipher+Nonce (base64 AES-GCM envelope), never both.
type Turn struct {
	Role      Role
	Content   string
	Cipher    string
	Nonce     string
	Timestamp Timestamp
	Mode      Mode
	Theme     string
}

func (t Turn) IsEncrypted() bool {
	return t.Cipher != "" && t.Nonce != ""
}

// DailyLog holds every turn a user had on one UTC calendar day, in arrival order.
type DailyLog struct {
	UserID    UserID
	Day       string
	LastTheme string
	UpdatedAt Timestamp
	Messages  []Turn
}

// ChatMessage is a role-tagged message sent to the language model.
type ChatMessage struct {
	Role    Role
	Content string
}
