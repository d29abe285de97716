package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/guideon/internal/domain"
)

type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// GenerateReply echoes the last user message so local runs need no provider.
func (m *MockLLM) GenerateReply(_ context.Context, messages []domain.ChatMessage) (string, error) {
	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			last = messages[i].Content
			break
		}
	}
	return fmt.Sprintf("I hear you. You shared: %q. What feels most important about that right now?", last), nil
}
