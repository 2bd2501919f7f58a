package repository

import (
	"fmt"

	"github.com/DoctorRyner/mistral-go"
	"go.uber.org/zap"

	"chess_mentor/internal/adapters"
)

// LlmRepo asks the mistral agent for long-form commentary on a review move.
type LlmRepo struct {
	adapter *adapters.LlmAdapter
	log     *zap.SugaredLogger
}

func NewLlmRepository(adapter *adapters.LlmAdapter, log *zap.SugaredLogger) *LlmRepo {
	return &LlmRepo{adapter: adapter, log: log}
}

func (l *LlmRepo) SendRequestToLlm(request string) (response string, err error) {
	if l.adapter == nil {
		return "", fmt.Errorf("llm commentary is not configured")
	}

	params := mistral.DefaultChatRequestParams
	params.AgentId = l.adapter.AgentKey
	res, err := l.adapter.Client.Chat(
		"mistral-large-latest",
		[]mistral.ChatMessage{{Content: request, Role: mistral.RoleUser}},
		&params,
	)
	if err != nil {
		l.log.Errorf("llm request failed: %v", err)
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return fmt.Sprintf("%v", res.Choices[0].Message.Content), nil
}
