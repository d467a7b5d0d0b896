package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
)

const assistantSystemPrompt = "You are a support assistant for a ticketing platform. " +
	"Answer concisely, stay on the user's issue, and suggest opening a ticket " +
	"or booking an expert consultation when the problem needs a human."

// OpenAIResponder implements AIResponder on the OpenAI chat completion API.
type OpenAIResponder struct {
	client       *openai.Client
	defaultModel string
	maxTokens    int
	temperature  float32
}

// NewOpenAIResponder creates a responder. defaultModel is used when the
// session does not pin one; a non-positive temperature leaves the API
// default in place.
func NewOpenAIResponder(apiKey, defaultModel string, maxTokens int, temperature float64) *OpenAIResponder {
	if defaultModel == "" {
		defaultModel = openai.GPT4oMini
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &OpenAIResponder{
		client:       openai.NewClient(apiKey),
		defaultModel: defaultModel,
		maxTokens:    maxTokens,
		temperature:  float32(temperature),
	}
}

// Respond generates an assistant reply from the session history. The
// history is mapped onto chat roles: AI-sent messages become assistant
// turns, everything else is a user turn.
func (r *OpenAIResponder) Respond(ctx context.Context, model string, history []*domain.ChatMessage) (string, error) {
	if model == "" {
		model = r.defaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: assistantSystemPrompt,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.SenderID == domain.AIAssistantSenderID {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
