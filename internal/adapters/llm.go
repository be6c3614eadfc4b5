package adapters

import (
	"context"
	"strings"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/iamwavecut/multibot/internal/adapters/llm"
)

// LLM defines the interface for language model operations
type LLM interface {
	// ChatCompletion performs a chat completion request
	ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error)
}

const translatePrompt = `You are a translation engine. Translate the user's message into {{ .language }}.
Reply with the translation only, without quotes, notes or transliteration.
If the message is already in {{ .language }}, reply with it unchanged.`

var ErrEmptyCompletion = errors.New("no response choices available")

// Translate asks the model to translate text into the language named by lang.
func Translate(ctx context.Context, model LLM, text, lang string) (string, error) {
	messages := []llm.ChatCompletionMessage{
		{
			Role:    llm.RoleSystem,
			Content: tool.ExecTemplate(translatePrompt, map[string]any{"language": lang}),
		},
		{
			Role:    llm.RoleUser,
			Content: text,
		},
	}

	resp, err := model.ChatCompletion(ctx, messages)
	if err != nil {
		return "", errors.WithMessage(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return "", ErrEmptyCompletion
	}
	return translated, nil
}
