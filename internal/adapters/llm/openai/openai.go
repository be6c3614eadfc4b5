package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/multibot/internal/adapters"
	"github.com/iamwavecut/multibot/internal/adapters/llm"
)

type API struct {
	client       *openai.Client
	systemPrompt string
	model        string
	parameters   *llm.GenerationParameters
	logger       *log.Entry
}

const DefaultModel = "gpt-4o-mini"

func NewOpenAI(apiKey, model, baseURL string, logger *log.Entry) *API {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	api := &API{
		client: client,
		logger: logger,
	}
	api.WithModel(model)
	api.WithParameters(nil)
	return api
}

func (o *API) WithModel(modelName string) adapters.LLM {
	if modelName == "" {
		modelName = DefaultModel
	}
	o.model = modelName
	return o
}

// WithParameters applies generation parameters. Translation wants low temperature by default.
func (o *API) WithParameters(parameters *llm.GenerationParameters) adapters.LLM {
	if parameters == nil || *parameters == (llm.GenerationParameters{}) {
		parameters = &llm.GenerationParameters{
			Temperature:     0.2,
			TopP:            0.9,
			MaxOutputTokens: 2048,
		}
	}
	o.parameters = parameters
	return o
}

func (o *API) WithSystemPrompt(prompt string) adapters.LLM {
	o.systemPrompt = prompt
	return o
}

func (o *API) ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error) {
	var openaiMessages []openai.ChatCompletionMessage
	systemPrompt := o.systemPrompt

	for _, msg := range messages {
		if msg.Role == openai.ChatMessageRoleSystem {
			systemPrompt = msg.Content
			continue
		}
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	if systemPrompt != "" {
		openaiMessages = append([]openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
		}, openaiMessages...)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    openaiMessages,
		Temperature: o.parameters.Temperature,
		TopP:        o.parameters.TopP,
		MaxTokens:   int(o.parameters.MaxOutputTokens),
	})
	if err != nil {
		return llm.ChatCompletionResponse{}, err
	}

	if len(resp.Choices) == 0 {
		return llm.ChatCompletionResponse{}, nil
	}

	o.logger.WithField("tokens", resp.Usage.TotalTokens).Trace("chat completion")
	return llm.ChatCompletionResponse{
		Choices: []llm.ChatCompletionChoice{
			{
				Message: llm.ChatCompletionMessage{
					Role:    resp.Choices[0].Message.Role,
					Content: resp.Choices[0].Message.Content,
				},
			},
		},
	}, nil
}
