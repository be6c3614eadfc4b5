package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/iamwavecut/multibot/internal/adapters"
	"github.com/iamwavecut/multibot/internal/adapters/llm"
)

type API struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *log.Entry
}

const DefaultModel = "gemini-2.5-flash-lite"

func NewGemini(ctx context.Context, apiKey, model string, logger *log.Entry) (*API, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.WithMessage(err, "cant create gemini client")
	}
	api := &API{
		client: client,
		logger: logger,
	}
	api.WithModel(model)
	return api, nil
}

func (g *API) Close() error {
	return g.client.Close()
}

func (g *API) WithModel(modelName string) adapters.LLM {
	if modelName == "" {
		modelName = DefaultModel
	}
	g.model = g.client.GenerativeModel(modelName)
	g.WithSafetySettings(nil)
	g.WithParameters(nil)
	return g
}

func (g *API) WithParameters(parameters *llm.GenerationParameters) adapters.LLM {
	if parameters == nil || *parameters == (llm.GenerationParameters{}) {
		parameters = &llm.GenerationParameters{
			Temperature:      0.2,
			TopK:             40,
			TopP:             0.95,
			MaxOutputTokens:  2048,
			ResponseMIMEType: "text/plain",
		}
	}

	g.model.SetTemperature(parameters.Temperature)
	g.model.SetTopK(parameters.TopK)
	g.model.SetTopP(parameters.TopP)
	g.model.SetMaxOutputTokens(parameters.MaxOutputTokens)
	g.model.ResponseMIMEType = parameters.ResponseMIMEType

	return g
}

// WithSafetySettings disables blocking by default; translated text is user supplied.
func (g *API) WithSafetySettings(safetySettings []*genai.SafetySetting) *API {
	if len(safetySettings) == 0 {
		for _, category := range []genai.HarmCategory{
			genai.HarmCategoryDangerousContent,
			genai.HarmCategoryHarassment,
			genai.HarmCategoryHateSpeech,
			genai.HarmCategorySexuallyExplicit,
		} {
			safetySettings = append(safetySettings, &genai.SafetySetting{
				Category:  category,
				Threshold: genai.HarmBlockNone,
			})
		}
	}
	g.model.SafetySettings = safetySettings
	return g
}

func (g *API) WithSystemPrompt(prompt string) adapters.LLM {
	g.model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt)},
	}
	return g
}

// ChatCompletion maps system messages to the system instruction of a per-call
// model copy, so concurrent calls never see each other's prompts.
func (g *API) ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error) {
	if len(messages) == 0 {
		return llm.ChatCompletionResponse{}, errors.New("no messages")
	}
	model := *g.model
	session := model.StartChat()
	session.History = []*genai.Content{}

	lastMessage, messages := messages[len(messages)-1], messages[:len(messages)-1]
	for _, message := range messages {
		if message.Role == llm.RoleSystem {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(message.Content)},
			}
			continue
		}
		role := "user"
		if message.Role == llm.RoleAssistant {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(message.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(lastMessage.Content))
	if err != nil {
		return llm.ChatCompletionResponse{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return llm.ChatCompletionResponse{}, nil
	}

	var response strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		response.WriteString(fmt.Sprintf("%v", part))
	}

	return llm.ChatCompletionResponse{
		Choices: []llm.ChatCompletionChoice{{Message: llm.ChatCompletionMessage{
			Role:    llm.RoleAssistant,
			Content: response.String(),
		}}},
	}, nil
}
