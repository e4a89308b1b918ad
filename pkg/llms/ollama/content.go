package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	ollamasdk "github.com/rozoomcool/go-ollama-sdk"

	"github.com/voicelayer-ai/suhbat/pkg/logging"
	"github.com/voicelayer-ai/suhbat/pkg/model"
	"github.com/voicelayer-ai/suhbat/pkg/utils"
)

// NewStringContentGenerator creates a plain-text chat generator.
func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	cfg := model.ResolveGeneratorOpts(opts...)
	return &textGenerator{client: newClient(cfg), prompt: prompt, cfg: cfg}, nil
}

// NewStructureContentGenerator creates a generator that instructs the model
// to answer with JSON matching the schema of T. Local models do not enforce
// schemas server-side, so the output is extracted and, when malformed,
// repaired with one reformatting round.
func NewStructureContentGenerator[T any](prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[T], error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	cfg := model.ResolveGeneratorOpts(opts...)
	return &structuredGenerator[T]{client: newClient(cfg), prompt: prompt, cfg: cfg}, nil
}

type textGenerator struct {
	client          *client
	prompt          string
	cfg             model.GeneratorConfig
	promptContextMu sync.RWMutex
	promptContexts  []*model.PromptContext
}

func (g *textGenerator) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	g.promptContextMu.Lock()
	defer g.promptContextMu.Unlock()

	g.promptContexts = append(g.promptContexts, &model.PromptContext{
		MessageType: messageType,
		Content:     content,
	})
	logging.NewLogger(ctx).Debugf("ollama.textGenerator.AddPromptContext total_contexts=%d", len(g.promptContexts))
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveGenerationModelName(g.cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	messages := buildMessagesWithContext(g.prompt, g.snapshotContexts())
	log.Infof("completion_request model=%q base_url=%q messages=%d", modelName, g.client.baseURL, len(messages))

	text, err := g.client.apiClient.Chat(modelName, messages)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	output := strings.TrimSpace(text)
	if output == "" {
		err = errors.New("chat response is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	return output, meta, nil
}

func (g *textGenerator) snapshotContexts() []*model.PromptContext {
	g.promptContextMu.RLock()
	defer g.promptContextMu.RUnlock()
	return append([]*model.PromptContext(nil), g.promptContexts...)
}

type structuredGenerator[T any] struct {
	client          *client
	prompt          string
	cfg             model.GeneratorConfig
	promptContextMu sync.RWMutex
	promptContexts  []*model.PromptContext
}

func (g *structuredGenerator[T]) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	g.promptContextMu.Lock()
	defer g.promptContextMu.Unlock()

	g.promptContexts = append(g.promptContexts, &model.PromptContext{
		MessageType: messageType,
		Content:     content,
	})
	logging.NewLogger(ctx).Debugf("ollama.structuredGenerator.AddPromptContext total_contexts=%d", len(g.promptContexts))
}

func (g *structuredGenerator[T]) Generate(ctx context.Context) (T, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveGenerationModelName(g.cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	var zero T
	log := logging.NewLogger(ctx)

	schema, err := generateJSONSchema[T]()
	if err != nil {
		log.Errorf("error: %v", err)
		return zero, meta, utils.WrapIfNotNil(err)
	}
	schemaInstruction, err := buildStructuredOutputInstruction(schema)
	if err != nil {
		log.Errorf("error: %v", err)
		return zero, meta, utils.WrapIfNotNil(err)
	}

	g.promptContextMu.RLock()
	contexts := append([]*model.PromptContext(nil), g.promptContexts...)
	g.promptContextMu.RUnlock()

	messages := buildMessagesWithContext(g.prompt, contexts)
	messages = append(messages, ollamasdk.ChatMessage{
		Role:    "user",
		Content: schemaInstruction,
	})
	log.Infof("structured_completion_request model=%q base_url=%q messages=%d", modelName, g.client.baseURL, len(messages))

	text, err := g.client.apiClient.Chat(modelName, messages)
	if err != nil {
		log.Errorf("error: %v", err)
		return zero, meta, utils.WrapIfNotNil(err)
	}

	payload := extractJSONPayload(text)
	var result T
	if err := json.Unmarshal([]byte(payload), &result); err == nil {
		return result, meta, nil
	}

	repaired, err := g.repairStructuredJSON(modelName, schema, text)
	if err != nil {
		log.Errorf("error: %v", err)
		return zero, meta, utils.WrapIfNotNil(err)
	}

	if err := json.Unmarshal([]byte(extractJSONPayload(repaired)), &result); err != nil {
		log.Errorf("error: %v", err)
		return zero, meta, utils.WrapIfNotNil(err)
	}

	return result, meta, nil
}

func (g *structuredGenerator[T]) repairStructuredJSON(
	modelName string,
	schema map[string]any,
	rawOutput string,
) (string, error) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	messages := []ollamasdk.ChatMessage{
		{
			Role:    "system",
			Content: "You are a strict JSON formatter.",
		},
		{
			Role: "user",
			Content: "Reformat the following output into valid JSON matching this schema. Return only JSON.\n\n" +
				"Schema:\n" + string(schemaBytes) + "\n\n" +
				"Output:\n" + rawOutput,
		},
	}

	text, err := g.client.apiClient.Chat(modelName, messages)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return strings.TrimSpace(text), nil
}

func buildMessagesWithContext(prompt string, contexts []*model.PromptContext) []ollamasdk.ChatMessage {
	messages := make([]ollamasdk.ChatMessage, 0, len(contexts)+1)
	for _, contextItem := range contexts {
		if contextItem == nil {
			continue
		}

		content := strings.TrimSpace(contextItem.Content)
		if content == "" {
			continue
		}

		messages = append(messages, ollamasdk.ChatMessage{
			Role:    mapContextMessageRole(contextItem.MessageType),
			Content: content,
		})
	}

	messages = append(messages, ollamasdk.ChatMessage{
		Role:    "user",
		Content: prompt,
	})
	return messages
}

func mapContextMessageRole(messageType model.ContextMessageType) string {
	switch messageType {
	case model.ContextMessageTypeSystem:
		return "system"
	case model.ContextMessageTypeAssistant:
		return "assistant"
	default:
		return "user"
	}
}

func buildStructuredOutputInstruction(schema map[string]any) (string, error) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	return "Return ONLY valid JSON matching this schema. Do not include markdown fences.\n" + string(schemaBytes), nil
}

func extractJSONPayload(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

func generateJSONSchema[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var value T
	schema := reflector.Reflect(value)

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return schemaMap, nil
}
