package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/voicelayer-ai/suhbat/pkg/logging"
	"github.com/voicelayer-ai/suhbat/pkg/model"
	"github.com/voicelayer-ai/suhbat/pkg/utils"
)

// NewStringContentGenerator creates a generator producing plain text from the
// Responses API. The prompt is the user message; system instructions are
// attached through AddPromptContext.
func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if prompt == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	cfg := model.ResolveGeneratorOpts(opts...)
	return &textGenerator{client: newClient(cfg), prompt: prompt, cfg: cfg}, nil
}

// NewStructureContentGenerator creates a generator that constrains the model
// to a JSON schema derived from T and unmarshals the output into T.
func NewStructureContentGenerator[T any](prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[T], error) {
	if prompt == "" {
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
	logging.NewLogger(ctx).Debugf("openai.textGenerator.AddPromptContext total_contexts=%d", len(g.promptContexts))
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	meta := initMetadata(resolveCompletionModelName(g.cfg))
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	inputItems, contextCount := buildInputItemsWithContext(g.prompt, g.snapshotContexts())
	log.Infof(
		"completion_request model=%q context_count=%d temperature=%v max_tokens=%v",
		resolveCompletionModelName(g.cfg), contextCount, g.cfg.Temperature, g.cfg.MaxTokens,
	)

	response, err := g.client.runResponses(ctx, inputItems, g.cfg, nil)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyResponseMetadata(meta, response)

	output := strings.TrimSpace(response.OutputText())
	if output == "" {
		err = errors.New("response output is empty")
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
	logging.NewLogger(ctx).Debugf("openai.structuredGenerator.AddPromptContext total_contexts=%d", len(g.promptContexts))
}

func (g *structuredGenerator[T]) Generate(ctx context.Context) (T, model.GenerationMetadata, error) {
	start := time.Now()
	meta := initMetadata(resolveCompletionModelName(g.cfg))
	defer setLatencyMetadata(meta, start)

	var zero T
	log := logging.NewLogger(ctx)

	schema, err := generateSchema[T]()
	if err != nil {
		log.Errorf("error: %v", err)
		return zero, meta, utils.WrapIfNotNil(err)
	}

	textCfg := responses.ResponseTextConfigParam{
		Format: responses.ResponseFormatTextConfigUnionParam{
			OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
				Name:   "structured_output",
				Schema: schema,
				Strict: openai.Bool(true),
			},
		},
	}

	g.promptContextMu.RLock()
	contexts := append([]*model.PromptContext(nil), g.promptContexts...)
	g.promptContextMu.RUnlock()

	inputItems, contextCount := buildInputItemsWithContext(g.prompt, contexts)
	log.Infof(
		"structured_completion_request model=%q context_count=%d temperature=%v",
		resolveCompletionModelName(g.cfg), contextCount, g.cfg.Temperature,
	)

	response, err := g.client.runResponses(ctx, inputItems, g.cfg, &textCfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return zero, meta, utils.WrapIfNotNil(err)
	}
	applyResponseMetadata(meta, response)

	output := strings.TrimSpace(response.OutputText())
	if output == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return zero, meta, utils.WrapIfNotNil(err)
	}

	var result T
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		log.Errorf("error: %v", err)
		return zero, meta, utils.WrapIfNotNil(err)
	}

	return result, meta, nil
}

func (c *client) runResponses(
	ctx context.Context,
	inputItems responses.ResponseInputParam,
	cfg model.GeneratorConfig,
	textCfg *responses.ResponseTextConfigParam,
) (*responses.Response, error) {
	modelName := resolveCompletionModelName(cfg)

	params := responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Model: shared.ResponsesModel(modelName),
	}
	if cfg.Temperature != nil && !isReasoningModel(modelName) {
		params.Temperature = openai.Float(*cfg.Temperature)
	}
	if cfg.MaxTokens != nil {
		params.MaxOutputTokens = openai.Int(int64(*cfg.MaxTokens))
	}
	if textCfg != nil {
		params.Text = *textCfg
	}

	response, err := c.apiClient.Responses.New(ctx, params)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	if response == nil {
		return nil, utils.WrapIfNotNil(errors.New("responses API returned nil response"))
	}

	return response, nil
}

func buildInputItemsWithContext(prompt string, contexts []*model.PromptContext) (responses.ResponseInputParam, int) {
	items := make(responses.ResponseInputParam, 0, len(contexts)+1)
	contextCount := 0
	for _, contextItem := range contexts {
		if contextItem == nil {
			continue
		}

		content := strings.TrimSpace(contextItem.Content)
		if content == "" {
			continue
		}

		contextCount++
		items = append(
			items,
			responses.ResponseInputItemParamOfMessage(content, mapContextMessageRole(contextItem.MessageType)),
		)
	}

	items = append(
		items,
		responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
	)
	return items, contextCount
}

func mapContextMessageRole(messageType model.ContextMessageType) responses.EasyInputMessageRole {
	switch messageType {
	case model.ContextMessageTypeSystem:
		return responses.EasyInputMessageRoleSystem
	case model.ContextMessageTypeAssistant:
		return responses.EasyInputMessageRoleAssistant
	default:
		return responses.EasyInputMessageRoleUser
	}
}

func applyResponseMetadata(meta model.GenerationMetadata, response *responses.Response) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)
	if response.ID != "" {
		meta[model.MetadataKeyResponseID] = response.ID
	}
}

func generateSchema[T any]() (map[string]any, error) {
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
