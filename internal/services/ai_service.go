package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"wastereport/internal/config"
	"wastereport/internal/models"
	"wastereport/internal/observability"
	contextutils "wastereport/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AIGateway is the external image and text analysis capability
type AIGateway interface {
	ClassifyWaste(ctx context.Context, image string) (*models.WasteClassification, error)
	ClassifyDeadAnimal(ctx context.Context, image string) (*models.DeadAnimalClassification, error)
	VerifyCleanup(ctx context.Context, beforeImage, afterImage string) (*models.CleanupVerification, error)
	Converse(ctx context.Context, message string, history []models.ChatTurn) (string, error)
}

// AI capability names used for spans and metrics
const (
	capabilityClassifyWaste      = "classify_waste"
	capabilityClassifyDeadAnimal = "classify_dead_animal"
	capabilityVerifyCleanup      = "verify_cleanup"
	capabilityConverse           = "converse"
)

const (
	defaultImageMimePrefix = "data:image/jpeg;base64,"
	maxAIResponseBytes     = 1 << 20
)

// OpenAIRequest represents a request to the OpenAI-compatible API
type OpenAIRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat asks the provider for a JSON object reply
type ResponseFormat struct {
	Type string `json:"type"`
}

// Message represents a chat message in the API request. Content is a string or a list of ContentPart.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart is one element of a multimodal message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an inline data URL
type ImageURL struct {
	URL string `json:"url"`
}

// OpenAIResponse represents a response from the OpenAI-compatible API
type OpenAIResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

// Choice represents a choice in the API response
type Choice struct {
	Message ResponseMessage `json:"message"`
}

// ResponseMessage is the assistant message returned by the API
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIError represents an error response from the API
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// AIService talks to an OpenAI-compatible chat completions endpoint
type AIService struct {
	httpClient *http.Client
	cfg        config.AIConfig
	templates  *AITemplateManager
	persona    string
	metrics    *observability.Metrics
	logger     *observability.Logger
}

var _ AIGateway = (*AIService)(nil)

// NewAIService creates a new AI service instance
func NewAIService(cfg config.AIConfig, metrics *observability.Metrics, logger *observability.Logger) (*AIService, error) {
	templates, err := NewAITemplateManager()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load AI templates")
	}

	persona, err := templates.RenderTemplate(AssistantPersonaTemplate, DefaultAITemplateData)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = config.AIRequestTimeout
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultAIModel
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	httpClient := &http.Client{
		// backstop for the per-call deadline
		Timeout: cfg.Timeout + 5*time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	if cfg.BaseURL != "" {
		logger.Info(context.Background(), "AI gateway configured", map[string]interface{}{
			"base_url": cfg.BaseURL,
			"model":    cfg.Model,
			"api_key":  contextutils.MaskSecret(cfg.APIKey),
			"timeout":  cfg.Timeout.String(),
		})
	}

	return &AIService{
		httpClient: httpClient,
		cfg:        cfg,
		templates:  templates,
		persona:    persona,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// IsEnabled reports whether a provider endpoint is configured
func (s *AIService) IsEnabled() bool {
	return s.cfg.Enabled()
}

// ClassifyWaste asks whether the photo shows waste and how urgent the cleanup is
func (s *AIService) ClassifyWaste(ctx context.Context, image string) (result0 *models.WasteClassification, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "classify_waste", observability.AttributeAICapability(capabilityClassifyWaste))
	defer observability.FinishSpan(span, &err)
	defer func() { s.recordOutcome(ctx, capabilityClassifyWaste, err) }()

	result := &models.WasteClassification{}
	if err := s.analyzeImages(ctx, ClassifyWastePromptTemplate, WasteClassificationSchema, result, image); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("ai.is_waste", result.IsWaste), attribute.Float64("ai.confidence", result.Confidence))
	return result, nil
}

// ClassifyDeadAnimal asks whether the photo shows a dead animal
func (s *AIService) ClassifyDeadAnimal(ctx context.Context, image string) (result0 *models.DeadAnimalClassification, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "classify_dead_animal", observability.AttributeAICapability(capabilityClassifyDeadAnimal))
	defer observability.FinishSpan(span, &err)
	defer func() { s.recordOutcome(ctx, capabilityClassifyDeadAnimal, err) }()

	result := &models.DeadAnimalClassification{}
	if err := s.analyzeImages(ctx, ClassifyDeadAnimalPromptTemplate, DeadAnimalClassificationSchema, result, image); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("ai.is_dead_animal", result.IsDeadAnimal), attribute.Float64("ai.confidence", result.Confidence))
	return result, nil
}

// VerifyCleanup compares the before and after photos
func (s *AIService) VerifyCleanup(ctx context.Context, beforeImage, afterImage string) (result0 *models.CleanupVerification, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "verify_cleanup", observability.AttributeAICapability(capabilityVerifyCleanup))
	defer observability.FinishSpan(span, &err)
	defer func() { s.recordOutcome(ctx, capabilityVerifyCleanup, err) }()

	result := &models.CleanupVerification{}
	if err := s.analyzeImages(ctx, VerifyCleanupPromptTemplate, CleanupVerificationSchema, result, beforeImage, afterImage); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("ai.verified", result.Verified), attribute.Float64("ai.score", result.Score))
	return result, nil
}

// Converse answers a citizen's question as the assistant persona. History is supplied by the
// caller on every call; turns with an unknown role or no content are dropped.
func (s *AIService) Converse(ctx context.Context, message string, history []models.ChatTurn) (result0 string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "converse",
		observability.AttributeAICapability(capabilityConverse),
		attribute.Int("chat.history_length", len(history)),
	)
	defer observability.FinishSpan(span, &err)
	defer func() { s.recordOutcome(ctx, capabilityConverse, err) }()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", contextutils.WrapError(contextutils.ErrValidationFailed, "message is required")
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: s.persona})
	for _, turn := range history {
		if !turn.Role.IsValid() || strings.TrimSpace(turn.Content) == "" {
			continue
		}
		messages = append(messages, Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, Message{Role: string(models.ChatRoleUser), Content: message})

	reply, err := s.callChatCompletions(ctx, OpenAIRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// analyzeImages sends the prompt plus images and decodes the schema-validated JSON reply into out
func (s *AIService) analyzeImages(ctx context.Context, promptTemplate, schemaName string, out interface{}, images ...string) error {
	prompt, err := s.templates.RenderTemplate(promptTemplate, DefaultAITemplateData)
	if err != nil {
		return err
	}

	parts := []ContentPart{{Type: "text", Text: prompt}}
	for _, image := range images {
		dataURL, err := toImageDataURL(image)
		if err != nil {
			return err
		}
		parts = append(parts, ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}})
	}

	content, err := s.callChatCompletions(ctx, OpenAIRequest{
		Model:          s.cfg.Model,
		Messages:       []Message{{Role: "user", Content: parts}},
		Temperature:    0.2,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return err
	}

	return s.decodeValidated(ctx, schemaName, content, out)
}

// toImageDataURL forwards data URLs verbatim and wraps bare base64 as a JPEG data URL
func toImageDataURL(image string) (string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return "", contextutils.WrapError(contextutils.ErrValidationFailed, "image is required")
	}
	if strings.HasPrefix(image, "data:") {
		return image, nil
	}
	return defaultImageMimePrefix + image, nil
}

// decodeValidated checks the reply against the named JSON schema before decoding it
func (s *AIService) decodeValidated(ctx context.Context, schemaName, content string, out interface{}) error {
	cleaned := cleanJSONResponse(content)

	schema, err := s.templates.LoadSchema(schemaName)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "AI response is not valid JSON: %v", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		s.logger.Warn(ctx, "AI response failed schema validation", map[string]interface{}{
			"schema": schemaName,
			"errors": problems,
		})
		return contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "AI response does not match %s: %s", schemaName, strings.Join(problems, "; "))
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to decode AI response: %v", err)
	}
	return nil
}

// cleanJSONResponse extracts JSON from markdown code blocks or returns the original response
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimSuffix(response, "```")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
	}

	return strings.TrimSpace(response)
}

// callChatCompletions posts the request under the configured timeout and returns the first choice
func (s *AIService) callChatCompletions(ctx context.Context, reqBody OpenAIRequest) (result0 string, err error) {
	if !s.cfg.Enabled() {
		return "", contextutils.WrapError(contextutils.ErrAIProviderUnavailable, "AI base URL is not configured")
	}

	ctx, span := observability.TraceAIFunction(ctx, "call_chat_completions",
		attribute.String("ai.model", reqBody.Model),
		attribute.Int("ai.messages", len(reqBody.Messages)),
	)
	defer observability.FinishSpan(span, &err)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", contextutils.WrapErrorf(err, "failed to marshal request body")
	}

	apiURL := s.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "wastereport/1.0")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	startTime := time.Now()
	resp, err := s.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", contextutils.WrapErrorf(contextutils.ErrTimeout, "AI request timed out after %v", duration)
		}
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "HTTP request failed after %v: %v", duration, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	s.logger.Debug(ctx, "AI request completed", map[string]interface{}{
		"duration":    duration.String(),
		"status_code": resp.StatusCode,
		"model":       reqBody.Model,
	})

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAIResponseBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return "", contextutils.WrapErrorf(contextutils.ErrTimeout, "AI response timed out after %v", time.Since(startTime))
		}
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "failed to read response body: %v", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API request failed with status %d: %s", resp.StatusCode, truncate(string(body), 512))
	}

	var openAIResp OpenAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to parse AI response as JSON: %v", err)
	}
	if openAIResp.Error != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "AI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "no choices in AI response")
	}

	content := openAIResp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "AI returned empty content")
	}
	return content, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// recordOutcome counts the call by capability and coarse result
func (s *AIService) recordOutcome(ctx context.Context, capability string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case contextutils.IsError(err, contextutils.ErrAIProviderUnavailable):
		outcome = "unavailable"
	case contextutils.IsError(err, contextutils.ErrTimeout):
		outcome = "timeout"
	case contextutils.IsError(err, contextutils.ErrValidationFailed):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	s.metrics.AIRequest(ctx, capability, outcome)
}
