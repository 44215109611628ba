package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is used when no model is configured for the provider.
const GoogleDefaultModel = "gemini-2.0-flash"

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider implements CoreLLM over Google's Gemini API.
type googleProvider struct {
	BaseProvider
	client          *genai.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

// newGoogleProvider validates the configuration, resolves authentication,
// and builds the provider.
func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	authConfig, err := buildAuthConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to configure authentication: %w", err)
	}

	client, err := genai.NewClient(context.Background(), authConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}

	return &googleProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          client,
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: "google"},
	}, nil
}

// DoRequest sends a content generation request and returns the response
// text together with the token usage reported in the metadata.
func (p *googleProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	contents := p.buildContents(prompt, options)
	config := p.buildGenerationConfig(options)

	resp, err := p.client.Models.GenerateContent(ctx, options.Model, contents, config)
	if err != nil {
		return "", 0, 0, p.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return "", 0, 0, ErrEmptyResponse
	}

	tokensIn := p.getTokenCount(resp.UsageMetadata, true, prompt)
	tokensOut := p.getTokenCount(resp.UsageMetadata, false, content)

	return content, tokensIn, tokensOut, nil
}

// getTokenCount reads the count from the usage metadata, estimating when
// the metadata is missing.
func (p *googleProvider) getTokenCount(usage *genai.GenerateContentResponseUsageMetadata, isInput bool, text string) int {
	if usage != nil {
		if isInput && usage.PromptTokenCount > 0 {
			return int(usage.PromptTokenCount)
		}
		if !isInput && usage.CandidatesTokenCount > 0 {
			return int(usage.CandidatesTokenCount)
		}
	}
	return p.tokenCounter.EstimateTokens(text)
}

// buildContents assembles the request content. Gemini has no separate
// system role, so the system instruction is prepended to the user prompt.
func (p *googleProvider) buildContents(prompt string, options RequestOptions) []*genai.Content {
	finalPrompt := prompt
	if options.System != "" {
		finalPrompt = fmt.Sprintf("System: %s\n\nUser: %s", options.System, prompt)
	}

	return []*genai.Content{
		genai.NewContentFromText(finalPrompt, genai.RoleUser),
	}
}

// buildGenerationConfig translates the standardized options into the
// Gemini generation configuration, including the JSON response MIME type
// used by schema-guided extraction.
func (p *googleProvider) buildGenerationConfig(options RequestOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if options.Temperature != nil {
		temp := ClampFloat64(*options.Temperature, 0.0, 2.0)
		config.Temperature = genai.Ptr(float32(temp))
	}

	if options.MaxTokens > 0 {
		if options.MaxTokens > math.MaxInt32 {
			config.MaxOutputTokens = math.MaxInt32
		} else {
			config.MaxOutputTokens = int32(options.MaxTokens)
		}
	}

	if options.TopP != nil {
		topP := ClampFloat64(*options.TopP, 0.0, 1.0)
		config.TopP = genai.Ptr(float32(topP))
	}

	if options.JSONResponse {
		config.ResponseMIMEType = "application/json"
	}

	if topK, ok := options.Extra["top_k"].(int); ok {
		// Gemini supports top_k between 1 and 40.
		topK = ClampInt(topK, 1, 40)
		config.TopK = genai.Ptr(float32(topK))
	}

	return config
}

// handleError classifies API and context failures into ProviderError
// values, with a dedicated category for safety-filter blocks.
func (p *googleProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}

		if containsContentPolicyError(apiErr) {
			return NewProviderError("google", ErrorTypeContentPolicy, apiErr.Code,
				"request blocked by safety filters", err)
		}

		return p.errorClassifier.ClassifyHTTPError(apiErr.Code, message, err)
	}

	return NewProviderError("google", ErrorTypeUnknown, 0, "request failed", err)
}

// buildAuthConfig resolves the authentication mode. An APIKey that looks
// like a file path is treated as service-account credentials, which are
// not supported here.
func buildAuthConfig(config ClientConfig) (*genai.ClientConfig, error) {
	if looksLikeFilePath(config.APIKey) {
		if !fileExists(config.APIKey) {
			return nil, fmt.Errorf("credentials file not found: %s", config.APIKey)
		}
		return nil, fmt.Errorf("service account authentication requires additional configuration. " +
			"Please use API key authentication or set GOOGLE_APPLICATION_CREDENTIALS environment variable")
	}

	return &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}, nil
}

// looksLikeFilePath reports whether a string appears to reference a
// credentials file rather than a raw API key.
func looksLikeFilePath(s string) bool {
	if filepath.IsAbs(s) {
		return true
	}
	if strings.Contains(s, "/") || strings.Contains(s, "\\") {
		return true
	}

	lower := strings.ToLower(s)
	return strings.HasSuffix(lower, ".json") ||
		strings.HasSuffix(lower, ".p12") ||
		strings.HasSuffix(lower, ".pem") ||
		strings.Contains(lower, "credentials")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// containsContentPolicyError reports whether a Google API error was caused
// by a safety or content policy block.
func containsContentPolicyError(apiErr *googleapi.Error) bool {
	if apiErr.Message != "" {
		lower := strings.ToLower(apiErr.Message)
		if strings.Contains(lower, "safety") ||
			strings.Contains(lower, "policy") ||
			strings.Contains(lower, "blocked") {
			return true
		}
	}

	for _, e := range apiErr.Errors {
		if e.Reason == "SAFETY" || e.Reason == "BLOCKED" {
			return true
		}
	}

	return false
}
