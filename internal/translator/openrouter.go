package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/valpere/booktran/internal/postprocess"
)

var DefaultOpenRouterModels = []string{
	"google/gemini-2.5-flash-preview:free",
	"qwen/qwen2.5-72b-instruct:free",
	"mistralai/mistral-nemo:free",
	"meta-llama/llama-3.1-8b-instruct:free",
}

// defaultMaxTokens leaves room for a translated 25 000 byte chunk.
const defaultMaxTokens = 16384

// OpenRouterService talks to any OpenAI-compatible chat completions
// endpoint; OpenRouter is the default base URL.
type OpenRouterService struct {
	apiKey  string
	baseURL string
	models  []string
	client  *http.Client
}

func NewOpenRouterService(apiKey string, baseURL string, models []string) *OpenRouterService {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if len(models) == 0 {
		models = DefaultOpenRouterModels
	}
	return &OpenRouterService{
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

func (s *OpenRouterService) Name() string {
	return "openrouter"
}

func (s *OpenRouterService) getRandomModel() string {
	if len(s.models) == 0 {
		return DefaultOpenRouterModels[0]
	}
	return s.models[rand.Intn(len(s.models))]
}

func (s *OpenRouterService) SetModels(models []string) {
	if len(models) > 0 {
		s.models = models
	}
}

func (s *OpenRouterService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	apiKey := s.apiKey
	if apiKey == "" && cfg.APIKey != "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		return fail(result, &ServiceError{Service: s.Name(), Message: "API key required"})
	}

	model := cfg.Model
	if model == "" {
		model = s.getRandomModel()
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	openrouterReq := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": buildSystemPrompt(req)},
			{"role": "user", "content": req.Text},
		},
		"max_tokens": maxTokens,
	}

	jsonData, err := json.Marshal(openrouterReq)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to marshal request", Err: err})
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat/completions", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to create request", Err: err})
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	httpReq.Header.Set("HTTP-Referer", "https://booktran.local")
	httpReq.Header.Set("X-Title", "booktran")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: fmt.Sprintf("request failed: %v", err), Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := string(body)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return fail(result, &ServiceError{Service: s.Name(), StatusCode: resp.StatusCode, Message: msg})
	}

	var openrouterResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&openrouterResp); err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to decode response", Err: err})
	}

	if len(openrouterResp.Choices) == 0 {
		return fail(result, &ServiceError{Service: s.Name(), Message: "empty response from API"})
	}

	text := postprocess.Clean(openrouterResp.Choices[0].Message.Content)
	if text == "" {
		return fail(result, &ServiceError{Service: s.Name(), Message: "empty translation"})
	}

	result.TranslatedText = text
	result.Confidence = 0.7
	result.Metadata = map[string]string{
		"model":             model,
		"finish_reason":     openrouterResp.Choices[0].FinishReason,
		"prompt_tokens":     fmt.Sprintf("%d", openrouterResp.Usage.PromptTokens),
		"completion_tokens": fmt.Sprintf("%d", openrouterResp.Usage.CompletionTokens),
	}

	return result, nil
}

func (s *OpenRouterService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("OpenRouter API key not configured")
	}
	return nil
}

func (s *OpenRouterService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return commonLanguages, nil
}

func (s *OpenRouterService) GetModels() []string {
	return s.models
}
