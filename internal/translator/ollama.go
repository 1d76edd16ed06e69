package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/valpere/booktran/internal/postprocess"
)

var DefaultOllamaModels = []string{
	"gemma2:27b",
	"aya:35b",
	"qwen3:14b",
	"llama3.1:8b",
	"mistral:7b",
}

type OllamaTranslator struct {
	baseURL string
	models  []string
	client  *http.Client
}

func NewOllamaTranslator(baseURL string, models []string) *OllamaTranslator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if len(models) == 0 {
		models = DefaultOllamaModels
	}
	return &OllamaTranslator{
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: 600 * time.Second},
	}
}

func (s *OllamaTranslator) Name() string {
	return "ollama"
}

func (s *OllamaTranslator) getRandomModel() string {
	if len(s.models) == 0 {
		return DefaultOllamaModels[0]
	}
	return s.models[rand.Intn(len(s.models))]
}

func (s *OllamaTranslator) SetModels(models []string) {
	if len(models) > 0 {
		s.models = models
	}
}

func (s *OllamaTranslator) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	model := cfg.Model
	if model == "" {
		model = s.getRandomModel()
	}

	ollamaReq := map[string]interface{}{
		"model":  model,
		"system": buildSystemPrompt(req),
		"prompt": req.Text,
		"stream": false,
	}

	jsonData, err := json.Marshal(ollamaReq)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to marshal request", Err: err})
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/generate", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to create request", Err: err})
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: fmt.Sprintf("request failed: %v", err), Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(result, &ServiceError{Service: s.Name(), StatusCode: resp.StatusCode, Message: "API returned an error"})
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to decode response", Err: err})
	}

	text := postprocess.Clean(ollamaResp.Response)
	if text == "" {
		return fail(result, &ServiceError{Service: s.Name(), Message: "empty translation"})
	}

	result.TranslatedText = text
	result.Confidence = 0.7
	result.Metadata = map[string]string{"model": model}

	return result, nil
}

func (s *OllamaTranslator) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/tags", s.baseURL), nil)
	if err != nil {
		return fmt.Errorf("Ollama not available: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama not available: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *OllamaTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return commonLanguages, nil
}

func (s *OllamaTranslator) GetModels() []string {
	return s.models
}
