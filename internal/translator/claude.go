package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/booktran/internal/postprocess"
)

const (
	DefaultClaudeModel = "claude-sonnet-4-5"
	claudeAPIVersion   = "2023-06-01"
)

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type claudeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ClaudeService translates through the Anthropic messages API.
type ClaudeService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewClaudeService(apiKey, baseURL, model string) *ClaudeService {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	if model == "" {
		model = DefaultClaudeModel
	}
	return &ClaudeService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

func (s *ClaudeService) Name() string {
	return "claude"
}

func (s *ClaudeService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	apiKey := s.apiKey
	if apiKey == "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		return fail(result, &ServiceError{Service: s.Name(), Message: "API key required"})
	}

	model := s.model
	if cfg.Model != "" {
		model = cfg.Model
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(claudeRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    buildSystemPrompt(req),
		Messages:  []claudeMessage{{Role: "user", Content: req.Text}},
	})
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to marshal request", Err: err})
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to create request", Err: err})
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", claudeAPIVersion)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: fmt.Sprintf("request failed: %v", err), Err: err})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to read response", Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var errResp claudeErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return fail(result, &ServiceError{Service: s.Name(), StatusCode: resp.StatusCode, Message: msg})
	}

	var cr claudeResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to decode response", Err: err})
	}

	var sb strings.Builder
	for _, c := range cr.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	text := postprocess.Clean(sb.String())
	if text == "" {
		return fail(result, &ServiceError{Service: s.Name(), Message: "empty response from API"})
	}

	result.TranslatedText = text
	result.Confidence = 0.8
	result.Metadata = map[string]string{
		"model":         model,
		"stop_reason":   cr.StopReason,
		"input_tokens":  fmt.Sprintf("%d", cr.Usage.InputTokens),
		"output_tokens": fmt.Sprintf("%d", cr.Usage.OutputTokens),
	}
	return result, nil
}

func (s *ClaudeService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("Claude API key not configured")
	}
	return nil
}

func (s *ClaudeService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return commonLanguages, nil
}
