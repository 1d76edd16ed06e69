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
)

const systranHost = "api-systran-systran-translation-v1.p.rapidapi.com"

// SystranService translates through the Systran API published on RapidAPI.
// It is plain machine translation: context, glossary and instructions in
// the request are not used.
type SystranService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSystranService(apiKey, baseURL string) *SystranService {
	if baseURL == "" {
		baseURL = "https://" + systranHost
	}
	return &SystranService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *SystranService) Name() string {
	return "systran"
}

func (s *SystranService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
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

	jsonData, err := json.Marshal(map[string]any{
		"text":   []string{req.Text},
		"source": req.SourceLang,
		"target": req.TargetLang,
		"format": "text",
	})
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to marshal request", Err: err})
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/translation/text/translate", bytes.NewBuffer(jsonData))
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to create request", Err: err})
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-RapidAPI-Key", apiKey)
	httpReq.Header.Set("X-RapidAPI-Host", systranHost)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "request failed", Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fail(result, &ServiceError{Service: s.Name(), StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))})
	}

	var systranResp struct {
		Outputs []struct {
			Output string `json:"output"`
			Error  string `json:"error"`
		} `json:"outputs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&systranResp); err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to decode response", Err: err})
	}

	if len(systranResp.Outputs) == 0 {
		return fail(result, &ServiceError{Service: s.Name(), Message: "empty translation response"})
	}
	out := systranResp.Outputs[0]
	if out.Error != "" {
		return fail(result, &ServiceError{Service: s.Name(), Message: out.Error})
	}
	if strings.TrimSpace(out.Output) == "" {
		return fail(result, &ServiceError{Service: s.Name(), Message: "empty translation response"})
	}

	result.TranslatedText = out.Output
	result.Confidence = 1.0
	return result, nil
}

func (s *SystranService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("systran API key not configured")
	}
	return nil
}

func (s *SystranService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"en", "fr", "es", "de", "it", "pt", "ru", "zh", "ja", "ko", "ar"}, nil
}
