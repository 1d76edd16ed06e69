package translator

import (
	"context"
	"time"
)

type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
	MaxTokens   int           `mapstructure:"max_tokens" json:"max_tokens"`
}

// TranslateRequest is one chunk of a book sent to a service.
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`

	// PreviousContext is the tail of the most recent translation, given to
	// LLM services for continuity. It must not be translated again.
	PreviousContext string `json:"previous_context,omitempty"`
	// IsContinuation marks every chunk of a chapter except the first.
	IsContinuation bool   `json:"is_continuation,omitempty"`
	ChapterTitle   string `json:"chapter_title,omitempty"`

	GlossaryTerms map[string]string `json:"glossary_terms,omitempty"`
	Instructions  string            `json:"instructions,omitempty"`
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Confidence     float64           `json:"confidence"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

type TranslationService interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// commonLanguages is reported by the LLM services, which accept any
// language they were trained on.
var commonLanguages = []string{"en", "es", "fr", "de", "it", "pt", "pl", "ru", "zh", "ja", "ko", "ar", "uk"}
