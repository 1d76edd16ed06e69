package translator

import (
	"context"
	"fmt"
	"html"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService uses Google Cloud Translation. It is a plain MT engine, so
// the continuity context and glossary in the request are ignored.
type GoogleService struct {
	credentials string
}

func NewGoogleService(credentials string) *GoogleService {
	return &GoogleService{credentials: credentials}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) clientOptions(cfg ServiceConfig) []option.ClientOption {
	var opts []option.ClientOption
	credentials := s.credentials
	if cfg.Credentials != "" {
		credentials = cfg.Credentials
	}
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return opts
}

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetLangTag, err := language.Parse(req.TargetLang)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: fmt.Sprintf("invalid target language %q", req.TargetLang), Err: err})
	}

	client, err := translate.NewClient(ctx, s.clientOptions(cfg)...)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: "failed to create client", Err: err})
	}
	defer client.Close()

	opts := &translate.Options{Format: translate.Text}
	if req.SourceLang != "" && req.SourceLang != "auto" {
		if sourceLangTag, err := language.Parse(req.SourceLang); err == nil {
			opts.Source = sourceLangTag
		}
	}

	translations, err := client.Translate(ctx, []string{req.Text}, targetLangTag, opts)
	if err != nil {
		return fail(result, &ServiceError{Service: s.Name(), Message: fmt.Sprintf("translation failed: %v", err), Err: err})
	}

	if len(translations) == 0 {
		return fail(result, &ServiceError{Service: s.Name(), Message: "no translation returned"})
	}

	result.TranslatedText = html.UnescapeString(translations[0].Text)
	result.Confidence = 1.0
	if translations[0].Source != language.Und {
		result.Metadata = map[string]string{"detected_source": translations[0].Source.String()}
	}

	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *GoogleService) SupportedLanguages(ctx context.Context) ([]string, error) {
	client, err := translate.NewClient(ctx, s.clientOptions(ServiceConfig{})...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	langs, err := client.SupportedLanguages(ctx, language.English)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, l.Tag.String())
	}
	return codes, nil
}
