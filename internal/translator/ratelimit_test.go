package translator

import (
	"context"
	"testing"
	"time"
)

type countingService struct {
	calls int
}

func (c *countingService) Name() string { return "counting" }

func (c *countingService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	c.calls++
	return &ServiceResult{ServiceName: c.Name(), TranslatedText: req.Text}, nil
}

func (c *countingService) IsAvailable(ctx context.Context) error { return nil }

func (c *countingService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"en"}, nil
}

func TestNewRateLimited_Disabled(t *testing.T) {
	svc := &countingService{}
	if got := NewRateLimited(svc, 0); got != TranslationService(svc) {
		t.Error("expected the service itself when rpm is 0")
	}
}

func TestRateLimited_Translate(t *testing.T) {
	svc := &countingService{}
	limited := NewRateLimited(svc, 60)

	if limited.Name() != "counting" {
		t.Errorf("expected wrapped name, got %q", limited.Name())
	}

	// First call uses the burst token.
	if _, err := limited.Translate(context.Background(), ServiceConfig{}, TranslateRequest{Text: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The second call would wait about a second; a short deadline fails it.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	result, err := limited.Translate(ctx, ServiceConfig{}, TranslateRequest{Text: "b"})
	if err == nil {
		t.Fatal("expected rate limit wait to fail on deadline")
	}
	if result == nil || result.Error == "" {
		t.Error("expected error recorded on result")
	}
	if svc.calls != 1 {
		t.Errorf("expected 1 call to reach the service, got %d", svc.calls)
	}
}
