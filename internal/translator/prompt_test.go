package translator

import (
	"strings"
	"testing"
)

func TestBuildSystemPrompt(t *testing.T) {
	tests := []struct {
		name     string
		req      TranslateRequest
		contains []string
		absent   []string
	}{
		{
			name:     "auto source",
			req:      TranslateRequest{SourceLang: "auto", TargetLang: "uk"},
			contains: []string{"from the detected language to uk"},
			absent:   []string{"CONTEXT", "TERMINOLOGY", "continues a chapter"},
		},
		{
			name:     "first chunk names the chapter",
			req:      TranslateRequest{SourceLang: "en", TargetLang: "uk", ChapterTitle: "The Road"},
			contains: []string{`starts the chapter "The Road"`},
			absent:   []string{"continues a chapter"},
		},
		{
			name:     "continuation with context",
			req:      TranslateRequest{SourceLang: "en", TargetLang: "uk", IsContinuation: true, PreviousContext: "Вони заснули."},
			contains: []string{"continues a chapter", "CONTEXT", "...Вони заснули."},
		},
		{
			name:     "glossary and instructions",
			req:      TranslateRequest{SourceLang: "en", TargetLang: "uk", GlossaryTerms: map[string]string{"Shire": "Шир", "Bag End": "Торба"}, Instructions: "Use formal register."},
			contains: []string{"TERMINOLOGY", "  Bag End → Торба\n  Shire → Шир", "Use formal register."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSystemPrompt(tt.req)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("prompt should contain %q:\n%s", s, got)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(got, s) {
					t.Errorf("prompt should not contain %q:\n%s", s, got)
				}
			}
		})
	}
}
