package translator

import (
	"fmt"
	"sort"
)

// Options carries the CLI/config values needed to build any service.
type Options struct {
	APIKey      string
	BaseURL     string
	Models      []string
	Credentials string
}

type factory func(opts Options) TranslationService

var registry = map[string]factory{
	"openrouter": func(o Options) TranslationService {
		return NewOpenRouterService(o.APIKey, o.BaseURL, o.Models)
	},
	"openai": func(o Options) TranslationService {
		baseURL := o.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		models := o.Models
		if len(models) == 0 {
			models = []string{"gpt-4o-mini"}
		}
		return NewOpenRouterService(o.APIKey, baseURL, models)
	},
	"claude": func(o Options) TranslationService {
		model := ""
		if len(o.Models) > 0 {
			model = o.Models[0]
		}
		return NewClaudeService(o.APIKey, o.BaseURL, model)
	},
	"ollama": func(o Options) TranslationService {
		return NewOllamaTranslator(o.BaseURL, o.Models)
	},
	"google": func(o Options) TranslationService {
		return NewGoogleService(o.Credentials)
	},
	"systran": func(o Options) TranslationService {
		return NewSystranService(o.APIKey, o.BaseURL)
	},
}

// Names lists the registered service names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the service registered under name.
func New(name string, opts Options) (TranslationService, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown service %q (available: %v)", name, Names())
	}
	return f(opts), nil
}
