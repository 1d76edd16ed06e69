// Package config loads booktran settings from defaults, an optional config
// file, BOOKTRAN_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/valpere/booktran/internal/chunker"
	"github.com/valpere/booktran/internal/orchestrator"
	"github.com/valpere/booktran/internal/segmenter"
	"github.com/valpere/booktran/internal/stitcher"
	"github.com/valpere/booktran/internal/translator"
)

const (
	EnvPrefix = "BOOKTRAN"

	// AutoLanguage asks for the source language to be detected.
	AutoLanguage = "auto"
)

type Config struct {
	Service     ServiceConfig     `mapstructure:"service"`
	Translation TranslationConfig `mapstructure:"translation"`
	Chunking    ChunkingConfig    `mapstructure:"chunking"`
	Stitching   StitchingConfig   `mapstructure:"stitching"`
	Segmenting  SegmentingConfig  `mapstructure:"segmenting"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Output      OutputConfig      `mapstructure:"output"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServiceConfig struct {
	Name        string        `mapstructure:"name" validate:"required,service"`
	Model       string        `mapstructure:"model"`
	Models      []string      `mapstructure:"models"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Credentials string        `mapstructure:"credentials"`
	ProjectID   string        `mapstructure:"project_id"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=0"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RPM         int           `mapstructure:"rpm" validate:"gte=0"`
}

type TranslationConfig struct {
	SourceLang     string        `mapstructure:"source_lang" validate:"required,langtag"`
	TargetLang     string        `mapstructure:"target_lang" validate:"omitempty,langtag"`
	Instructions   string        `mapstructure:"instructions"`
	MaxAttempts    int           `mapstructure:"max_attempts" validate:"gte=1"`
	RetryDelay     time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	ChunkDelay     time.Duration `mapstructure:"chunk_delay" validate:"gte=0"`
	ChapterDelay   time.Duration `mapstructure:"chapter_delay" validate:"gte=0"`
	ContextChars   int           `mapstructure:"context_chars" validate:"gte=0"`
	ValidateOutput bool          `mapstructure:"validate_output"`
}

type ChunkingConfig struct {
	MaxSize             int `mapstructure:"max_size" validate:"gt=0"`
	Overlap             int `mapstructure:"overlap" validate:"gte=0,ltfield=MaxSize"`
	SearchRadius        int `mapstructure:"search_radius" validate:"gt=0"`
	OverlapSearchRadius int `mapstructure:"overlap_search_radius" validate:"gt=0"`
}

type StitchingConfig struct {
	TailChars     int     `mapstructure:"tail_chars" validate:"gt=0"`
	TailSentences int     `mapstructure:"tail_sentences" validate:"gt=0"`
	ScanSentences int     `mapstructure:"scan_sentences" validate:"gt=0"`
	ProbeChars    int     `mapstructure:"probe_chars" validate:"gt=0"`
	MinProbeChars int     `mapstructure:"min_probe_chars" validate:"gt=0,ltefield=ProbeChars"`
	FallbackRatio float64 `mapstructure:"fallback_ratio" validate:"gt=0"`
	FallbackCap   float64 `mapstructure:"fallback_cap" validate:"gt=0,lte=1"`
}

type SegmentingConfig struct {
	MinContent  int `mapstructure:"min_content" validate:"gte=0"`
	SectionSize int `mapstructure:"section_size" validate:"gt=0"`
}

type StorageConfig struct {
	DBPath  string `mapstructure:"db"`
	NoCache bool   `mapstructure:"no_cache"`
}

type OutputConfig struct {
	Dir  string `mapstructure:"dir"`
	HTML bool   `mapstructure:"html"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// SetDefaults registers every key with its default. Keys unknown to viper
// are invisible to environment lookups, so all of them are listed here.
func SetDefaults(v *viper.Viper) {
	stitch := stitcher.DefaultConfig(chunker.DefaultOverlapSize)

	v.SetDefault("service.name", "openrouter")
	v.SetDefault("service.model", "")
	v.SetDefault("service.models", []string{})
	v.SetDefault("service.api_key", "")
	v.SetDefault("service.base_url", "")
	v.SetDefault("service.credentials", "")
	v.SetDefault("service.project_id", "")
	v.SetDefault("service.max_tokens", 0)
	v.SetDefault("service.timeout", 5*time.Minute)
	v.SetDefault("service.rpm", 0)

	v.SetDefault("translation.source_lang", AutoLanguage)
	v.SetDefault("translation.target_lang", "")
	v.SetDefault("translation.instructions", "")
	v.SetDefault("translation.max_attempts", 3)
	v.SetDefault("translation.retry_delay", 5*time.Second)
	v.SetDefault("translation.chunk_delay", 2*time.Second)
	v.SetDefault("translation.chapter_delay", 5*time.Second)
	v.SetDefault("translation.context_chars", chunker.DefaultContextChars)
	v.SetDefault("translation.validate_output", false)

	v.SetDefault("chunking.max_size", chunker.DefaultMaxChunkSize)
	v.SetDefault("chunking.overlap", chunker.DefaultOverlapSize)
	v.SetDefault("chunking.search_radius", chunker.DefaultSearchRadius)
	v.SetDefault("chunking.overlap_search_radius", chunker.DefaultOverlapSearchRadius)

	v.SetDefault("stitching.tail_chars", stitch.TailChars)
	v.SetDefault("stitching.tail_sentences", stitch.TailSentences)
	v.SetDefault("stitching.scan_sentences", stitch.ScanSentences)
	v.SetDefault("stitching.probe_chars", stitch.ProbeChars)
	v.SetDefault("stitching.min_probe_chars", stitch.MinProbeChars)
	v.SetDefault("stitching.fallback_ratio", stitch.FallbackRatio)
	v.SetDefault("stitching.fallback_cap", stitch.FallbackCap)

	v.SetDefault("segmenting.min_content", segmenter.DefaultMinContent)
	v.SetDefault("segmenting.section_size", segmenter.DefaultSectionSize)

	v.SetDefault("storage.db", "./data/booktran.db")
	v.SetDefault("storage.no_cache", false)

	v.SetDefault("output.dir", "./translated")
	v.SetDefault("output.html", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration into a Config and validates it. file may name a
// YAML, TOML or JSON file; when empty, $HOME/.booktran.* and ./.booktran.*
// are tried and their absence is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".booktran")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Service.APIKey = resolveAPIKey(cfg.Service.Name, cfg.Service.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// providerKeyEnv holds the conventional API key variable of each provider,
// consulted when no key is configured.
var providerKeyEnv = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"claude":     "ANTHROPIC_API_KEY",
	"systran":    "SYSTRAN_API_KEY",
}

func resolveAPIKey(service, key string) string {
	if key != "" {
		return key
	}
	if env, ok := providerKeyEnv[service]; ok {
		return os.Getenv(env)
	}
	return ""
}

// ConfigFileUsed reports which config file was read, if any.
func ConfigFileUsed(v *viper.Viper) string {
	if f := v.ConfigFileUsed(); f != "" {
		return filepath.Clean(f)
	}
	return ""
}

// ValidationError lists every invalid setting by its config key.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("mapstructure"); name != "" {
			return name
		}
		return fld.Name
	})
	_ = v.RegisterValidation("service", func(fl validator.FieldLevel) bool {
		return slices.Contains(translator.Names(), fl.Field().String())
	})
	_ = v.RegisterValidation("langtag", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == AutoLanguage {
			return true
		}
		_, err := language.Parse(s)
		return err == nil
	})
	return v
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, e := range fieldErrs {
		key := strings.TrimPrefix(e.Namespace(), "Config.")
		out.Fields[key] = friendlyMessage(e)
	}
	return out
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "lte":
		return "must not exceed " + e.Param()
	case "ltfield":
		return "must be smaller than " + e.Param()
	case "ltefield":
		return "must not exceed " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "url":
		return "must be a valid URL"
	case "service":
		return fmt.Sprintf("must be one of: %s", strings.Join(translator.Names(), " "))
	case "langtag":
		return "must be a language code such as en or pt-BR"
	default:
		return "is invalid (" + e.Tag() + ")"
	}
}

// ChunkingConfig is the splitter configuration.
func (c *Config) ChunkingConfig() chunker.Config {
	return chunker.Config{
		MaxChunkSize:        c.Chunking.MaxSize,
		OverlapSize:         c.Chunking.Overlap,
		SearchRadius:        c.Chunking.SearchRadius,
		OverlapSearchRadius: c.Chunking.OverlapSearchRadius,
	}
}

// StitchingConfig is the stitcher configuration for the configured overlap.
func (c *Config) StitchingConfig() stitcher.Config {
	return stitcher.Config{
		OverlapSize:   c.Chunking.Overlap,
		TailChars:     c.Stitching.TailChars,
		TailSentences: c.Stitching.TailSentences,
		ScanSentences: c.Stitching.ScanSentences,
		ProbeChars:    c.Stitching.ProbeChars,
		MinProbeChars: c.Stitching.MinProbeChars,
		FallbackRatio: c.Stitching.FallbackRatio,
		FallbackCap:   c.Stitching.FallbackCap,
	}
}

// SegmenterConfig is the chapter segmenter configuration.
func (c *Config) SegmenterConfig() segmenter.Config {
	return segmenter.Config{
		MinContent:  c.Segmenting.MinContent,
		SectionSize: c.Segmenting.SectionSize,
	}
}

// OrchestratorConfig is the pipeline configuration. The source language must
// already be resolved when it was configured as "auto".
func (c *Config) OrchestratorConfig() orchestrator.OrchestratorConfig {
	oc := orchestrator.DefaultConfig(c.Translation.SourceLang, c.Translation.TargetLang)
	oc.Instructions = c.Translation.Instructions
	oc.MaxAttempts = c.Translation.MaxAttempts
	oc.RetryBaseDelay = c.Translation.RetryDelay
	oc.ChunkDelay = c.Translation.ChunkDelay
	oc.ChapterDelay = c.Translation.ChapterDelay
	oc.Timeout = c.Service.Timeout
	oc.ContextChars = c.Translation.ContextChars
	oc.Chunking = c.ChunkingConfig()
	oc.Stitching = c.StitchingConfig()
	return oc
}

// ServiceRequestConfig is passed with every call to the translation service.
func (c *Config) ServiceRequestConfig() translator.ServiceConfig {
	return translator.ServiceConfig{
		Credentials: c.Service.Credentials,
		APIKey:      c.Service.APIKey,
		Model:       c.Service.Model,
		BaseURL:     c.Service.BaseURL,
		Timeout:     c.Service.Timeout,
		ProjectID:   c.Service.ProjectID,
		MaxTokens:   c.Service.MaxTokens,
	}
}

// ServiceOptions builds the arguments for translator.New.
func (c *Config) ServiceOptions() translator.Options {
	models := c.Service.Models
	if c.Service.Model != "" {
		models = []string{c.Service.Model}
	}
	return translator.Options{
		APIKey:      c.Service.APIKey,
		BaseURL:     c.Service.BaseURL,
		Models:      models,
		Credentials: c.Service.Credentials,
	}
}
