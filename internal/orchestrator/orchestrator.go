// Package orchestrator drives the translation of a book: chapters one after
// another, chunks of a chapter one after another, each request carrying the
// tail of the previous translation as context. Failed calls are retried with
// a linear backoff; a chapter whose chunk runs out of attempts is skipped and
// the book carries on with the next one.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valpere/booktran/internal"
	"github.com/valpere/booktran/internal/boundary"
	"github.com/valpere/booktran/internal/chunker"
	"github.com/valpere/booktran/internal/stitcher"
	"github.com/valpere/booktran/internal/translator"
)

// ErrWrongLanguage is returned for a translation that came back in a
// language other than the target.
var ErrWrongLanguage = errors.New("translation is not in the target language")

type OrchestratorConfig struct {
	SourceLang   string
	TargetLang   string
	Instructions string

	// MaxAttempts is the total number of calls per chunk, first included.
	MaxAttempts int
	// RetryBaseDelay is multiplied by the attempt number to get the wait
	// before the next attempt.
	RetryBaseDelay time.Duration
	// ChunkDelay separates successive service calls within a chapter.
	ChunkDelay time.Duration
	// ChapterDelay separates chapters.
	ChapterDelay time.Duration
	// Timeout bounds a single service call. Zero means no limit.
	Timeout time.Duration
	// ContextChars bounds the previous translation passed as context.
	ContextChars int

	Chunking  chunker.Config
	Stitching stitcher.Config
}

// DefaultConfig returns the stock settings for translating into targetLang.
func DefaultConfig(sourceLang, targetLang string) OrchestratorConfig {
	chunking := chunker.DefaultConfig()
	return OrchestratorConfig{
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		MaxAttempts:    3,
		RetryBaseDelay: 5 * time.Second,
		ChunkDelay:     2 * time.Second,
		ChapterDelay:   5 * time.Second,
		Timeout:        5 * time.Minute,
		ContextChars:   chunker.DefaultContextChars,
		Chunking:       chunking,
		Stitching:      stitcher.DefaultConfig(chunking.OverlapSize),
	}
}

// ChunkCache is a translation memory for individual chunks. Entries are
// scoped by a service label, see cacheScope.
type ChunkCache interface {
	GetCachedTranslation(ctx context.Context, text, sourceLang, targetLang, service string) (string, bool, error)
	SaveToMemory(ctx context.Context, text, sourceLang, targetLang, translation, service string) error
}

// LanguageValidator checks that text is written in lang.
type LanguageValidator interface {
	IsValid(text, lang string) (bool, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Option func(*Orchestrator)

func WithCache(c ChunkCache) Option { return func(o *Orchestrator) { o.cache = c } }

func WithValidator(v LanguageValidator) Option { return func(o *Orchestrator) { o.validator = v } }

func WithLogger(l *slog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// WithGlossary sets the source → target terms injected into every request.
func WithGlossary(terms map[string]string) Option {
	return func(o *Orchestrator) { o.glossary = terms }
}

func WithServiceConfig(cfg translator.ServiceConfig) Option {
	return func(o *Orchestrator) { o.svcCfg = cfg }
}

func WithLocator(l boundary.Locator) Option { return func(o *Orchestrator) { o.locator = l } }

func WithSleeper(s Sleeper) Option { return func(o *Orchestrator) { o.sleep = s } }

type Orchestrator struct {
	service   translator.TranslationService
	config    OrchestratorConfig
	svcCfg    translator.ServiceConfig
	splitter  *chunker.Splitter
	locator   boundary.Locator
	cache     ChunkCache
	validator LanguageValidator
	glossary  map[string]string
	logger    *slog.Logger
	sleep     Sleeper
}

func New(service translator.TranslationService, config OrchestratorConfig, opts ...Option) *Orchestrator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.ContextChars <= 0 {
		config.ContextChars = chunker.DefaultContextChars
	}
	if config.Stitching == (stitcher.Config{}) {
		config.Stitching = stitcher.DefaultConfig(config.Chunking.OverlapSize)
	}

	o := &Orchestrator{
		service: service,
		config:  config,
		logger:  slog.New(slog.DiscardHandler),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.splitter = chunker.New(config.Chunking, o.locator)
	return o
}

// CallWithRetry sends req to the service, retrying failed attempts after
// attempt × RetryBaseDelay (5s, 10s, 15s, ... with the defaults). It returns
// the first successful translation or the last error once MaxAttempts calls
// have failed.
func (o *Orchestrator) CallWithRetry(ctx context.Context, req translator.TranslateRequest) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		text, err := o.callOnce(ctx, req)
		if err == nil {
			if attempt > 1 {
				o.logger.Info("translation succeeded after retry", "attempt", attempt)
			}
			return text, nil
		}
		lastErr = err

		o.logger.Warn("translation attempt failed",
			"service", o.service.Name(),
			"attempt", attempt,
			"max_attempts", o.config.MaxAttempts,
			"error", err)

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt == o.config.MaxAttempts {
			break
		}

		delay := time.Duration(attempt) * o.config.RetryBaseDelay
		o.logger.Info("waiting before retry", "delay", delay, "next_attempt", attempt+1)
		if err := o.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("translation failed after %d attempts: %w", o.config.MaxAttempts, lastErr)
}

func (o *Orchestrator) callOnce(ctx context.Context, req translator.TranslateRequest) (string, error) {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	res, err := o.service.Translate(ctx, o.svcCfg, req)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", &translator.ServiceError{Service: o.service.Name(), Message: "no result"}
	}
	if res.Error != "" {
		return "", &translator.ServiceError{Service: res.ServiceName, Message: res.Error}
	}
	if strings.TrimSpace(res.TranslatedText) == "" {
		return "", &translator.ServiceError{Service: res.ServiceName, Message: "empty translation"}
	}

	if o.validator != nil {
		ok, verr := o.validator.IsValid(res.TranslatedText, req.TargetLang)
		if verr != nil {
			return "", fmt.Errorf("%w: %w", ErrWrongLanguage, verr)
		}
		if !ok {
			return "", ErrWrongLanguage
		}
	}
	return res.TranslatedText, nil
}

// TranslateChapter translates ch chunk by chunk and returns the stitched
// text. preceding is the translation of the previous chapter; it seeds the
// running context, which is then replaced by each chunk's translation.
func (o *Orchestrator) TranslateChapter(ctx context.Context, ch internal.Chapter, preceding string) (string, error) {
	text, _, err := o.translateChapter(ctx, ch, preceding)
	return text, err
}

// translateChapter also reports how many service calls were made, so the
// book loop can skip the chapter pause after fully cached chapters.
func (o *Orchestrator) translateChapter(ctx context.Context, ch internal.Chapter, preceding string) (string, int, error) {
	chunks := o.splitter.Split(ch.Content)
	log := o.logger.With("chapter", ch.Number)
	log.Info("translating chapter", "title", ch.Title, "bytes", len(ch.Content), "chunks", len(chunks))

	running := preceding
	translated := make([]string, 0, len(chunks))
	calls := 0

	for i, c := range chunks {
		if text, ok := o.lookup(ctx, c.Content); ok {
			log.Debug("chunk served from cache", "chunk", i+1)
			translated = append(translated, text)
			running = text
			continue
		}

		if calls > 0 {
			if err := o.sleep(ctx, o.config.ChunkDelay); err != nil {
				return "", calls, err
			}
		}

		req := translator.TranslateRequest{
			Text:            c.Content,
			SourceLang:      o.config.SourceLang,
			TargetLang:      o.config.TargetLang,
			PreviousContext: chunker.TailContext(running, o.config.ContextChars),
			IsContinuation:  !c.IsFirst,
			GlossaryTerms:   o.glossary,
			Instructions:    o.config.Instructions,
		}
		if c.IsFirst {
			req.ChapterTitle = ch.Title
		}

		start := time.Now()
		text, err := o.CallWithRetry(ctx, req)
		calls++
		if err != nil {
			return "", calls, fmt.Errorf("chapter %d chunk %d/%d: %w", ch.Number, i+1, len(chunks), err)
		}
		log.Info("chunk translated", "chunk", i+1, "of", len(chunks), "duration", time.Since(start).Round(time.Millisecond))

		o.remember(ctx, c.Content, text)
		translated = append(translated, text)
		running = text
	}

	return stitcher.Stitch(translated, o.config.Stitching), calls, nil
}

func (o *Orchestrator) lookup(ctx context.Context, source string) (string, bool) {
	if o.cache == nil {
		return "", false
	}
	text, found, err := o.cache.GetCachedTranslation(ctx, source, o.config.SourceLang, o.config.TargetLang, o.cacheScope())
	if err != nil {
		o.logger.Warn("cache lookup failed", "error", err)
		return "", false
	}
	return text, found
}

func (o *Orchestrator) remember(ctx context.Context, source, translation string) {
	if o.cache == nil {
		return
	}
	if err := o.cache.SaveToMemory(ctx, source, o.config.SourceLang, o.config.TargetLang, translation, o.cacheScope()); err != nil {
		o.logger.Warn("cache save failed", "error", err)
	}
}

// cacheScope labels memory entries with what produced them: the service, the
// model override and a digest of the extra instructions, e.g.
// "ollama:llama3+1a2b3c4d".
func (o *Orchestrator) cacheScope() string {
	scope := o.service.Name()
	if o.svcCfg.Model != "" {
		scope += ":" + o.svcCfg.Model
	}
	if o.config.Instructions != "" {
		sum := sha256.Sum256([]byte(o.config.Instructions))
		scope += "+" + hex.EncodeToString(sum[:4])
	}
	return scope
}

// BookOptions controls TranslateBook.
type BookOptions struct {
	// Preceding is the context for the first chapter to translate.
	Preceding string
	// Completed maps chapter numbers to translations from an earlier run.
	// Those chapters are reused without calling the service.
	Completed map[int]string
	// OnChapter is called with every newly translated chapter. An error
	// stops the book.
	OnChapter func(ch internal.Chapter, translation string) error
}

type ChapterResult struct {
	Chapter     internal.Chapter
	Translation string
	Reused      bool
	Duration    time.Duration
	Err         error
}

type BookResult struct {
	Chapters  []ChapterResult
	Succeeded int
	Reused    int
	Failed    int
}

// Translations returns the successful chapters, reused ones included, in
// book order.
func (r *BookResult) Translations() []ChapterResult {
	var out []ChapterResult
	for _, c := range r.Chapters {
		if c.Err == nil {
			out = append(out, c)
		}
	}
	return out
}

// TranslateBook translates chapters in order. The context for each chapter
// is the translation of the last chapter that succeeded. A failed chapter is
// logged and recorded, and the run moves on. The returned error is non-nil
// only when ctx is cancelled or OnChapter fails; the result then holds what
// was done so far.
func (o *Orchestrator) TranslateBook(ctx context.Context, chapters []internal.Chapter, opts BookOptions) (*BookResult, error) {
	result := &BookResult{}
	previous := opts.Preceding
	pause := false

	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if done, ok := opts.Completed[ch.Number]; ok {
			o.logger.Info("reusing translated chapter", "chapter", ch.Number)
			result.Chapters = append(result.Chapters, ChapterResult{Chapter: ch, Translation: done, Reused: true})
			result.Reused++
			previous = done
			continue
		}

		if pause {
			if err := o.sleep(ctx, o.config.ChapterDelay); err != nil {
				return result, err
			}
		}

		start := time.Now()
		text, calls, err := o.translateChapter(ctx, ch, previous)
		pause = calls > 0
		cr := ChapterResult{Chapter: ch, Duration: time.Since(start)}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			o.logger.Error("chapter failed, skipping", "chapter", ch.Number, "title", ch.Title, "error", err)
			cr.Err = err
			result.Chapters = append(result.Chapters, cr)
			result.Failed++
			continue
		}

		if opts.OnChapter != nil {
			if err := opts.OnChapter(ch, text); err != nil {
				return result, fmt.Errorf("chapter %d: %w", ch.Number, err)
			}
		}

		cr.Translation = text
		result.Chapters = append(result.Chapters, cr)
		result.Succeeded++
		previous = text
		o.logger.Info("chapter translated", "chapter", ch.Number, "duration", cr.Duration.Round(time.Second))
	}

	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
