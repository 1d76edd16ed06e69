package translator

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited wraps a service so Translate calls are spaced to at most rpm
// per minute. Waiting honours ctx.
type RateLimited struct {
	TranslationService
	limiter *rate.Limiter
}

// NewRateLimited returns svc limited to rpm requests per minute with a
// burst of one. rpm ≤ 0 returns svc unchanged.
func NewRateLimited(svc TranslationService, rpm int) TranslationService {
	if rpm <= 0 {
		return svc
	}
	return &RateLimited{
		TranslationService: svc,
		limiter:            rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

func (r *RateLimited) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		result := &ServiceResult{ServiceName: r.Name()}
		return fail(result, &ServiceError{Service: r.Name(), Message: "rate limit wait", Err: err})
	}
	return r.TranslationService.Translate(ctx, cfg, req)
}
