package estimator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/inmoreal/pkg/constants"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ServiceConfig tunes a Service. Zero values select defaults.
type ServiceConfig struct {
	Timeout           time.Duration
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Burst             int
	Fallbacks         Fallbacks
	// BreakerFailures is the number of consecutive generator failures that
	// opens the circuit.
	BreakerFailures uint32
	// BreakerCooldown is how long the circuit stays open.
	BreakerCooldown time.Duration
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.Timeout <= 0 {
		c.Timeout = constants.DefaultEstimatorTimeoutSeconds * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = constants.DefaultEstimatorCacheMinutes * time.Minute
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = constants.DefaultEstimatorRequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = constants.DefaultEstimatorBurst
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = time.Minute
	}
	return c
}

// Service asks a TextGenerator for prices. Successful answers are cached,
// outbound calls are rate limited and guarded by a circuit breaker, and every
// failure resolves to the configured fallback. It is safe for concurrent use.
type Service struct {
	logger    *zap.Logger
	generator TextGenerator
	fallbacks Fallbacks
	timeout   time.Duration
	cache     *cache.Cache
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
}

// NewService wraps generator. If logger is nil, a no-op logger is used.
func NewService(logger *zap.Logger, generator TextGenerator, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	s := &Service{
		logger:    logger,
		generator: generator,
		fallbacks: cfg.Fallbacks,
		timeout:   cfg.Timeout,
		cache:     cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "price-estimator",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("price estimator circuit changed state",
				zap.String("op", "estimator.Service"),
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return s
}

// EstimatePricePerSquareMeter implements Estimator.
func (s *Service) EstimatePricePerSquareMeter(ctx context.Context, q Query) Estimate {
	logger := s.logger.With(
		zap.String("op", "estimator.EstimatePricePerSquareMeter"),
		zap.String("request_id", uuid.NewString()),
		zap.String("region", q.Region),
		zap.String("locality", q.Locality),
		zap.String("neighborhood", q.Neighborhood),
		zap.Bool("is_sale", q.IsSale),
	)

	key := q.cacheKey()
	if cached, ok := s.cache.Get(key); ok {
		if value, ok := cached.(float64); ok {
			logger.Debug("price estimate served from cache", zap.Float64("price", value))
			return Estimate{Value: value, Source: SourceCache}
		}
	}

	fallback := s.fallbacks.For(q.Region)
	fallbackWith := func(reason string, err error) Estimate {
		logger.Warn("using fallback price per square meter",
			zap.String("reason", reason),
			zap.Float64("fallback", fallback),
			zap.Error(err),
		)
		return Estimate{Value: fallback, Source: SourceFallback, Reason: reason}
	}

	if s.generator == nil {
		return fallbackWith("no price model configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return fallbackWith("rate limit wait aborted", err)
	}

	prompt := BuildPrompt(q)
	raw, err := s.breaker.Execute(func() (interface{}, error) {
		return s.generator.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fallbackWith("price model circuit open", err)
		}
		return fallbackWith("price model request failed", err)
	}

	text, _ := raw.(string)
	value, ok := ParsePrice(text, fallback)
	if !ok {
		logger.Debug("unparseable model answer", zap.String("answer", truncate(text, 200)))
		return fallbackWith("price model answer not numeric", nil)
	}

	s.cache.Set(key, value, cache.DefaultExpiration)
	logger.Info("price estimate obtained", zap.Float64("price", value))
	return Estimate{Value: value, Source: SourceModel}
}
