package cache

import (
	"context"
	"time"

	"printquote/backend/internal/option"
	"printquote/backend/internal/quote"
)

// EvaluationCache stores option resolutions keyed by constraint.CacheKey.
type EvaluationCache interface {
	GetEvaluation(ctx context.Context, key string) (*option.Resolution, bool, error)
	SetEvaluation(ctx context.Context, key string, value *option.Resolution, ttl time.Duration) error
}

// QuoteCache keeps issued quotes until they expire.
type QuoteCache interface {
	GetQuote(ctx context.Context, quoteID string) (*quote.Quote, bool, error)
	SetQuote(ctx context.Context, value *quote.Quote, ttl time.Duration) error
}

type Cache interface {
	EvaluationCache
	QuoteCache
}

type Noop struct{}

func (Noop) GetEvaluation(_ context.Context, _ string) (*option.Resolution, bool, error) {
	return nil, false, nil
}

func (Noop) SetEvaluation(_ context.Context, _ string, _ *option.Resolution, _ time.Duration) error {
	return nil
}

func (Noop) GetQuote(_ context.Context, _ string) (*quote.Quote, bool, error) {
	return nil, false, nil
}

func (Noop) SetQuote(_ context.Context, _ *quote.Quote, _ time.Duration) error {
	return nil
}
