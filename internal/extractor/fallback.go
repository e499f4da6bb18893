package extractor

import (
	"context"

	"go.uber.org/zap"
)

// Extractor turns one shipment line into a raw field set. Both the oracle
// and the rule extractor implement it; the fallback wrapper composes them.
type Extractor interface {
	Extract(ctx context.Context, line string) (*RawFieldSet, error)
}

// FallbackExtractor tries the semantic extractor first and degrades to the
// deterministic rule extractor on any failure. The degradation is invisible
// to callers: they only see an error when both extractors fail, and that
// error is always ErrUnparseableInput.
type FallbackExtractor struct {
	primary  Extractor // may be nil when running rule-only
	fallback Extractor
	logger   *zap.Logger
}

// NewFallbackExtractor composes the primary and fallback extractors. A nil
// primary yields a rule-only extractor.
func NewFallbackExtractor(primary, fallback Extractor, logger *zap.Logger) *FallbackExtractor {
	return &FallbackExtractor{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Extract returns the first viable field set. Both extractors return typed
// failure values; the wrapper inspects results instead of catching panics.
func (f *FallbackExtractor) Extract(ctx context.Context, line string) (*RawFieldSet, error) {
	if f.primary != nil {
		fields, err := f.primary.Extract(ctx, line)
		if err == nil && fields.Viable() {
			return fields, nil
		}
		if err != nil {
			f.logger.Warn("Semantic extraction degraded to rule extractor",
				zap.String("line", line),
				zap.Error(err))
		} else {
			f.logger.Warn("Semantic extraction returned unusable field set, trying rule extractor",
				zap.String("line", line))
		}
	}

	fields, err := f.fallback.Extract(ctx, line)
	if err != nil || !fields.Viable() {
		return nil, ErrUnparseableInput
	}
	return fields, nil
}
