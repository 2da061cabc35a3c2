package story

import (
	"context"
	"slices"
	"time"

	"storyteller/pkg/flight"
	"storyteller/pkg/schema"
)

// CachedExtractor shares one extraction between concurrent requests for the
// same text and reuses successful results for ttl.
type CachedExtractor struct {
	cache *flight.Cache[string, schema.ExtractionResult]
}

func NewCachedExtractor(next Extractor, ttl time.Duration) *CachedExtractor {
	c := flight.NewCache(next.Extract)
	c.Expiry(ttl)
	return &CachedExtractor{cache: c}
}

func (c *CachedExtractor) Extract(ctx context.Context, text string) (schema.ExtractionResult, error) {
	result, err := c.cache.Get(ctx, text)
	if err != nil {
		return schema.EmptyExtraction(), err
	}
	// Callers own the returned slice.
	return schema.ExtractionResult{Dialogues: slices.Clone(schema.Entries(result.Dialogues))}, nil
}
