package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recetario/backend/internal/normalize"
	"github.com/recetario/backend/internal/prompt"
	"github.com/recetario/backend/internal/types"

	"github.com/recetario/backend/internal/logger"
)

const (
	// maxExamples caps the few-shot context per prompt.
	maxExamples = 3

	cacheTTL = 24 * time.Hour
)

// ExtractionService runs the full pipeline: retrieve examples, build the
// prompt, call the model, normalize the reply. Results for identical
// inputs are cached in redis when a client is configured.
type ExtractionService struct {
	finder ExampleFinder
	client Chatter
	cache  *redis.Client
	log    *logger.Logger
}

// NewExtractionService creates a new ExtractionService instance. cache
// may be nil, which disables result caching.
func NewExtractionService(finder ExampleFinder, client Chatter, cache *redis.Client, log *logger.Logger) *ExtractionService {
	return &ExtractionService{
		finder: finder,
		client: client,
		cache:  cache,
		log:    log.WithComponent("extraction"),
	}
}

// Analyze extracts structured recipe data from raw text. Model-output
// malformation never surfaces; only model-service failures do.
func (s *ExtractionService) Analyze(ctx context.Context, rawText, category string) (types.Result, error) {
	key := cacheKey(rawText, category)
	if cached, ok := s.cacheGet(ctx, key); ok {
		return cached, nil
	}

	examples := s.finder.FindSimilar(ctx, rawText, category, maxExamples)
	p := prompt.Build(rawText, category, examples)

	raw, err := s.client.Chat(ctx, p.System, p.User)
	if err != nil {
		return types.Result{}, err
	}

	result := normalize.Normalize(raw)
	s.cacheSet(ctx, key, result)
	return result, nil
}

func cacheKey(rawText, category string) string {
	sum := sha256.Sum256([]byte(category + "\x00" + rawText))
	return fmt.Sprintf("recipe:extract:%x", sum)
}

// cacheGet is best-effort: any cache failure degrades to a live call.
func (s *ExtractionService) cacheGet(ctx context.Context, key string) (types.Result, bool) {
	if s.cache == nil {
		return types.Result{}, false
	}

	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.WithError(err).Warn("result cache read failed")
		}
		return types.Result{}, false
	}

	var result types.Result
	if err := json.Unmarshal(data, &result); err != nil {
		s.log.WithError(err).Warn("discarding undecodable cached result")
		return types.Result{}, false
	}
	return result, true
}

func (s *ExtractionService) cacheSet(ctx context.Context, key string, result types.Result) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		s.log.WithError(err).Warn("result cache write failed")
	}
}
