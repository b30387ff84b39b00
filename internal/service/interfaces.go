package service

import (
	"context"

	"github.com/recetario/backend/internal/types"
)

// Chatter is the model-client dependency of the extraction service.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// ExampleFinder retrieves few-shot examples. Implementations never fail;
// they degrade to an empty result.
type ExampleFinder interface {
	FindSimilar(ctx context.Context, rawText, category string, limit int) []types.ExampleRecipe
}
