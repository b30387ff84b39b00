// Package corpus ships a small static bundle of annotated example
// recipes. It guarantees non-empty few-shot context even on a cold or
// unreachable database.
package corpus

import (
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/recetario/backend/internal/types"
)

//go:embed examples.json
var examplesJSON []byte

var (
	once     sync.Once
	examples []types.ExampleRecipe
	loadErr  error
)

// Examples returns the static example bundle, decoded once per process.
// The returned slice is shared and must be treated as read-only.
func Examples() ([]types.ExampleRecipe, error) {
	once.Do(func() {
		loadErr = json.Unmarshal(examplesJSON, &examples)
	})
	return examples, loadErr
}
