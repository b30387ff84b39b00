// Package retriever selects few-shot examples for a raw recipe text.
// Live datastore rows matching the category are preferred over the
// static corpus, so prompts improve as real recipes are saved.
package retriever

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/recetario/backend/internal/corpus"
	"github.com/recetario/backend/internal/logger"
	"github.com/recetario/backend/internal/model"
	"github.com/recetario/backend/internal/types"
)

// Vegetable dishes match broadly: the corpus filter is skipped and every
// entry qualifies.
const broadMatchCategory = "vegetables"

// Finder retrieves example recipes. db may be nil, in which case only
// the static corpus is consulted.
type Finder struct {
	db  *gorm.DB
	log *logger.Logger
}

// New creates a new Finder instance
func New(db *gorm.DB, log *logger.Logger) *Finder {
	return &Finder{db: db, log: log.WithComponent("retriever")}
}

// FindSimilar returns up to limit examples for the given text and
// category. It never fails: any internal error degrades to fewer (or
// zero) results.
func (f *Finder) FindSimilar(ctx context.Context, rawText, category string, limit int) []types.ExampleRecipe {
	if limit <= 0 {
		return nil
	}

	live := f.fromDatabase(ctx, category, limit)
	static := f.fromCorpus(category, limit)

	merged := make([]types.ExampleRecipe, 0, len(live)+len(static))
	merged = append(merged, live...)
	merged = append(merged, static...)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (f *Finder) fromCorpus(category string, limit int) []types.ExampleRecipe {
	examples, err := corpus.Examples()
	if err != nil {
		f.log.WithError(err).Warn("static corpus unavailable")
		return nil
	}

	keyword := strings.ToLower(strings.TrimSpace(category))
	var out []types.ExampleRecipe
	for _, ex := range examples {
		if keyword != broadMatchCategory && !strings.Contains(strings.ToLower(ex.RawText), keyword) {
			continue
		}
		out = append(out, ex)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (f *Finder) fromDatabase(ctx context.Context, category string, limit int) []types.ExampleRecipe {
	if f.db == nil {
		return nil
	}

	var rows []model.Recipe
	err := f.db.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		f.log.WithError(err).Warn("datastore retrieval failed, falling back to corpus only")
		return nil
	}

	out := make([]types.ExampleRecipe, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Example())
	}
	return out
}
