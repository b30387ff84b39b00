package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recetario/backend/internal/llm"
	"github.com/recetario/backend/internal/logger"
	"github.com/recetario/backend/internal/types"
)

type stubFinder struct {
	examples []types.ExampleRecipe
	gotLimit int
	gotCat   string
}

func (f *stubFinder) FindSimilar(_ context.Context, _ string, category string, limit int) []types.ExampleRecipe {
	f.gotCat = category
	f.gotLimit = limit
	return f.examples
}

type stubChatter struct {
	reply     string
	err       error
	calls     int
	gotSystem string
	gotUser   string
}

func (c *stubChatter) Chat(_ context.Context, system, user string) (string, error) {
	c.calls++
	c.gotSystem = system
	c.gotUser = user
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func TestAnalyze_FullPipeline(t *testing.T) {
	total := 35
	finder := &stubFinder{examples: []types.ExampleRecipe{{
		RawText:          "Garlic chicken example.",
		Steps:            []string{"Brown the thighs."},
		TotalTimeMinutes: &total,
	}}}
	chatter := &stubChatter{reply: `{"steps":["Saltear el pollo."],"gadgets":["sartén"],"total_time_minutes":20}`}

	svc := NewExtractionService(finder, chatter, nil, logger.New())
	res, err := svc.Analyze(context.Background(), "Saltear pollo con ajo", "chicken")

	require.NoError(t, err)
	assert.Equal(t, 20, res.TotalTimeMinutes)
	assert.Equal(t, []string{"Saltear el pollo."}, res.Steps)

	assert.Equal(t, "chicken", finder.gotCat)
	assert.Equal(t, maxExamples, finder.gotLimit)
	assert.Contains(t, chatter.gotUser, "Saltear pollo con ajo")
	assert.Contains(t, chatter.gotUser, "Garlic chicken example.")
	assert.Contains(t, chatter.gotSystem, "total_time_minutes")
}

func TestAnalyze_ModelErrorPropagates(t *testing.T) {
	chatter := &stubChatter{err: llm.ErrTimeout}
	svc := NewExtractionService(&stubFinder{}, chatter, nil, logger.New())

	_, err := svc.Analyze(context.Background(), "raw", "fish")

	assert.ErrorIs(t, err, llm.ErrTimeout)
}

func TestAnalyze_MalformedReplyStillSucceeds(t *testing.T) {
	chatter := &stubChatter{reply: "the model rambled instead of answering"}
	svc := NewExtractionService(&stubFinder{}, chatter, nil, logger.New())

	res, err := svc.Analyze(context.Background(), "raw", "fish")

	require.NoError(t, err)
	assert.Equal(t, 25, res.TotalTimeMinutes)
	assert.NotNil(t, res.Steps)
	assert.Empty(t, res.Steps)
}

func TestAnalyze_NoCacheMeansChatEveryTime(t *testing.T) {
	chatter := &stubChatter{reply: `{"total_time_minutes":15}`}
	svc := NewExtractionService(&stubFinder{}, chatter, nil, logger.New())

	for i := 0; i < 2; i++ {
		_, err := svc.Analyze(context.Background(), "raw", "pork")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, chatter.calls)
}

func TestAnalyze_UnexpectedErrorWrapped(t *testing.T) {
	boom := errors.New("socket exploded")
	chatter := &stubChatter{err: boom}
	svc := NewExtractionService(&stubFinder{}, chatter, nil, logger.New())

	_, err := svc.Analyze(context.Background(), "raw", "beef")

	assert.ErrorIs(t, err, boom)
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("text", "chicken")
	b := cacheKey("text", "chicken")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "recipe:extract:")

	// Category and text must both participate in the key; the separator
	// keeps ("ab","c") and ("a","bc") apart.
	assert.NotEqual(t, cacheKey("text", "fish"), a)
	assert.NotEqual(t, cacheKey("bc", "a"), cacheKey("c", "ab"))
}
