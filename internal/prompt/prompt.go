// Package prompt composes the two-message prompt sent to the model.
// Build is a pure function: identical inputs always produce identical
// prompts, which keeps the pipeline reproducible and testable.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/recetario/backend/internal/types"
)

// excerptLen caps the raw-text excerpt shown per exemplar.
const excerptLen = 200

// Prompt is the composed system instruction and user message.
type Prompt struct {
	System string
	User   string
}

const systemInstruction = `You are an expert recipe parser. You receive the raw text of a cooking recipe, possibly in Spanish, Catalan, French, Portuguese or English, and you extract its structure.

Respond ONLY with a valid JSON object, no prose and no markdown, with exactly this shape:
{
  "ingredients": [{"name": "string", "quantity": number or string or null, "unit": "string or null", "notes": "string or null"}],
  "steps": ["each step as one complete imperative instruction"],
  "gadgets": ["utensils and appliances used"],
  "total_time_minutes": integer,
  "oven_time_minutes": integer or null
}

Vocabulary hints across languages: sartén/paella/poêle/frigideira = skillet; horno/forn/four/forno = oven; olla/cassola/cocotte/panela = pot; picar/trossejar/hacher = chop; hervir/bullir/bouillir/ferver = boil; hornear/enfornar/cuire au four/assar = bake. Units may appear as g, kg, ml, l, cucharada/culleradeta (spoon), taza/tassa (cup), pizca/polsim (pinch).

Estimation rules:
- total_time_minutes is MANDATORY. Never return null or 0 for it. If the text gives no timing, estimate: 1-3 steps take 15-30 minutes, 4-6 steps take 30-60 minutes, 7 or more steps take 60-120 minutes. Add 20-40 minutes if an oven is used.
- oven_time_minutes must be null unless the recipe clearly uses an oven.`

// Build composes the prompt for one extraction request. When examples is
// empty the examples section is omitted entirely.
func Build(rawText, category string, examples []types.ExampleRecipe) Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "Category: %s\n\n", category)

	if len(examples) > 0 {
		b.WriteString("Here are worked examples of the transformation:\n\n")
		for i, ex := range examples {
			fmt.Fprintf(&b, "--- Example %d ---\nText: %s\nJSON: %s\n\n",
				i+1, excerpt(ex.RawText), exampleJSON(ex))
		}
	}

	b.WriteString("Recipe text to parse:\n")
	b.WriteString(rawText)

	return Prompt{System: systemInstruction, User: b.String()}
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptLen {
		return s
	}
	return string(runes[:excerptLen]) + "..."
}

// exampleJSON renders the target shape of an exemplar. Struct marshaling
// keeps field order fixed, which Build's determinism depends on.
func exampleJSON(ex types.ExampleRecipe) string {
	target := struct {
		Ingredients      []types.Ingredient `json:"ingredients"`
		Steps            []string           `json:"steps"`
		Gadgets          []string           `json:"gadgets"`
		TotalTimeMinutes *int               `json:"total_time_minutes"`
		OvenTimeMinutes  *int               `json:"oven_time_minutes"`
	}{
		Ingredients:      nonNilIngredients(ex.Ingredients),
		Steps:            nonNil(ex.Steps),
		Gadgets:          nonNil(ex.Gadgets),
		TotalTimeMinutes: ex.TotalTimeMinutes,
		OvenTimeMinutes:  ex.OvenTimeMinutes,
	}

	data, err := json.Marshal(target)
	if err != nil {
		// Example recipes are plain data; marshaling them cannot
		// realistically fail, but a prompt must never be lost to it.
		return "{}"
	}
	return string(data)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilIngredients(s []types.Ingredient) []types.Ingredient {
	if s == nil {
		return []types.Ingredient{}
	}
	return s
}
