// Package normalize converts the model's free-form reply into the
// strict extraction schema. It is total: whatever the model produced,
// the caller always receives a schema-valid result with a positive
// total time.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/recetario/backend/internal/types"
)

// OvenKeywords drives the oven surcharge in the time heuristic. The
// original check matched the English "oven" only, which rarely fires on
// Spanish/Catalan/French/Portuguese gadget names; the multilingual set
// is the configurable fix. Keywords match whole gadget words, so the
// French "four" does not fire on a "four-slice toaster".
var OvenKeywords = []string{"oven", "horno", "forn", "four", "forno"}

// Normalize parses, repairs and coerces the raw model text. It never
// fails; unusable output degrades to defaults and estimates.
func Normalize(raw string) types.Result {
	obj := parseObject(raw)

	steps := toStringSlice(obj["steps"])
	gadgets := toStringSlice(obj["gadgets"])
	ingredients := toIngredients(obj["ingredients"])

	return types.Result{
		Ingredients:      ingredients,
		Steps:            steps,
		Gadgets:          gadgets,
		TotalTimeMinutes: totalTime(obj["total_time_minutes"], len(steps), gadgets),
		OvenTimeMinutes:  ovenTime(obj["oven_time_minutes"]),
	}
}

// parseObject is a two-stage recovery parser: strict parse first, then a
// fenced code block, then the first balanced brace-delimited substring.
// When every stage fails it yields an empty object so defaults apply.
func parseObject(raw string) map[string]any {
	trimmed := strings.TrimSpace(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj != nil {
		return obj
	}

	if fenced := fencedBlock(trimmed); fenced != "" {
		if err := json.Unmarshal([]byte(fenced), &obj); err == nil && obj != nil {
			return obj
		}
	}

	if braced := firstBalancedObject(trimmed); braced != "" {
		if err := json.Unmarshal([]byte(braced), &obj); err == nil && obj != nil {
			return obj
		}
	}

	return map[string]any{}
}

// fencedBlock returns the contents of the first ``` fence, with an
// optional language tag stripped.
func fencedBlock(s string) string {
	open := strings.Index(s, "```")
	if open < 0 {
		return ""
	}
	rest := s[open+3:]

	// Drop a language tag such as "json" up to the first newline.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{}") {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// firstBalancedObject scans for the first {...} substring with balanced
// braces, honoring JSON string literals and escapes.
func firstBalancedObject(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// toStringSlice maps every element of a JSON array to its string form.
// Anything that is not an array yields an empty slice.
func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		out = append(out, stringify(el))
	}
	return out
}

func toIngredients(v any) []types.Ingredient {
	arr, ok := v.([]any)
	if !ok {
		return []types.Ingredient{}
	}
	out := make([]types.Ingredient, 0, len(arr))
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			out = append(out, types.Ingredient{Name: stringify(el)})
			continue
		}

		ing := types.Ingredient{Name: stringify(m["name"])}
		if ing.Name == "" {
			ing.Name = stringify(m)
		}
		switch q := m["quantity"].(type) {
		case float64:
			ing.Quantity = types.NumberQuantity(q)
		case string:
			if q != "" {
				ing.Quantity = types.TextQuantity(q)
			}
		}
		if unit, ok := m["unit"].(string); ok {
			ing.Unit = unit
		}
		if notes, ok := m["notes"].(string); ok {
			ing.Notes = notes
		}
		out = append(out, ing)
	}
	return out
}

// totalTime uses the model's value when it rounds to a positive integer
// and falls back to the tiered step-count heuristic otherwise: up to 3
// steps 25 minutes, up to 6 steps 45, more 75, plus 30 when an oven
// gadget is present. The result is always positive.
func totalTime(v any, stepCount int, gadgets []string) int {
	// Converting an out-of-range float to int is implementation-specific,
	// so the value is bounded before the conversion.
	if f, ok := v.(float64); ok && f > 0 && f < math.MaxInt32 {
		if n := int(math.Round(f)); n > 0 {
			return n
		}
	}

	var base int
	switch {
	case stepCount <= 3:
		base = 25
	case stepCount <= 6:
		base = 45
	default:
		base = 75
	}
	if usesOven(gadgets) {
		base += 30
	}
	return base
}

// ovenTime passes the model's value through only when it is a number.
func ovenTime(v any) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func usesOven(gadgets []string) bool {
	for _, g := range gadgets {
		for _, tok := range strings.Fields(strings.ToLower(g)) {
			tok = strings.Trim(tok, ".,;:()!?\"'")
			for _, kw := range OvenKeywords {
				if tok == kw {
					return true
				}
			}
		}
	}
	return false
}

// stringify renders any JSON value as a plain string. Nested values
// come back as compact JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
