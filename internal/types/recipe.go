package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Quantity accepts either a numeric or a free-text amount ("a pinch").
// Exactly one of Number and Text is set.
type Quantity struct {
	Number *float64
	Text   string
}

// NumberQuantity builds a numeric quantity.
func NumberQuantity(n float64) *Quantity {
	return &Quantity{Number: &n}
}

// TextQuantity builds a free-text quantity.
func TextQuantity(s string) *Quantity {
	return &Quantity{Text: s}
}

// MarshalJSON emits a bare number for numeric quantities and a string
// otherwise.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Number != nil {
		return json.Marshal(*q.Number)
	}
	if q.Text != "" {
		return json.Marshal(q.Text)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a number, a string, or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		q.Number = &num
		q.Text = ""
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		q.Number = nil
		q.Text = str
		return nil
	}

	if string(data) == "null" {
		*q = Quantity{}
		return nil
	}

	return fmt.Errorf("invalid quantity %s", data)
}

// String renders the quantity for display.
func (q Quantity) String() string {
	if q.Number != nil {
		return strconv.FormatFloat(*q.Number, 'f', -1, 64)
	}
	return q.Text
}

// Ingredient is a single recipe ingredient.
type Ingredient struct {
	Name     string    `json:"name"`
	Quantity *Quantity `json:"quantity,omitempty"`
	Unit     string    `json:"unit,omitempty"`
	Notes    string    `json:"notes,omitempty"`
}

// ExampleRecipe is a retrieval unit: raw text paired with its structured
// annotation, used as a few-shot exemplar. Read-only to the pipeline.
type ExampleRecipe struct {
	RawText          string       `json:"raw_text"`
	Ingredients      []Ingredient `json:"ingredients"`
	Steps            []string     `json:"steps"`
	Gadgets          []string     `json:"gadgets"`
	TotalTimeMinutes *int         `json:"total_time_minutes,omitempty"`
	OvenTimeMinutes  *int         `json:"oven_time_minutes,omitempty"`
}

// Result is the extraction output contract. TotalTimeMinutes is always
// positive; OvenTimeMinutes is null unless the recipe clearly uses an
// oven. OvenTimeMinutes is deliberately not clamped to TotalTimeMinutes:
// both come from heuristic estimation and rewriting one to fit the other
// would hide what the model actually said.
type Result struct {
	Ingredients      []Ingredient `json:"ingredients"`
	Steps            []string     `json:"steps"`
	Gadgets          []string     `json:"gadgets"`
	TotalTimeMinutes int          `json:"total_time_minutes"`
	OvenTimeMinutes  *int         `json:"oven_time_minutes"`
}
