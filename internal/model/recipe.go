package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/recetario/backend/internal/types"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// JSONBIngredients stores structured ingredients in JSONB
type JSONBIngredients []types.Ingredient

// Value implements the driver.Valuer interface
func (a JSONBIngredients) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBIngredients) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBIngredients{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Recipe is a saved recipe row in the hosted datastore. The extraction
// pipeline only reads these, as few-shot retrieval candidates; writes
// belong to the external CRUD layer.
type Recipe struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
	Title            string           `gorm:"size:255" json:"title"`
	RawText          string           `gorm:"type:text" json:"raw_text"`
	Category         string           `gorm:"size:50;index" json:"category"`
	Ingredients      JSONBIngredients `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Steps            JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"steps"`
	Gadgets          JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"gadgets"`
	TotalTimeMinutes *int             `json:"total_time_minutes"`
	OvenTimeMinutes  *int             `json:"oven_time_minutes"`
}

// Example maps a stored row into the retrieval unit.
func (r *Recipe) Example() types.ExampleRecipe {
	return types.ExampleRecipe{
		RawText:          r.RawText,
		Ingredients:      r.Ingredients,
		Steps:            r.Steps,
		Gadgets:          r.Gadgets,
		TotalTimeMinutes: r.TotalTimeMinutes,
		OvenTimeMinutes:  r.OvenTimeMinutes,
	}
}
