// Package recipe provides recipes, their steps and ingredients, and user
// comments. Recipes reference uploaded images by record id; creating a
// recipe finalizes those references by promoting the images to permanent.
package recipe

import (
	"errors"
	"time"
)

// ErrRecipeNotFound is returned when a recipe cannot be found by ID.
var ErrRecipeNotFound = errors.New("recipe not found")

// Status represents the publication state of a recipe.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPublished  Status = "published"
	StatusModeration Status = "moderation"
)

// IsValid returns true if the status is one of the known states.
func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusModeration
}

// Category classifies a recipe.
type Category string

const (
	CategoryDrinks        Category = "drinks"
	CategorySoups         Category = "soups"
	CategoryDesserts      Category = "desserts"
	CategoryColdAppetizer Category = "cold_appetizers"
	CategoryHotAppetizer  Category = "hot_appetizers"
	CategoryBreakfast     Category = "breakfast"
	CategoryMainCourse    Category = "main_course"
	CategorySideDishes    Category = "side_dishes"
	CategorySalads        Category = "salads"
	CategoryPastries      Category = "pastries"
	CategoryBreads        Category = "breads"
)

// Step is a single cooking step, optionally illustrated by an image.
type Step struct {
	// Index is the position of the step in the sequence.
	Index int
	// Text is the step instruction.
	Text string
	// ImageID references an uploaded image record. Empty when the step
	// has no picture.
	ImageID string
}

// Ingredient is one ingredient line of a recipe.
type Ingredient struct {
	Name string
	// Unit is the measurement unit (kg, g, l, ml, tbsp, tsp).
	Unit   string
	Amount float64
}

// Recipe is the aggregate persisted for one recipe.
type Recipe struct {
	ID            string
	Name          string
	Author        string
	Category      Category
	Status        Status
	TimeCooking   int // minutes
	TimePreparing int // minutes
	Servings      int
	IsSpicy       bool
	IsVegetarian  bool
	// MainPictureID references an uploaded image record. Empty when the
	// recipe has no main picture.
	MainPictureID string
	Steps         []Step
	Ingredients   []Ingredient
	CreatedAt     time.Time
}

// ImageIDs returns every image record id the recipe references.
func (r *Recipe) ImageIDs() []string {
	var ids []string
	if r.MainPictureID != "" {
		ids = append(ids, r.MainPictureID)
	}
	for _, step := range r.Steps {
		if step.ImageID != "" {
			ids = append(ids, step.ImageID)
		}
	}
	return ids
}

// Comment is a user comment on a recipe. Comments outlive deleted users
// but not deleted recipes.
type Comment struct {
	ID        string
	RecipeID  string
	User      string
	Text      string
	CreatedAt time.Time
}
