package recipe

import "context"

// Repository defines the interface for recipe persistence.
type Repository interface {
	// Create persists a recipe together with its steps and ingredients.
	Create(ctx context.Context, r *Recipe) error

	// FindByID retrieves a recipe with steps and ingredients loaded.
	// Returns ErrRecipeNotFound if the recipe does not exist.
	FindByID(ctx context.Context, id string) (*Recipe, error)

	// List returns all published recipes, steps and ingredients loaded.
	List(ctx context.Context) ([]*Recipe, error)

	// Delete removes a recipe; its steps, ingredients and comments are
	// removed with it. Returns ErrRecipeNotFound if the recipe does not
	// exist.
	Delete(ctx context.Context, id string) error

	// AddComment persists a comment on a recipe.
	// Returns ErrRecipeNotFound if the recipe does not exist.
	AddComment(ctx context.Context, c *Comment) error

	// ListComments returns all comments on a recipe, oldest first.
	ListComments(ctx context.Context, recipeID string) ([]*Comment, error)
}
