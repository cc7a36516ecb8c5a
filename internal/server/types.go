// Package server provides the HTTP server for the recipe API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"time"

	"github.com/mpetrova/recipe-api/internal/recipe"
)

// UploadImageResponse is the HTTP response after uploading an image.
type UploadImageResponse struct {
	// ID is the unique identifier of the created image record.
	ID string `json:"id"`
	// URL is the public URL of the stored image.
	URL string `json:"url"`
	// ExpirationAt is when the upload expires unless a recipe claims it.
	ExpirationAt time.Time `json:"expiration_at"`
}

// ImageResponse is the HTTP response for getting image metadata.
type ImageResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	IsTemporary bool   `json:"is_temporary"`
	// ExpirationAt is omitted for permanent images.
	ExpirationAt *time.Time `json:"expiration_at,omitempty"`
}

// StepRequest is one cooking step in a recipe creation request.
type StepRequest struct {
	Text string `json:"text" validate:"required"`
	// ImageID references a previously uploaded image.
	ImageID string `json:"image_id,omitempty"`
}

// IngredientRequest is one ingredient line in a recipe creation request.
type IngredientRequest struct {
	Name   string  `json:"name" validate:"required"`
	Unit   string  `json:"unit" validate:"required,oneof=kg g l ml tbsp tsp pcs"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// CreateRecipeRequest is the HTTP request body for creating a recipe.
type CreateRecipeRequest struct {
	Name          string              `json:"name" validate:"required,max=200"`
	Author        string              `json:"author" validate:"required,max=100"`
	Category      string              `json:"category" validate:"required"`
	Status        string              `json:"status,omitempty" validate:"omitempty,oneof=draft published moderation"`
	TimeCooking   int                 `json:"time_cooking" validate:"min=0"`
	TimePreparing int                 `json:"time_preparing" validate:"min=0"`
	Servings      int                 `json:"servings" validate:"min=0"`
	IsSpicy       bool                `json:"is_spicy"`
	IsVegetarian  bool                `json:"is_vegetarian"`
	MainPictureID string              `json:"main_picture_id,omitempty"`
	Steps         []StepRequest       `json:"steps" validate:"dive"`
	Ingredients   []IngredientRequest `json:"ingredients" validate:"dive"`
}

// StepResponse is one cooking step in a recipe response.
type StepResponse struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	ImageID  string `json:"image_id,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// IngredientResponse is one ingredient line in a recipe response.
type IngredientResponse struct {
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}

// RecipeResponse is the HTTP response for a single recipe.
type RecipeResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Author         string               `json:"author"`
	Category       string               `json:"category"`
	Status         string               `json:"status"`
	TimeCooking    int                  `json:"time_cooking"`
	TimePreparing  int                  `json:"time_preparing"`
	Servings       int                  `json:"servings"`
	IsSpicy        bool                 `json:"is_spicy"`
	IsVegetarian   bool                 `json:"is_vegetarian"`
	MainPictureID  string               `json:"main_picture_id,omitempty"`
	MainPictureURL string               `json:"main_picture_url,omitempty"`
	Steps          []StepResponse       `json:"steps"`
	Ingredients    []IngredientResponse `json:"ingredients"`
	CreatedAt      time.Time            `json:"created_at"`
}

// CreateCommentRequest is the HTTP request body for commenting on a recipe.
type CreateCommentRequest struct {
	User string `json:"user" validate:"required,max=100"`
	Text string `json:"text" validate:"required,max=2000"`
}

// CommentResponse is the HTTP response for a single comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}

func toCommentResponse(c *recipe.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		User:      c.User,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}
