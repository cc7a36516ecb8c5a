package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mpetrova/recipe-api/internal/image"
	"github.com/mpetrova/recipe-api/internal/recipe"
)

// multipartOverhead is the slack added on top of the image size limit to
// account for multipart framing and headers.
const multipartOverhead = 1 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	images         *image.Service
	recipes        *recipe.Service
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes caps the request body size accepted on image uploads.
// Zero disables the cap.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		h.maxUploadBytes = n
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(images *image.Service, recipes *recipe.Service, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		images:    images,
		recipes:   recipes,
		validator: validator.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// UploadImage handles POST /images requests. The image arrives as the
// multipart form field "image".
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", "IMAGE_TOO_LARGE")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'image' is required", "MISSING_IMAGE")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("failed to read upload",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "failed to read upload", "UPLOAD_READ_FAILED")
		return
	}

	rec, err := h.images.Upload(r.Context(), data, header.Filename)
	if err != nil {
		h.writeImageError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadImageResponse{
		ID:           rec.ID,
		URL:          h.images.URL(rec),
		ExpirationAt: rec.ExpirationAt,
	})
}

// GetImage handles GET /images/{id} requests.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := h.images.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, image.ErrNotFound) {
			writeError(w, http.StatusNotFound, "image not found", "IMAGE_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get image",
			slog.String("image_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get image", "IMAGE_FETCH_FAILED")
		return
	}

	resp := ImageResponse{
		ID:          rec.ID,
		URL:         h.images.URL(rec),
		IsTemporary: rec.IsTemporary,
	}
	if rec.IsTemporary {
		exp := rec.ExpirationAt
		resp.ExpirationAt = &exp
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateRecipe handles POST /recipes requests.
func (h *Handlers) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	steps := make([]recipe.Step, len(req.Steps))
	for i, s := range req.Steps {
		steps[i] = recipe.Step{Index: i + 1, Text: s.Text, ImageID: s.ImageID}
	}
	ingredients := make([]recipe.Ingredient, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		ingredients[i] = recipe.Ingredient{Name: ing.Name, Unit: ing.Unit, Amount: ing.Amount}
	}

	rec, err := h.recipes.Create(r.Context(), recipe.CreateInput{
		Name:          req.Name,
		Author:        req.Author,
		Category:      recipe.Category(req.Category),
		Status:        recipe.Status(req.Status),
		TimeCooking:   req.TimeCooking,
		TimePreparing: req.TimePreparing,
		Servings:      req.Servings,
		IsSpicy:       req.IsSpicy,
		IsVegetarian:  req.IsVegetarian,
		MainPictureID: req.MainPictureID,
		Steps:         steps,
		Ingredients:   ingredients,
	})
	if err != nil {
		if errors.Is(err, image.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "referenced image does not exist", "IMAGE_REFERENCE_INVALID")
			return
		}
		h.logger.Error("failed to create recipe",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create recipe", "RECIPE_CREATION_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, h.toRecipeResponse(r.Context(), rec))
}

// GetRecipe handles GET /recipes/{id} requests.
func (h *Handlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := h.recipes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, recipe.ErrRecipeNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found", "RECIPE_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get recipe",
			slog.String("recipe_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get recipe", "RECIPE_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, h.toRecipeResponse(r.Context(), rec))
}

// ListRecipes handles GET /recipes requests.
func (h *Handlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list recipes",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list recipes", "RECIPE_LIST_FAILED")
		return
	}

	resp := make([]RecipeResponse, 0, len(recipes))
	for _, rec := range recipes {
		resp = append(resp, h.toRecipeResponse(r.Context(), rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteRecipe handles DELETE /recipes/{id} requests.
func (h *Handlers) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.recipes.Delete(r.Context(), id); err != nil {
		if errors.Is(err, recipe.ErrRecipeNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found", "RECIPE_NOT_FOUND")
			return
		}
		h.logger.Error("failed to delete recipe",
			slog.String("recipe_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete recipe", "RECIPE_DELETE_FAILED")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateComment handles POST /recipes/{id}/comments requests.
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	recipeID := r.PathValue("id")

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	c, err := h.recipes.AddComment(r.Context(), recipeID, req.User, req.Text)
	if err != nil {
		if errors.Is(err, recipe.ErrRecipeNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found", "RECIPE_NOT_FOUND")
			return
		}
		h.logger.Error("failed to add comment",
			slog.String("recipe_id", recipeID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to add comment", "COMMENT_CREATION_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(c))
}

// ListComments handles GET /recipes/{id}/comments requests.
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	recipeID := r.PathValue("id")

	comments, err := h.recipes.ListComments(r.Context(), recipeID)
	if err != nil {
		h.logger.Error("failed to list comments",
			slog.String("recipe_id", recipeID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list comments", "COMMENT_LIST_FAILED")
		return
	}

	resp := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, toCommentResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// toRecipeResponse maps a domain recipe onto its DTO, resolving image
// references to public URLs.
func (h *Handlers) toRecipeResponse(ctx context.Context, rec *recipe.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:            rec.ID,
		Name:          rec.Name,
		Author:        rec.Author,
		Category:      string(rec.Category),
		Status:        string(rec.Status),
		TimeCooking:   rec.TimeCooking,
		TimePreparing: rec.TimePreparing,
		Servings:      rec.Servings,
		IsSpicy:       rec.IsSpicy,
		IsVegetarian:  rec.IsVegetarian,
		MainPictureID: rec.MainPictureID,
		Steps:         make([]StepResponse, 0, len(rec.Steps)),
		Ingredients:   make([]IngredientResponse, 0, len(rec.Ingredients)),
		CreatedAt:     rec.CreatedAt,
	}

	resolve := func(id string) string {
		if id == "" {
			return ""
		}
		url, err := h.images.ResolveURL(ctx, image.RefByRecord(id))
		if err != nil {
			return ""
		}
		return url
	}

	resp.MainPictureURL = resolve(rec.MainPictureID)
	for _, s := range rec.Steps {
		resp.Steps = append(resp.Steps, StepResponse{
			Index:    s.Index,
			Text:     s.Text,
			ImageID:  s.ImageID,
			ImageURL: resolve(s.ImageID),
		})
	}
	for _, ing := range rec.Ingredients {
		resp.Ingredients = append(resp.Ingredients, IngredientResponse{
			Name: ing.Name, Unit: ing.Unit, Amount: ing.Amount,
		})
	}
	return resp
}

// writeImageError maps upload pipeline errors onto HTTP statuses. Input
// problems are the client's fault; storage and metadata failures are ours.
func (h *Handlers) writeImageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, image.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", "IMAGE_TOO_LARGE")
	case errors.Is(err, image.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "unsupported image format", "IMAGE_FORMAT_UNSUPPORTED")
	case errors.Is(err, image.ErrDecode):
		writeError(w, http.StatusBadRequest, "file is not a decodable image", "IMAGE_DECODE_FAILED")
	default:
		h.logger.Error("image upload failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to store image", "IMAGE_UPLOAD_FAILED")
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
