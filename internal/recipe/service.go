package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrova/recipe-api/internal/image"
)

// Service orchestrates recipe use cases. Creating a recipe finalizes the
// image references it carries: each referenced image is promoted to
// permanent and thereby exempted from expiry sweeping. Deleting a recipe
// runs the image deletion hook for every referenced image, so the backing
// objects are removed from storage synchronously.
type Service struct {
	repo   Repository
	images *image.Service
	logger *slog.Logger
	now    func() time.Time
}

// ServiceOption is a function that configures a Service instance.
type ServiceOption func(*Service)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new recipe Service.
func NewService(repo Repository, images *image.Service, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:   repo,
		images: images,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput contains the parameters for creating a recipe.
type CreateInput struct {
	Name          string
	Author        string
	Category      Category
	Status        Status
	TimeCooking   int
	TimePreparing int
	Servings      int
	IsSpicy       bool
	IsVegetarian  bool
	MainPictureID string
	Steps         []Step
	Ingredients   []Ingredient
}

// Create persists a recipe and promotes every referenced image.
// Image references are checked up front so a dangling id fails the request
// before anything is written.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Recipe, error) {
	status := in.Status
	if status == "" {
		status = StatusPublished
	}

	rec := &Recipe{
		ID:            uuid.New().String(),
		Name:          in.Name,
		Author:        in.Author,
		Category:      in.Category,
		Status:        status,
		TimeCooking:   in.TimeCooking,
		TimePreparing: in.TimePreparing,
		Servings:      in.Servings,
		IsSpicy:       in.IsSpicy,
		IsVegetarian:  in.IsVegetarian,
		MainPictureID: in.MainPictureID,
		Steps:         in.Steps,
		Ingredients:   in.Ingredients,
		CreatedAt:     s.now(),
	}

	imageIDs := rec.ImageIDs()
	for _, id := range imageIDs {
		if _, err := s.images.Get(ctx, id); err != nil {
			return nil, fmt.Errorf("image reference %s: %w", id, err)
		}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	// The recipe is finalized: its images become permanent.
	for _, id := range imageIDs {
		if err := s.images.Promote(ctx, id); err != nil {
			s.logger.Error("image promotion failed",
				slog.String("recipe_id", rec.ID),
				slog.String("image_id", id),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("promote image %s: %w", id, err)
		}
	}

	s.logger.Info("recipe created",
		slog.String("recipe_id", rec.ID),
		slog.String("name", rec.Name),
		slog.Int("images", len(imageIDs)),
	)
	return rec, nil
}

// Get retrieves a recipe by id.
func (s *Service) Get(ctx context.Context, id string) (*Recipe, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all published recipes.
func (s *Service) List(ctx context.Context) ([]*Recipe, error) {
	return s.repo.List(ctx)
}

// Delete removes a recipe and every image it references, backing objects
// included. Image deletions run after the recipe row is gone; a failing
// image delete is reported but does not stop the remaining deletions.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	var errs []error
	for _, imageID := range rec.ImageIDs() {
		if err := s.images.Delete(ctx, imageID); err != nil && !errors.Is(err, image.ErrNotFound) {
			s.logger.Error("image cleanup failed during recipe delete",
				slog.String("recipe_id", id),
				slog.String("image_id", imageID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("delete image %s: %w", imageID, err))
		}
	}

	s.logger.Info("recipe deleted", slog.String("recipe_id", id))
	return errors.Join(errs...)
}

// AddComment persists a comment on a recipe.
func (s *Service) AddComment(ctx context.Context, recipeID, user, text string) (*Comment, error) {
	c := &Comment{
		ID:        uuid.New().String(),
		RecipeID:  recipeID,
		User:      user,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments returns all comments on a recipe, oldest first.
func (s *Service) ListComments(ctx context.Context, recipeID string) ([]*Comment, error) {
	return s.repo.ListComments(ctx, recipeID)
}
