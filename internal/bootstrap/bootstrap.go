// Package bootstrap provides dependency initialization for the recipe API.
package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mpetrova/recipe-api/internal/config"
	"github.com/mpetrova/recipe-api/internal/database"
	"github.com/mpetrova/recipe-api/internal/image"
	"github.com/mpetrova/recipe-api/internal/recipe"
	"github.com/mpetrova/recipe-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the application.
// The HTTP server uses the services; the sweeper binary only uses Sweeper.
type Dependencies struct {
	ImageService  *image.Service
	RecipeService *recipe.Service
	Sweeper       *image.Sweeper

	db *sql.DB
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	imageRepo, err := image.NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create image repository: %w", err)
	}
	recipeRepo, err := recipe.NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create recipe repository: %w", err)
	}

	transcoder := image.NewTranscoder(image.TranscoderConfig{
		Quality:     cfg.JPEGQuality,
		TargetWidth: cfg.ImageTargetWidth,
	})

	imageService := image.NewService(imageRepo, store, transcoder, logger,
		image.WithTTL(cfg.ImageTTL),
		image.WithMaxUploadBytes(cfg.MaxUploadBytes),
	)
	recipeService := recipe.NewService(recipeRepo, imageService, logger)
	sweeper := image.NewSweeper(imageRepo, store, logger)

	return &Dependencies{
		ImageService:  imageService,
		RecipeService: recipeService,
		Sweeper:       sweeper,
		db:            db,
	}, nil
}

// Close releases resources held by the dependency graph.
func (d *Dependencies) Close() error {
	return d.db.Close()
}

// initStorage creates the appropriate object store based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.ObjectStore, error) {
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Store(storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 store: %w", err)
		}
		logger.Info("S3 object store configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	logger.Warn("S3 not configured, using in-memory object store")
	return storage.NewMemoryStore(), nil
}
