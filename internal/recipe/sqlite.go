package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Compile-time check that SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)

const recipeSchema = `
CREATE TABLE IF NOT EXISTS recipes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  author TEXT NOT NULL,
  category TEXT NOT NULL,
  status TEXT NOT NULL,
  time_cooking INTEGER NOT NULL,
  time_preparing INTEGER NOT NULL,
  servings INTEGER NOT NULL,
  is_spicy BOOLEAN NOT NULL DEFAULT FALSE,
  is_vegetarian BOOLEAN NOT NULL DEFAULT FALSE,
  main_picture_id TEXT,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recipe_steps (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  recipe_id TEXT NOT NULL,
  step_index INTEGER NOT NULL,
  text TEXT NOT NULL,
  image_id TEXT,
  FOREIGN KEY(recipe_id) REFERENCES recipes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS recipe_ingredients (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  recipe_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit TEXT NOT NULL,
  amount REAL NOT NULL,
  FOREIGN KEY(recipe_id) REFERENCES recipes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS comments (
  id TEXT PRIMARY KEY,
  recipe_id TEXT NOT NULL,
  user_name TEXT NOT NULL,
  text TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  FOREIGN KEY(recipe_id) REFERENCES recipes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_recipe_steps_recipe ON recipe_steps(recipe_id);
CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_recipe ON recipe_ingredients(recipe_id);
CREATE INDEX IF NOT EXISTS idx_comments_recipe ON comments(recipe_id);
`

// SQLiteRepository implements Repository on a SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates the repository and applies the recipe schema.
func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if _, err := db.Exec(recipeSchema); err != nil {
		return nil, fmt.Errorf("apply recipe schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Create persists a recipe with its steps and ingredients in one transaction.
func (r *SQLiteRepository) Create(ctx context.Context, rec *Recipe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin recipe insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, name, author, category, status, time_cooking,
		   time_preparing, servings, is_spicy, is_vegetarian, main_picture_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Author, string(rec.Category), string(rec.Status),
		rec.TimeCooking, rec.TimePreparing, rec.Servings, rec.IsSpicy,
		rec.IsVegetarian, nullable(rec.MainPictureID), rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert recipe %s: %w", rec.ID, err)
	}

	for _, step := range rec.Steps {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recipe_steps (recipe_id, step_index, text, image_id)
			 VALUES (?, ?, ?, ?)`,
			rec.ID, step.Index, step.Text, nullable(step.ImageID),
		)
		if err != nil {
			return fmt.Errorf("insert recipe step %d: %w", step.Index, err)
		}
	}

	for _, ing := range rec.Ingredients {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, name, unit, amount)
			 VALUES (?, ?, ?, ?)`,
			rec.ID, ing.Name, ing.Unit, ing.Amount,
		)
		if err != nil {
			return fmt.Errorf("insert recipe ingredient %s: %w", ing.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recipe insert: %w", err)
	}
	return nil
}

// FindByID retrieves a recipe with steps and ingredients loaded.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*Recipe, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, author, category, status, time_cooking, time_preparing,
		   servings, is_spicy, is_vegetarian, main_picture_id, created_at
		 FROM recipes WHERE id = ?`, id)

	rec, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("select recipe %s: %w", id, err)
	}

	if err := r.loadChildren(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns all published recipes.
func (r *SQLiteRepository) List(ctx context.Context) ([]*Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, author, category, status, time_cooking, time_preparing,
		   servings, is_spicy, is_vegetarian, main_picture_id, created_at
		 FROM recipes WHERE status = ? ORDER BY created_at DESC`,
		string(StatusPublished))
	if err != nil {
		return nil, fmt.Errorf("select recipes: %w", err)
	}
	defer rows.Close()

	var result []*Recipe
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range result {
		if err := r.loadChildren(ctx, rec); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Delete removes a recipe; steps, ingredients and comments cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe %s: %w", id, err)
	}
	if affected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// AddComment persists a comment on a recipe.
func (r *SQLiteRepository) AddComment(ctx context.Context, c *Comment) error {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE id = ?`, c.RecipeID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check recipe %s: %w", c.RecipeID, err)
	}
	if exists == 0 {
		return ErrRecipeNotFound
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO comments (id, recipe_id, user_name, text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.RecipeID, c.User, c.Text, c.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert comment %s: %w", c.ID, err)
	}
	return nil
}

// ListComments returns all comments on a recipe, oldest first.
func (r *SQLiteRepository) ListComments(ctx context.Context, recipeID string) ([]*Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recipe_id, user_name, text, created_at
		 FROM comments WHERE recipe_id = ? ORDER BY created_at ASC, id ASC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("select comments for %s: %w", recipeID, err)
	}
	defer rows.Close()

	var result []*Comment
	for rows.Next() {
		var c Comment
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.RecipeID, &c.User, &c.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		result = append(result, &c)
	}
	return result, rows.Err()
}

// loadChildren populates Steps and Ingredients for a recipe.
func (r *SQLiteRepository) loadChildren(ctx context.Context, rec *Recipe) error {
	stepRows, err := r.db.QueryContext(ctx,
		`SELECT step_index, text, image_id FROM recipe_steps
		 WHERE recipe_id = ? ORDER BY step_index ASC`, rec.ID)
	if err != nil {
		return fmt.Errorf("select steps for %s: %w", rec.ID, err)
	}
	defer stepRows.Close()

	for stepRows.Next() {
		var step Step
		var imageID sql.NullString
		if err := stepRows.Scan(&step.Index, &step.Text, &imageID); err != nil {
			return fmt.Errorf("scan step: %w", err)
		}
		step.ImageID = imageID.String
		rec.Steps = append(rec.Steps, step)
	}
	if err := stepRows.Err(); err != nil {
		return err
	}

	ingRows, err := r.db.QueryContext(ctx,
		`SELECT name, unit, amount FROM recipe_ingredients
		 WHERE recipe_id = ? ORDER BY id ASC`, rec.ID)
	if err != nil {
		return fmt.Errorf("select ingredients for %s: %w", rec.ID, err)
	}
	defer ingRows.Close()

	for ingRows.Next() {
		var ing Ingredient
		if err := ingRows.Scan(&ing.Name, &ing.Unit, &ing.Amount); err != nil {
			return fmt.Errorf("scan ingredient: %w", err)
		}
		rec.Ingredients = append(rec.Ingredients, ing)
	}
	return ingRows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*Recipe, error) {
	var rec Recipe
	var category, status string
	var mainPicture sql.NullString
	var createdAt int64
	err := row.Scan(&rec.ID, &rec.Name, &rec.Author, &category, &status,
		&rec.TimeCooking, &rec.TimePreparing, &rec.Servings, &rec.IsSpicy,
		&rec.IsVegetarian, &mainPicture, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Category = Category(category)
	rec.Status = Status(status)
	rec.MainPictureID = mainPicture.String
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}

// nullable maps an empty string onto SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
