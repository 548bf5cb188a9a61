package storage

import (
	"context"

	"gorm.io/gorm"

	"chopchop-server-go/internal/platform/errors"
)

// RecentRecipeRepository keeps a rolling per-user list of generated recipes.
type RecentRecipeRepository struct {
	db   *gorm.DB
	keep int
}

// NewRecentRecipeRepository creates a repository retaining the newest keep
// recipes per user.
func NewRecentRecipeRepository(db *gorm.DB, keep int) *RecentRecipeRepository {
	if keep <= 0 {
		keep = 10
	}
	return &RecentRecipeRepository{db: db, keep: keep}
}

// Add stores a recipe and prunes entries beyond the retention window.
func (r *RecentRecipeRepository) Add(ctx context.Context, recipe *RecentRecipe) error {
	const op = "recipes.add"
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// re-adding the same recipe moves it to the top
		if err := tx.Where("email = ? AND recipe_id = ?", recipe.Email, recipe.RecipeID).
			Delete(&RecentRecipe{}).Error; err != nil {
			return errors.Wrap(errors.KindStorage, op, "dedupe recipe", err)
		}
		if err := tx.Create(recipe).Error; err != nil {
			return errors.Wrap(errors.KindStorage, op, "insert recipe", err)
		}

		var stale []uint
		if err := tx.Model(&RecentRecipe{}).
			Where("email = ?", recipe.Email).
			Order("created_at DESC, id DESC").
			Offset(r.keep).
			Pluck("id", &stale).Error; err != nil {
			return errors.Wrap(errors.KindStorage, op, "find stale recipes", err)
		}
		if len(stale) > 0 {
			if err := tx.Delete(&RecentRecipe{}, stale).Error; err != nil {
				return errors.Wrap(errors.KindStorage, op, "prune stale recipes", err)
			}
		}
		return nil
	})
}

// List returns the retained recipes for email, newest first.
func (r *RecentRecipeRepository) List(ctx context.Context, email string) ([]RecentRecipe, error) {
	var recipes []RecentRecipe
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC, id DESC").
		Limit(r.keep).
		Find(&recipes).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "recipes.list", "list recipes", err)
	}
	return recipes, nil
}
