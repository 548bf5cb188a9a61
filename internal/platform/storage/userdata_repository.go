package storage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chopchop-server-go/internal/platform/errors"
)

// UserDataRepository persists the per-user items/recipes document.
type UserDataRepository struct {
	db *gorm.DB
}

func NewUserDataRepository(db *gorm.DB) *UserDataRepository {
	return &UserDataRepository{db: db}
}

// Save replaces the stored document for email, creating it on first write.
func (r *UserDataRepository) Save(ctx context.Context, email string, items, recipes datatypes.JSON) error {
	record := &UserData{
		ID:      uuid.NewString(),
		Email:   email,
		Items:   items,
		Recipes: recipes,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "recipes", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, "userdata.save", "save user data", err)
	}
	return nil
}

// Find returns the document for email, or nil when none exists yet.
func (r *UserDataRepository) Find(ctx context.Context, email string) (*UserData, error) {
	var record UserData
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "userdata.find", "find user data", err)
	}
	return &record, nil
}

// Update overwrites only the supplied columns. A nil field keeps the stored
// value.
func (r *UserDataRepository) Update(ctx context.Context, email string, items, recipes datatypes.JSON) error {
	updates := map[string]interface{}{}
	if items != nil {
		updates["items"] = items
	}
	if recipes != nil {
		updates["recipes"] = recipes
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&UserData{}).Where("email = ?", email).Updates(updates)
	if res.Error != nil {
		return errors.Wrap(errors.KindStorage, "userdata.update", "update user data", res.Error)
	}
	if res.RowsAffected == 0 {
		// first write for this user
		return r.Save(ctx, email, items, recipes)
	}
	return nil
}
