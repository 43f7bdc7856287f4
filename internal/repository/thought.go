package repository

import (
	"context"
	"errors"

	"thoughtwave/internal/models"

	"gorm.io/gorm"
)

type thoughtRepository struct {
	db *gorm.DB
}

// NewThoughtRepository returns a GORM-backed ThoughtRepository.
func NewThoughtRepository(db *gorm.DB) ThoughtRepository {
	return &thoughtRepository{db: db}
}

func (r *thoughtRepository) Create(ctx context.Context, thought *models.Thought) error {
	if err := r.db.WithContext(ctx).Create(thought).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *thoughtRepository) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	var thought models.Thought
	if err := r.db.WithContext(ctx).First(&thought, "id = ?", id).Error; err != nil {
		return nil, mapThoughtLookupError(err)
	}
	return &thought, nil
}

func (r *thoughtRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Thought, error) {
	if len(ids) == 0 {
		return []models.Thought{}, nil
	}
	var thoughts []models.Thought
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&thoughts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return orderByIDs(ids, thoughts, thoughtID), nil
}

func (r *thoughtRepository) List(ctx context.Context) ([]models.Thought, error) {
	var thoughts []models.Thought
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&thoughts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return thoughts, nil
}

func (r *thoughtRepository) Update(ctx context.Context, id string, patch models.ThoughtPatch) (*models.Thought, error) {
	var thought models.Thought
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&thought, "id = ?", id).Error; err != nil {
			return mapThoughtLookupError(err)
		}
		patch.Apply(&thought)
		return tx.Model(&thought).Select("thought_text", "username").Updates(&thought).Error
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return &thought, nil
}

func (r *thoughtRepository) Save(ctx context.Context, thought *models.Thought) error {
	if thought.Reactions == nil {
		thought.Reactions = []models.Reaction{}
	}
	res := r.db.WithContext(ctx).Model(thought).
		Select("thought_text", "username", "user_id", "reactions").
		Updates(thought)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Thought")
	}
	return nil
}

func (r *thoughtRepository) Delete(ctx context.Context, id string) (*models.Thought, error) {
	var thought models.Thought
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&thought, "id = ?", id).Error; err != nil {
			return mapThoughtLookupError(err)
		}
		return tx.Delete(&models.Thought{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return &thought, nil
}

func (r *thoughtRepository) DeleteByUserID(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Thought{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("id IN ?", ids).Delete(&models.Thought{}).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *thoughtRepository) PushReaction(ctx context.Context, thoughtID string, reaction models.Reaction) (*models.Thought, error) {
	return r.mutateReactions(ctx, thoughtID, func(t *models.Thought) {
		t.Reactions = append(t.Reactions, reaction)
	})
}

func (r *thoughtRepository) PullReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	return r.mutateReactions(ctx, thoughtID, func(t *models.Thought) {
		t.RemoveReaction(reactionID)
	})
}

// mutateReactions rewrites only the reactions column of a locked row.
func (r *thoughtRepository) mutateReactions(ctx context.Context, thoughtID string, fn func(*models.Thought)) (*models.Thought, error) {
	var thought models.Thought
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&thought, "id = ?", thoughtID).Error; err != nil {
			return mapThoughtLookupError(err)
		}
		fn(&thought)
		if thought.Reactions == nil {
			thought.Reactions = []models.Reaction{}
		}
		return tx.Model(&thought).Select("reactions").Updates(&thought).Error
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return &thought, nil
}

func mapThoughtLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("Thought")
	}
	return models.NewInternalError(err)
}

func asAppError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}
