package repository

import (
	"context"
	"errors"
	"time"

	"thoughtwave/internal/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationErrorWithCause(duplicateUserMessage, err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, mapUserLookupError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return orderByIDs(ids, users, userID), nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&user, "id = ?", id).Error; err != nil {
			return mapUserLookupError(err)
		}
		patch.Apply(&user)
		user.UpdatedAt = time.Now()
		return tx.Model(&user).Select("username", "email", "updated_at").Updates(&user).Error
	})
	if err != nil {
		return nil, mapUserWriteError(err)
	}
	return &user, nil
}

func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	user.Normalize()
	user.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(user).
		Select("username", "email", "thoughts", "friends", "updated_at").
		Updates(user)
	if res.Error != nil {
		return mapUserWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User")
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return mapUserLookupError(err)
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapUserWriteError(err)
	}
	return &user, nil
}

func (r *userRepository) PushThought(ctx context.Context, userID, thoughtID string) error {
	return r.mutateList(ctx, userID, "thoughts", func(u *models.User) {
		u.Thoughts = append(u.Thoughts, thoughtID)
	})
}

func (r *userRepository) PullThought(ctx context.Context, userID, thoughtID string) error {
	return r.mutateList(ctx, userID, "thoughts", func(u *models.User) {
		u.Thoughts = models.RemoveAll(u.Thoughts, thoughtID)
	})
}

func (r *userRepository) PushFriend(ctx context.Context, userID, friendID string) error {
	return r.mutateList(ctx, userID, "friends", func(u *models.User) {
		u.Friends = append(u.Friends, friendID)
	})
}

func (r *userRepository) PullFriend(ctx context.Context, userID, friendID string) error {
	return r.mutateList(ctx, userID, "friends", func(u *models.User) {
		u.Friends = models.RemoveAll(u.Friends, friendID)
	})
}

// mutateList rewrites one reference list column inside a transaction. The row
// is re-read under lock so concurrent writers to the same user do not
// overwrite each other on Postgres, and only column is written back.
func (r *userRepository) mutateList(ctx context.Context, userID, column string, fn func(*models.User)) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).First(&user, "id = ?", userID).Error; err != nil {
			return mapUserLookupError(err)
		}
		fn(&user)
		user.Normalize()
		user.UpdatedAt = time.Now()
		return tx.Model(&user).Select(column, "updated_at").Updates(&user).Error
	})
	if err != nil {
		return mapUserWriteError(err)
	}
	return nil
}

func mapUserLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("User")
	}
	return models.NewInternalError(err)
}

func mapUserWriteError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if isUniqueConstraintError(err) {
		return models.NewValidationErrorWithCause(duplicateUserMessage, err)
	}
	return models.NewInternalError(err)
}
