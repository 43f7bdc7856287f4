package repository

import (
	"context"

	"thoughtwave/internal/cache"
	"thoughtwave/internal/models"
)

// cachedUserRepository serves GetByID through Redis and drops the entry on every write.
type cachedUserRepository struct {
	UserRepository
}

// NewCachedUserRepository wraps next with read-through caching of single-user lookups.
func NewCachedUserRepository(next UserRepository) UserRepository {
	return &cachedUserRepository{UserRepository: next}
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		u, err := r.UserRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *cachedUserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	defer cache.InvalidateUser(ctx, id)
	return r.UserRepository.Update(ctx, id, patch)
}

func (r *cachedUserRepository) Save(ctx context.Context, user *models.User) error {
	defer cache.InvalidateUser(ctx, user.ID)
	return r.UserRepository.Save(ctx, user)
}

func (r *cachedUserRepository) Delete(ctx context.Context, id string) (*models.User, error) {
	defer cache.InvalidateUser(ctx, id)
	return r.UserRepository.Delete(ctx, id)
}

func (r *cachedUserRepository) PushThought(ctx context.Context, userID, thoughtID string) error {
	defer cache.InvalidateUser(ctx, userID)
	return r.UserRepository.PushThought(ctx, userID, thoughtID)
}

func (r *cachedUserRepository) PullThought(ctx context.Context, userID, thoughtID string) error {
	defer cache.InvalidateUser(ctx, userID)
	return r.UserRepository.PullThought(ctx, userID, thoughtID)
}

func (r *cachedUserRepository) PushFriend(ctx context.Context, userID, friendID string) error {
	defer cache.InvalidateUser(ctx, userID)
	return r.UserRepository.PushFriend(ctx, userID, friendID)
}

func (r *cachedUserRepository) PullFriend(ctx context.Context, userID, friendID string) error {
	defer cache.InvalidateUser(ctx, userID)
	return r.UserRepository.PullFriend(ctx, userID, friendID)
}

// cachedThoughtRepository serves GetByID through Redis and drops entries on every write.
type cachedThoughtRepository struct {
	ThoughtRepository
}

// NewCachedThoughtRepository wraps next with read-through caching of single-thought lookups.
func NewCachedThoughtRepository(next ThoughtRepository) ThoughtRepository {
	return &cachedThoughtRepository{ThoughtRepository: next}
}

func (r *cachedThoughtRepository) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	var thought models.Thought
	err := cache.Aside(ctx, cache.ThoughtKey(id), &thought, cache.ThoughtTTL, func() error {
		t, err := r.ThoughtRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		thought = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &thought, nil
}

func (r *cachedThoughtRepository) Update(ctx context.Context, id string, patch models.ThoughtPatch) (*models.Thought, error) {
	defer cache.InvalidateThought(ctx, id)
	return r.ThoughtRepository.Update(ctx, id, patch)
}

func (r *cachedThoughtRepository) Save(ctx context.Context, thought *models.Thought) error {
	defer cache.InvalidateThought(ctx, thought.ID)
	return r.ThoughtRepository.Save(ctx, thought)
}

func (r *cachedThoughtRepository) Delete(ctx context.Context, id string) (*models.Thought, error) {
	defer cache.InvalidateThought(ctx, id)
	return r.ThoughtRepository.Delete(ctx, id)
}

func (r *cachedThoughtRepository) DeleteByUserID(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.ThoughtRepository.DeleteByUserID(ctx, userID)
	cache.InvalidateThought(ctx, ids...)
	return ids, err
}

func (r *cachedThoughtRepository) PushReaction(ctx context.Context, thoughtID string, reaction models.Reaction) (*models.Thought, error) {
	defer cache.InvalidateThought(ctx, thoughtID)
	return r.ThoughtRepository.PushReaction(ctx, thoughtID, reaction)
}

func (r *cachedThoughtRepository) PullReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	defer cache.InvalidateThought(ctx, thoughtID)
	return r.ThoughtRepository.PullReaction(ctx, thoughtID, reactionID)
}
