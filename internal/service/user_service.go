// Package service holds the business operations that keep users, thoughts,
// and friend lists consistent across separate document writes.
package service

import (
	"context"
	"log/slog"

	"thoughtwave/internal/middleware"
	"thoughtwave/internal/models"
	"thoughtwave/internal/observability"
	"thoughtwave/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// UserService provides user, friendship, and cascade-delete business logic.
type UserService struct {
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
	events   EventPublisher
}

// NewUserService returns a new UserService. events may be nil.
func NewUserService(users repository.UserRepository, thoughts repository.ThoughtRepository, events EventPublisher) *UserService {
	return &UserService{
		users:    users,
		thoughts: thoughts,
		events:   events,
	}
}

// CreateUserInput is the body accepted when registering a user.
type CreateUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DeleteUserResult reports what a cascade delete removed.
type DeleteUserResult struct {
	User              *models.User
	DeletedThoughtIDs []string
}

// ListUsers returns every user with thoughts and friends resolved.
func (s *UserService) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, users)
}

// GetUser returns one user with thoughts and friends resolved. References to
// documents that no longer exist are omitted.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.UserProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profiles, err := s.populate(ctx, []models.User{*user})
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

// CreateUser validates and stores a new user with empty reference lists.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	user := &models.User{Username: in.Username, Email: in.Email}
	user.Normalize()
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies the supplied fields to an existing user.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.users.GetByID(ctx, id)
	}
	return s.users.Update(ctx, id, patch)
}

// DeleteUser removes the user and then every thought they own. The user's id
// is left in other users' friend lists; the Reconciler removes those.
func (s *UserService) DeleteUser(ctx context.Context, id string) (*DeleteUserResult, error) {
	span, ctx := observability.NewSpan(ctx, "UserService.DeleteUser", attribute.String("user.id", id))
	defer span.End()

	user, err := s.users.Delete(ctx, id)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	thoughtIDs, err := s.thoughts.DeleteByUserID(ctx, user.ID)
	if err != nil {
		span.SetError(err)
		middleware.Logger.ErrorContext(ctx, "user deleted but owned thoughts were not",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	span.AddEvent("thoughts.deleted", attribute.Int("count", len(thoughtIDs)))

	publish(ctx, s.events, EventUserDeleted, map[string]string{"userId": user.ID}, user.Friends...)

	return &DeleteUserResult{User: user, DeletedThoughtIDs: thoughtIDs}, nil
}

// AddFriend appends each user's id to the other's friend list. Repeating the
// call appends again; friend lists are not deduplicated. Only the friend
// lists are written, so concurrent thought links are preserved.
func (s *UserService) AddFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	if userID == friendID {
		return nil, models.NewValidationError("Cannot add yourself as a friend")
	}

	span, ctx := observability.NewSpan(ctx, "UserService.AddFriend",
		attribute.String("user.id", userID), attribute.String("friend.id", friendID))
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	friend, err := s.users.GetByID(ctx, friendID)
	if err != nil {
		if models.IsNotFound(err) {
			err = models.NewNotFoundError("Friend")
		}
		span.SetError(err)
		return nil, err
	}

	if err := s.users.PushFriend(ctx, user.ID, friend.ID); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := s.users.PushFriend(ctx, friend.ID, user.ID); err != nil {
		span.SetError(err)
		middleware.Logger.ErrorContext(ctx, "friend link saved on one side only",
			slog.String("user_id", user.ID),
			slog.String("friend_id", friend.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	publish(ctx, s.events, EventFriendAdded, map[string]string{"userId": user.ID, "friendId": friend.ID}, user.ID, friend.ID)
	return s.users.GetByID(ctx, user.ID)
}

// RemoveFriend removes every occurrence of each id from the other's friend
// list. Removing a non-friend succeeds without change. A friend id that no
// longer resolves, such as one left by DeleteUser, is still removed from the
// user's list.
func (s *UserService) RemoveFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	span, ctx := observability.NewSpan(ctx, "UserService.RemoveFriend",
		attribute.String("user.id", userID), attribute.String("friend.id", friendID))
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	friendExists := true
	if _, err := s.users.GetByID(ctx, friendID); err != nil {
		if !models.IsNotFound(err) {
			span.SetError(err)
			return nil, err
		}
		friendExists = false
	}

	if err := s.users.PullFriend(ctx, user.ID, friendID); err != nil {
		span.SetError(err)
		return nil, err
	}

	recipients := []string{user.ID}
	if friendExists && friendID != user.ID {
		if err := s.users.PullFriend(ctx, friendID, user.ID); err != nil && !models.IsNotFound(err) {
			span.SetError(err)
			return nil, err
		}
		recipients = append(recipients, friendID)
	}

	publish(ctx, s.events, EventFriendRemoved, map[string]string{"userId": user.ID, "friendId": friendID}, recipients...)
	return s.users.GetByID(ctx, user.ID)
}

// populate resolves thought and friend ids for a batch of users with one
// lookup per collection.
func (s *UserService) populate(ctx context.Context, users []models.User) ([]models.UserProfile, error) {
	var thoughtIDs, friendIDs []string
	for _, u := range users {
		thoughtIDs = append(thoughtIDs, u.Thoughts...)
		friendIDs = append(friendIDs, u.Friends...)
	}

	thoughts, err := s.thoughts.GetByIDs(ctx, unique(thoughtIDs))
	if err != nil {
		return nil, err
	}
	friends, err := s.users.GetByIDs(ctx, unique(friendIDs))
	if err != nil {
		return nil, err
	}

	thoughtByID := make(map[string]models.Thought, len(thoughts))
	for _, t := range thoughts {
		thoughtByID[t.ID] = t
	}
	friendByID := make(map[string]models.User, len(friends))
	for _, f := range friends {
		friendByID[f.ID] = f
	}

	profiles := make([]models.UserProfile, 0, len(users))
	for i := range users {
		u := &users[i]
		resolvedThoughts := make([]models.Thought, 0, len(u.Thoughts))
		for _, id := range u.Thoughts {
			if t, ok := thoughtByID[id]; ok {
				resolvedThoughts = append(resolvedThoughts, t)
			}
		}
		resolvedFriends := make([]models.User, 0, len(u.Friends))
		for _, id := range u.Friends {
			if f, ok := friendByID[id]; ok {
				resolvedFriends = append(resolvedFriends, f)
			}
		}
		profiles = append(profiles, models.NewUserProfile(u, resolvedThoughts, resolvedFriends))
	}
	return profiles, nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
