package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"thoughtwave/internal/middleware"
	"thoughtwave/internal/models"
	"thoughtwave/internal/observability"
	"thoughtwave/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ThoughtService provides thought and reaction business logic, keeping each
// owner's thought list in step with the thoughts collection.
type ThoughtService struct {
	thoughts repository.ThoughtRepository
	users    repository.UserRepository
	events   EventPublisher
	now      func() time.Time
}

// NewThoughtService returns a new ThoughtService. events may be nil.
func NewThoughtService(thoughts repository.ThoughtRepository, users repository.UserRepository, events EventPublisher) *ThoughtService {
	return &ThoughtService{
		thoughts: thoughts,
		users:    users,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateThoughtInput is the body accepted when posting a thought.
type CreateThoughtInput struct {
	ThoughtText string `json:"thoughtText"`
	Username    string `json:"username"`
	UserID      string `json:"userId"`
}

// CreateReactionInput is the body accepted when reacting to a thought.
type CreateReactionInput struct {
	ReactionBody string `json:"reactionBody"`
	Username     string `json:"username"`
}

// ListThoughts returns every thought.
func (s *ThoughtService) ListThoughts(ctx context.Context) ([]models.Thought, error) {
	return s.thoughts.List(ctx)
}

// GetThought returns one thought.
func (s *ThoughtService) GetThought(ctx context.Context, id string) (*models.Thought, error) {
	return s.thoughts.GetByID(ctx, id)
}

// CreateThought stores a thought and appends its id to the owner's list.
// The owner must exist. If the append fails the new thought is deleted again
// so no unreferenced thought is left behind.
func (s *ThoughtService) CreateThought(ctx context.Context, in CreateThoughtInput) (*models.Thought, error) {
	thought := &models.Thought{
		ThoughtText: in.ThoughtText,
		Username:    strings.TrimSpace(in.Username),
		UserID:      strings.TrimSpace(in.UserID),
	}
	if thought.UserID == "" {
		return nil, thought.Validate()
	}

	span, ctx := observability.NewSpan(ctx, "ThoughtService.CreateThought", attribute.String("user.id", thought.UserID))
	defer span.End()

	owner, err := s.users.GetByID(ctx, thought.UserID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if thought.Username == "" {
		thought.Username = owner.Username
	}
	if err := thought.Validate(); err != nil {
		return nil, err
	}

	if err := s.thoughts.Create(ctx, thought); err != nil {
		span.SetError(err)
		return nil, err
	}

	if err := s.users.PushThought(ctx, owner.ID, thought.ID); err != nil {
		span.SetError(err)
		s.compensateCreate(ctx, thought.ID, err)
		return nil, err
	}

	publish(ctx, s.events, EventThoughtCreated, thought, owner.ID)
	return thought, nil
}

func (s *ThoughtService) compensateCreate(ctx context.Context, thoughtID string, cause error) {
	if _, err := s.thoughts.Delete(ctx, thoughtID); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to roll back thought after owner link failed",
			slog.String("thought_id", thoughtID),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.ReferenceRepairs.WithLabelValues("compensation").Inc()
	middleware.Logger.WarnContext(ctx, "rolled back thought after owner link failed",
		slog.String("thought_id", thoughtID),
		slog.String("cause", cause.Error()),
	)
}

// UpdateThought applies the supplied text and username fields.
func (s *ThoughtService) UpdateThought(ctx context.Context, id string, patch models.ThoughtPatch) (*models.Thought, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.thoughts.GetByID(ctx, id)
	}
	return s.thoughts.Update(ctx, id, patch)
}

// DeleteThought removes the thought and then its id from the owner's list.
// A missing owner is skipped.
func (s *ThoughtService) DeleteThought(ctx context.Context, id string) (*models.Thought, error) {
	span, ctx := observability.NewSpan(ctx, "ThoughtService.DeleteThought", attribute.String("thought.id", id))
	defer span.End()

	thought, err := s.thoughts.Delete(ctx, id)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if err := s.users.PullThought(ctx, thought.UserID, thought.ID); err != nil {
		if !models.IsNotFound(err) {
			span.SetError(err)
			return nil, err
		}
		observability.SkippedBackReferences.WithLabelValues("delete_thought").Inc()
		middleware.Logger.InfoContext(ctx, "thought owner already gone; nothing to unlink",
			slog.String("thought_id", thought.ID),
			slog.String("user_id", thought.UserID),
		)
	} else {
		publish(ctx, s.events, EventThoughtDeleted, map[string]string{"thoughtId": thought.ID}, thought.UserID)
	}

	return thought, nil
}

// AddReaction appends a new reaction to the thought and returns the updated thought.
func (s *ThoughtService) AddReaction(ctx context.Context, thoughtID string, in CreateReactionInput) (*models.Thought, error) {
	if _, err := s.thoughts.GetByID(ctx, thoughtID); err != nil {
		return nil, err
	}

	reaction := models.NewReaction(in.ReactionBody, in.Username, s.now())
	if err := reaction.Validate(); err != nil {
		return nil, err
	}

	thought, err := s.thoughts.PushReaction(ctx, thoughtID, reaction)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, EventReactionAdded, reaction, thought.UserID)
	return thought, nil
}

// RemoveReaction drops the reaction with the given id. An unknown reaction id
// leaves the thought unchanged.
func (s *ThoughtService) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	thought, err := s.thoughts.GetByID(ctx, thoughtID)
	if err != nil {
		return nil, err
	}
	if !thought.HasReaction(reactionID) {
		return thought, nil
	}

	thought, err = s.thoughts.PullReaction(ctx, thoughtID, reactionID)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, EventReactionRemoved, map[string]string{"thoughtId": thought.ID, "reactionId": reactionID}, thought.UserID)
	return thought, nil
}
