// Package repository implements the data access layer for users and thoughts.
//
// Two backends satisfy the same interfaces: GORM (Postgres or SQLite, with
// list fields stored as JSON columns) and MongoDB (native arrays). Neither
// offers cross-document atomicity to callers; referential bookkeeping lives
// in the service layer.
package repository

import (
	"context"
	"errors"
	"strings"

	"thoughtwave/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) (*models.User, error)
	PushThought(ctx context.Context, userID, thoughtID string) error
	PullThought(ctx context.Context, userID, thoughtID string) error
	PushFriend(ctx context.Context, userID, friendID string) error
	PullFriend(ctx context.Context, userID, friendID string) error
}

// ThoughtRepository defines persistence operations for thoughts and their embedded reactions.
type ThoughtRepository interface {
	Create(ctx context.Context, thought *models.Thought) error
	GetByID(ctx context.Context, id string) (*models.Thought, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Thought, error)
	List(ctx context.Context) ([]models.Thought, error)
	Update(ctx context.Context, id string, patch models.ThoughtPatch) (*models.Thought, error)
	Save(ctx context.Context, thought *models.Thought) error
	Delete(ctx context.Context, id string) (*models.Thought, error)
	DeleteByUserID(ctx context.Context, userID string) ([]string, error)
	PushReaction(ctx context.Context, thoughtID string, reaction models.Reaction) (*models.Thought, error)
	PullReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error)
}

// Store bundles the repositories of one backend with its lifecycle hooks.
type Store struct {
	Users    UserRepository
	Thoughts ThoughtRepository
	Driver   string

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks connectivity to the backend.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend's connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// WithCache returns a copy of the store whose repositories read through Redis.
func (s *Store) WithCache() *Store {
	cp := *s
	cp.Users = NewCachedUserRepository(s.Users)
	cp.Thoughts = NewCachedThoughtRepository(s.Thoughts)
	return &cp
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

const duplicateUserMessage = "Username or email already exists"

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// orderByIDs arranges docs to follow ids, repeating a document when its id is
// repeated and skipping ids with no document.
func orderByIDs[T any](ids []string, docs []T, idOf func(*T) string) []T {
	byID := make(map[string]*T, len(docs))
	for i := range docs {
		byID[idOf(&docs[i])] = &docs[i]
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, *d)
		}
	}
	return out
}

func userID(u *models.User) string       { return u.ID }
func thoughtID(t *models.Thought) string { return t.ID }
