// Package seed creates demo users, thoughts, friendships and reactions through
// the service layer, so seeded data obeys the same rules as API writes.
// It is intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"thoughtwave/internal/middleware"
	"thoughtwave/internal/models"
	"thoughtwave/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Options sizes a generated data set.
type Options struct {
	Users               int
	ThoughtsPerUser     int
	FriendsPerUser      int
	ReactionsPerThought int
	// Seed makes generated content reproducible. Zero picks a random seed.
	Seed int64
}

// DefaultOptions returns a small, demo-sized data set.
func DefaultOptions() Options {
	return Options{
		Users:               10,
		ThoughtsPerUser:     3,
		FriendsPerUser:      2,
		ReactionsPerThought: 2,
	}
}

// Summary counts what a seeding run created.
type Summary struct {
	Users       int `json:"users"`
	Thoughts    int `json:"thoughts"`
	Friendships int `json:"friendships"`
	Reactions   int `json:"reactions"`
}

// Seeder writes seed data through the user and thought services.
type Seeder struct {
	users    *service.UserService
	thoughts *service.ThoughtService
}

// NewSeeder returns a Seeder bound to the given services.
func NewSeeder(users *service.UserService, thoughts *service.ThoughtService) *Seeder {
	return &Seeder{users: users, thoughts: thoughts}
}

// Generate creates a random data set sized by opts.
func (s *Seeder) Generate(ctx context.Context, opts Options) (*Summary, error) {
	faker := gofakeit.New(opts.Seed)
	summary := &Summary{}

	created := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		username := strings.ToLower(fmt.Sprintf("%s%d", faker.Username(), i))
		user, err := s.users.CreateUser(ctx, service.CreateUserInput{
			Username: username,
			Email:    username + "@" + faker.DomainName(),
		})
		if err != nil {
			return summary, fmt.Errorf("create user %q: %w", username, err)
		}
		created = append(created, user)
		summary.Users++
	}

	for _, user := range created {
		for j := 0; j < opts.ThoughtsPerUser; j++ {
			thought, err := s.thoughts.CreateThought(ctx, service.CreateThoughtInput{
				ThoughtText: clip(faker.HackerPhrase()),
				UserID:      user.ID,
			})
			if err != nil {
				return summary, fmt.Errorf("create thought for %q: %w", user.Username, err)
			}
			summary.Thoughts++

			for k := 0; k < opts.ReactionsPerThought && len(created) > 0; k++ {
				reactor := created[faker.Number(0, len(created)-1)]
				if _, err := s.thoughts.AddReaction(ctx, thought.ID, service.CreateReactionInput{
					ReactionBody: clip(faker.Sentence(faker.Number(2, 8))),
					Username:     reactor.Username,
				}); err != nil {
					return summary, fmt.Errorf("react to thought %s: %w", thought.ID, err)
				}
				summary.Reactions++
			}
		}
	}

	linked := make(map[[2]string]bool)
	for i, user := range created {
		if len(created) < 2 {
			break
		}
		for j := 0; j < opts.FriendsPerUser; j++ {
			friend := created[(i+1+faker.Number(0, len(created)-2))%len(created)]
			pair := [2]string{user.ID, friend.ID}
			if friend.ID < user.ID {
				pair = [2]string{friend.ID, user.ID}
			}
			if linked[pair] {
				continue
			}
			if _, err := s.users.AddFriend(ctx, user.ID, friend.ID); err != nil {
				return summary, fmt.Errorf("link %q and %q: %w", user.Username, friend.Username, err)
			}
			linked[pair] = true
			summary.Friendships++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed data generated",
		slog.Int("users", summary.Users),
		slog.Int("thoughts", summary.Thoughts),
		slog.Int("friendships", summary.Friendships),
		slog.Int("reactions", summary.Reactions),
	)
	return summary, nil
}

// clip trims generated text to the longest thought or reaction body allowed.
func clip(s string) string {
	r := []rune(s)
	if len(r) <= models.MaxTextLength {
		return s
	}
	return string(r[:models.MaxTextLength])
}
