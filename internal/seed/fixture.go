package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"thoughtwave/internal/models"
	"thoughtwave/internal/service"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

// Fixture is a hand-written data set. Friends and reaction authors refer to
// users by username.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
}

// FixtureUser describes one user and the thoughts they own.
type FixtureUser struct {
	Username string           `yaml:"username"`
	Email    string           `yaml:"email"`
	Friends  []string         `yaml:"friends"`
	Thoughts []FixtureThought `yaml:"thoughts"`
}

// FixtureThought is a thought with optional reactions.
type FixtureThought struct {
	Text      string            `yaml:"text"`
	Reactions []FixtureReaction `yaml:"reactions"`
}

// FixtureReaction is a reaction left by the named user.
type FixtureReaction struct {
	Body     string `yaml:"body"`
	Username string `yaml:"username"`
}

// ParseFixture decodes and checks a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("unmarshal fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// DemoFixture returns the built-in demo data set.
func DemoFixture() (*Fixture, error) {
	return ParseFixture(demoFixture)
}

func (fx *Fixture) validate() error {
	if len(fx.Users) == 0 {
		return errors.New("fixture has no users")
	}
	known := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		if u.Username == "" {
			return fmt.Errorf("fixture user at index %d has no username", i)
		}
		if known[u.Username] {
			return fmt.Errorf("fixture user %q is listed twice", u.Username)
		}
		known[u.Username] = true
	}
	for _, u := range fx.Users {
		for _, f := range u.Friends {
			if !known[f] {
				return fmt.Errorf("fixture user %q lists unknown friend %q", u.Username, f)
			}
		}
	}
	return nil
}

// ApplyFixture creates every user, then their thoughts and reactions, then
// friendships. A friendship listed on both sides is linked once.
func (s *Seeder) ApplyFixture(ctx context.Context, fx *Fixture) (*Summary, error) {
	summary := &Summary{}
	byName := make(map[string]*models.User, len(fx.Users))

	for _, fu := range fx.Users {
		user, err := s.users.CreateUser(ctx, service.CreateUserInput{Username: fu.Username, Email: fu.Email})
		if err != nil {
			return summary, fmt.Errorf("create user %q: %w", fu.Username, err)
		}
		byName[fu.Username] = user
		summary.Users++
	}

	for _, fu := range fx.Users {
		owner := byName[fu.Username]
		for _, ft := range fu.Thoughts {
			thought, err := s.thoughts.CreateThought(ctx, service.CreateThoughtInput{ThoughtText: ft.Text, UserID: owner.ID})
			if err != nil {
				return summary, fmt.Errorf("create thought for %q: %w", fu.Username, err)
			}
			summary.Thoughts++

			for _, fr := range ft.Reactions {
				if _, err := s.thoughts.AddReaction(ctx, thought.ID, service.CreateReactionInput{
					ReactionBody: fr.Body,
					Username:     fr.Username,
				}); err != nil {
					return summary, fmt.Errorf("react to thought for %q: %w", fu.Username, err)
				}
				summary.Reactions++
			}
		}
	}

	linked := make(map[[2]string]bool)
	for _, fu := range fx.Users {
		for _, friendName := range fu.Friends {
			pair := [2]string{fu.Username, friendName}
			if friendName < fu.Username {
				pair = [2]string{friendName, fu.Username}
			}
			if linked[pair] {
				continue
			}
			if _, err := s.users.AddFriend(ctx, byName[fu.Username].ID, byName[friendName].ID); err != nil {
				return summary, fmt.Errorf("link %q and %q: %w", fu.Username, friendName, err)
			}
			linked[pair] = true
			summary.Friendships++
		}
	}

	return summary, nil
}
