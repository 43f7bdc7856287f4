package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"thoughtwave/internal/models"
	"thoughtwave/internal/repository"
	"thoughtwave/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	userID    string
	eventType string
	data      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishUserEvent(_ context.Context, userID, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, eventType: eventType, data: data})
	return p.err
}

func (p *recordingPublisher) recipients(eventType string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.eventType == eventType {
			out = append(out, e.userID)
		}
	}
	return out
}

// pushFailingUsers fails every PushThought call.
type pushFailingUsers struct {
	repository.UserRepository
	err error
}

func (r pushFailingUsers) PushThought(context.Context, string, string) error {
	return r.err
}

// pullFailingUsers fails every PullThought call.
type pullFailingUsers struct {
	repository.UserRepository
	err error
}

func (r pullFailingUsers) PullThought(context.Context, string, string) error {
	return r.err
}

type fixture struct {
	store    *repository.Store
	events   *recordingPublisher
	users    *UserService
	thoughts *ThoughtService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewSQLiteStore(t)
	events := &recordingPublisher{}
	return &fixture{
		store:    store,
		events:   events,
		users:    NewUserService(store.Users, store.Thoughts, events),
		thoughts: NewThoughtService(store.Thoughts, store.Users, events),
	}
}

func (f *fixture) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), CreateUserInput{Username: name, Email: name + "@example.test"})
	require.NoError(t, err)
	return u
}

func (f *fixture) createThought(t *testing.T, owner *models.User, text string) *models.Thought {
	t.Helper()
	th, err := f.thoughts.CreateThought(context.Background(), CreateThoughtInput{ThoughtText: text, UserID: owner.ID})
	require.NoError(t, err)
	return th
}

func (f *fixture) reload(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.store.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func requireAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}
