package server

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"thoughtwave/internal/config"
	"thoughtwave/internal/models"
	"thoughtwave/internal/repository"
	"thoughtwave/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookedUsers runs a one-shot hook after GetByID reads the matching user.
type hookedUsers struct {
	repository.UserRepository
	mu    sync.Mutex
	hooks map[string]func()
}

func (r *hookedUsers) on(id string, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooks == nil {
		r.hooks = make(map[string]func())
	}
	r.hooks[id] = fn
}

func (r *hookedUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := r.UserRepository.GetByID(ctx, id)
	r.mu.Lock()
	fn := r.hooks[id]
	delete(r.hooks, id)
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
	return u, err
}

// hookedThoughts runs a one-shot hook after GetByID reads the matching thought.
type hookedThoughts struct {
	repository.ThoughtRepository
	mu    sync.Mutex
	hooks map[string]func()
}

func (r *hookedThoughts) on(id string, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooks == nil {
		r.hooks = make(map[string]func())
	}
	r.hooks[id] = fn
}

func (r *hookedThoughts) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	th, err := r.ThoughtRepository.GetByID(ctx, id)
	r.mu.Lock()
	fn := r.hooks[id]
	delete(r.hooks, id)
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
	return th, err
}

func TestListWritesKeepInterleavedUpdates(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewSQLiteStore(t)
	baseUsers, baseThoughts := store.Users, store.Thoughts
	users := &hookedUsers{UserRepository: baseUsers}
	thoughts := &hookedThoughts{ThoughtRepository: baseThoughts}
	store.Users, store.Thoughts = users, thoughts

	app := NewServerWithDeps(&config.Config{Port: "0"}, store, nil).NewApp()
	ada := createUser(t, app, "ada")
	bob := createUser(t, app, "bob")
	th := createThought(t, app, ada.ID, "original")

	status, body := doRequest(t, app, http.MethodPost, "/thoughts/"+th.ID+"/reactions",
		map[string]string{"reactionBody": "first", "username": "bob"})
	require.Equal(t, http.StatusCreated, status, string(body))
	first := decode[thoughtJSON](t, body).Reactions[0].ReactionID

	// postThought links a new thought to ada behind the handler's back.
	postThought := func(t *testing.T, text string) func(t *testing.T) {
		var posted models.Thought
		users.on(ada.ID, func() {
			posted = models.Thought{ThoughtText: text, Username: "ada", UserID: ada.ID}
			require.NoError(t, baseThoughts.Create(ctx, &posted))
			require.NoError(t, baseUsers.PushThought(ctx, ada.ID, posted.ID))
		})
		return func(t *testing.T) {
			u, err := baseUsers.GetByID(ctx, ada.ID)
			require.NoError(t, err)
			assert.Contains(t, u.Thoughts, posted.ID)
		}
	}
	// editThought rewrites the thought text behind the handler's back.
	editThought := func(t *testing.T, text string) func(t *testing.T) {
		thoughts.on(th.ID, func() {
			_, err := baseThoughts.Update(ctx, th.ID, models.ThoughtPatch{ThoughtText: &text})
			require.NoError(t, err)
		})
		return func(t *testing.T) {
			stored, err := baseThoughts.GetByID(ctx, th.ID)
			require.NoError(t, err)
			assert.Equal(t, text, stored.ThoughtText)
		}
	}

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		status     int
		interleave func(t *testing.T) func(t *testing.T)
		check      func(t *testing.T, body []byte)
	}{
		{
			name:   "Add friend keeps a thought posted mid-request",
			status: http.StatusOK,
			method: http.MethodPost,
			path:   "/users/" + ada.ID + "/friends/" + bob.ID,
			interleave: func(t *testing.T) func(t *testing.T) {
				return postThought(t, "posted during add friend")
			},
			check: func(t *testing.T, body []byte) {
				assert.Equal(t, []string{bob.ID}, decode[userJSON](t, body).Friends)
			},
		},
		{
			name:   "Remove friend keeps a thought posted mid-request",
			status: http.StatusOK,
			method: http.MethodDelete,
			path:   "/users/" + ada.ID + "/friends/" + bob.ID,
			interleave: func(t *testing.T) func(t *testing.T) {
				return postThought(t, "posted during remove friend")
			},
			check: func(t *testing.T, body []byte) {
				resp := decode[userJSON](t, body)
				assert.Empty(t, resp.Friends)
				assert.Len(t, resp.Thoughts, 3)
			},
		},
		{
			name:   "Add reaction keeps an edit made mid-request",
			method: http.MethodPost,
			path:   "/thoughts/" + th.ID + "/reactions",
			body:   map[string]string{"reactionBody": "second", "username": "cy"},
			status: http.StatusCreated,
			interleave: func(t *testing.T) func(t *testing.T) {
				return editThought(t, "edited during add reaction")
			},
			check: func(t *testing.T, body []byte) {
				resp := decode[thoughtJSON](t, body)
				assert.Equal(t, "edited during add reaction", resp.ThoughtText)
				assert.Equal(t, 2, resp.ReactionCount)
			},
		},
		{
			name:   "Remove reaction keeps an edit made mid-request",
			status: http.StatusOK,
			method: http.MethodDelete,
			path:   "/thoughts/" + th.ID + "/reactions/" + first,
			interleave: func(t *testing.T) func(t *testing.T) {
				return editThought(t, "edited during remove reaction")
			},
			check: func(t *testing.T, body []byte) {
				resp := decode[thoughtJSON](t, body)
				assert.Equal(t, "edited during remove reaction", resp.ThoughtText)
				require.Len(t, resp.Reactions, 1)
				assert.Equal(t, "second", resp.Reactions[0].ReactionBody)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verify := tt.interleave(t)
			status, body := doRequest(t, app, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, status, string(body))
			tt.check(t, body)
			verify(t)
		})
	}
}
