package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireValidationError(t *testing.T, err error) *AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, CodeValidation, appErr.Code)
	return appErr
}

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr string
	}{
		{"Valid", User{Username: "ada", Email: "ada@example.com"}, ""},
		{"Missing username", User{Email: "ada@example.com"}, "username is required"},
		{"Missing email", User{Username: "ada"}, "email is required"},
		{"Malformed email", User{Username: "ada", Email: "not-an-email"}, "email must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			appErr := requireValidationError(t, err)
			assert.Contains(t, appErr.Err.Error(), tt.wantErr)
		})
	}
}

func TestThought_Validate(t *testing.T) {
	base := func() Thought {
		return Thought{ThoughtText: "hello", Username: "ada", UserID: "u1"}
	}

	t.Run("Valid", func(t *testing.T) {
		th := base()
		assert.NoError(t, th.Validate())
	})

	t.Run("Exactly 280 characters", func(t *testing.T) {
		th := base()
		th.ThoughtText = strings.Repeat("é", MaxTextLength)
		assert.NoError(t, th.Validate())
	})

	t.Run("Over 280 characters", func(t *testing.T) {
		th := base()
		th.ThoughtText = strings.Repeat("a", MaxTextLength+1)
		appErr := requireValidationError(t, th.Validate())
		assert.Contains(t, appErr.Err.Error(), "thoughtText must be at most 280 characters")
	})

	t.Run("Empty text", func(t *testing.T) {
		th := base()
		th.ThoughtText = ""
		requireValidationError(t, th.Validate())
	})

	t.Run("Missing owner", func(t *testing.T) {
		th := base()
		th.UserID = ""
		appErr := requireValidationError(t, th.Validate())
		assert.Contains(t, appErr.Err.Error(), "userId is required")
	})

	t.Run("Invalid embedded reaction", func(t *testing.T) {
		th := base()
		th.Reactions = []Reaction{{ReactionID: "r1", Username: "bob"}}
		appErr := requireValidationError(t, th.Validate())
		assert.Contains(t, appErr.Err.Error(), "reactionBody is required")
	})
}

func TestReaction_Validate(t *testing.T) {
	r := NewReaction(strings.Repeat("x", MaxTextLength), " bob ", time.Now())
	assert.NoError(t, r.Validate())
	assert.NotEmpty(t, r.ReactionID)
	assert.Equal(t, "bob", r.Username)

	r.ReactionBody = strings.Repeat("x", MaxTextLength+1)
	requireValidationError(t, r.Validate())
}

func TestUser_PrepareForInsert(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u := User{Username: "  ada  ", Email: " ada@example.com "}
	u.PrepareForInsert(now)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, now, u.CreatedAt)
	assert.NotNil(t, u.Thoughts)
	assert.NotNil(t, u.Friends)

	id := u.ID
	u.PrepareForInsert(now.Add(time.Hour))
	assert.Equal(t, id, u.ID, "existing id must be kept")
	assert.Equal(t, now, u.CreatedAt)
}

func TestUser_MarshalJSON(t *testing.T) {
	u := User{ID: "u1", Username: "ada", Email: "ada@example.com", Friends: []string{"u2", "u2"}}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "u1", out["id"])
	assert.Equal(t, float64(2), out["friendCount"])
	assert.Equal(t, []any{}, out["thoughts"])
	assert.Equal(t, []any{"u2", "u2"}, out["friends"])
}

func TestThought_MarshalJSON(t *testing.T) {
	th := Thought{ID: "t1", ThoughtText: "hi", Username: "ada", UserID: "u1"}

	raw, err := json.Marshal(th)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, float64(0), out["reactionCount"])
	assert.Equal(t, []any{}, out["reactions"])

	th.Reactions = []Reaction{NewReaction("a", "bob", time.Now()), NewReaction("b", "bob", time.Now())}
	raw, err = json.Marshal(&th)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, float64(2), out["reactionCount"])
}

func TestThought_RemoveReaction(t *testing.T) {
	a := NewReaction("a", "bob", time.Now())
	b := NewReaction("b", "bob", time.Now())
	th := Thought{Reactions: []Reaction{a, b}}

	assert.True(t, th.RemoveReaction(a.ReactionID))
	assert.Equal(t, []Reaction{b}, th.Reactions)

	assert.False(t, th.RemoveReaction("missing"))
	assert.Len(t, th.Reactions, 1)
}

func TestRemoveAll(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, RemoveAll([]string{"a", "b", "c", "b"}, "b"))
	assert.Equal(t, []string{}, RemoveAll(nil, "b"))
}

func TestNewUserProfile(t *testing.T) {
	u := &User{ID: "u1", Username: "ada", Friends: []string{"u2", "gone"}}
	p := NewUserProfile(u, nil, []User{{ID: "u2"}})

	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, 1, p.FriendCount)
	assert.NotNil(t, p.Thoughts)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("User")))
	assert.False(t, IsNotFound(NewValidationError("bad")))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.Equal(t, "User not found", NewNotFoundError("User").Error())
}

func TestPatch_Validate(t *testing.T) {
	empty := ""
	bad := "nope"
	good := "new@example.com"
	long := strings.Repeat("a", MaxTextLength+1)

	assert.NoError(t, UserPatch{}.Validate())
	assert.NoError(t, UserPatch{Email: &good}.Validate())
	requireValidationError(t, UserPatch{Email: &bad}.Validate())
	requireValidationError(t, UserPatch{Username: &empty}.Validate())

	assert.NoError(t, ThoughtPatch{}.Validate())
	requireValidationError(t, ThoughtPatch{ThoughtText: &long}.Validate())
	requireValidationError(t, ThoughtPatch{ThoughtText: &empty}.Validate())
}
