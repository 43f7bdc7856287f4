// Package repotest holds a conformance suite every repository backend must pass.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"thoughtwave/internal/models"
	"thoughtwave/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises the Store contract. makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) *repository.Store) {
	t.Helper()

	t.Run("UserCreateAndGet", func(t *testing.T) { testUserCreateAndGet(t, makeStore(t)) })
	t.Run("UserUniqueness", func(t *testing.T) { testUserUniqueness(t, makeStore(t)) })
	t.Run("UserUpdate", func(t *testing.T) { testUserUpdate(t, makeStore(t)) })
	t.Run("UserSaveDoesNotUpsert", func(t *testing.T) { testUserSave(t, makeStore(t)) })
	t.Run("UserDelete", func(t *testing.T) { testUserDelete(t, makeStore(t)) })
	t.Run("UserPushPullThought", func(t *testing.T) { testPushPullThought(t, makeStore(t)) })
	t.Run("UserPushPullFriend", func(t *testing.T) { testPushPullFriend(t, makeStore(t)) })
	t.Run("ThoughtPushPullReaction", func(t *testing.T) { testPushPullReaction(t, makeStore(t)) })
	t.Run("UserGetByIDsOrder", func(t *testing.T) { testUserGetByIDs(t, makeStore(t)) })
	t.Run("ThoughtLifecycle", func(t *testing.T) { testThoughtLifecycle(t, makeStore(t)) })
	t.Run("ThoughtDeleteByUserID", func(t *testing.T) { testDeleteByUserID(t, makeStore(t)) })
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func newUser(name string) *models.User {
	suffix := uuid.NewString()[:8]
	return &models.User{Username: name + "-" + suffix, Email: name + "-" + suffix + "@example.test"}
}

func createUser(t *testing.T, s *repository.Store, name string) *models.User {
	t.Helper()
	u := newUser(name)
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func createThought(t *testing.T, s *repository.Store, owner *models.User, text string) *models.Thought {
	t.Helper()
	th := &models.Thought{ThoughtText: text, Username: owner.Username, UserID: owner.ID}
	require.NoError(t, s.Thoughts.Create(context.Background(), th))
	return th
}

func testUserCreateAndGet(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := newUser("ada")
	u.Username = "  " + u.Username + "  "

	require.NoError(t, s.Users.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.NotContains(t, u.Username, " ")
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)
	assert.Equal(t, u.Email, got.Email)
	assert.Empty(t, got.Thoughts)
	assert.Empty(t, got.Friends)

	_, err = s.Users.GetByID(ctx, uuid.NewString())
	requireCode(t, err, models.CodeNotFound)

	all, err := s.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testUserUniqueness(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	first := createUser(t, s, "grace")

	dupName := newUser("other")
	dupName.Username = first.Username
	requireCode(t, s.Users.Create(ctx, dupName), models.CodeValidation)

	dupEmail := newUser("other")
	dupEmail.Email = first.Email
	requireCode(t, s.Users.Create(ctx, dupEmail), models.CodeValidation)

	second := createUser(t, s, "linus")
	_, err := s.Users.Update(ctx, second.ID, models.UserPatch{Username: &first.Username})
	requireCode(t, err, models.CodeValidation)
}

func testUserUpdate(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "alan")

	newEmail := "alan-updated@example.test"
	updated, err := s.Users.Update(ctx, u.ID, models.UserPatch{Email: &newEmail})
	require.NoError(t, err)
	assert.Equal(t, newEmail, updated.Email)
	assert.Equal(t, u.Username, updated.Username, "absent fields are left unchanged")

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, newEmail, got.Email)

	_, err = s.Users.Update(ctx, uuid.NewString(), models.UserPatch{Email: &newEmail})
	requireCode(t, err, models.CodeNotFound)
}

func testUserSave(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "barbara")
	friend := createUser(t, s, "ken")

	u.Friends = append(u.Friends, friend.ID, friend.ID)
	require.NoError(t, s.Users.Save(ctx, u))

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{friend.ID, friend.ID}, got.Friends, "duplicates and order are preserved")

	ghost := newUser("ghost")
	ghost.ID = uuid.NewString()
	requireCode(t, s.Users.Save(ctx, ghost), models.CodeNotFound)
	_, err = s.Users.GetByID(ctx, ghost.ID)
	requireCode(t, err, models.CodeNotFound)
}

func testUserDelete(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "edsger")

	prior, err := s.Users.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, prior.ID)
	assert.Equal(t, u.Username, prior.Username)

	_, err = s.Users.GetByID(ctx, u.ID)
	requireCode(t, err, models.CodeNotFound)

	_, err = s.Users.Delete(ctx, u.ID)
	requireCode(t, err, models.CodeNotFound)
}

func testPushPullThought(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "donald")

	require.NoError(t, s.Users.PushThought(ctx, u.ID, "t1"))
	require.NoError(t, s.Users.PushThought(ctx, u.ID, "t2"))

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, got.Thoughts)

	require.NoError(t, s.Users.PullThought(ctx, u.ID, "t1"))
	require.NoError(t, s.Users.PullThought(ctx, u.ID, "missing"))

	got, err = s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, got.Thoughts)

	requireCode(t, s.Users.PushThought(ctx, uuid.NewString(), "t3"), models.CodeNotFound)
	requireCode(t, s.Users.PullThought(ctx, uuid.NewString(), "t3"), models.CodeNotFound)
}

func testPushPullFriend(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "frances")
	require.NoError(t, s.Users.PushThought(ctx, u.ID, "t1"))

	require.NoError(t, s.Users.PushFriend(ctx, u.ID, "f1"))
	require.NoError(t, s.Users.PushFriend(ctx, u.ID, "f2"))
	require.NoError(t, s.Users.PushFriend(ctx, u.ID, "f1"))

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2", "f1"}, got.Friends)
	assert.Equal(t, []string{"t1"}, got.Thoughts, "thought list is untouched")

	require.NoError(t, s.Users.PullFriend(ctx, u.ID, "f1"))
	got, err = s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"f2"}, got.Friends, "every occurrence is pulled")
	assert.Equal(t, []string{"t1"}, got.Thoughts)

	requireCode(t, s.Users.PushFriend(ctx, uuid.NewString(), "f1"), models.CodeNotFound)
	requireCode(t, s.Users.PullFriend(ctx, uuid.NewString(), "f1"), models.CodeNotFound)
}

func testPushPullReaction(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	owner := createUser(t, s, "radia")
	th := createThought(t, s, owner, "original")

	text := "edited elsewhere"
	_, err := s.Thoughts.Update(ctx, th.ID, models.ThoughtPatch{ThoughtText: &text})
	require.NoError(t, err)

	r1 := models.NewReaction("nice", "ken", time.Now().UTC())
	r2 := models.NewReaction("same", "ken", time.Now().UTC())
	got, err := s.Thoughts.PushReaction(ctx, th.ID, r1)
	require.NoError(t, err)
	got, err = s.Thoughts.PushReaction(ctx, th.ID, r2)
	require.NoError(t, err)
	require.Len(t, got.Reactions, 2)
	assert.Equal(t, text, got.ThoughtText, "reaction writes leave the text alone")

	got, err = s.Thoughts.PullReaction(ctx, th.ID, r1.ReactionID)
	require.NoError(t, err)
	require.Len(t, got.Reactions, 1)
	assert.Equal(t, r2.ReactionID, got.Reactions[0].ReactionID)

	got, err = s.Thoughts.PullReaction(ctx, th.ID, "unknown")
	require.NoError(t, err)
	assert.Len(t, got.Reactions, 1)

	stored, err := s.Thoughts.GetByID(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, text, stored.ThoughtText)
	assert.Len(t, stored.Reactions, 1)

	_, err = s.Thoughts.PushReaction(ctx, uuid.NewString(), r1)
	requireCode(t, err, models.CodeNotFound)
	_, err = s.Thoughts.PullReaction(ctx, uuid.NewString(), r1.ReactionID)
	requireCode(t, err, models.CodeNotFound)
}

func testUserGetByIDs(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	a := createUser(t, s, "a")
	b := createUser(t, s, "b")

	got, err := s.Users.GetByIDs(ctx, []string{b.ID, uuid.NewString(), a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{b.ID, a.ID, b.ID}, []string{got[0].ID, got[1].ID, got[2].ID})

	empty, err := s.Users.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testThoughtLifecycle(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	owner := createUser(t, s, "barbara")
	th := createThought(t, s, owner, "first thought")

	assert.NotEmpty(t, th.ID)
	assert.False(t, th.CreatedAt.IsZero())

	got, err := s.Thoughts.GetByID(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "first thought", got.ThoughtText)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Empty(t, got.Reactions)

	text := "edited"
	updated, err := s.Thoughts.Update(ctx, th.ID, models.ThoughtPatch{ThoughtText: &text})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.ThoughtText)
	assert.Equal(t, owner.Username, updated.Username)

	r1 := models.NewReaction("nice", "ken", time.Now().UTC())
	r2 := models.NewReaction("agreed", "ken", time.Now().UTC())
	got.ThoughtText = "edited"
	got.Reactions = append(got.Reactions, r1, r2)
	require.NoError(t, s.Thoughts.Save(ctx, got))

	got, err = s.Thoughts.GetByID(ctx, th.ID)
	require.NoError(t, err)
	require.Len(t, got.Reactions, 2)
	assert.Equal(t, r1.ReactionID, got.Reactions[0].ReactionID)
	assert.Equal(t, "agreed", got.Reactions[1].ReactionBody)

	byIDs, err := s.Thoughts.GetByIDs(ctx, []string{th.ID, uuid.NewString()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)

	all, err := s.Thoughts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	prior, err := s.Thoughts.Delete(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, prior.UserID)

	_, err = s.Thoughts.GetByID(ctx, th.ID)
	requireCode(t, err, models.CodeNotFound)
	_, err = s.Thoughts.Delete(ctx, th.ID)
	requireCode(t, err, models.CodeNotFound)
	requireCode(t, s.Thoughts.Save(ctx, got), models.CodeNotFound)
	_, err = s.Thoughts.Update(ctx, th.ID, models.ThoughtPatch{ThoughtText: &text})
	requireCode(t, err, models.CodeNotFound)
}

func testDeleteByUserID(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	owner := createUser(t, s, "owner")
	other := createUser(t, s, "other")

	t1 := createThought(t, s, owner, "one")
	t2 := createThought(t, s, owner, "two")
	kept := createThought(t, s, other, "three")

	ids, err := s.Thoughts.DeleteByUserID(ctx, owner.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{t1.ID, t2.ID}, ids)

	remaining, err := s.Thoughts.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)

	ids, err = s.Thoughts.DeleteByUserID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
