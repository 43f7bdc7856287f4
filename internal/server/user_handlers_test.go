package server

import (
	"context"
	"net/http"
	"testing"

	"thoughtwave/internal/config"
	"thoughtwave/internal/models"
	"thoughtwave/internal/repository"
	"thoughtwave/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	_, app := newTestApp(t)

	u := createUser(t, app, "ada")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada", u.Username)
	assert.NotNil(t, u.Thoughts)
	assert.NotNil(t, u.Friends)
	assert.Zero(t, u.FriendCount)

	tests := []struct {
		name string
		body any
	}{
		{"Malformed JSON", "{"},
		{"Missing email", map[string]string{"username": "bob"}},
		{"Invalid email", map[string]string{"username": "bob", "email": "nope"}},
		{"Duplicate username", map[string]string{"username": "ada", "email": "other@example.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, http.MethodPost, "/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, status, string(body))
			assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, body).Code)
		})
	}
}

func TestGetUser(t *testing.T) {
	_, app := newTestApp(t)
	ada := createUser(t, app, "ada")
	bob := createUser(t, app, "bob")
	th := createThought(t, app, ada.ID, "hello")

	status, _ := doRequest(t, app, http.MethodPost, "/users/"+ada.ID+"/friends/"+bob.ID, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := doRequest(t, app, http.MethodGet, "/users/"+ada.ID, nil)
	require.Equal(t, http.StatusOK, status)
	profile := decode[profileJSON](t, body)
	require.Len(t, profile.Thoughts, 1)
	assert.Equal(t, th.ID, profile.Thoughts[0].ID)
	assert.Equal(t, "hello", profile.Thoughts[0].ThoughtText)
	require.Len(t, profile.Friends, 1)
	assert.Equal(t, "bob", profile.Friends[0].Username)
	assert.Equal(t, 1, profile.FriendCount)

	status, body = doRequest(t, app, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]profileJSON](t, body), 2)

	status, body = doRequest(t, app, http.MethodGet, "/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", decode[models.ErrorResponse](t, body).Message)
}

func TestUpdateUser(t *testing.T) {
	_, app := newTestApp(t)
	ada := createUser(t, app, "ada")

	status, body := doRequest(t, app, http.MethodPut, "/users/"+ada.ID, map[string]string{"username": "ada2"})
	require.Equal(t, http.StatusOK, status, string(body))
	updated := decode[userJSON](t, body)
	assert.Equal(t, "ada2", updated.Username)
	assert.Equal(t, "ada@example.test", updated.Email)

	status, _ = doRequest(t, app, http.MethodPut, "/users/"+ada.ID, map[string]string{"email": "broken"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodPut, "/users/missing", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteUser_CascadesThoughts(t *testing.T) {
	_, app := newTestApp(t)
	ada := createUser(t, app, "ada")
	bob := createUser(t, app, "bob")
	createThought(t, app, ada.ID, "one")
	createThought(t, app, ada.ID, "two")
	kept := createThought(t, app, bob.ID, "bob's")

	status, body := doRequest(t, app, http.MethodDelete, "/users/"+ada.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User and associated thoughts deleted", decode[models.MessageResponse](t, body).Message)

	status, body = doRequest(t, app, http.MethodGet, "/thoughts", nil)
	require.Equal(t, http.StatusOK, status)
	remaining := decode[[]thoughtJSON](t, body)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)

	status, _ = doRequest(t, app, http.MethodDelete, "/users/"+ada.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFriends(t *testing.T) {
	_, app := newTestApp(t)
	ada := createUser(t, app, "ada")
	bob := createUser(t, app, "bob")

	status, body := doRequest(t, app, http.MethodPost, "/users/"+ada.ID+"/friends/"+bob.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{bob.ID}, decode[userJSON](t, body).Friends)

	status, body = doRequest(t, app, http.MethodGet, "/users/"+bob.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[profileJSON](t, body).FriendCount, "the link is two-way")

	status, body = doRequest(t, app, http.MethodPost, "/users/"+ada.ID+"/friends/"+ada.ID, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot add yourself as a friend", decode[models.ErrorResponse](t, body).Message)

	status, body = doRequest(t, app, http.MethodPost, "/users/"+ada.ID+"/friends/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Friend not found", decode[models.ErrorResponse](t, body).Message)

	status, body = doRequest(t, app, http.MethodDelete, "/users/"+ada.ID+"/friends/"+bob.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[userJSON](t, body).Friends)

	status, _ = doRequest(t, app, http.MethodDelete, "/users/"+ada.ID+"/friends/"+bob.ID, nil)
	assert.Equal(t, http.StatusOK, status, "removing a non-friend succeeds")

	status, _ = doRequest(t, app, http.MethodDelete, "/users/missing/friends/"+bob.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	cy := createUser(t, app, "cy")
	status, _ = doRequest(t, app, http.MethodPost, "/users/"+ada.ID+"/friends/"+cy.ID, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, app, http.MethodDelete, "/users/"+cy.ID, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doRequest(t, app, http.MethodDelete, "/users/"+ada.ID+"/friends/"+cy.ID, nil)
	require.Equal(t, http.StatusOK, status, "a deleted friend is still removed")
	assert.Empty(t, decode[userJSON](t, body).Friends)
}

type mockUserRepository struct {
	mock.Mock
	repository.UserRepository
}

func (m *mockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]models.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestGetUsers_StoreError(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	users := new(mockUserRepository)
	users.On("List", mock.Anything).Return(nil, models.NewInternalError(assert.AnError))
	store.Users = users

	s := NewServerWithDeps(&config.Config{Port: "0"}, store, nil)
	app := s.NewApp()

	status, body := doRequest(t, app, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	errBody := decode[models.ErrorResponse](t, body)
	assert.Equal(t, models.CodeInternal, errBody.Code)
	assert.Equal(t, assert.AnError.Error(), errBody.Details)
	users.AssertExpectations(t)
}
