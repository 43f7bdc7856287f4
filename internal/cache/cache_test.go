package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	InitRedis(mr.Addr())
	require.NotNil(t, GetClient())
	t.Cleanup(func() {
		_ = GetClient().Close()
		SetClient(nil)
	})
	return mr
}

func TestInitRedis_Unreachable(t *testing.T) {
	InitRedis("127.0.0.1:1")
	assert.Nil(t, GetClient())

	InitRedis("redis://%%bad")
	assert.Nil(t, GetClient())

	InitRedis("")
	assert.Nil(t, GetClient())
}

func TestInitRedis_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	InitRedis("redis://" + mr.Addr() + "/0")
	require.NotNil(t, GetClient())
	_ = GetClient().Close()
	SetClient(nil)
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedDoc) func() error {
		return func() error {
			calls++
			*dest = cachedDoc{ID: "u1", Name: "ada"}
			return nil
		}
	}

	var first cachedDoc
	require.NoError(t, Aside(ctx, UserKey("u1"), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "ada", first.Name)
	assert.True(t, mr.Exists("user:u1"))

	var second cachedDoc
	require.NoError(t, Aside(ctx, UserKey("u1"), &second, UserTTL, fetch(&second)))
	assert.Equal(t, "ada", second.Name)
	assert.Equal(t, 1, calls, "second read must be served from Redis")
	assert.Equal(t, UserTTL, mr.TTL("user:u1"))
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := setupMiniredis(t)

	var doc cachedDoc
	err := Aside(context.Background(), ThoughtKey("t1"), &doc, ThoughtTTL, func() error {
		return errors.New("not found")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists("thought:t1"))
}

func TestAside_Disabled(t *testing.T) {
	SetClient(nil)

	var doc cachedDoc
	err := Aside(context.Background(), UserKey("u1"), &doc, UserTTL, func() error {
		doc.Name = "direct"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", doc.Name)
}

func TestInvalidate(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey("u1"), cachedDoc{ID: "u1"}, UserTTL))
	require.NoError(t, SetJSON(ctx, UserKey("u2"), cachedDoc{ID: "u2"}, UserTTL))
	require.NoError(t, SetJSON(ctx, ThoughtKey("t1"), cachedDoc{ID: "t1"}, ThoughtTTL))

	InvalidateUser(ctx, "u1", "u2")
	InvalidateThought(ctx, "t1")

	assert.False(t, mr.Exists("user:u1"))
	assert.False(t, mr.Exists("user:u2"))
	assert.False(t, mr.Exists("thought:t1"))
}

func TestGetJSON_CorruptEntry(t *testing.T) {
	mr := setupMiniredis(t)
	require.NoError(t, mr.Set("user:u9", "{not json"))

	var doc cachedDoc
	found, err := GetJSON(context.Background(), UserKey("u9"), &doc)
	assert.False(t, found)
	assert.Error(t, err)

	// Aside falls back to the source on a corrupt entry.
	err = Aside(context.Background(), UserKey("u9"), &doc, UserTTL, func() error {
		doc = cachedDoc{ID: "u9"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u9", doc.ID)
}
