package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard-app/classboard/internal/testutil"
)

func TestRedisCacheRepo_SetGetDelete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "doc:role:u1", []byte("teacher"), time.Minute))

	got, err := repo.Get(ctx, "doc:role:u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("teacher"), got)

	existed, err := repo.Delete(ctx, "doc:role:u1")
	require.NoError(t, err)
	assert.True(t, existed)

	got, err = repo.Get(ctx, "doc:role:u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheRepo_GetMissingKeyIsNotAnError(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)

	got, err := repo.Get(context.Background(), "doc:role:absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheRepo_DeleteMissingKey(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)

	existed, err := repo.Delete(context.Background(), "doc:role:absent")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRedisCacheRepo_TTLExpiry(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "doc:role:u1", []byte("student"), 50*time.Millisecond))

	require.Eventually(t, func() bool {
		got, err := repo.Get(ctx, "doc:role:u1")
		return err == nil && got == nil
	}, 2*time.Second, 25*time.Millisecond)
}

func TestRedisCacheRepo_EmptyKeyValidation(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	require.Error(t, repo.Set(ctx, "", []byte("x"), time.Minute))
	_, err := repo.Get(ctx, "")
	require.Error(t, err)
	_, err = repo.Delete(ctx, "")
	require.Error(t, err)
}

func TestRedisCacheRepo_Health(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)

	require.NoError(t, repo.Health(context.Background()))
}
