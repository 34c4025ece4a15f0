package data

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	apperrors "github.com/classboard-app/classboard/internal/errors"
	"github.com/classboard-app/classboard/internal/mocks"
)

func newCachedStore(source *mocks.MockDocumentStore, cache *mocks.MockCacheRepository) *CachedDocumentStore {
	return NewCachedDocumentStore(CachedDocumentStoreOptions{
		Source: source,
		Cache:  cache,
		TTL:    time.Minute,
	})
}

func TestCachedDocumentStore_GetRole_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockDocumentStore(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	store := newCachedStore(source, cache)

	ctx := context.Background()
	cache.EXPECT().Get(ctx, "doc:role:u1").Return([]byte("teacher"), nil)
	// Source must not be consulted on a hit.
	source.EXPECT().GetRole(gomock.Any(), gomock.Any()).Times(0)

	role, err := store.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleTeacher, role)
}

func TestCachedDocumentStore_GetRole_CacheMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockDocumentStore(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	store := newCachedStore(source, cache)

	ctx := context.Background()
	cache.EXPECT().Get(ctx, "doc:role:u1").Return(nil, nil)
	source.EXPECT().GetRole(ctx, "u1").Return(domainauth.RoleStudent, nil)
	cache.EXPECT().Set(ctx, "doc:role:u1", []byte("student"), time.Minute).Return(nil)

	role, err := store.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleStudent, role)
}

func TestCachedDocumentStore_GetRole_CacheFailureDegradesToSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockDocumentStore(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	store := newCachedStore(source, cache)

	ctx := context.Background()
	cache.EXPECT().Get(ctx, "doc:role:u1").Return(nil, errors.New("redis down"))
	source.EXPECT().GetRole(ctx, "u1").Return(domainauth.RoleManager, nil)
	// Write failures are swallowed too.
	cache.EXPECT().Set(ctx, "doc:role:u1", []byte("manager"), time.Minute).Return(errors.New("redis down"))

	role, err := store.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleManager, role)
}

func TestCachedDocumentStore_GetRole_UnrecognizedIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockDocumentStore(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	store := newCachedStore(source, cache)

	ctx := context.Background()
	// Missing documents resolve to the unrecognized role, not an error.
	// No Set expectation: caching it would mask a document provisioned
	// moments later.
	cache.EXPECT().Get(ctx, "doc:role:u1").Return(nil, nil)
	source.EXPECT().GetRole(ctx, "u1").Return(domainauth.RoleUnrecognized, nil)

	role, err := store.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUnrecognized, role)

	// Once the document exists the next lookup sees it immediately and
	// the resolved role is cached as usual.
	cache.EXPECT().Get(ctx, "doc:role:u1").Return(nil, nil)
	source.EXPECT().GetRole(ctx, "u1").Return(domainauth.RoleTeacher, nil)
	cache.EXPECT().Set(ctx, "doc:role:u1", []byte("teacher"), time.Minute).Return(nil)

	role, err = store.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleTeacher, role)
}

func TestCachedDocumentStore_GetRole_SourceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockDocumentStore(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	store := newCachedStore(source, cache)

	ctx := context.Background()
	cache.EXPECT().Get(ctx, "doc:role:u1").Return(nil, nil)
	source.EXPECT().GetRole(ctx, "u1").Return(domainauth.RoleUnrecognized, apperrors.Internal("db down"))

	_, err := store.GetRole(ctx, "u1")
	require.Error(t, err)
}

func TestCachedDocumentStore_GetProfile_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockDocumentStore(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	store := newCachedStore(source, cache)

	profile := &domainauth.Profile{
		IdentityID:  "u1",
		Role:        domainauth.RoleTeacher,
		DisplayName: "User One",
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	encoded, err := json.Marshal(profile)
	require.NoError(t, err)

	ctx := context.Background()
	cache.EXPECT().Get(ctx, "doc:profile:u1").Return(encoded, nil)

	got, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, profile, got)
}

func TestCachedDocumentStore_GetProfile_CorruptCacheEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockDocumentStore(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	store := newCachedStore(source, cache)

	profile := &domainauth.Profile{IdentityID: "u1", Role: domainauth.RoleStudent}

	ctx := context.Background()
	cache.EXPECT().Get(ctx, "doc:profile:u1").Return([]byte("{not json"), nil)
	cache.EXPECT().Delete(ctx, "doc:profile:u1").Return(true, nil)
	source.EXPECT().GetProfile(ctx, "u1").Return(profile, nil)
	cache.EXPECT().Set(ctx, "doc:profile:u1", gomock.Any(), time.Minute).Return(nil)

	got, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, profile, got)
}

func TestCachedDocumentStore_GetProfile_NotFoundIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockDocumentStore(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	store := newCachedStore(source, cache)

	ctx := context.Background()
	cache.EXPECT().Get(ctx, "doc:profile:u1").Return(nil, nil)
	source.EXPECT().GetProfile(ctx, "u1").Return(nil, apperrors.NotFound("profile not found"))
	// No Set expectation: absence must not be cached.

	_, err := store.GetProfile(ctx, "u1")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCachedDocumentStore_NilCacheGoesStraightToSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockDocumentStore(ctrl)
	store := NewCachedDocumentStore(CachedDocumentStoreOptions{Source: source})

	ctx := context.Background()
	source.EXPECT().GetRole(ctx, "u1").Return(domainauth.RoleAdmin, nil)

	role, err := store.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, role)
}
