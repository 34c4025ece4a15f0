// Package mocks provides mock implementations for testing the classboard session layer.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockStore := mocks.NewMockDocumentStore(ctrl)
//	mockStore.EXPECT().GetRole(gomock.Any(), "user-1").Return(auth.RoleTeacher, nil)
package mocks

// Generate mock for DocumentStore interface from internal/ports package.
// This creates MockDocumentStore with methods for all DocumentStore interface methods:
// GetRole, GetProfile
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=document_store_mock.go github.com/classboard-app/classboard/internal/ports DocumentStore

// Generate mock for CacheRepository interface from internal/ports package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Get, Set, Delete, Health
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_repository_mock.go github.com/classboard-app/classboard/internal/ports CacheRepository
