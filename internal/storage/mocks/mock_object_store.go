package mocks

import (
	"context"
	"io"
	"time"

	"docvault/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, r io.ReadSeeker, in storage.UploadInput) (storage.UploadResult, error) {
	args := m.Called(ctx, r, in)
	return args.Get(0).(storage.UploadResult), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStore) SignDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
