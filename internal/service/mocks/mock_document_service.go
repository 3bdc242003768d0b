package mocks

import (
	"context"

	"docvault/internal/model"
	"docvault/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, actorID int64, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, actorID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, actorID int64, q service.ListQuery) (*service.DocumentPage, error) {
	args := m.Called(ctx, actorID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentPage), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, actorID, id int64) (*model.Document, error) {
	args := m.Called(ctx, actorID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, actorID, id int64, u service.DocumentUpdate) (*model.Document, error) {
	args := m.Called(ctx, actorID, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, actorID, id int64) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, actorID, id int64) (string, error) {
	args := m.Called(ctx, actorID, id)
	return args.String(0), args.Error(1)
}
