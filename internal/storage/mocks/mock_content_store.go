package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockContentStore struct {
	mock.Mock
}

func (m *MockContentStore) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, data)
	return args.String(0), args.Error(1)
}

func (m *MockContentStore) Link(ctx context.Context, contentID, recordID string) error {
	args := m.Called(ctx, contentID, recordID)
	return args.Error(0)
}
