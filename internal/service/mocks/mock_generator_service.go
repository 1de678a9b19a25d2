package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/FOX2920/sf-api/internal/service"
)

type MockGeneratorService struct {
	mock.Mock
}

func (m *MockGeneratorService) GeneratePackingList(ctx context.Context, shipmentID string) (*service.GenerateResult, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateResult), args.Error(1)
}

func (m *MockGeneratorService) GenerateInvoice(ctx context.Context, shipmentID string) (*service.GenerateResult, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateResult), args.Error(1)
}

func (m *MockGeneratorService) GenerateCombinedExport(ctx context.Context, shipmentID string) (*service.GenerateResult, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateResult), args.Error(1)
}
