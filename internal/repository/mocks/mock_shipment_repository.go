package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/FOX2920/sf-api/internal/model"
)

type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) GetShipment(ctx context.Context, id string) (*model.Shipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

type MockPicklistSource struct {
	mock.Mock
}

func (m *MockPicklistSource) PicklistValues(ctx context.Context, objectType, field string) ([]string, error) {
	args := m.Called(ctx, objectType, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
