package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/caredesk/golang_services/internal/care_service/adapters/deliveryhook"
	"github.com/caredesk/golang_services/internal/care_service/domain"
)

type MockCareMessageRepository struct {
	mock.Mock
}

func (m *MockCareMessageRepository) Create(ctx context.Context, msg *domain.CareMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockCareMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CareMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CareMessage), args.Error(1)
}

func (m *MockCareMessageRepository) ClaimDue(ctx context.Context, dueTime time.Time, limit int) ([]*domain.CareMessage, error) {
	args := m.Called(ctx, dueTime, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CareMessage), args.Error(1)
}

func (m *MockCareMessageRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockCareMessageRepository) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time, reason string) error {
	args := m.Called(ctx, id, at, reason)
	return args.Error(0)
}

func (m *MockCareMessageRepository) HasPending(ctx context.Context, userID uuid.UUID, threadID string) (bool, error) {
	args := m.Called(ctx, userID, threadID)
	return args.Bool(0), args.Error(1)
}

type MockDeliverySettingsRepository struct {
	mock.Mock
}

func (m *MockDeliverySettingsRepository) GetForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]domain.DeliverySettings, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]domain.DeliverySettings), args.Error(1)
}

func (m *MockDeliverySettingsRepository) GetForUser(ctx context.Context, userID uuid.UUID) (domain.DeliverySettings, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.DeliverySettings), args.Error(1)
}

type MockPromptConfigRepository struct {
	mock.Mock
}

func (m *MockPromptConfigRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.PromptConfig, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromptConfig), args.Error(1)
}

type MockAIPromptLogRepository struct {
	mock.Mock
}

func (m *MockAIPromptLogRepository) Create(ctx context.Context, entry *domain.AIPromptLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) GetByThread(ctx context.Context, userID uuid.UUID, threadID string) (*domain.Customer, error) {
	args := m.Called(ctx, userID, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListConversation(ctx context.Context, customerID uuid.UUID) ([]domain.ConversationMessage, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConversationMessage), args.Error(1)
}

type MockEligibilityRepository struct {
	mock.Mock
}

func (m *MockEligibilityRepository) FindEligibleCustomers(ctx context.Context, quietPeriod time.Duration, limit int) ([]*domain.Customer, error) {
	args := m.Called(ctx, quietPeriod, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Customer), args.Error(1)
}

type MockDeliveryClient struct {
	mock.Mock
}

func (m *MockDeliveryClient) Send(ctx context.Context, webhookURL string, payload deliveryhook.Payload) error {
	args := m.Called(ctx, webhookURL, payload)
	return args.Error(0)
}

type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) Complete(ctx context.Context, endpointURL string, prompt string) (string, error) {
	args := m.Called(ctx, endpointURL, prompt)
	return args.String(0), args.Error(1)
}

type MockJobPublisher struct {
	mock.Mock
}

func (m *MockJobPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}
