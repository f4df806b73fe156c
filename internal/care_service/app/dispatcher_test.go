package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/caredesk/golang_services/internal/care_service/adapters/deliveryhook"
	"github.com/caredesk/golang_services/internal/care_service/domain"
)

type dispatcherTestComponents struct {
	dispatcher   *Dispatcher
	mockMessages *MockCareMessageRepository
	mockSettings *MockDeliverySettingsRepository
	mockDelivery *MockDeliveryClient
	config       DispatcherConfig
}

func setupDispatcherTest(t *testing.T) dispatcherTestComponents {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockMessages := new(MockCareMessageRepository)
	mockSettings := new(MockDeliverySettingsRepository)
	mockDelivery := new(MockDeliveryClient)

	cfg := DispatcherConfig{
		BatchSize:      10,
		MaxConcurrency: 2,
		WebhookTimeout: 5 * time.Second,
	}

	return dispatcherTestComponents{
		dispatcher:   NewDispatcher(mockMessages, mockSettings, mockDelivery, logger, cfg),
		mockMessages: mockMessages,
		mockSettings: mockSettings,
		mockDelivery: mockDelivery,
		config:       cfg,
	}
}

func claimedMessage(userID uuid.UUID, threadID string) *domain.CareMessage {
	msg := domain.NewCareMessage(uuid.New(), threadID, userID,
		sql.NullString{String: "hello", Valid: true}, sql.NullString{}, time.Now().UTC().Add(-time.Minute))
	msg.Status = domain.StatusProcessing
	return msg
}

func TestDispatcher_RunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("NoDueMessages", func(t *testing.T) {
		comps := setupDispatcherTest(t)
		comps.mockMessages.On("ClaimDue", mock.Anything, mock.AnythingOfType("time.Time"), comps.config.BatchSize).
			Return(nil, domain.ErrNoDueMessages).Once()

		result, err := comps.dispatcher.RunCycle(ctx)

		assert.NoError(t, err)
		assert.Equal(t, CycleResult{}, result)
		comps.mockMessages.AssertExpectations(t)
		comps.mockDelivery.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ClaimFailureAbortsCycle", func(t *testing.T) {
		comps := setupDispatcherTest(t)
		comps.mockMessages.On("ClaimDue", mock.Anything, mock.AnythingOfType("time.Time"), comps.config.BatchSize).
			Return(nil, errors.New("connection refused")).Once()

		_, err := comps.dispatcher.RunCycle(ctx)

		assert.Error(t, err)
		comps.mockMessages.AssertExpectations(t)
		comps.mockSettings.AssertNotCalled(t, "GetForUsers", mock.Anything, mock.Anything)
		comps.mockDelivery.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MixedOutcomesAreIndependent", func(t *testing.T) {
		comps := setupDispatcherTest(t)
		userID := uuid.New()
		msg1 := claimedMessage(userID, "thread-1")
		msg2 := claimedMessage(userID, "thread-2")
		webhookURL := "https://hooks.example.com/deliver"

		comps.mockMessages.On("ClaimDue", mock.Anything, mock.AnythingOfType("time.Time"), comps.config.BatchSize).
			Return([]*domain.CareMessage{msg1, msg2}, nil).Once()
		comps.mockSettings.On("GetForUsers", mock.Anything, []uuid.UUID{userID}).
			Return(map[uuid.UUID]domain.DeliverySettings{
				userID: {UserID: userID, WebhookURL: webhookURL},
			}, nil).Once()

		// First webhook call rejected, second accepted.
		comps.mockDelivery.On("Send", mock.Anything, webhookURL, mock.MatchedBy(func(p deliveryhook.Payload) bool {
			return p.ThreadID == "thread-1"
		})).Return(errors.New("delivery webhook returned status 500: boom")).Once()
		comps.mockDelivery.On("Send", mock.Anything, webhookURL, mock.MatchedBy(func(p deliveryhook.Payload) bool {
			return p.ThreadID == "thread-2"
		})).Return(nil).Once()

		comps.mockMessages.On("MarkFailed", mock.Anything, msg1.ID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("string")).
			Return(nil).Once()
		comps.mockMessages.On("MarkSent", mock.Anything, msg2.ID, mock.AnythingOfType("time.Time")).
			Return(nil).Once()

		result, err := comps.dispatcher.RunCycle(ctx)

		assert.NoError(t, err)
		assert.Equal(t, CycleResult{Processed: 2, Sent: 1, Failed: 1}, result)
		comps.mockMessages.AssertExpectations(t)
		comps.mockSettings.AssertExpectations(t)
		comps.mockDelivery.AssertExpectations(t)
	})

	t.Run("MissingWebhookFailsWithoutNetworkCall", func(t *testing.T) {
		comps := setupDispatcherTest(t)
		userID := uuid.New()
		msg := claimedMessage(userID, "thread-1")

		comps.mockMessages.On("ClaimDue", mock.Anything, mock.AnythingOfType("time.Time"), comps.config.BatchSize).
			Return([]*domain.CareMessage{msg}, nil).Once()
		comps.mockSettings.On("GetForUsers", mock.Anything, []uuid.UUID{userID}).
			Return(map[uuid.UUID]domain.DeliverySettings{}, nil).Once()
		comps.mockMessages.On("MarkFailed", mock.Anything, msg.ID, mock.AnythingOfType("time.Time"), "no delivery webhook configured for user").
			Return(nil).Once()

		result, err := comps.dispatcher.RunCycle(ctx)

		assert.NoError(t, err)
		assert.Equal(t, CycleResult{Processed: 1, Sent: 0, Failed: 1}, result)
		comps.mockDelivery.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
		comps.mockMessages.AssertExpectations(t)
	})

	t.Run("MarkSentFailureIsNotReportedSent", func(t *testing.T) {
		comps := setupDispatcherTest(t)
		userID := uuid.New()
		msg := claimedMessage(userID, "thread-1")
		webhookURL := "https://hooks.example.com/deliver"

		comps.mockMessages.On("ClaimDue", mock.Anything, mock.AnythingOfType("time.Time"), comps.config.BatchSize).
			Return([]*domain.CareMessage{msg}, nil).Once()
		comps.mockSettings.On("GetForUsers", mock.Anything, []uuid.UUID{userID}).
			Return(map[uuid.UUID]domain.DeliverySettings{
				userID: {UserID: userID, WebhookURL: webhookURL},
			}, nil).Once()
		comps.mockDelivery.On("Send", mock.Anything, webhookURL, mock.AnythingOfType("deliveryhook.Payload")).
			Return(nil).Once()
		comps.mockMessages.On("MarkSent", mock.Anything, msg.ID, mock.AnythingOfType("time.Time")).
			Return(errors.New("connection reset")).Once()

		result, err := comps.dispatcher.RunCycle(ctx)

		// The row still says processing; the cycle must not claim the
		// message was sent.
		assert.NoError(t, err)
		assert.Equal(t, CycleResult{Processed: 1, Sent: 0, Failed: 0}, result)
		comps.mockMessages.AssertExpectations(t)
	})

	t.Run("MarkFailedWriteFailureIsNotCounted", func(t *testing.T) {
		comps := setupDispatcherTest(t)
		userID := uuid.New()
		msg := claimedMessage(userID, "thread-1")
		webhookURL := "https://hooks.example.com/deliver"

		comps.mockMessages.On("ClaimDue", mock.Anything, mock.AnythingOfType("time.Time"), comps.config.BatchSize).
			Return([]*domain.CareMessage{msg}, nil).Once()
		comps.mockSettings.On("GetForUsers", mock.Anything, []uuid.UUID{userID}).
			Return(map[uuid.UUID]domain.DeliverySettings{
				userID: {UserID: userID, WebhookURL: webhookURL},
			}, nil).Once()
		comps.mockDelivery.On("Send", mock.Anything, webhookURL, mock.AnythingOfType("deliveryhook.Payload")).
			Return(errors.New("delivery webhook returned status 500: boom")).Once()
		comps.mockMessages.On("MarkFailed", mock.Anything, msg.ID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("string")).
			Return(errors.New("connection reset")).Once()

		result, err := comps.dispatcher.RunCycle(ctx)

		assert.NoError(t, err)
		assert.Equal(t, CycleResult{Processed: 1, Sent: 0, Failed: 0}, result)
		comps.mockMessages.AssertExpectations(t)
	})

	t.Run("SettingsLookupFailureResolvesBatchToFailed", func(t *testing.T) {
		comps := setupDispatcherTest(t)
		userID := uuid.New()
		msg := claimedMessage(userID, "thread-1")

		comps.mockMessages.On("ClaimDue", mock.Anything, mock.AnythingOfType("time.Time"), comps.config.BatchSize).
			Return([]*domain.CareMessage{msg}, nil).Once()
		comps.mockSettings.On("GetForUsers", mock.Anything, []uuid.UUID{userID}).
			Return(nil, errors.New("connection reset")).Once()
		comps.mockMessages.On("MarkFailed", mock.Anything, msg.ID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("string")).
			Return(nil).Once()

		result, err := comps.dispatcher.RunCycle(ctx)

		// Claimed rows must never be left in processing.
		assert.NoError(t, err)
		assert.Equal(t, CycleResult{Processed: 1, Failed: 1}, result)
		comps.mockDelivery.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
		comps.mockMessages.AssertExpectations(t)
	})
}

func TestDistinctUserIDs(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	msgs := []*domain.CareMessage{
		claimedMessage(u1, "a"),
		claimedMessage(u2, "b"),
		claimedMessage(u1, "c"),
	}
	assert.ElementsMatch(t, []uuid.UUID{u1, u2}, distinctUserIDs(msgs))
}
