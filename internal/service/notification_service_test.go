package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/oficios-mz/backend/internal/models"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, onlyUnread, limit, offset)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockSubscriptionStore struct {
	mock.Mock
}

func (m *mockSubscriptionStore) Upsert(ctx context.Context, s *models.PushSubscription) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSubscriptionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.PushSubscription), args.Error(1)
}

func (m *mockSubscriptionStore) Delete(ctx context.Context, userID uuid.UUID, endpoint string) error {
	args := m.Called(ctx, userID, endpoint)
	return args.Error(0)
}

type broadcasterRecorder struct {
	sent []interface{}
	to   []uuid.UUID
}

func (b *broadcasterRecorder) SendToUser(userID uuid.UUID, payload interface{}) {
	b.to = append(b.to, userID)
	b.sent = append(b.sent, payload)
}

func TestNotificationService_Create(t *testing.T) {
	repo := new(mockNotificationRepo)
	broadcaster := &broadcasterRecorder{}
	svc := NewNotificationService(repo, new(mockSubscriptionStore), broadcaster)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		if n.UserID != userID || n.Title != "Pago liberado" || n.Type != models.NotificationTypePayment {
			return false
		}
		var meta map[string]string
		return json.Unmarshal(n.Metadata, &meta) == nil && meta["job_id"] == "abc"
	})).Return(nil)

	n, err := svc.Create(ctx, userID, "Pago liberado", "El dinero está en camino.", models.NotificationTypePayment, map[string]string{"job_id": "abc"})

	assert.NoError(t, err)
	assert.NotNil(t, n)
	repo.AssertExpectations(t)

	// La notificación persistida también se empuja por WebSocket.
	assert.Equal(t, []uuid.UUID{userID}, broadcaster.to)
}

func TestNotificationService_Create_WithoutBroadcaster(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, new(mockSubscriptionStore), nil)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(nil)

	_, err := svc.Create(ctx, uuid.New(), "Título", "Mensaje", models.NotificationTypeSystem, nil)

	assert.NoError(t, err)
}

func TestNotificationService_List_ClampsPagination(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, new(mockSubscriptionStore), nil)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("ListByUser", ctx, userID, true, 20, 0).Return([]models.Notification{}, nil)

	_, err := svc.List(ctx, userID, true, 500, -3)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestNotificationService_Subscribe(t *testing.T) {
	subs := new(mockSubscriptionStore)
	svc := NewNotificationService(new(mockNotificationRepo), subs, nil)
	ctx := context.Background()

	userID := uuid.New()
	subs.On("Upsert", ctx, mock.MatchedBy(func(s *models.PushSubscription) bool {
		return s.UserID == userID && s.Endpoint == "https://push.example/ep1"
	})).Return(nil)

	sub, err := svc.Subscribe(ctx, userID, "https://push.example/ep1", "clave-p256dh", "clave-auth")

	assert.NoError(t, err)
	assert.Equal(t, "https://push.example/ep1", sub.Endpoint)
	subs.AssertExpectations(t)
}

func TestNotificationService_Subscribe_MissingKeys(t *testing.T) {
	subs := new(mockSubscriptionStore)
	svc := NewNotificationService(new(mockNotificationRepo), subs, nil)

	_, err := svc.Subscribe(context.Background(), uuid.New(), "https://push.example/ep1", "", "")

	assert.Error(t, err)
	subs.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, new(mockSubscriptionStore), nil)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("MarkAllAsRead", ctx, userID).Return(int64(4), nil)

	count, err := svc.MarkAllAsRead(ctx, userID)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
}
