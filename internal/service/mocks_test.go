package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/oficios-mz/backend/internal/mercadopago"
	"github.com/oficios-mz/backend/internal/models"
)

type mockPaymentStore struct {
	mock.Mock
}

func (m *mockPaymentStore) Create(ctx context.Context, p *models.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPaymentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) ListByUser(ctx context.Context, userID uuid.UUID, statusFilter string, limit, offset int) ([]models.Payment, error) {
	args := m.Called(ctx, userID, statusFilter, limit, offset)
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *mockPaymentStore) Stats(ctx context.Context, userID uuid.UUID) (*models.PaymentStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentStats), args.Error(1)
}

func (m *mockPaymentStore) Hold(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) Release(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) AutoRelease(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPaymentStore) MarkDisputed(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) SetTerminalStatus(ctx context.Context, id uuid.UUID, status string) (*models.Payment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) UpdateByJobID(ctx context.Context, jobID uuid.UUID, upd models.PaymentUpdate) (*models.Payment, error) {
	args := m.Called(ctx, jobID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type mockJobStore struct {
	mock.Mock
}

func (m *mockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockJobStore) GetJobContext(ctx context.Context, jobID uuid.UUID) (*models.JobContext, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobContext), args.Error(1)
}

type mockDisputeStore struct {
	mock.Mock
}

func (m *mockDisputeStore) Create(ctx context.Context, d *models.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockDisputeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeStore) GetOpenByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeStore) ListByUser(ctx context.Context, userID uuid.UUID, statusFilter string, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, statusFilter, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeStore) ListAll(ctx context.Context, statusFilter string, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, statusFilter, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeStore) Update(ctx context.Context, id uuid.UUID, status string, adminNotes, resolution *string, resolvedBy *uuid.UUID, resolvedAt *time.Time) (*models.Dispute, error) {
	args := m.Called(ctx, id, status, adminNotes, resolution, resolvedBy, resolvedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeStore) AddEvidence(ctx context.Context, e *models.DisputeEvidence) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockDisputeStore) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeEvidence, error) {
	args := m.Called(ctx, disputeID)
	return args.Get(0).([]models.DisputeEvidence), args.Error(1)
}

type mockRatingStore struct {
	mock.Mock
}

func (m *mockRatingStore) Create(ctx context.Context, r *models.Rating) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRatingStore) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Rating, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Rating), args.Error(1)
}

func (m *mockRatingStore) Summary(ctx context.Context, userID uuid.UUID) (*models.RatingSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RatingSummary), args.Error(1)
}

type mockPreferenceCreator struct {
	mock.Mock
}

func (m *mockPreferenceCreator) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockPreferenceCreator) CreatePreference(ctx context.Context, req *mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mercadopago.Preference), args.Error(1)
}

type mockPaymentFetcher struct {
	mock.Mock
}

func (m *mockPaymentFetcher) GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mercadopago.Payment), args.Error(1)
}

type mockVerifier struct {
	valid bool
}

func (m *mockVerifier) Verify(rawBody []byte, signature string) bool {
	return m.valid
}

// notifierRecorder captura notificaciones de forma síncrona para los tests.
type notifierRecorder struct {
	notifications []recordedNotification
}

type recordedNotification struct {
	UserID  uuid.UUID
	Title   string
	Message string
	Type    string
}

func (n *notifierRecorder) Notify(userID uuid.UUID, title, message, ntype string, metadata interface{}) {
	n.notifications = append(n.notifications, recordedNotification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    ntype,
	})
}

func (n *notifierRecorder) forUser(userID uuid.UUID) []recordedNotification {
	var out []recordedNotification
	for _, rec := range n.notifications {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}
