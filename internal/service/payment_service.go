package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/logger"
	"github.com/oficios-mz/backend/internal/mercadopago"
	"github.com/oficios-mz/backend/internal/metrics"
	"github.com/oficios-mz/backend/internal/models"
	"github.com/oficios-mz/backend/internal/pkg/apperror"
	"github.com/oficios-mz/backend/internal/repository"
	"github.com/oficios-mz/backend/internal/validation"
)

// PaymentStore describe el acceso del servicio al almacén de pagos.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, statusFilter string, limit, offset int) ([]models.Payment, error)
	Stats(ctx context.Context, userID uuid.UUID) (*models.PaymentStats, error)
	Hold(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	Release(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	AutoRelease(ctx context.Context, olderThan time.Duration) (int64, error)
}

// JobStore resuelve trabajos y su contexto de participantes.
type JobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetJobContext(ctx context.Context, jobID uuid.UUID) (*models.JobContext, error)
}

// PreferenceCreator crea preferencias de checkout en el procesador.
type PreferenceCreator interface {
	Configured() bool
	CreatePreference(ctx context.Context, req *mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

// Notifier despacha notificaciones sin bloquear al llamador.
type Notifier interface {
	Notify(userID uuid.UUID, title, message, ntype string, metadata interface{})
}

// PaymentService contiene la lógica del pago en custodia: creación con
// preferencia de Mercado Pago, retención y liberación manuales, y la
// liberación automática de pagos retenidos demasiado tiempo.
type PaymentService struct {
	payments   PaymentStore
	jobs       JobStore
	mp         PreferenceCreator
	notifier   Notifier
	webhookURL string
	successURL string
	failureURL string
	pendingURL string

	autoReleaseAfter time.Duration
}

type PaymentServiceConfig struct {
	WebhookURL       string
	FrontendURL      string
	AutoReleaseAfter time.Duration
}

func NewPaymentService(payments PaymentStore, jobs JobStore, mp PreferenceCreator, notifier Notifier, cfg PaymentServiceConfig) *PaymentService {
	return &PaymentService{
		payments:         payments,
		jobs:             jobs,
		mp:               mp,
		notifier:         notifier,
		webhookURL:       cfg.WebhookURL,
		successURL:       cfg.FrontendURL + "/payment/success",
		failureURL:       cfg.FrontendURL + "/payment/failure",
		pendingURL:       cfg.FrontendURL + "/payment/pending",
		autoReleaseAfter: cfg.AutoReleaseAfter,
	}
}

// CreatePayment crea el pago en custodia de un trabajo. Solo el empleador
// del trabajo puede crearlo y cada trabajo admite exactamente un pago.
func (s *PaymentService) CreatePayment(ctx context.Context, employerID, jobID uuid.UUID, amount float64) (*models.Payment, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar el trabajo")
	}
	if job.EmployerID != employerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "solo el empleador del trabajo puede crear el pago")
	}

	payment := &models.Payment{
		ID:         uuid.New(),
		JobID:      job.ID,
		EmployerID: job.EmployerID,
		WorkerID:   job.WorkerID,
		Amount:     amount,
		Status:     models.PaymentStatusPending,
	}

	if s.mp != nil && s.mp.Configured() {
		pref, err := s.mp.CreatePreference(ctx, &mercadopago.PreferenceRequest{
			Items: []mercadopago.PreferenceItem{{
				Title:      fmt.Sprintf("Pago por trabajo: %s", job.Title),
				Quantity:   1,
				UnitPrice:  amount,
				CurrencyID: "ARS",
			}},
			ExternalReference: "job_" + job.ID.String(),
			NotificationURL:   s.webhookURL,
			BackURLs: mercadopago.BackURLs{
				Success: s.successURL,
				Failure: s.failureURL,
				Pending: s.pendingURL,
			},
			AutoReturn: "approved",
		})
		if err != nil {
			metrics.ProcessorRequests.WithLabelValues("create_preference", "error").Inc()
			return nil, apperror.Wrap(err, apperror.ErrCodeProcessorUnavailable, "no se pudo crear la preferencia de pago")
		}
		metrics.ProcessorRequests.WithLabelValues("create_preference", "ok").Inc()

		payment.MercadoPagoPreferenceID = &pref.ID
		payment.MercadoPagoInitPoint = &pref.InitPoint
		payment.MercadoPagoSandboxPoint = &pref.SandboxInitPoint
	} else {
		logger.Log.WithField("job_id", jobID).Warn("Mercado Pago no configurado; el pago se crea sin preferencia de checkout")
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrPaymentExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "el trabajo ya tiene un pago")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo guardar el pago")
	}

	metrics.PaymentTransitions.WithLabelValues(models.PaymentStatusPending).Inc()
	logger.Log.WithFields(map[string]interface{}{
		"payment_id": payment.ID,
		"job_id":     payment.JobID,
		"amount":     payment.Amount,
	}).Info("Pago en custodia creado")

	return payment, nil
}

// GetPayment devuelve un pago visible para sus participantes o un administrador.
func (s *PaymentService) GetPayment(ctx context.Context, userID uuid.UUID, isAdmin bool, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar el pago")
	}
	if !isAdmin && !payment.IsParticipant(userID) {
		return nil, apperror.ErrForbidden
	}
	return payment, nil
}

// GetPaymentByJob devuelve el pago asociado a un trabajo.
func (s *PaymentService) GetPaymentByJob(ctx context.Context, userID uuid.UUID, isAdmin bool, jobID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar el pago")
	}
	if !isAdmin && !payment.IsParticipant(userID) {
		return nil, apperror.ErrForbidden
	}
	return payment, nil
}

// ListUserPayments lista los pagos donde el usuario participa. Un usuario
// solo puede ver su propia lista; un administrador puede ver cualquiera.
func (s *PaymentService) ListUserPayments(ctx context.Context, requesterID uuid.UUID, isAdmin bool, targetID uuid.UUID, statusFilter string, limit, offset int) ([]models.Payment, error) {
	if !isAdmin && requesterID != targetID {
		return nil, apperror.ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	payments, err := s.payments.ListByUser(ctx, targetID, statusFilter, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudieron listar los pagos")
	}
	return payments, nil
}

// GetUserStats devuelve las estadísticas de pagos de un usuario.
func (s *PaymentService) GetUserStats(ctx context.Context, requesterID uuid.UUID, isAdmin bool, targetID uuid.UUID) (*models.PaymentStats, error) {
	if !isAdmin && requesterID != targetID {
		return nil, apperror.ErrForbidden
	}
	stats, err := s.payments.Stats(ctx, targetID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudieron calcular las estadísticas")
	}
	return stats, nil
}

// HoldPayment pasa el pago de pending a held. Solo el empleador puede
// retener y solo desde pending.
func (s *PaymentService) HoldPayment(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar el pago")
	}
	if payment.EmployerID != userID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "solo el empleador puede retener el pago")
	}

	held, err := s.payments.Hold(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict,
				fmt.Sprintf("el pago no se puede retener desde el estado %q", payment.Status))
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo retener el pago")
	}

	metrics.PaymentTransitions.WithLabelValues(models.PaymentStatusHeld).Inc()
	if s.notifier != nil {
		s.notifier.Notify(held.WorkerID,
			"Pago retenido",
			"El pago de tu trabajo quedó retenido en custodia. Se liberará cuando el empleador confirme el trabajo.",
			models.NotificationTypePayment,
			map[string]interface{}{"payment_id": held.ID, "job_id": held.JobID})
	}

	return held, nil
}

// ReleasePayment pasa el pago de held a released. Solo el empleador puede
// liberar y solo desde held.
func (s *PaymentService) ReleasePayment(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar el pago")
	}
	if payment.EmployerID != userID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "solo el empleador puede liberar el pago")
	}

	released, err := s.payments.Release(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict,
				fmt.Sprintf("el pago no se puede liberar desde el estado %q", payment.Status))
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo liberar el pago")
	}

	metrics.PaymentTransitions.WithLabelValues(models.PaymentStatusReleased).Inc()
	if s.notifier != nil {
		s.notifier.Notify(released.WorkerID,
			"Pago liberado",
			"¡El empleador liberó tu pago! El dinero está en camino.",
			models.NotificationTypePayment,
			map[string]interface{}{"payment_id": released.ID, "job_id": released.JobID})
	}

	return released, nil
}

// AutoReleaseStale libera los pagos retenidos hace más del plazo
// configurado. Pensado para correr desde un ticker o un endpoint admin.
func (s *PaymentService) AutoReleaseStale(ctx context.Context) (int64, error) {
	released, err := s.payments.AutoRelease(ctx, s.autoReleaseAfter)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo ejecutar la liberación automática")
	}
	if released > 0 {
		logger.Log.WithField("count", released).Info("Pagos liberados automáticamente por antigüedad")
	}
	return released, nil
}
