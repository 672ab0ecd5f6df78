package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/logger"
	"github.com/oficios-mz/backend/internal/metrics"
	"github.com/oficios-mz/backend/internal/models"
	"github.com/oficios-mz/backend/internal/pkg/apperror"
	"github.com/oficios-mz/backend/internal/repository"
	"github.com/oficios-mz/backend/internal/validation"
)

// DisputeStore describe el acceso del servicio al almacén de disputas.
type DisputeStore interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, statusFilter string, limit, offset int) ([]models.Dispute, error)
	ListAll(ctx context.Context, statusFilter string, limit, offset int) ([]models.Dispute, error)
	Update(ctx context.Context, id uuid.UUID, status string, adminNotes, resolution *string, resolvedBy *uuid.UUID, resolvedAt *time.Time) (*models.Dispute, error)
	AddEvidence(ctx context.Context, e *models.DisputeEvidence) error
	ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeEvidence, error)
}

// DisputePaymentStore es la vista del almacén de pagos que necesita el
// flujo de disputas.
type DisputePaymentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	MarkDisputed(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	SetTerminalStatus(ctx context.Context, id uuid.UUID, status string) (*models.Payment, error)
}

// DisputeService maneja el ciclo de vida de las disputas: apertura por
// un participante, revisión y resolución por un administrador.
type DisputeService struct {
	disputes DisputeStore
	payments DisputePaymentStore
	notifier Notifier
	now      func() time.Time
}

func NewDisputeService(disputes DisputeStore, payments DisputePaymentStore, notifier Notifier) *DisputeService {
	return &DisputeService{
		disputes: disputes,
		payments: payments,
		notifier: notifier,
		now:      time.Now,
	}
}

// OpenDispute abre una disputa sobre un pago. Solo un participante del
// pago puede abrirla y un pago admite una sola disputa activa.
func (s *DisputeService) OpenDispute(ctx context.Context, initiatorID, paymentID uuid.UUID, reason, description string) (*models.Dispute, error) {
	if !models.ValidDisputeReason(reason) {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("razón de disputa inválida: %q", reason))
	}
	if err := validation.ValidateDisputeDescription(description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar el pago")
	}
	if !payment.IsParticipant(initiatorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "solo un participante del pago puede abrir una disputa")
	}

	if existing, err := s.disputes.GetOpenByPaymentID(ctx, paymentID); err == nil && existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "el pago ya tiene una disputa activa")
	} else if err != nil && !errors.Is(err, repository.ErrDisputeNotFound) {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo verificar disputas existentes")
	}

	// El pago pasa a disputed sin importar su estado actual: una disputa
	// congela el flujo normal hasta que un administrador resuelva. Se
	// congela ANTES de crear la disputa; MarkDisputed es idempotente, así
	// que si la creación falla un reintento del cliente retoma desde acá.
	if _, err := s.payments.MarkDisputed(ctx, paymentID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo congelar el pago en disputa")
	}

	dispute := &models.Dispute{
		ID:          uuid.New(),
		PaymentID:   paymentID,
		InitiatorID: initiatorID,
		Reason:      reason,
		Description: description,
		Status:      models.DisputeStatusOpen,
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo crear la disputa")
	}

	metrics.DisputesOpened.Inc()
	logger.Log.WithFields(map[string]interface{}{
		"dispute_id": dispute.ID,
		"payment_id": paymentID,
		"reason":     reason,
	}).Info("Disputa abierta")

	s.notifyOpened(payment, dispute, initiatorID)

	return dispute, nil
}

func (s *DisputeService) notifyOpened(payment *models.Payment, dispute *models.Dispute, initiatorID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	meta := map[string]interface{}{
		"dispute_id": dispute.ID,
		"payment_id": payment.ID,
		"job_id":     payment.JobID,
	}

	// El iniciador recibe una confirmación; la contraparte, el aviso.
	other := payment.EmployerID
	if initiatorID == payment.EmployerID {
		other = payment.WorkerID
	}
	s.notifier.Notify(initiatorID,
		"Disputa creada",
		"Tu disputa fue registrada. Un administrador la revisará a la brevedad.",
		models.NotificationTypeDispute, meta)
	s.notifier.Notify(other,
		"Disputa abierta",
		"Se abrió una disputa sobre el pago de tu trabajo. El pago queda congelado hasta su resolución.",
		models.NotificationTypeDispute, meta)
}

// GetDispute devuelve una disputa visible para los participantes del
// pago o un administrador.
func (s *DisputeService) GetDispute(ctx context.Context, userID uuid.UUID, isAdmin bool, disputeID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar la disputa")
	}
	if !isAdmin {
		if err := s.checkParticipant(ctx, dispute, userID); err != nil {
			return nil, err
		}
	}
	return dispute, nil
}

// ListUserDisputes lista las disputas donde el usuario participa.
func (s *DisputeService) ListUserDisputes(ctx context.Context, userID uuid.UUID, statusFilter string, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	disputes, err := s.disputes.ListByUser(ctx, userID, statusFilter, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudieron listar las disputas")
	}
	return disputes, nil
}

// ListAllDisputes lista todas las disputas. Solo administradores.
func (s *DisputeService) ListAllDisputes(ctx context.Context, isAdmin bool, statusFilter string, limit, offset int) ([]models.Dispute, error) {
	if !isAdmin {
		return nil, apperror.ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	disputes, err := s.disputes.ListAll(ctx, statusFilter, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudieron listar las disputas")
	}
	return disputes, nil
}

// UpdateStatus mueve una disputa entre estados de revisión (reviewing,
// escalated). Resolver requiere ResolveDispute. Solo administradores.
func (s *DisputeService) UpdateStatus(ctx context.Context, isAdmin bool, disputeID uuid.UUID, status string, adminNotes *string) (*models.Dispute, error) {
	if !isAdmin {
		return nil, apperror.New(apperror.ErrCodeForbidden, "solo un administrador puede cambiar el estado de una disputa")
	}
	if status != models.DisputeStatusReviewing && status != models.DisputeStatusEscalated {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("estado de disputa inválido para esta operación: %q", status))
	}

	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar la disputa")
	}
	if dispute.Status == models.DisputeStatusResolved {
		return nil, apperror.New(apperror.ErrCodeConflict, "la disputa ya está resuelta")
	}

	updated, err := s.disputes.Update(ctx, disputeID, status, adminNotes, nil, nil, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo actualizar la disputa")
	}
	return updated, nil
}

// ResolveDispute cierra una disputa con un resultado explícito y aplica
// el estado terminal al pago: favor_worker libera, favor_employer
// reembolsa. Solo administradores.
func (s *DisputeService) ResolveDispute(ctx context.Context, adminID uuid.UUID, isAdmin bool, disputeID uuid.UUID, outcome, resolution string, adminNotes *string) (*models.Dispute, error) {
	if !isAdmin {
		return nil, apperror.New(apperror.ErrCodeForbidden, "solo un administrador puede resolver una disputa")
	}
	if strings.TrimSpace(resolution) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "la resolución no puede estar vacía")
	}

	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar la disputa")
	}
	if dispute.Status == models.DisputeStatusResolved {
		return nil, apperror.New(apperror.ErrCodeConflict, "la disputa ya está resuelta")
	}

	terminal, err := outcomeToPaymentStatus(outcome, resolution)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	payment, err := s.payments.SetTerminalStatus(ctx, dispute.PaymentID, terminal)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo aplicar la resolución al pago")
	}

	now := s.now()
	updated, err := s.disputes.Update(ctx, disputeID, models.DisputeStatusResolved, adminNotes, &resolution, &adminID, &now)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo cerrar la disputa")
	}

	metrics.DisputesResolved.WithLabelValues(terminal).Inc()
	metrics.PaymentTransitions.WithLabelValues(terminal).Inc()
	logger.Log.WithFields(map[string]interface{}{
		"dispute_id": disputeID,
		"payment_id": payment.ID,
		"outcome":    terminal,
	}).Info("Disputa resuelta")

	if s.notifier != nil {
		meta := map[string]interface{}{
			"dispute_id": disputeID,
			"payment_id": payment.ID,
			"job_id":     payment.JobID,
		}
		msg := fmt.Sprintf("La disputa fue resuelta: %s", resolution)
		s.notifier.Notify(payment.EmployerID, "Disputa resuelta", msg, models.NotificationTypeDispute, meta)
		s.notifier.Notify(payment.WorkerID, "Disputa resuelta", msg, models.NotificationTypeDispute, meta)
	}

	return updated, nil
}

// AddEvidence adjunta un archivo como evidencia. Solo participantes del
// pago y solo mientras la disputa no esté resuelta.
func (s *DisputeService) AddEvidence(ctx context.Context, userID, disputeID uuid.UUID, fileURL, fileType string, description *string) (*models.DisputeEvidence, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar la disputa")
	}
	if dispute.Status == models.DisputeStatusResolved {
		return nil, apperror.New(apperror.ErrCodeConflict, "no se puede agregar evidencia a una disputa resuelta")
	}
	if err := s.checkParticipant(ctx, dispute, userID); err != nil {
		return nil, err
	}

	evidence := &models.DisputeEvidence{
		ID:          uuid.New(),
		DisputeID:   disputeID,
		FileURL:     fileURL,
		FileType:    fileType,
		Description: description,
		UploadedBy:  userID,
	}
	if err := s.disputes.AddEvidence(ctx, evidence); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo guardar la evidencia")
	}
	return evidence, nil
}

// ListEvidence devuelve la evidencia de una disputa para sus
// participantes o un administrador.
func (s *DisputeService) ListEvidence(ctx context.Context, userID uuid.UUID, isAdmin bool, disputeID uuid.UUID) ([]models.DisputeEvidence, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar la disputa")
	}
	if !isAdmin {
		if err := s.checkParticipant(ctx, dispute, userID); err != nil {
			return nil, err
		}
	}
	evidence, err := s.disputes.ListEvidence(ctx, disputeID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo listar la evidencia")
	}
	return evidence, nil
}

func (s *DisputeService) checkParticipant(ctx context.Context, dispute *models.Dispute, userID uuid.UUID) error {
	payment, err := s.payments.GetByID(ctx, dispute.PaymentID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar el pago de la disputa")
	}
	if !payment.IsParticipant(userID) {
		return apperror.ErrForbidden
	}
	return nil
}

// outcomeToPaymentStatus traduce el resultado de la resolución al estado
// terminal del pago. El resultado explícito manda; si falta, se infiere
// del texto libre buscando a quién favorece, como hacía el flujo viejo.
func outcomeToPaymentStatus(outcome, resolution string) (string, error) {
	switch outcome {
	case models.DisputeOutcomeFavorWorker:
		return models.PaymentStatusReleased, nil
	case models.DisputeOutcomeFavorEmployer:
		return models.PaymentStatusRefunded, nil
	case "":
		// Regla heredada del panel viejo, para resoluciones sin outcome
		// explícito: una mención de "favor" libera al trabajador salvo
		// que el texto favorezca al empleador; sin mención, reembolso.
		lower := strings.ToLower(resolution)
		switch {
		case strings.Contains(lower, "favor del empleador"),
			strings.Contains(lower, "favor employer"),
			strings.Contains(lower, "favor of the employer"):
			return models.PaymentStatusRefunded, nil
		case strings.Contains(lower, "favor"):
			return models.PaymentStatusReleased, nil
		}
		return models.PaymentStatusRefunded, nil
	default:
		return "", fmt.Errorf("resultado de disputa inválido: %q", outcome)
	}
}
