package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/logger"
	"github.com/oficios-mz/backend/internal/mercadopago"
	"github.com/oficios-mz/backend/internal/metrics"
	"github.com/oficios-mz/backend/internal/models"
	"github.com/oficios-mz/backend/internal/retry"
)

// Resultados posibles de procesar un webhook. El endpoint siempre
// responde 200 al procesador; este estado viaja en el cuerpo y en los
// logs, no en el código HTTP.
const (
	WebhookStatusSuccess = "success"
	WebhookStatusIgnored = "ignored"
	WebhookStatusError   = "error"
)

// WebhookResult es el resultado de la reconciliación de un evento.
type WebhookResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// webhookEvent es el cuerpo que envía Mercado Pago. Solo nos interesa
// el id del pago; el resto del evento se ignora.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// SignatureVerifier valida la firma HMAC del cuerpo crudo.
type SignatureVerifier interface {
	Verify(rawBody []byte, signature string) bool
}

// PaymentFetcher consulta el estado de un pago en el procesador.
type PaymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// ReconciliationStore aplica el estado reconciliado sobre el pago del
// trabajo. La escritura es idempotente: reenvíos del mismo evento dejan
// el registro igual.
type ReconciliationStore interface {
	UpdateByJobID(ctx context.Context, jobID uuid.UUID, upd models.PaymentUpdate) (*models.Payment, error)
}

// WebhookService reconcilia los eventos de pago de Mercado Pago contra
// el estado local. Nunca confía en el cuerpo del webhook: siempre
// consulta el estado real del pago al procesador.
type WebhookService struct {
	verifier SignatureVerifier
	mp       PaymentFetcher
	payments ReconciliationStore
	jobs     JobStore
	notifier Notifier
	retry    retry.Policy
	now      func() time.Time
}

func NewWebhookService(verifier SignatureVerifier, mp PaymentFetcher, payments ReconciliationStore, jobs JobStore, notifier Notifier, policy retry.Policy) *WebhookService {
	return &WebhookService{
		verifier: verifier,
		mp:       mp,
		payments: payments,
		jobs:     jobs,
		notifier: notifier,
		retry:    policy,
		now:      time.Now,
	}
}

// HandleEvent procesa un evento de webhook de principio a fin:
// verificación de firma, consulta del pago al procesador con reintentos,
// resolución del trabajo por external_reference y actualización
// idempotente del pago local.
func (s *WebhookService) HandleEvent(ctx context.Context, rawBody []byte, signature string) *WebhookResult {
	log := logger.Log.WithField("component", "webhook")

	if !s.verifier.Verify(rawBody, signature) {
		log.Warn("Webhook con firma inválida descartado")
		metrics.WebhookEvents.WithLabelValues("signature_invalid").Inc()
		return &WebhookResult{Status: WebhookStatusError, Message: "firma inválida"}
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		log.WithError(err).Warn("Webhook con cuerpo ilegible")
		metrics.WebhookEvents.WithLabelValues("bad_payload").Inc()
		return &WebhookResult{Status: WebhookStatusError, Message: "cuerpo inválido"}
	}

	mpPaymentID := event.Data.ID.String()
	if mpPaymentID == "" {
		// Mercado Pago manda eventos de otros recursos (merchant_order,
		// plan, etc.); sin id de pago no hay nada que reconciliar.
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		return &WebhookResult{Status: WebhookStatusIgnored, Message: "evento sin id de pago"}
	}

	log = log.WithField("mp_payment_id", mpPaymentID)

	var mpPayment *mercadopago.Payment
	err := s.retry.Do(ctx, func(attempt int) error {
		var ferr error
		mpPayment, ferr = s.mp.GetPayment(ctx, mpPaymentID)
		if ferr != nil {
			log.WithError(ferr).WithField("attempt", attempt).Warn("Fallo al consultar el pago en Mercado Pago")
			metrics.ProcessorRequests.WithLabelValues("get_payment", "error").Inc()
		}
		return ferr
	})
	if err != nil {
		log.WithError(err).Error("Pago inalcanzable en Mercado Pago tras reintentos")
		metrics.WebhookEvents.WithLabelValues("processor_unavailable").Inc()
		return &WebhookResult{Status: WebhookStatusError, Message: "no se pudo consultar el pago en el procesador"}
	}
	metrics.ProcessorRequests.WithLabelValues("get_payment", "ok").Inc()

	jobID, err := parseExternalReference(mpPayment.ExternalReference)
	if err != nil {
		log.WithError(err).WithField("external_reference", mpPayment.ExternalReference).Error("Webhook de un pago sin trabajo conocido")
		metrics.WebhookEvents.WithLabelValues("job_unknown").Inc()
		return &WebhookResult{Status: WebhookStatusError, Message: "referencia externa desconocida"}
	}

	jctx, err := s.jobs.GetJobContext(ctx, jobID)
	if err != nil {
		log.WithError(err).WithField("job_id", jobID).Error("No se pudo cargar el contexto del trabajo")
		metrics.WebhookEvents.WithLabelValues("job_unknown").Inc()
		return &WebhookResult{Status: WebhookStatusError, Message: "trabajo no encontrado"}
	}

	status := MapProcessorStatus(mpPayment.Status)
	upd := models.PaymentUpdate{
		Status:               status,
		MercadoPagoPaymentID: stringPtr(strconv.FormatInt(mpPayment.ID, 10)),
		MercadoPagoStatus:    stringPtr(mpPayment.Status),
	}
	now := s.now()
	switch status {
	case models.PaymentStatusHeld:
		upd.HeldAt = &now
	case models.PaymentStatusReleased:
		upd.ReleasedAt = &now
	case models.PaymentStatusDisputed:
		upd.DisputedAt = &now
	case models.PaymentStatusRefunded:
		upd.RefundedAt = &now
	}

	// La escritura local también se reintenta: un corte transitorio de
	// la base no debe perder el evento si la consulta al procesador ya
	// costó sus propios reintentos.
	var payment *models.Payment
	err = s.retry.Do(ctx, func(attempt int) error {
		var uerr error
		payment, uerr = s.payments.UpdateByJobID(ctx, jobID, upd)
		if uerr != nil {
			log.WithError(uerr).WithFields(map[string]interface{}{
				"job_id":  jobID,
				"attempt": attempt,
			}).Warn("Fallo al actualizar el pago local")
		}
		return uerr
	})
	if err != nil {
		log.WithError(err).WithField("job_id", jobID).Error("No se pudo actualizar el pago local tras reintentos")
		metrics.WebhookEvents.WithLabelValues("store_unavailable").Inc()
		return &WebhookResult{Status: WebhookStatusError, Message: "no se pudo actualizar el pago"}
	}

	metrics.WebhookEvents.WithLabelValues("success").Inc()
	metrics.PaymentTransitions.WithLabelValues(status).Inc()
	log.WithFields(map[string]interface{}{
		"job_id":     jobID,
		"payment_id": payment.ID,
		"mp_status":  mpPayment.Status,
		"status":     status,
	}).Info("Pago reconciliado desde webhook")

	s.notifyReconciliation(jctx, payment, status)

	return &WebhookResult{Status: WebhookStatusSuccess, Message: "pago actualizado"}
}

// notifyReconciliation avisa a los participantes según el estado final.
// Es fire-and-forget: un fallo al notificar no afecta la reconciliación.
func (s *WebhookService) notifyReconciliation(jctx *models.JobContext, payment *models.Payment, status string) {
	if s.notifier == nil {
		return
	}

	meta := map[string]interface{}{
		"payment_id": payment.ID,
		"job_id":     payment.JobID,
	}

	switch status {
	case models.PaymentStatusHeld:
		s.notifier.Notify(jctx.Worker.ID,
			"Pago aprobado",
			fmt.Sprintf("El pago del trabajo \"%s\" fue aprobado y quedó retenido en custodia.", jctx.Job.Title),
			models.NotificationTypePayment, meta)
	case models.PaymentStatusPending:
		s.notifier.Notify(jctx.Employer.ID,
			"Pago pendiente",
			fmt.Sprintf("El pago del trabajo \"%s\" sigue pendiente de acreditación.", jctx.Job.Title),
			models.NotificationTypePayment, meta)
	case models.PaymentStatusDisputed:
		msg := fmt.Sprintf("El pago del trabajo \"%s\" fue rechazado o revertido por el procesador y quedó en disputa.", jctx.Job.Title)
		s.notifier.Notify(jctx.Employer.ID, "Pago en disputa", msg, models.NotificationTypePayment, meta)
		s.notifier.Notify(jctx.Worker.ID, "Pago en disputa", msg, models.NotificationTypePayment, meta)
	case models.PaymentStatusRefunded:
		s.notifier.Notify(jctx.Employer.ID,
			"Pago reembolsado",
			fmt.Sprintf("El pago del trabajo \"%s\" fue reembolsado.", jctx.Job.Title),
			models.NotificationTypePayment, meta)
	}
}

// parseExternalReference extrae el id del trabajo de la referencia
// "job_<uuid>" que viaja en la preferencia de pago.
func parseExternalReference(ref string) (uuid.UUID, error) {
	const prefix = "job_"
	if !strings.HasPrefix(ref, prefix) {
		return uuid.Nil, fmt.Errorf("referencia externa sin prefijo %q: %q", prefix, ref)
	}
	id, err := uuid.Parse(strings.TrimPrefix(ref, prefix))
	if err != nil {
		return uuid.Nil, fmt.Errorf("referencia externa con uuid inválido: %w", err)
	}
	return id, nil
}

func stringPtr(s string) *string {
	return &s
}
