package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/oficios-mz/backend/internal/models"
	"github.com/oficios-mz/backend/internal/pkg/apperror"
	"github.com/oficios-mz/backend/internal/repository"
)

func assertAppCode(t *testing.T, err error, code apperror.ErrorCode) {
	t.Helper()
	assert.Error(t, err)
	var appErr *apperror.AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, code, appErr.Code)
	}
}

func disputePayment(employerID, workerID uuid.UUID) *models.Payment {
	return &models.Payment{
		ID:         uuid.New(),
		JobID:      uuid.New(),
		EmployerID: employerID,
		WorkerID:   workerID,
		Amount:     15000,
		Status:     models.PaymentStatusHeld,
	}
}

func TestDisputeService_OpenDispute(t *testing.T) {
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	notifier := new(notifierRecorder)
	svc := NewDisputeService(disputes, payments, notifier)
	ctx := context.Background()

	employerID := uuid.New()
	workerID := uuid.New()
	payment := disputePayment(employerID, workerID)

	payments.On("GetByID", ctx, payment.ID).Return(payment, nil)
	disputes.On("GetOpenByPaymentID", ctx, payment.ID).Return(nil, repository.ErrDisputeNotFound)
	disputes.On("Create", ctx, mock.MatchedBy(func(d *models.Dispute) bool {
		return d.PaymentID == payment.ID &&
			d.InitiatorID == employerID &&
			d.Reason == models.DisputeReasonPoorQuality &&
			d.Status == models.DisputeStatusOpen
	})).Return(nil)
	payments.On("MarkDisputed", ctx, payment.ID).Return(payment, nil)

	dispute, err := svc.OpenDispute(ctx, employerID, payment.ID, models.DisputeReasonPoorQuality, "El trabajo quedó a medio terminar y con pérdidas de agua.")

	assert.NoError(t, err)
	assert.NotNil(t, dispute)
	disputes.AssertExpectations(t)
	payments.AssertExpectations(t)

	// El iniciador recibe la confirmación y la contraparte el aviso.
	assert.Len(t, notifier.forUser(employerID), 1)
	assert.Len(t, notifier.forUser(workerID), 1)
	assert.Equal(t, "Disputa creada", notifier.forUser(employerID)[0].Title)
	assert.Equal(t, "Disputa abierta", notifier.forUser(workerID)[0].Title)
}

func TestDisputeService_OpenDispute_InvalidReason(t *testing.T) {
	svc := NewDisputeService(new(mockDisputeStore), new(mockPaymentStore), nil)

	_, err := svc.OpenDispute(context.Background(), uuid.New(), uuid.New(), "me_arrepenti", "Descripción suficientemente larga para pasar la validación.")

	assertAppCode(t, err, apperror.ErrCodeValidation)
}

func TestDisputeService_OpenDispute_NotParticipant(t *testing.T) {
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	svc := NewDisputeService(disputes, payments, nil)
	ctx := context.Background()

	payment := disputePayment(uuid.New(), uuid.New())
	payments.On("GetByID", ctx, payment.ID).Return(payment, nil)

	_, err := svc.OpenDispute(ctx, uuid.New(), payment.ID, models.DisputeReasonOther, "Un tercero intenta abrir una disputa sobre un pago ajeno.")

	assertAppCode(t, err, apperror.ErrCodeForbidden)
	disputes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDisputeService_OpenDispute_AlreadyActive(t *testing.T) {
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	svc := NewDisputeService(disputes, payments, nil)
	ctx := context.Background()

	employerID := uuid.New()
	payment := disputePayment(employerID, uuid.New())
	payments.On("GetByID", ctx, payment.ID).Return(payment, nil)
	disputes.On("GetOpenByPaymentID", ctx, payment.ID).Return(&models.Dispute{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		Status:    models.DisputeStatusOpen,
	}, nil)

	_, err := svc.OpenDispute(ctx, employerID, payment.ID, models.DisputeReasonWorkNotCompleted, "El trabajo nunca se empezó a pesar de los reclamos.")

	assertAppCode(t, err, apperror.ErrCodeConflict)
	disputes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDisputeService_OpenDispute_FreezeFails(t *testing.T) {
	// Si el pago no se pudo congelar, la apertura falla completa: nunca
	// devolvemos una disputa con el pago todavía liberable.
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	svc := NewDisputeService(disputes, payments, nil)
	ctx := context.Background()

	employerID := uuid.New()
	payment := disputePayment(employerID, uuid.New())
	payments.On("GetByID", ctx, payment.ID).Return(payment, nil)
	disputes.On("GetOpenByPaymentID", ctx, payment.ID).Return(nil, repository.ErrDisputeNotFound)
	payments.On("MarkDisputed", ctx, payment.ID).Return(nil, errors.New("base caída"))

	_, err := svc.OpenDispute(ctx, employerID, payment.ID, models.DisputeReasonPaymentIssue, "El pago figura acreditado pero el trabajo sigue bloqueado.")

	assertAppCode(t, err, apperror.ErrCodeStoreUnavailable)
	disputes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDisputeService_ResolveDispute_FavorWorker(t *testing.T) {
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	notifier := new(notifierRecorder)
	svc := NewDisputeService(disputes, payments, notifier)
	ctx := context.Background()

	adminID := uuid.New()
	employerID := uuid.New()
	workerID := uuid.New()
	payment := disputePayment(employerID, workerID)
	payment.Status = models.PaymentStatusDisputed

	dispute := &models.Dispute{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		Status:    models.DisputeStatusReviewing,
	}
	resolution := "El trabajador acreditó la finalización del trabajo con fotos."

	disputes.On("GetByID", ctx, dispute.ID).Return(dispute, nil)
	payments.On("SetTerminalStatus", ctx, payment.ID, models.PaymentStatusReleased).Return(payment, nil)
	disputes.On("Update", ctx, dispute.ID, models.DisputeStatusResolved, (*string)(nil), &resolution, &adminID, mock.AnythingOfType("*time.Time")).
		Return(&models.Dispute{ID: dispute.ID, Status: models.DisputeStatusResolved}, nil)

	updated, err := svc.ResolveDispute(ctx, adminID, true, dispute.ID, models.DisputeOutcomeFavorWorker, resolution, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolved, updated.Status)
	payments.AssertExpectations(t)
	disputes.AssertExpectations(t)
	assert.Len(t, notifier.forUser(employerID), 1)
	assert.Len(t, notifier.forUser(workerID), 1)
}

func TestDisputeService_ResolveDispute_FavorEmployerRefunds(t *testing.T) {
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	svc := NewDisputeService(disputes, payments, nil)
	ctx := context.Background()

	payment := disputePayment(uuid.New(), uuid.New())
	dispute := &models.Dispute{ID: uuid.New(), PaymentID: payment.ID, Status: models.DisputeStatusOpen}

	disputes.On("GetByID", ctx, dispute.ID).Return(dispute, nil)
	payments.On("SetTerminalStatus", ctx, payment.ID, models.PaymentStatusRefunded).Return(payment, nil)
	disputes.On("Update", ctx, dispute.ID, models.DisputeStatusResolved, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Dispute{ID: dispute.ID, Status: models.DisputeStatusResolved}, nil)

	_, err := svc.ResolveDispute(ctx, uuid.New(), true, dispute.ID, models.DisputeOutcomeFavorEmployer, "El empleador demostró que el trabajo no se realizó.", nil)

	assert.NoError(t, err)
	payments.AssertExpectations(t)
}

func TestDisputeService_ResolveDispute_InfersOutcomeFromText(t *testing.T) {
	// Panel viejo: no manda outcome y el resultado viaja en el texto libre.
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	svc := NewDisputeService(disputes, payments, nil)
	ctx := context.Background()

	payment := disputePayment(uuid.New(), uuid.New())
	dispute := &models.Dispute{ID: uuid.New(), PaymentID: payment.ID, Status: models.DisputeStatusOpen}

	disputes.On("GetByID", ctx, dispute.ID).Return(dispute, nil)
	payments.On("SetTerminalStatus", ctx, payment.ID, models.PaymentStatusReleased).Return(payment, nil)
	disputes.On("Update", ctx, dispute.ID, models.DisputeStatusResolved, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Dispute{ID: dispute.ID, Status: models.DisputeStatusResolved}, nil)

	_, err := svc.ResolveDispute(ctx, uuid.New(), true, dispute.ID, "", "Resuelta a favor del trabajador según la evidencia presentada.", nil)

	assert.NoError(t, err)
	payments.AssertExpectations(t)
}

func TestDisputeService_ResolveDispute_LegacyTextRule(t *testing.T) {
	// Textos libres del panel viejo, sin outcome explícito.
	cases := []struct {
		name       string
		resolution string
		want       string
	}{
		{"favor en inglés libera", "Resolved in favor of worker after reviewing the photos.", models.PaymentStatusReleased},
		{"sin mención de favor reembolsa", "Refund issued to employer.", models.PaymentStatusRefunded},
		{"favor del empleador reembolsa", "Se resolvió a favor del empleador por falta de evidencia.", models.PaymentStatusRefunded},
		{"texto ambiguo reembolsa", "Ambas partes llegaron a un acuerdo amistoso.", models.PaymentStatusRefunded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			disputes := new(mockDisputeStore)
			payments := new(mockPaymentStore)
			svc := NewDisputeService(disputes, payments, nil)
			ctx := context.Background()

			payment := disputePayment(uuid.New(), uuid.New())
			dispute := &models.Dispute{ID: uuid.New(), PaymentID: payment.ID, Status: models.DisputeStatusOpen}

			disputes.On("GetByID", ctx, dispute.ID).Return(dispute, nil)
			payments.On("SetTerminalStatus", ctx, payment.ID, tc.want).Return(payment, nil)
			disputes.On("Update", ctx, dispute.ID, models.DisputeStatusResolved, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(&models.Dispute{ID: dispute.ID, Status: models.DisputeStatusResolved}, nil)

			_, err := svc.ResolveDispute(ctx, uuid.New(), true, dispute.ID, "", tc.resolution, nil)

			assert.NoError(t, err)
			payments.AssertExpectations(t)
		})
	}
}

func TestDisputeService_ResolveDispute_NotAdmin(t *testing.T) {
	svc := NewDisputeService(new(mockDisputeStore), new(mockPaymentStore), nil)

	_, err := svc.ResolveDispute(context.Background(), uuid.New(), false, uuid.New(), models.DisputeOutcomeFavorWorker, "da igual", nil)

	assertAppCode(t, err, apperror.ErrCodeForbidden)
}

func TestDisputeService_ResolveDispute_AlreadyResolved(t *testing.T) {
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	svc := NewDisputeService(disputes, payments, nil)
	ctx := context.Background()

	dispute := &models.Dispute{ID: uuid.New(), PaymentID: uuid.New(), Status: models.DisputeStatusResolved}
	disputes.On("GetByID", ctx, dispute.ID).Return(dispute, nil)

	_, err := svc.ResolveDispute(ctx, uuid.New(), true, dispute.ID, models.DisputeOutcomeFavorWorker, "Ya estaba cerrada.", nil)

	assertAppCode(t, err, apperror.ErrCodeConflict)
	payments.AssertNotCalled(t, "SetTerminalStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDisputeService_UpdateStatus_RejectsResolved(t *testing.T) {
	svc := NewDisputeService(new(mockDisputeStore), new(mockPaymentStore), nil)

	_, err := svc.UpdateStatus(context.Background(), true, uuid.New(), models.DisputeStatusResolved, nil)

	assertAppCode(t, err, apperror.ErrCodeValidation)
}

func TestDisputeService_UpdateStatus_ToReviewing(t *testing.T) {
	disputes := new(mockDisputeStore)
	svc := NewDisputeService(disputes, new(mockPaymentStore), nil)
	ctx := context.Background()

	dispute := &models.Dispute{ID: uuid.New(), PaymentID: uuid.New(), Status: models.DisputeStatusOpen}
	notes := "En revisión por el equipo de soporte."
	disputes.On("GetByID", ctx, dispute.ID).Return(dispute, nil)
	disputes.On("Update", ctx, dispute.ID, models.DisputeStatusReviewing, &notes, (*string)(nil), (*uuid.UUID)(nil), (*time.Time)(nil)).
		Return(&models.Dispute{ID: dispute.ID, Status: models.DisputeStatusReviewing}, nil)

	updated, err := svc.UpdateStatus(ctx, true, dispute.ID, models.DisputeStatusReviewing, &notes)

	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusReviewing, updated.Status)
	disputes.AssertExpectations(t)
}

func TestDisputeService_AddEvidence_ResolvedDispute(t *testing.T) {
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	svc := NewDisputeService(disputes, payments, nil)
	ctx := context.Background()

	dispute := &models.Dispute{ID: uuid.New(), PaymentID: uuid.New(), Status: models.DisputeStatusResolved}
	disputes.On("GetByID", ctx, dispute.ID).Return(dispute, nil)

	_, err := svc.AddEvidence(ctx, uuid.New(), dispute.ID, "evidence/foto.jpg", "image/jpeg", nil)

	assertAppCode(t, err, apperror.ErrCodeConflict)
	disputes.AssertNotCalled(t, "AddEvidence", mock.Anything, mock.Anything)
}

func TestDisputeService_AddEvidence_Participant(t *testing.T) {
	disputes := new(mockDisputeStore)
	payments := new(mockPaymentStore)
	svc := NewDisputeService(disputes, payments, nil)
	ctx := context.Background()

	workerID := uuid.New()
	payment := disputePayment(uuid.New(), workerID)
	dispute := &models.Dispute{ID: uuid.New(), PaymentID: payment.ID, Status: models.DisputeStatusOpen}

	disputes.On("GetByID", ctx, dispute.ID).Return(dispute, nil)
	payments.On("GetByID", ctx, payment.ID).Return(payment, nil)
	disputes.On("AddEvidence", ctx, mock.MatchedBy(func(e *models.DisputeEvidence) bool {
		return e.DisputeID == dispute.ID && e.UploadedBy == workerID && e.FileURL == "evidence/factura.pdf"
	})).Return(nil)

	evidence, err := svc.AddEvidence(ctx, workerID, dispute.ID, "evidence/factura.pdf", "application/pdf", nil)

	assert.NoError(t, err)
	assert.NotNil(t, evidence)
	disputes.AssertExpectations(t)
}

func TestDisputeService_GetDispute_NotFound(t *testing.T) {
	disputes := new(mockDisputeStore)
	svc := NewDisputeService(disputes, new(mockPaymentStore), nil)
	ctx := context.Background()

	id := uuid.New()
	disputes.On("GetByID", ctx, id).Return(nil, repository.ErrDisputeNotFound)

	_, err := svc.GetDispute(ctx, uuid.New(), true, id)

	assert.True(t, errors.Is(err, apperror.ErrDisputeNotFound))
}

func TestDisputeService_ListAll_RequiresAdmin(t *testing.T) {
	svc := NewDisputeService(new(mockDisputeStore), new(mockPaymentStore), nil)

	_, err := svc.ListAllDisputes(context.Background(), false, "", 20, 0)

	assertAppCode(t, err, apperror.ErrCodeForbidden)
}
