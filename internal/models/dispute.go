package models

import (
	"time"

	"github.com/google/uuid"
)

// Estados de una disputa
const (
	DisputeStatusOpen      = "open"
	DisputeStatusReviewing = "reviewing"
	DisputeStatusResolved  = "resolved"
	DisputeStatusEscalated = "escalated"
)

// Razones de disputa
const (
	DisputeReasonWorkNotCompleted     = "work_not_completed"
	DisputeReasonPoorQuality          = "poor_quality"
	DisputeReasonPaymentIssue         = "payment_issue"
	DisputeReasonCommunicationProblem = "communication_problem"
	DisputeReasonOther                = "other"
)

// Resultado explícito de la resolución. Reemplaza la inferencia por texto
// libre del sistema anterior; si el administrador no lo indica se mantiene
// la inferencia como compatibilidad.
const (
	DisputeOutcomeFavorWorker   = "favor_worker"
	DisputeOutcomeFavorEmployer = "favor_employer"
)

// ValidDisputeReason verifica que la razón pertenezca al catálogo.
func ValidDisputeReason(reason string) bool {
	switch reason {
	case DisputeReasonWorkNotCompleted, DisputeReasonPoorQuality,
		DisputeReasonPaymentIssue, DisputeReasonCommunicationProblem,
		DisputeReasonOther:
		return true
	}
	return false
}

// ValidDisputeStatus verifica que el estado pertenezca al catálogo.
func ValidDisputeStatus(status string) bool {
	switch status {
	case DisputeStatusOpen, DisputeStatusReviewing,
		DisputeStatusResolved, DisputeStatusEscalated:
		return true
	}
	return false
}

// Dispute representa una disputa sobre un pago retenido.
type Dispute struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PaymentID   uuid.UUID  `db:"payment_id" json:"payment_id"`
	InitiatorID uuid.UUID  `db:"initiator_id" json:"initiator_id"`
	Reason      string     `db:"reason" json:"reason"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	AdminNotes  *string    `db:"admin_notes" json:"admin_notes,omitempty"`
	Resolution  *string    `db:"resolution" json:"resolution,omitempty"`
	ResolvedBy  *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// DisputeEvidence es un archivo adjunto como evidencia de una disputa.
type DisputeEvidence struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisputeID   uuid.UUID `db:"dispute_id" json:"dispute_id"`
	FileURL     string    `db:"file_url" json:"file_url"`
	FileType    string    `db:"file_type" json:"file_type"`
	Description *string   `db:"description" json:"description,omitempty"`
	UploadedBy  uuid.UUID `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
