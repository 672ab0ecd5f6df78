package models

import (
	"time"

	"github.com/google/uuid"
)

// Estados del pago (escrow)
const (
	PaymentStatusPending  = "pending"
	PaymentStatusHeld     = "held"
	PaymentStatusReleased = "released"
	PaymentStatusDisputed = "disputed"
	PaymentStatusRefunded = "refunded"
)

// Payment representa el pago en custodia de un trabajo.
// Existe exactamente un pago por trabajo; el registro nunca se borra,
// los estados terminales quedan para auditoría.
type Payment struct {
	ID                      uuid.UUID  `db:"id" json:"id"`
	JobID                   uuid.UUID  `db:"job_id" json:"job_id"`
	EmployerID              uuid.UUID  `db:"employer_id" json:"employer_id"`
	WorkerID                uuid.UUID  `db:"worker_id" json:"worker_id"`
	Amount                  float64    `db:"amount" json:"amount"`
	Status                  string     `db:"status" json:"status"`
	MercadoPagoPreferenceID *string    `db:"mercado_pago_preference_id" json:"mercado_pago_preference_id,omitempty"`
	MercadoPagoPaymentID    *string    `db:"mercado_pago_payment_id" json:"mercado_pago_payment_id,omitempty"`
	MercadoPagoStatus       *string    `db:"mercado_pago_status" json:"mercado_pago_status,omitempty"`
	MercadoPagoInitPoint    *string    `db:"-" json:"mercado_pago_init_point,omitempty"`
	MercadoPagoSandboxPoint *string    `db:"-" json:"mercado_pago_sandbox_init_point,omitempty"`
	HeldAt                  *time.Time `db:"held_at" json:"held_at,omitempty"`
	ReleasedAt              *time.Time `db:"released_at" json:"released_at,omitempty"`
	DisputedAt              *time.Time `db:"disputed_at" json:"disputed_at,omitempty"`
	RefundedAt              *time.Time `db:"refunded_at" json:"refunded_at,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// IsParticipant indica si el usuario es el empleador o el trabajador del pago.
func (p *Payment) IsParticipant(userID uuid.UUID) bool {
	return p.EmployerID == userID || p.WorkerID == userID
}

// PaymentStats agrupa las estadísticas de pagos de un usuario.
type PaymentStats struct {
	TotalPayments   int        `db:"total_payments" json:"total_payments"`
	TotalAmount     float64    `db:"total_amount" json:"total_amount"`
	ReleasedAmount  float64    `db:"released_amount" json:"released_amount"`
	HeldAmount      float64    `db:"held_amount" json:"held_amount"`
	DisputedAmount  float64    `db:"disputed_amount" json:"disputed_amount"`
	AvgPayment      float64    `db:"avg_payment" json:"avg_payment"`
	LastPaymentDate *time.Time `db:"last_payment_date" json:"last_payment_date,omitempty"`
}

// PaymentUpdate son los campos que la reconciliación escribe sobre el pago.
// El timestamp de transición se fija sólo al entrar en ese estado.
type PaymentUpdate struct {
	Status               string
	MercadoPagoPaymentID *string
	MercadoPagoStatus    *string
	HeldAt               *time.Time
	ReleasedAt           *time.Time
	DisputedAt           *time.Time
	RefundedAt           *time.Time
}
