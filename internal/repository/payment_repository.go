package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/oficios-mz/backend/internal/models"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentExists   = errors.New("payment already exists for this job")
	ErrStateConflict   = errors.New("payment is not in the expected state")
)

const pqUniqueViolation = "23505"

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserta el pago en estado pending. La restricción de unicidad
// sobre job_id garantiza un solo pago por trabajo aun con requests
// concurrentes.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (job_id, employer_id, worker_id, amount, status, mercado_pago_preference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.JobID, p.EmployerID, p.WorkerID, p.Amount, p.Status, p.MercadoPagoPreferenceID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrPaymentExists
		}
		return fmt.Errorf("payment repository: create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	err := r.db.GetContext(ctx, &p, `SELECT * FROM payments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: get by id: %w", err)
	}
	return &p, nil
}

func (r *PaymentRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	err := r.db.GetContext(ctx, &p, `SELECT * FROM payments WHERE job_id = $1`, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: get by job id: %w", err)
	}
	return &p, nil
}

// ListByUser devuelve los pagos donde el usuario participa, con filtro
// opcional de estado.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, statusFilter string, limit, offset int) ([]models.Payment, error) {
	query := `SELECT * FROM payments WHERE (employer_id = $1 OR worker_id = $1)`
	args := []interface{}{userID}
	if statusFilter != "" {
		query += ` AND status = $2`
		args = append(args, statusFilter)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("payment repository: list by user: %w", err)
	}
	return payments, nil
}

// Stats calcula las estadísticas de pagos de un usuario del lado de la base.
func (r *PaymentRepository) Stats(ctx context.Context, userID uuid.UUID) (*models.PaymentStats, error) {
	var stats models.PaymentStats
	query := `
		SELECT
			COUNT(*) AS total_payments,
			COALESCE(SUM(amount), 0) AS total_amount,
			COALESCE(SUM(amount) FILTER (WHERE status = 'released'), 0) AS released_amount,
			COALESCE(SUM(amount) FILTER (WHERE status = 'held'), 0) AS held_amount,
			COALESCE(SUM(amount) FILTER (WHERE status = 'disputed'), 0) AS disputed_amount,
			COALESCE(AVG(amount), 0) AS avg_payment,
			MAX(created_at) AS last_payment_date
		FROM payments
		WHERE employer_id = $1 OR worker_id = $1
	`
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("payment repository: stats: %w", err)
	}
	return &stats, nil
}

// Hold pasa el pago de pending a held. La guarda de estado vive en el
// WHERE: dos hold concurrentes no pueden tener éxito ambos.
func (r *PaymentRepository) Hold(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	query := `
		UPDATE payments
		SET status = 'held', held_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateConflict
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: hold: %w", err)
	}
	return &p, nil
}

// Release pasa el pago de held a released.
func (r *PaymentRepository) Release(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	query := `
		UPDATE payments
		SET status = 'released', released_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'held'
		RETURNING *
	`
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateConflict
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: release: %w", err)
	}
	return &p, nil
}

// UpdateByJobID aplica el resultado de la reconciliación sobre el pago
// del trabajo. Es siempre un UPDATE (nunca un insert): la reentrega del
// mismo evento no puede duplicar registros. Los timestamps de transición
// se escriben con COALESCE para no pisar la primera entrada al estado.
func (r *PaymentRepository) UpdateByJobID(ctx context.Context, jobID uuid.UUID, upd models.PaymentUpdate) (*models.Payment, error) {
	var p models.Payment
	query := `
		UPDATE payments
		SET status = $2,
			mercado_pago_payment_id = COALESCE($3, mercado_pago_payment_id),
			mercado_pago_status = COALESCE($4, mercado_pago_status),
			held_at = COALESCE(held_at, $5),
			released_at = COALESCE(released_at, $6),
			disputed_at = COALESCE(disputed_at, $7),
			refunded_at = COALESCE(refunded_at, $8),
			updated_at = NOW()
		WHERE job_id = $1
		RETURNING *
	`
	err := r.db.GetContext(ctx, &p, query, jobID,
		upd.Status, upd.MercadoPagoPaymentID, upd.MercadoPagoStatus,
		upd.HeldAt, upd.ReleasedAt, upd.DisputedAt, upd.RefundedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: update by job id: %w", err)
	}
	return &p, nil
}

// MarkDisputed marca el pago como en disputa.
func (r *PaymentRepository) MarkDisputed(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	query := `
		UPDATE payments
		SET status = 'disputed', disputed_at = COALESCE(disputed_at, NOW()), updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: mark disputed: %w", err)
	}
	return &p, nil
}

// SetTerminalStatus escribe released o refunded al resolver una disputa.
func (r *PaymentRepository) SetTerminalStatus(ctx context.Context, id uuid.UUID, status string) (*models.Payment, error) {
	if status != models.PaymentStatusReleased && status != models.PaymentStatusRefunded {
		return nil, fmt.Errorf("payment repository: estado terminal inválido %q", status)
	}

	var p models.Payment
	query := `
		UPDATE payments
		SET status = $2,
			released_at = CASE WHEN $2 = 'released' THEN COALESCE(released_at, NOW()) ELSE released_at END,
			refunded_at = CASE WHEN $2 = 'refunded' THEN COALESCE(refunded_at, NOW()) ELSE refunded_at END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`
	err := r.db.GetContext(ctx, &p, query, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: set terminal status: %w", err)
	}
	return &p, nil
}

// AutoRelease libera en bloque los pagos retenidos hace más de olderThan.
// La operación es idempotente del lado de la base.
func (r *PaymentRepository) AutoRelease(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE payments
		SET status = 'released', released_at = NOW(), updated_at = NOW()
		WHERE status = 'held' AND held_at < NOW() - make_interval(secs => $1)
	`
	res, err := r.db.ExecContext(ctx, query, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("payment repository: auto release: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("payment repository: auto release count: %w", err)
	}
	return count, nil
}
