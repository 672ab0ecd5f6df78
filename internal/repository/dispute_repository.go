package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oficios-mz/backend/internal/models"
)

var ErrDisputeNotFound = errors.New("dispute not found")

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (payment_id, initiator_id, reason, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		d.PaymentID, d.InitiatorID, d.Reason, d.Description, d.Status).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("dispute repository: create: %w", err)
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get by id: %w", err)
	}
	return &d, nil
}

// GetOpenByPaymentID busca una disputa no resuelta sobre el pago.
// Sostiene la regla de una sola disputa abierta por pago.
func (r *DisputeRepository) GetOpenByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	query := `SELECT * FROM disputes WHERE payment_id = $1 AND status <> 'resolved' ORDER BY created_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &d, query, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get open by payment: %w", err)
	}
	return &d, nil
}

func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, statusFilter string, limit, offset int) ([]models.Dispute, error) {
	query := `
		SELECT d.* FROM disputes d
		JOIN payments p ON d.payment_id = p.id
		WHERE (d.initiator_id = $1 OR p.employer_id = $1 OR p.worker_id = $1)
	`
	args := []interface{}{userID}
	if statusFilter != "" {
		query += ` AND d.status = $2`
		args = append(args, statusFilter)
	}
	query += fmt.Sprintf(` ORDER BY d.created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var disputes []models.Dispute
	if err := r.db.SelectContext(ctx, &disputes, query, args...); err != nil {
		return nil, fmt.Errorf("dispute repository: list by user: %w", err)
	}
	return disputes, nil
}

// ListAll devuelve todas las disputas (vista de administración).
func (r *DisputeRepository) ListAll(ctx context.Context, statusFilter string, limit, offset int) ([]models.Dispute, error) {
	query := `SELECT * FROM disputes`
	args := []interface{}{}
	if statusFilter != "" {
		query += ` WHERE status = $1`
		args = append(args, statusFilter)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var disputes []models.Dispute
	if err := r.db.SelectContext(ctx, &disputes, query, args...); err != nil {
		return nil, fmt.Errorf("dispute repository: list all: %w", err)
	}
	return disputes, nil
}

// Update escribe estado, notas y resolución de una disputa.
func (r *DisputeRepository) Update(ctx context.Context, id uuid.UUID, status string, adminNotes, resolution *string, resolvedBy *uuid.UUID, resolvedAt *time.Time) (*models.Dispute, error) {
	var d models.Dispute
	query := `
		UPDATE disputes
		SET status = $2,
			admin_notes = COALESCE($3, admin_notes),
			resolution = COALESCE($4, resolution),
			resolved_by = COALESCE($5, resolved_by),
			resolved_at = COALESCE($6, resolved_at),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`
	err := r.db.GetContext(ctx, &d, query, id, status, adminNotes, resolution, resolvedBy, resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: update: %w", err)
	}
	return &d, nil
}

func (r *DisputeRepository) AddEvidence(ctx context.Context, e *models.DisputeEvidence) error {
	query := `
		INSERT INTO dispute_evidence (dispute_id, file_url, file_type, description, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.DisputeID, e.FileURL, e.FileType, e.Description, e.UploadedBy).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("dispute repository: add evidence: %w", err)
	}
	return nil
}

func (r *DisputeRepository) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeEvidence, error) {
	var evidence []models.DisputeEvidence
	query := `SELECT * FROM dispute_evidence WHERE dispute_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &evidence, query, disputeID); err != nil {
		return nil, fmt.Errorf("dispute repository: list evidence: %w", err)
	}
	return evidence, nil
}
