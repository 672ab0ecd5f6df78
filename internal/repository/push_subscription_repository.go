package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oficios-mz/backend/internal/models"
)

var ErrSubscriptionNotFound = errors.New("push subscription not found")

type PushSubscriptionRepository struct {
	db *sqlx.DB
}

func NewPushSubscriptionRepository(db *sqlx.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert guarda la suscripción del navegador. Un mismo usuario puede tener
// varios dispositivos; la clave natural es (user_id, endpoint) y re-registrar
// el mismo endpoint solo refresca las llaves.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, s *models.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at, updated_at)
		VALUES (:id, :user_id, :endpoint, :p256dh, :auth, NOW(), NOW())
		ON CONFLICT (user_id, endpoint) DO UPDATE
		SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, updated_at = NOW()
		RETURNING id, created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("push subscription repository: upsert: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return fmt.Errorf("push subscription repository: scan: %w", err)
		}
	}
	return nil
}

func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	subs := []models.PushSubscription{}
	err := r.db.SelectContext(ctx, &subs,
		`SELECT * FROM push_subscriptions WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("push subscription repository: list: %w", err)
	}
	return subs, nil
}

func (r *PushSubscriptionRepository) Delete(ctx context.Context, userID uuid.UUID, endpoint string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2`, userID, endpoint)
	if err != nil {
		return fmt.Errorf("push subscription repository: delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("push subscription repository: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
