package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/oficios-mz/backend/internal/models"
)

var (
	ErrRatingNotFound = errors.New("rating not found")
	ErrRatingExists   = errors.New("rating already exists for this job and reviewer")
)

type RatingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	query := `
		INSERT INTO ratings (id, job_id, reviewer_id, reviewee_id, score, comment, created_at)
		VALUES (:id, :job_id, :reviewer_id, :reviewee_id, :score, :comment, NOW())
		RETURNING created_at`
	rows, err := r.db.NamedQueryContext(ctx, query, rating)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrRatingExists
		}
		return fmt.Errorf("rating repository: create: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&rating.CreatedAt); err != nil {
			return fmt.Errorf("rating repository: scan created_at: %w", err)
		}
	}
	return nil
}

func (r *RatingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.GetContext(ctx, &rating, `SELECT * FROM ratings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRatingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rating repository: get by id: %w", err)
	}
	return &rating, nil
}

// ListForUser devuelve las calificaciones recibidas por un usuario.
func (r *RatingRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Rating, error) {
	ratings := []models.Rating{}
	err := r.db.SelectContext(ctx, &ratings,
		`SELECT * FROM ratings WHERE reviewee_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("rating repository: list for user: %w", err)
	}
	return ratings, nil
}

func (r *RatingRepository) Summary(ctx context.Context, userID uuid.UUID) (*models.RatingSummary, error) {
	var s models.RatingSummary
	query := `
		SELECT
			COUNT(*)                          AS total_ratings,
			COALESCE(ROUND(AVG(score), 2), 0) AS avg_score
		FROM ratings
		WHERE reviewee_id = $1`
	if err := r.db.GetContext(ctx, &s, query, userID); err != nil {
		return nil, fmt.Errorf("rating repository: summary: %w", err)
	}
	s.UserID = userID
	return &s, nil
}
