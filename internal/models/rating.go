package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating es la calificación que un participante deja sobre el otro al
// terminar un trabajo. Una por dirección (reviewer → reviewee) por trabajo.
type Rating struct {
	ID         uuid.UUID `db:"id" json:"id"`
	JobID      uuid.UUID `db:"job_id" json:"job_id"`
	ReviewerID uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	RevieweeID uuid.UUID `db:"reviewee_id" json:"reviewee_id"`
	Score      int       `db:"score" json:"score"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RatingSummary es el agregado de calificaciones de un usuario.
type RatingSummary struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	TotalRatings int       `db:"total_ratings" json:"total_ratings"`
	AvgScore     float64   `db:"avg_score" json:"avg_score"`
}
