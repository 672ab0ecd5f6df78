package models

import (
	"time"

	"github.com/google/uuid"
)

// Estados del trabajo
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// Job representa una solicitud de trabajo entre un empleador y un trabajador.
type Job struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	EmployerID uuid.UUID  `db:"employer_id" json:"employer_id"`
	WorkerID   uuid.UUID  `db:"worker_id" json:"worker_id"`
	Title      string     `db:"title" json:"title"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// JobContext reúne el trabajo y sus dos participantes; es el contexto
// mínimo para direccionar notificaciones durante la reconciliación.
type JobContext struct {
	Job      *Job
	Employer *User
	Worker   *User
}
