package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oficios-mz/backend/internal/models"
)

var ErrJobNotFound = errors.New("job not found")

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var j models.Job
	err := r.db.GetContext(ctx, &j, `SELECT * FROM jobs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("job repository: get by id: %w", err)
	}
	return &j, nil
}

// GetJobContext carga el trabajo junto con empleador y trabajador.
// Es el prerequisito para direccionar notificaciones en la reconciliación:
// sin este contexto no hay registro contra el cual actualizar.
func (r *JobRepository) GetJobContext(ctx context.Context, jobID uuid.UUID) (*models.JobContext, error) {
	job, err := r.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var users []models.User
	query := `SELECT id, full_name, email, role, created_at FROM users WHERE id IN ($1, $2)`
	if err := r.db.SelectContext(ctx, &users, query, job.EmployerID, job.WorkerID); err != nil {
		return nil, fmt.Errorf("job repository: get job context users: %w", err)
	}

	jc := &models.JobContext{Job: job}
	for i := range users {
		switch users[i].ID {
		case job.EmployerID:
			jc.Employer = &users[i]
		case job.WorkerID:
			jc.Worker = &users[i]
		}
	}
	if jc.Employer == nil || jc.Worker == nil {
		return nil, fmt.Errorf("job repository: participantes incompletos para el trabajo %s", jobID)
	}
	return jc, nil
}
