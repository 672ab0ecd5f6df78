package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/models"
	"github.com/oficios-mz/backend/internal/pkg/apperror"
	"github.com/oficios-mz/backend/internal/repository"
	"github.com/oficios-mz/backend/internal/validation"
)

// RatingStore describe el acceso del servicio al almacén de calificaciones.
type RatingStore interface {
	Create(ctx context.Context, r *models.Rating) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Rating, error)
	Summary(ctx context.Context, userID uuid.UUID) (*models.RatingSummary, error)
}

// RatingPaymentStore es la vista del almacén de pagos que necesita el
// flujo de calificaciones.
type RatingPaymentStore interface {
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payment, error)
}

// RatingService maneja las calificaciones entre participantes de un
// trabajo. Se puede calificar solo cuando el pago ya se liberó y cada
// dirección admite una sola calificación.
type RatingService struct {
	ratings  RatingStore
	payments RatingPaymentStore
	notifier Notifier
}

func NewRatingService(ratings RatingStore, payments RatingPaymentStore, notifier Notifier) *RatingService {
	return &RatingService{ratings: ratings, payments: payments, notifier: notifier}
}

// CreateRating registra la calificación del revisor sobre la contraparte.
func (s *RatingService) CreateRating(ctx context.Context, reviewerID, jobID uuid.UUID, score int, comment *string) (*models.Rating, error) {
	if err := validation.ValidateRatingScore(score); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	payment, err := s.payments.GetByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar el pago del trabajo")
	}
	if !payment.IsParticipant(reviewerID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "solo un participante del trabajo puede calificar")
	}
	if payment.Status != models.PaymentStatusReleased {
		return nil, apperror.New(apperror.ErrCodeConflict, "solo se puede calificar cuando el pago fue liberado")
	}

	revieweeID := payment.EmployerID
	if reviewerID == payment.EmployerID {
		revieweeID = payment.WorkerID
	}

	rating := &models.Rating{
		ID:         uuid.New(),
		JobID:      jobID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Score:      score,
		Comment:    comment,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrRatingExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "ya calificaste este trabajo")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo guardar la calificación")
	}

	if s.notifier != nil {
		s.notifier.Notify(revieweeID,
			"Nueva calificación",
			"Recibiste una nueva calificación por un trabajo terminado.",
			models.NotificationTypeRating,
			map[string]interface{}{"rating_id": rating.ID, "job_id": jobID, "score": score})
	}

	return rating, nil
}

// ListUserRatings devuelve las calificaciones recibidas por un usuario.
// Son públicas: cualquier usuario autenticado puede consultarlas.
func (s *RatingService) ListUserRatings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Rating, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	ratings, err := s.ratings.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudieron listar las calificaciones")
	}
	return ratings, nil
}

// GetUserSummary devuelve el promedio y el total de calificaciones.
func (s *RatingService) GetUserSummary(ctx context.Context, userID uuid.UUID) (*models.RatingSummary, error) {
	summary, err := s.ratings.Summary(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo calcular el resumen de calificaciones")
	}
	return summary, nil
}
