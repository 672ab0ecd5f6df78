package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/oficios-mz/backend/internal/logger"
	"github.com/oficios-mz/backend/internal/models"
	"github.com/oficios-mz/backend/internal/pkg/apperror"
	"github.com/oficios-mz/backend/internal/repository"
)

// UserStore resuelve usuarios por id.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// FaceMatcher compara una captura facial contra la identidad del usuario
// y devuelve una confianza en [0,1]. La implementación real vive en un
// servicio externo; acá solo se define el contrato.
type FaceMatcher interface {
	Match(ctx context.Context, userID uuid.UUID, capture []byte) (float64, error)
}

// FaceVerificationResult es el resultado de una verificación facial.
type FaceVerificationResult struct {
	UserID     uuid.UUID `json:"user_id"`
	Verified   bool      `json:"verified"`
	Confidence float64   `json:"confidence"`
	CheckedAt  time.Time `json:"checked_at"`
}

// StubFaceMatcher acepta cualquier captura con confianza fija. Se usa
// mientras el proveedor de biometría no está integrado.
type StubFaceMatcher struct {
	Confidence float64
}

func (m *StubFaceMatcher) Match(_ context.Context, _ uuid.UUID, _ []byte) (float64, error) {
	return m.Confidence, nil
}

// VerificationService valida capturas faciales para la verificación de
// identidad de los trabajadores.
type VerificationService struct {
	matcher   FaceMatcher
	users     UserStore
	threshold float64
}

func NewVerificationService(matcher FaceMatcher, users UserStore) *VerificationService {
	return &VerificationService{matcher: matcher, users: users, threshold: 0.85}
}

// VerifyFace valida que la captura sea una imagen y la compara contra la
// identidad del usuario.
func (s *VerificationService) VerifyFace(ctx context.Context, userID uuid.UUID, capture []byte) (*FaceVerificationResult, error) {
	if len(capture) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "la captura está vacía")
	}
	if !filetype.IsImage(capture) {
		return nil, apperror.New(apperror.ErrCodeValidation, "la captura no es una imagen válida")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, "no se pudo consultar el usuario")
	}

	confidence, err := s.matcher.Match(ctx, userID, capture)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeProcessorUnavailable, "el servicio de verificación facial no está disponible")
	}

	result := &FaceVerificationResult{
		UserID:     userID,
		Verified:   confidence >= s.threshold,
		Confidence: confidence,
		CheckedAt:  time.Now(),
	}
	logger.Log.WithFields(map[string]interface{}{
		"user_id":    userID,
		"verified":   result.Verified,
		"confidence": confidence,
	}).Info("Verificación facial procesada")

	return result, nil
}
