package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/goroutine"
	"github.com/oficios-mz/backend/internal/logger"
	"github.com/oficios-mz/backend/internal/models"
)

// NotificationRepository describe el acceso del servicio al almacén de notificaciones.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Broadcaster empuja una notificación en vivo al usuario conectado.
// El hub de WebSocket lo implementa; si el usuario no está conectado
// el envío simplemente se descarta.
type Broadcaster interface {
	SendToUser(userID uuid.UUID, payload interface{})
}

// PushSubscriptionStore guarda las suscripciones web-push por dispositivo.
type PushSubscriptionStore interface {
	Upsert(ctx context.Context, s *models.PushSubscription) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error)
	Delete(ctx context.Context, userID uuid.UUID, endpoint string) error
}

// NotificationService contiene la lógica de notificaciones.
type NotificationService struct {
	repo        NotificationRepository
	subs        PushSubscriptionStore
	broadcaster Broadcaster
}

func NewNotificationService(repo NotificationRepository, subs PushSubscriptionStore, broadcaster Broadcaster) *NotificationService {
	return &NotificationService{repo: repo, subs: subs, broadcaster: broadcaster}
}

// Create persiste una notificación y la empuja por WebSocket si hay
// una conexión activa.
func (s *NotificationService) Create(ctx context.Context, userID uuid.UUID, title, message, ntype string, metadata interface{}) (*models.Notification, error) {
	var raw json.RawMessage
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
		}
		raw = b
	}

	n := &models.Notification{
		ID:       uuid.New(),
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     ntype,
		Metadata: raw,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.SendToUser(userID, n)
	}

	return n, nil
}

// Notify es la variante "fire and forget": registra el fallo pero nunca
// lo propaga. Los flujos de pago no deben caerse porque una notificación
// no se pudo guardar.
func (s *NotificationService) Notify(userID uuid.UUID, title, message, ntype string, metadata interface{}) {
	goroutine.SafeGo(func() {
		if _, err := s.Create(context.Background(), userID, title, message, ntype, metadata); err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"user_id": userID,
				"type":    ntype,
			}).Warn("No se pudo enviar la notificación")
		}
	})
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, onlyUnread, limit, offset)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// Subscribe registra o refresca la suscripción web-push de un dispositivo.
func (s *NotificationService) Subscribe(ctx context.Context, userID uuid.UUID, endpoint, p256dh, auth string) (*models.PushSubscription, error) {
	if endpoint == "" || p256dh == "" || auth == "" {
		return nil, fmt.Errorf("notification service: la suscripción requiere endpoint, p256dh y auth")
	}
	sub := &models.PushSubscription{
		ID:       uuid.New(),
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe elimina la suscripción de un dispositivo.
func (s *NotificationService) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	return s.subs.Delete(ctx, userID, endpoint)
}

// ListSubscriptions devuelve las suscripciones activas del usuario.
func (s *NotificationService) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	return s.subs.ListByUser(ctx, userID)
}
