package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tipos de notificación
const (
	NotificationTypePayment = "payment"
	NotificationTypeDispute = "dispute"
	NotificationTypeSystem  = "system"
	NotificationTypeRating  = "rating"
)

// Notification es una notificación persistida para un usuario.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Title     string          `db:"title" json:"title"`
	Message   string          `db:"message" json:"message"`
	Type      string          `db:"type" json:"type"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// PushSubscription es una suscripción web-push de un dispositivo.
// Se guarda en la base con upsert por usuario+endpoint; un mapa en memoria
// no sobrevive reinicios.
type PushSubscription struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
