package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles de usuario
const (
	RoleEmployer = "employer"
	RoleWorker   = "worker"
	RoleAdmin    = "admin"
)

// User es el perfil mínimo que el backend necesita: identidad, nombre
// para las plantillas de notificación y rol para autorización.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
