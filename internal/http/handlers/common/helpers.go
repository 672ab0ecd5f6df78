package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/dto"
	"github.com/oficios-mz/backend/internal/http/middleware"
	"github.com/oficios-mz/backend/internal/models"
)

var (
	ErrUserNotFound = errors.New("usuario no encontrado en el contexto")
	ErrInvalidUUID  = errors.New("formato de UUID inválido")
)

// CurrentUserID extrae el userID del contexto de gin.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

// CurrentUserRole extrae el rol del contexto de gin.
func CurrentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", ErrUserNotFound
	}

	role, ok := raw.(string)
	if !ok {
		return "", ErrUserNotFound
	}

	return role, nil
}

// IsAdmin indica si el usuario autenticado tiene rol de administrador.
func IsAdmin(c *gin.Context) bool {
	role, err := CurrentUserRole(c)
	return err == nil && role == models.RoleAdmin
}

// ParseUUIDParam parsea un UUID de un parámetro de ruta.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("falta el parámetro %s", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// RespondError envía una respuesta de error estándar.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Error: message})
}

// RespondSuccess envía una respuesta de éxito estándar.
func RespondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, dto.SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// RespondUnauthorized envía un 401.
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "se requiere autenticación"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

// RespondBadRequest envía un 400.
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "solicitud inválida"
	}
	RespondError(c, http.StatusBadRequest, message)
}

// ParseIntQuery lee un parámetro de query entero con valor por defecto.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination extrae limit y offset de la query con valores acotados.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
