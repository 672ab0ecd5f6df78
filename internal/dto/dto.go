package dto

// ErrorResponse es el cuerpo estándar de error de la API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse es el cuerpo estándar de éxito con datos opcionales.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
