package service

import "github.com/oficios-mz/backend/internal/models"

// MapProcessorStatus traduce el estado reportado por Mercado Pago al
// estado interno del pago. Es una función total: cualquier estado no
// reconocido cae en "pending" para que el pago nunca quede en un estado
// inválido por un valor nuevo del procesador.
//
// Los rechazos, cancelaciones y contracargos se marcan como "disputed"
// para que un administrador los revise en vez de perderse en silencio.
func MapProcessorStatus(mpStatus string) string {
	switch mpStatus {
	case "approved":
		return models.PaymentStatusHeld
	case "pending", "in_process", "authorized":
		return models.PaymentStatusPending
	case "rejected", "cancelled", "charged_back":
		return models.PaymentStatusDisputed
	case "refunded":
		return models.PaymentStatusRefunded
	default:
		return models.PaymentStatusPending
	}
}
