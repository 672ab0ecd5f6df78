package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oficios-mz/backend/internal/models"
)

func TestMapProcessorStatus(t *testing.T) {
	cases := map[string]string{
		"approved":     models.PaymentStatusHeld,
		"pending":      models.PaymentStatusPending,
		"in_process":   models.PaymentStatusPending,
		"authorized":   models.PaymentStatusPending,
		"rejected":     models.PaymentStatusDisputed,
		"cancelled":    models.PaymentStatusDisputed,
		"charged_back": models.PaymentStatusDisputed,
		"refunded":     models.PaymentStatusRefunded,
	}

	for mpStatus, expected := range cases {
		assert.Equal(t, expected, MapProcessorStatus(mpStatus), "estado %q", mpStatus)
	}
}

func TestMapProcessorStatus_UnknownFallsBackToPending(t *testing.T) {
	// La función es total: un estado nuevo del procesador nunca debe
	// dejar el pago en un estado inválido.
	for _, unknown := range []string{"", "whatever", "APPROVED", "in_mediation"} {
		assert.Equal(t, models.PaymentStatusPending, MapProcessorStatus(unknown))
	}
}
