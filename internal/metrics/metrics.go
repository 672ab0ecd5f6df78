package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores de negocio del backend de pagos. Se exponen en /metrics
// junto con los colectores estándar del proceso.
var (
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oficios",
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Eventos de webhook de Mercado Pago por resultado.",
	}, []string{"outcome"})

	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oficios",
		Subsystem: "payments",
		Name:      "transitions_total",
		Help:      "Transiciones de estado de pagos por estado destino.",
	}, []string{"status"})

	ProcessorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oficios",
		Subsystem: "mercadopago",
		Name:      "requests_total",
		Help:      "Llamadas salientes a Mercado Pago por operación y resultado.",
	}, []string{"operation", "result"})

	DisputesOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oficios",
		Subsystem: "disputes",
		Name:      "opened_total",
		Help:      "Disputas abiertas.",
	})

	DisputesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oficios",
		Subsystem: "disputes",
		Name:      "resolved_total",
		Help:      "Disputas resueltas por resultado.",
	}, []string{"outcome"})
)
