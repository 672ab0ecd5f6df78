package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/oficios-mz/backend/internal/logger"
)

// Logger es la interfaz mínima para reportar errores.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler ejecuta goroutines con recuperación de panics.
// Se usa para el despacho fire-and-forget de notificaciones: un panic
// al notificar nunca debe tumbar el proceso ni la reconciliación padre.
type RecoveryHandler struct {
	logger Logger
}

func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo lanza una goroutine con manejo de panic.
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				rh.logger.Errorf("panic en goroutine: %v\nstack:\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// SafeGoWithContext lanza una goroutine con contexto y manejo de panic.
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				rh.logger.Errorf("panic en goroutine (con contexto): %v\nstack:\n%s", r, debug.Stack())
			}
		}()
		fn(ctx)
	}()
}

// DefaultRecoveryHandler es el manejador global; reporta los panics por
// el logger estructurado de la aplicación.
var DefaultRecoveryHandler = NewRecoveryHandler(logger.Log)

// SafeGo lanza una goroutine segura con el manejador global.
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// SafeGoWithContext lanza una goroutine segura con contexto.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}
