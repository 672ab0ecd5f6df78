package retry

import (
	"context"
	"time"
)

// Policy describe una política de reintentos con backoff lineal:
// el intento n espera Delay*n antes de ejecutarse. Sleep es inyectable
// para que los tests no dependan del tiempo real.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Sleep       func(time.Duration)
}

// Default es la política usada por la reconciliación de webhooks.
func Default() Policy {
	return Policy{MaxAttempts: 3, Delay: 5 * time.Second}
}

// Do ejecuta fn hasta que devuelva nil o se agoten los intentos.
// Cada intento es independiente del estado parcial del anterior.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			sleep(p.Delay * time.Duration(attempt))
		}
	}
	return lastErr
}
