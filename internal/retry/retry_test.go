package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Do_SuccessFirstAttempt(t *testing.T) {
	var slept []time.Duration
	p := Policy{MaxAttempts: 3, Delay: time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestPolicy_Do_LinearBackoff(t *testing.T) {
	var slept []time.Duration
	p := Policy{MaxAttempts: 3, Delay: 5 * time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		return errors.New("transient")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
	// Backoff lineal: delay*1, delay*2; sin espera tras el último intento.
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, slept)
}

func TestPolicy_Do_RecoversOnSecondAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: time.Second, Sleep: func(time.Duration) {}}

	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPolicy_Do_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, Delay: time.Second, Sleep: func(time.Duration) {}}
	err := p.Do(ctx, func(attempt int) error {
		t.Fatal("no debería ejecutarse con contexto cancelado")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_Do_ZeroAttemptsRunsOnce(t *testing.T) {
	p := Policy{Sleep: func(time.Duration) {}}

	calls := 0
	_ = p.Do(context.Background(), func(attempt int) error {
		calls++
		return errors.New("boom")
	})
	assert.Equal(t, 1, calls)
}
