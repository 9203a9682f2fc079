package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestEvery(t *testing.T) {
	t.Run("runs repeatedly and keeps going after errors", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var runs int32
		done := make(chan struct{})
		go func() {
			defer close(done)
			Every(ctx, 5*time.Millisecond, "flaky", func(context.Context) error {
				if atomic.AddInt32(&runs, 1)%2 == 1 {
					return errors.New("transient")
				}
				return nil
			}, zerolog.Nop())
		}()

		assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 4 }, time.Second, time.Millisecond)
		cancel()
		<-done
	})

	t.Run("does not run before the first interval", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		var runs int32
		Every(ctx, time.Hour, "hourly", func(context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		}, zerolog.Nop())

		assert.Zero(t, atomic.LoadInt32(&runs))
	})
}
