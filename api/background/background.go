package background

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs fire-and-forget tasks (outbound email mostly) and lets
// the server drain them on shutdown.
type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

func (b *Background) Run(task func() error) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithFields(logrus.Fields{
					"panic": rec,
					"trace": string(debug.Stack()),
				}).Error("background task panicked")
			}
		}()

		if err := task(); err != nil {
			b.log.WithField("message", err).Error("background task failed")
		}
	}()
}

// Shutdown waits for in-flight tasks until the context expires.
func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
