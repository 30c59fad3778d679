package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// Effects runs best-effort side effects (notifications, badge evaluation)
// after the triggering write has been committed. Failures are only logged.
type Effects struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewEffects(timeout time.Duration) *Effects {
	return &Effects{timeout: timeout}
}

// Go runs fn in the background with its own deadline. The request context is
// not reused because the request may finish first.
func (e *Effects) Go(name string, fn func(ctx context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("side effect %s panicked: %v", name, r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("side effect %s failed: %v", name, err)
		}
	}()
}

// Wait blocks until every scheduled effect has finished.
func (e *Effects) Wait() {
	e.wg.Wait()
}
