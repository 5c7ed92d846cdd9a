// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that allows
// running multiple workers in a unified way.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
// It defines a single Run method that starts the worker's execution.
//
// Implementations are expected to block until ctx is cancelled, release
// their timers and return nil. A non-nil error stops every other worker.
//
// Example implementation:
//
//	type MyWorker struct{}
//
//	func (w *MyWorker) Run(ctx context.Context) error {
//	    ticker := time.NewTicker(time.Minute)
//	    defer ticker.Stop()
//	    for {
//	        select {
//	        case <-ctx.Done():
//	            return nil
//	        case <-ticker.C:
//	            // periodic work
//	        }
//	    }
//	}
type Worker interface {
	Run(ctx context.Context) error
}

// Func adapts a plain function to Worker.
type Func func(ctx context.Context) error

func (f Func) Run(ctx context.Context) error {
	return f(ctx)
}
