package safego

import (
	"go.uber.org/zap"
)

// Go launches fn in a goroutine that logs and swallows panics instead of
// crashing the console.
//
//	safego.Go(logger, "http-server", func() {
//	    _ = srv.ListenAndServe()
//	})
func Go(logger *zap.Logger, name string, fn func()) {
	go func() {
		defer Recover(logger, name)
		fn()
	}()
}

// Recover logs a recovered panic. It must be deferred directly.
func Recover(logger *zap.Logger, name string) {
	if r := recover(); r != nil {
		logger.Error("Goroutine panicked",
			zap.String("goroutine", name),
			zap.Any("panic", r),
			zap.Stack("stack"),
		)
	}
}
