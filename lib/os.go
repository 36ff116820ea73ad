package lib

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

// InterruptContext is cancelled on SIGINT or SIGTERM so in flight requests to TERMite are abandoned.
func InterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			log.Warn().Str("signal", sig.String()).Msg("process interrupted")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
