package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"czagent/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	app, cleanup, err := InitApp(ctx)
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	defer cleanup()
	defer app.Shutdown(context.Background())

	if err := app.Run(ctx); err != nil {
		log.Fatalf("app run failed: %v", err)
	}
}
