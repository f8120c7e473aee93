package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"ecourts-casestatus/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "casestatus-server")
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no telemetry.json5 found, skipping otlp export")
	} else if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := tel.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("failed to shut down telemetry", "err", err)
		}
	}()

	telemetry.InstrumentPerfStats(ctx, time.Minute)
}
