package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"ecourts-casestatus/internal/api"
	"ecourts-casestatus/internal/chrono"
	"ecourts-casestatus/internal/ecourts"
	"ecourts-casestatus/internal/querylog"
	"ecourts-casestatus/internal/telemetry"
	"ecourts-casestatus/lib/serviceutil"

	"github.com/joho/godotenv"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	dumpDir := flag.String("dump", "", "Write every upstream http exchange to this directory (requires -v).")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	ctx := serviceutil.SignalContext()
	InitTelemetry(ctx, *verbose)

	cfg, err := LoadConfig()
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if *dumpDir != "" {
		cfg.Ecourts.DumpDir = *dumpDir
	}

	db, err := cfg.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("open query log database", err)
	}
	defer db.Close()

	clock := chrono.NewStandardTime()
	tel := telemetry.SlogAPI{}

	logs, err := querylog.NewStore(ctx, db, clock)
	if err != nil {
		serviceutil.Fatal("init query log", err)
	}
	client, err := ecourts.NewClient(cfg.Ecourts, tel)
	if err != nil {
		serviceutil.Fatal("init ecourts client", err)
	}

	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		_, err := client.Warm(warmCtx)
		if err != nil {
			slog.Warn("failed to warm upstream session", "err", err)
			return
		}
		slog.Info("upstream session warmed")
	}()

	server := api.NewServer(client, logs, clock, tel)
	err = serviceutil.StartHttpServer(ctx, cfg.Port, server.Handler(cfg.AllowedOrigins))
	if err != nil {
		serviceutil.Fatal("http server", err)
	}
}
