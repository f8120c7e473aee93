package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type perfGauges struct {
	cpu        metric.Float64Gauge
	memory     metric.Int64Gauge
	liveObjs   metric.Int64Gauge
	goroutines metric.Int64Gauge
}

// the global meter provider is only set by Setup, so gauges are created when instrumentation
// starts rather than at package init.
func newPerfGauges() (perfGauges, error) {
	meter := otel.Meter("ecourts_casestatus.perf_stats")

	var g perfGauges
	var err error
	if g.cpu, err = meter.Float64Gauge("cpu_usage"); err != nil {
		return g, err
	}
	if g.memory, err = meter.Int64Gauge("allocated_mb"); err != nil {
		return g, err
	}
	if g.liveObjs, err = meter.Int64Gauge("live_objects"); err != nil {
		return g, err
	}
	if g.goroutines, err = meter.Int64Gauge("goroutine_count"); err != nil {
		return g, err
	}
	return g, nil
}

// InstrumentPerfStats records process level gauges every `interval` until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	gauges, err := newPerfGauges()
	if err != nil {
		slog.Warn("failed to create perf stats gauges", "err", err)
		return
	}

	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				// sampled over a fraction of the interval so a tick never overlaps the next one
				cpuUsage, err := cpu.PercentWithContext(ctx, interval/4, false)
				if err == nil && len(cpuUsage) > 0 {
					gauges.cpu.Record(ctx, cpuUsage[0])
				} else if err != nil {
					slog.Debug("failed to read cpu usage", "err", err)
				}

				gauges.memory.Record(ctx, int64(memStats.Alloc/1_000_000))
				gauges.liveObjs.Record(ctx, int64(memStats.Mallocs)-int64(memStats.Frees))
				gauges.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
			case <-ctx.Done():
				return
			}
		}
	}()
}
