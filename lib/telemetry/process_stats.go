package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

var processMeter = otel.Meter("freqgrabber/process")
var cpuGauge, _ = processMeter.Float64Gauge("process.cpu_percent")
var rssGauge, _ = processMeter.Int64Gauge("process.rss_mb")
var goroutineGauge, _ = processMeter.Int64Gauge("process.goroutines")

// InstrumentProcessStats records the resource usage of this process every
// interval until ctx is done.
func InstrumentProcessStats(ctx context.Context, interval time.Duration) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.Warn("failed to inspect own process, skipping process stats", "err", err)
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				recordProcessStats(ctx, proc)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func recordProcessStats(ctx context.Context, proc *process.Process) {
	cpu, err := proc.PercentWithContext(ctx, 0)
	if err == nil {
		cpuGauge.Record(ctx, cpu)
	} else {
		slog.Debug("failed to read cpu usage", "err", err)
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err == nil {
		rssGauge.Record(ctx, int64(mem.RSS/1_000_000))
	} else {
		slog.Debug("failed to read memory usage", "err", err)
	}

	goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
}
