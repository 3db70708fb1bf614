package monitor

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"tarun-kavipurapu/lan-dfs/pkg/logger"
)

// Metrics counts node traffic. All fields are updated atomically.
type Metrics struct {
	MessagesIn   int64
	MessagesOut  int64
	SendFailures int64
	ChunksStored int64
	BytesStored  int64
	ServerStart  time.Time
}

// Snapshot is a consistent-enough copy of the counters for display.
type Snapshot struct {
	MessagesIn   int64
	MessagesOut  int64
	SendFailures int64
	ChunksStored int64
	BytesStored  int64
	Uptime       time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{ServerStart: time.Now()}
}

func (m *Metrics) RecordInbound() {
	atomic.AddInt64(&m.MessagesIn, 1)
}

// RecordSend counts one outbound attempt, and a failure when err is set.
func (m *Metrics) RecordSend(err error) {
	atomic.AddInt64(&m.MessagesOut, 1)
	if err != nil {
		atomic.AddInt64(&m.SendFailures, 1)
	}
}

func (m *Metrics) RecordStored(bytes int) {
	atomic.AddInt64(&m.ChunksStored, 1)
	atomic.AddInt64(&m.BytesStored, int64(bytes))
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		MessagesIn:   atomic.LoadInt64(&m.MessagesIn),
		MessagesOut:  atomic.LoadInt64(&m.MessagesOut),
		SendFailures: atomic.LoadInt64(&m.SendFailures),
		ChunksStored: atomic.LoadInt64(&m.ChunksStored),
		BytesStored:  atomic.LoadInt64(&m.BytesStored),
		Uptime:       time.Since(m.ServerStart),
	}
}

// LogPeriodic logs runtime and traffic metrics every interval until ctx is done.
func (m *Metrics) LogPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			s := m.Snapshot()

			logger.Sugar.Infof("[Metrics] Goroutines=%d | HeapAlloc=%dMB | In=%d | Out=%d | SendFailures=%d | Chunks=%d | Stored=%dKB",
				runtime.NumGoroutine(),
				mem.HeapAlloc/1024/1024,
				s.MessagesIn,
				s.MessagesOut,
				s.SendFailures,
				s.ChunksStored,
				s.BytesStored/1024,
			)
		}
	}
}
