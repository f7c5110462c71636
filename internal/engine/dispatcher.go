package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/aniss699/bidguard/internal/monitoring"
)

// Dispatcher schedules integrity analyses over a bounded worker pool. Each
// mission has at most one analysis in flight; triggers that arrive while one
// runs coalesce into a single rerun against the newest snapshot, and a run
// that finishes after a newer trigger arrived is abandoned without
// publishing.
type Dispatcher struct {
	pipeline Pipeline
	metrics  *monitoring.Metrics
	logger   *slog.Logger

	jobs chan string

	mu     sync.Mutex
	states map[string]*missionState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type missionState struct {
	running bool
	pending bool
	// version increments on every trigger; a run publishes only if the
	// version it started from is still current when it finishes
	version uint64
}

// NewDispatcher creates a dispatcher with the given worker count. workers <= 0
// selects one worker per CPU.
func NewDispatcher(pipeline Pipeline, workers int, metrics *monitoring.Metrics, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		pipeline: pipeline,
		metrics:  metrics,
		logger:   logger,
		jobs:     make(chan string, workers*16),
		states:   make(map[string]*missionState),
		ctx:      ctx,
		cancel:   cancel,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Trigger requests an analysis of the mission's current snapshot and returns
// the snapshot version it created. It never blocks on the analysis itself; if
// the mission already has a run in flight the trigger coalesces into one
// rerun.
func (d *Dispatcher) Trigger(missionID string) uint64 {
	d.mu.Lock()
	st, ok := d.states[missionID]
	if !ok {
		st = &missionState{}
		d.states[missionID] = st
	}
	st.version++
	version := st.version
	if st.running {
		st.pending = true
		d.mu.Unlock()
		return version
	}
	st.running = true
	d.mu.Unlock()

	d.enqueue(missionID)
	return version
}

func (d *Dispatcher) enqueue(missionID string) {
	select {
	case d.jobs <- missionID:
	case <-d.ctx.Done():
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case missionID := <-d.jobs:
			d.run(missionID)
		}
	}
}

func (d *Dispatcher) run(missionID string) {
	d.mu.Lock()
	st := d.states[missionID]
	startVersion := st.version
	d.mu.Unlock()

	report, hash, err := d.pipeline.Run(d.ctx, missionID)

	d.mu.Lock()
	superseded := st.version != startVersion
	d.mu.Unlock()

	switch {
	case err != nil:
		d.logger.Error("Analysis failed",
			slog.String("mission_id", missionID),
			slog.String("error", err.Error()))
	case superseded:
		// a newer snapshot arrived mid-run; the rerun below covers it
		d.metrics.IncrementAnalysesSuperseded()
		d.logger.Info("Analysis superseded",
			slog.String("mission_id", missionID),
			slog.Uint64("version", startVersion))
	default:
		if perr := d.pipeline.Publish(d.ctx, missionID, report, hash); perr != nil {
			d.logger.Error("Report publish failed",
				slog.String("mission_id", missionID),
				slog.String("error", perr.Error()))
		} else {
			d.logger.Info("Report published",
				slog.String("mission_id", missionID),
				slog.String("snapshot_hash", hash))
		}
	}

	// The mission stays marked running until the report above has landed, so
	// a trigger that arrives during publication coalesces into the rerun
	// below instead of racing a fresh run against the in-flight publish.
	d.mu.Lock()
	rerun := st.pending
	st.pending = false
	if !rerun {
		st.running = false
	}
	d.mu.Unlock()

	if rerun {
		d.enqueue(missionID)
	}
}

// Stop cancels in-flight work and waits for the workers to exit
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
}
