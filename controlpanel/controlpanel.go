// Package controlpanel bridges asynchronous producers (the memory
// monitor, the mod loader, the sync worker, the UI, the delegate-event
// pipeline) to the reducer's single-writer loop without violating its
// determinism. Workers never touch workspace state directly; the queue
// is the sole coupling point, grounded in the teacher's
// pulse/async.WorkerPool cancellation-and-drain discipline.
package controlpanel

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/graphshell/am"
	"github.com/teranos/graphshell/reducer"
	"github.com/teranos/graphshell/registries"
)

// Registries bundles the lookup tables spec.md §4.8 groups under a single
// resolve surface: actions and mods (already wired by the dispatcher and
// mod loader), plus protocol/viewer/lens/physics/layout/theme, each a
// Registry instance with its fallback pre-registered.
type Registries struct {
	Action   *registries.ActionRegistry
	Mod      *registries.ModRegistry
	Protocol *registries.ProtocolRegistry
	Viewer   *registries.ViewerRegistry
	Lens     *registries.LensRegistry
	Physics  *registries.PhysicsRegistry
	Layout   *registries.LayoutRegistry
	Theme    *registries.ThemeRegistry
}

// zapDiagnostics adapts registries.Diagnostics onto the control panel's
// structured logger, so every registry resolve/fallback/miss shows up as a
// debug-level log line instead of being discarded.
type zapDiagnostics struct{ log *zap.SugaredLogger }

func (d zapDiagnostics) Emit(event string, fields map[string]interface{}) {
	if d.log == nil {
		return
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	d.log.Debugw(event, args...)
}

func newRegistries(log *zap.SugaredLogger) *Registries {
	diag := zapDiagnostics{log: log}
	return &Registries{
		Action:   registries.NewActionRegistry(diag),
		Mod:      registries.NewModRegistry(diag),
		Protocol: registries.NewProtocolRegistry(diag),
		Viewer:   registries.NewViewerRegistry(diag),
		Lens:     registries.NewLensRegistry(diag),
		Physics:  registries.NewPhysicsRegistry(diag),
		Layout:   registries.NewLayoutRegistry(diag),
		Theme:    registries.NewThemeRegistry(diag),
	}
}

// QueuedIntent is one envelope accepted onto the panel's bounded channel.
type QueuedIntent struct {
	Intents  []reducer.Intent
	Source   reducer.Source
	QueuedAt time.Time
}

// Panel owns the bounded intent queue and the supervised background
// workers that feed it.
type Panel struct {
	ch     chan QueuedIntent
	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup
	log    *zap.SugaredLogger
	cfg    am.ControlPanelConfig

	Registries *Registries
}

// New constructs a Panel with a queue of the configured capacity
// (default 256, per spec.md §4.5).
func New(parent context.Context, cfg am.ControlPanelConfig, log *zap.SugaredLogger) *Panel {
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = 256
	}
	ctx, cancel := context.WithCancel(parent)
	return &Panel{
		ch:         make(chan QueuedIntent, capacity),
		cancel:     cancel,
		ctx:        ctx,
		log:        log,
		cfg:        cfg,
		Registries: newRegistries(log),
	}
}

// Enqueue hands a batch of intents to the panel, tagged with their
// producing source. It implements persistence.IntentQueue so the sync
// worker's applier can feed remote intents back through the same door
// as every other producer.
func (p *Panel) Enqueue(source reducer.Source, intents []reducer.Intent) error {
	select {
	case p.ch <- QueuedIntent{Intents: intents, Source: source, QueuedAt: time.Now()}:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// TryEnqueue is the non-blocking variant workers that must never stall
// (the memory monitor) use: it drops the update rather than blocking on
// a full channel, matching the original's tx.try_send semantics.
func (p *Panel) TryEnqueue(source reducer.Source, intents []reducer.Intent) bool {
	select {
	case p.ch <- QueuedIntent{Intents: intents, Source: source, QueuedAt: time.Now()}:
		return true
	default:
		return false
	}
}

// DrainPending returns every currently buffered intent batch without
// blocking, per spec.md §4.5's drain_pending.
func (p *Panel) DrainPending() []QueuedIntent {
	var drained []QueuedIntent
	for {
		select {
		case q := <-p.ch:
			drained = append(drained, q)
		default:
			return drained
		}
	}
}

// Spawn registers worker as a supervised background task tied to the
// panel's lifetime.
func (p *Panel) Spawn(worker func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		worker(p.ctx)
	}()
}

// Shutdown cancels every supervised worker and waits for them to exit,
// bounded by the configured timeout (default 30s), mirroring
// pulse/async.WorkerPool.Stop. Returns an error (without blocking
// forever) if workers fail to join in time.
func (p *Panel) Shutdown(ctx context.Context) error {
	p.cancel()

	timeout := p.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if p.log != nil {
			p.log.Info("control panel shutdown complete")
		}
		return nil
	case <-time.After(timeout):
		if p.log != nil {
			p.log.Warnw("control panel shutdown timed out", "timeout", timeout)
		}
		return context.DeadlineExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}
