package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/graphshell/am"
	"github.com/teranos/graphshell/controlpanel"
	"github.com/teranos/graphshell/db"
	"github.com/teranos/graphshell/graphmodel"
	"github.com/teranos/graphshell/lifecycle"
	"github.com/teranos/graphshell/logger"
	"github.com/teranos/graphshell/persistence"
	"github.com/teranos/graphshell/reducer"
	"github.com/teranos/graphshell/shellerr"
	"github.com/teranos/graphshell/verse"
)

// defaultReconcileInterval is used when the config leaves
// lifecycle.reconcile_interval unset.
const defaultReconcileInterval = 250 * time.Millisecond

// RunCmd boots the shell runtime: it loads configuration, opens storage,
// establishes this node's sync identity, and runs the control panel's
// supervised workers until interrupted.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the shell runtime",
	RunE:  runShell,
}

// reconcileFrame runs one iteration of the per-frame data flow: drain
// whatever the control panel's workers queued since the last tick, apply
// it, then re-derive the lifecycle intents every Active node should have
// given the committed state and feed those back through the reducer too.
//
// This build embeds no real browser engine, so containsEngine/responsive
// always report false — every Active node behaves as if its engine probe
// never confirms. That's honest for a headless port: the backpressure
// state machine still runs and still emits MarkBlocked/cooldown intents,
// it just never gets a live mapping to clear them with.
func reconcileFrame(state *reducer.State, panel *controlpanel.Panel, cfg am.LifecycleConfig) {
	for _, q := range panel.DrainPending() {
		reducer.ApplyIntents(state, q.Intents)
	}

	noEngine := func(uuid.UUID) bool { return false }

	var intents []reducer.Intent
	intents = append(intents, lifecycle.ReconcileBackpressure(cfg, state.Nodes, time.Now(), noEngine, noEngine)...)
	for _, n := range state.Nodes {
		intents = append(intents, lifecycle.EnsureEngineForNode(cfg, n, time.Now(), true, false, false)...)
	}

	activeVisible := make(map[uuid.UUID]bool)
	for _, id := range state.Panes.ActiveNodePaneRects() {
		activeVisible[id] = true
	}
	prewarmed := state.Workspaces[state.ActiveWorkspace].PrimarySelected
	protected := make(map[uuid.UUID]bool, len(state.Nodes))
	for id, n := range state.Nodes {
		if graphmodel.IsProtected(n, activeVisible, prewarmed) {
			protected[id] = true
		}
	}

	activeLimit := lifecycle.PressureAdjustedLimit(cfg.MaxActiveEngines, state.MemoryPressure)
	for _, id := range lifecycle.EvictActiveOverflow(state.Nodes, protected, activeLimit) {
		intents = append(intents, reducer.Intent{
			Kind: reducer.KindDemoteWarm, Source: reducer.SourcePrefetchScheduler, NodeID: id,
			DemoteCause: graphmodel.CauseActiveLRUEviction,
		})
	}
	for _, id := range lifecycle.EvictWarmOverflow(state.Nodes, protected, cfg.MaxWarmEngines) {
		intents = append(intents, reducer.Intent{
			Kind: reducer.KindDemoteCold, Source: reducer.SourcePrefetchScheduler, NodeID: id,
			DemoteCause: graphmodel.CauseWarmLRUEviction,
		})
	}

	if len(intents) > 0 {
		reducer.ApplyIntents(state, intents)
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dataDir := cfg.Core.DataDir
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".graphshell")
	}
	if err := os.MkdirAll(dataDir, am.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	pterm.Info.Printf("Data directory: %s\n", dataDir)

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "graphshell.db"
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dataDir, dbPath)
	}

	conn, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	identity, err := verse.LoadOrCreateIdentity(dataDir, cfg.Sync.DeviceName)
	if err != nil {
		return fmt.Errorf("load sync identity: %w", err)
	}
	pterm.Success.Printf("Identity: %s (%s)\n", identity.ID(), identity.DeviceName)

	layer, err := persistence.Open(dataDir, cfg.Persistence, conn)
	if err != nil {
		shellErr := shellerr.New(shellerr.CategoryPersistence, err, "").
			WithSubcategory(shellerr.SubcategoryPersistenceMigration)
		pterm.Error.Println(shellErr.ToUIMessage())
		return fmt.Errorf("open persistence layer: %w", err)
	}

	entries, err := layer.Store.ReplayJournal()
	if err != nil {
		shellErr := shellerr.New(shellerr.CategoryPersistence, err, "").
			WithSubcategory(shellerr.SubcategoryPersistenceCorrupt)
		pterm.Error.Println(shellErr.ToUIMessage())
		return fmt.Errorf("replay journal: %w", err)
	}

	state := reducer.NewState()
	if snap, ok, err := layer.Store.ReadSnapshot(); err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	} else if ok {
		for id, n := range snap.Nodes {
			state.Nodes[id] = n
		}
		for id, e := range snap.Edges {
			state.Edges[id] = e
		}
	}
	for _, entry := range entries {
		reducer.ApplyIntents(state, entry.Intents)
	}
	pterm.Info.Printf("Restored %d node(s), %d edge(s) from %d journal entries\n",
		len(state.Nodes), len(state.Edges), len(entries))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	panel := controlpanel.New(ctx, cfg.ControlPanel, logger.Logger)
	panel.SpawnMemoryMonitor()
	panel.SpawnModLoader(cfg.Mod, logger.Logger)

	if cfg.Sync.Enabled {
		applier := persistence.NewApplier(panel)
		worker, err := verse.NewWorker(identity, "127.0.0.1:0", layer.SyncLog, layer.TrustStore, applier, logger.Logger)
		if err != nil {
			shellErr := shellerr.New(shellerr.CategorySync, err, "").
				WithSubcategory(shellerr.SubcategorySyncConnection)
			pterm.Error.Println(shellErr.ToUIMessage())
			return fmt.Errorf("start sync worker: %w", err)
		}
		syncCommands := make(chan verse.Command)
		panel.SpawnSyncWorker(worker, syncCommands, logger.Logger)
		pterm.Info.Println("P2P sync worker listening")
	} else {
		pterm.Warning.Println("Sync disabled (sync.enabled = false)")
	}

	pterm.Success.Println("graphshell is running — press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	reconcileInterval := cfg.Lifecycle.ReconcileInterval
	if reconcileInterval <= 0 {
		reconcileInterval = defaultReconcileInterval
	}
	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

runLoop:
	for {
		select {
		case <-sigCh:
			break runLoop
		case <-ticker.C:
			reconcileFrame(state, panel, cfg.Lifecycle)
		}
	}

	pterm.Warning.Println("Shutting down...")

	for _, q := range panel.DrainPending() {
		reducer.ApplyIntents(state, q.Intents)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ControlPanel.ShutdownTimeout)
	defer shutdownCancel()
	if err := panel.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("control panel shutdown did not complete cleanly", "error", err.Error())
	}

	snap := persistence.Snapshot{TakenAt: time.Now(), Nodes: state.Nodes, Edges: state.Edges}
	if err := layer.Store.WriteSnapshot(snap); err != nil {
		return fmt.Errorf("write final snapshot: %w", err)
	}

	pterm.Success.Println("Shutdown complete")
	return nil
}
