package controlpanel

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/graphshell/verse"
)

// SpawnSyncWorker registers worker's Run loop as a supervised task and
// relays Command values from cmds onto the worker's own channel, so every
// producer (the sync subcommand, a future UI) can reach the worker
// through the panel's lifetime rather than holding a direct reference.
func (p *Panel) SpawnSyncWorker(worker *verse.Worker, cmds <-chan verse.Command, log *zap.SugaredLogger) {
	p.Spawn(func(ctx context.Context) {
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil && log != nil {
			log.Warnw("sync worker exited", "error", err.Error())
		}
	})

	p.Spawn(func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case cmd, ok := <-cmds:
				if !ok {
					return
				}
				select {
				case worker.Commands() <- cmd:
				case <-ctx.Done():
					return
				}
			}
		}
	})
}
