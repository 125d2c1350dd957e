package controlpanel

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/graphshell/reducer"
)

const memorySampleInterval = 5 * time.Second

const (
	criticalMiB = 512
	warningMiB  = 1024
	criticalPct = 8.0
	warningPct  = 15.0
)

// classifyMemory maps a sample to the pressure level spec.md §4.5
// describes: Critical at or below 512 MiB or 8% available, Warning at or
// below 1024 MiB or 15%, else Normal. A zero total (sampling failure)
// classifies Unknown.
func classifyMemory(availableMiB, totalMiB uint64) reducer.MemoryPressureStatus {
	if totalMiB == 0 {
		return reducer.MemoryPressureStatus("unknown")
	}
	pct := float64(availableMiB) / float64(totalMiB) * 100
	switch {
	case availableMiB <= criticalMiB || pct <= criticalPct:
		return reducer.MemoryCritical
	case availableMiB <= warningMiB || pct <= warningPct:
		return reducer.MemoryWarning
	default:
		return reducer.MemoryNormal
	}
}

// SpawnMemoryMonitor registers the memory-sampling worker. It samples
// every 5s and emits SetMemoryPressureStatus only when the classified
// level changes, using a non-blocking send that drops the update if the
// queue is full.
func (p *Panel) SpawnMemoryMonitor() {
	p.Spawn(func(ctx context.Context) {
		ticker := time.NewTicker(memorySampleInterval)
		defer ticker.Stop()

		var last reducer.MemoryPressureStatus

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				v, err := mem.VirtualMemory()
				if err != nil {
					continue
				}
				availableMiB := v.Available / (1024 * 1024)
				totalMiB := v.Total / (1024 * 1024)
				level := classifyMemory(availableMiB, totalMiB)
				if level == last {
					continue
				}
				last = level

				intent := reducer.Intent{
					Kind:   reducer.KindSetMemoryPressureStatus,
					Source: reducer.SourceMemoryMonitor,
					Str1:   string(level),
					Float:  float64(availableMiB),
				}
				p.TryEnqueue(reducer.SourceMemoryMonitor, []reducer.Intent{intent})
			}
		}
	})
}
