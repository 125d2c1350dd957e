package controlpanel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/graphshell/reducer"
)

func TestClassifyMemory(t *testing.T) {
	cases := []struct {
		name         string
		availableMiB uint64
		totalMiB     uint64
		want         reducer.MemoryPressureStatus
	}{
		{"zero total is unknown", 0, 0, reducer.MemoryPressureStatus("unknown")},
		{"below absolute critical", 256, 16000, reducer.MemoryCritical},
		{"below critical percentage only", 600, 7500, reducer.MemoryCritical}, // 600 MiB > 512 MiB floor, but 8.0% <= 8% threshold
		{"below absolute warning", 900, 4000, reducer.MemoryWarning}, // 22.5% available, above both percentage thresholds
		{"plenty available", 8000, 16000, reducer.MemoryNormal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyMemory(tc.availableMiB, tc.totalMiB)
			assert.Equal(t, tc.want, got)
		})
	}
}
