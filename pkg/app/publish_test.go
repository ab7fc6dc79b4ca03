package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"binc/pkg/input"
	"binc/pkg/wake"
)

func TestPublishPlan(t *testing.T) {
	tests := []struct {
		name           string
		reason         wake.Reason
		classification input.Classification
		counters       bool
		binary         bool
	}{
		{"timer, no change", wake.TimerExpiry, input.NoChange, true, true},
		{"timer, binary", wake.TimerExpiry, input.BinaryChanged, true, true},
		{"timer, counter", wake.TimerExpiry, input.BinaryAndCounterChanged, true, true},
		{"interrupt, no change", wake.AsyncInterrupt, input.NoChange, false, false},
		{"interrupt, binary", wake.AsyncInterrupt, input.BinaryChanged, false, true},
		{"interrupt, counter", wake.AsyncInterrupt, input.BinaryAndCounterChanged, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counters, binary := publishPlan(tt.reason, tt.classification)
			assert.Equal(t, tt.counters, counters)
			assert.Equal(t, tt.binary, binary)
		})
	}
}
