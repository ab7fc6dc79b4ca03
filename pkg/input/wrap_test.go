package input

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binc/pkg/port"
)

type fixedLevels []port.Level

func (l fixedLevels) ReadLevel(id int) port.Level { return l[id] }

// The accumulator wraps silently at 32 bits, like the 4 byte counter
// registers of the reference device: no error, no saturation.
func TestCounterWrapsAtMaxValue(t *testing.T) {
	bank, err := NewBank(0, 1)
	require.NoError(t, err)
	bank.counters[0].count = math.MaxUint32

	l := fixedLevels{port.Low}
	cycle := NewCycle(bank, l)

	cycle.Run()
	assert.Equal(t, []uint32{math.MaxUint32}, bank.Counts())

	l[0] = port.High
	snap := cycle.Run()
	assert.Equal(t, BinaryAndCounterChanged, snap.Classification)
	assert.Equal(t, []uint32{0}, snap.Counts)

	// the next transition counts from zero again
	l[0] = port.Low
	cycle.Run()
	l[0] = port.High
	cycle.Run()
	assert.Equal(t, []uint32{1}, bank.Counts())
}
