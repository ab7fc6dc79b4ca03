package input_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binc/pkg/input"
	"binc/pkg/port"
)

// levels is a scripted input.Reader: tests mutate the slice between cycles.
type levels []port.Level

func (l levels) ReadLevel(id int) port.Level {
	return l[id]
}

func newCycle(t *testing.T, binary, counter int) (*input.Bank, *input.Cycle, levels) {
	t.Helper()

	bank, err := input.NewBank(binary, counter)
	require.NoError(t, err)

	l := make(levels, binary+counter)
	for i := range l {
		l[i] = port.Low
	}
	return bank, input.NewCycle(bank, l), l
}

func TestBankLimits(t *testing.T) {
	_, err := input.NewBank(9, 0)
	assert.ErrorIs(t, err, input.ErrTooManyLines)

	_, err = input.NewBank(0, 9)
	assert.ErrorIs(t, err, input.ErrTooManyLines)

	bank, err := input.NewBank(8, 8)
	require.NoError(t, err)
	assert.Equal(t, 16, bank.Size())
}

// A repeated sample at the same level must not report a change again.
func TestEdgeDetectionIdempotent(t *testing.T) {
	_, cycle, l := newCycle(t, 1, 0)

	l[0] = port.High
	snap := cycle.Run()
	assert.Equal(t, uint16(0x0001), snap.Changed)
	assert.Equal(t, uint16(0x0001), snap.Levels)

	snap = cycle.Run()
	assert.Equal(t, uint16(0), snap.Changed)
	assert.Equal(t, uint16(0x0001), snap.Levels)
	assert.Equal(t, input.NoChange, snap.Classification)
}

// The very first cycle moves every line out of the unsampled state and can
// never classify as NoChange.
func TestFirstCycleAlwaysReports(t *testing.T) {
	_, cycle, _ := newCycle(t, 2, 0)

	snap := cycle.Run()
	assert.Equal(t, input.BinaryChanged, snap.Classification)
	assert.Equal(t, uint16(0x0003), snap.Changed)
}

// One increment per low to high transition: the sequence 0,0,1,1,0,1 yields
// exactly two, at the third and the sixth sample.
func TestSingleIncrementPerTransition(t *testing.T) {
	bank, cycle, l := newCycle(t, 0, 1)

	wantCounts := []uint32{0, 0, 1, 1, 1, 2}
	for i, level := range []port.Level{port.Low, port.Low, port.High, port.High, port.Low, port.High} {
		l[0] = level
		cycle.Run()
		assert.Equal(t, wantCounts[i], bank.Counts()[0], "after sample %d", i+1)
	}
}

// Counters never decrement; they wrap silently at 32 bits.
func TestCounterMonotonicAcrossCycles(t *testing.T) {
	bank, cycle, l := newCycle(t, 0, 1)

	var prev uint32
	for i := 0; i < 10; i++ {
		l[0] = port.High
		cycle.Run()
		l[0] = port.Low
		cycle.Run()

		count := bank.Counts()[0]
		assert.GreaterOrEqual(t, count, prev)
		prev = count
	}
	assert.Equal(t, uint32(10), prev)
}

// A counter increment takes precedence over a simultaneous unrelated
// binary change.
func TestClassificationPrecedence(t *testing.T) {
	_, cycle, l := newCycle(t, 1, 1)
	cycle.Run() // leave the unsampled state

	l[0] = port.High // binary only line changes
	l[1] = port.High // counter line accumulates
	snap := cycle.Run()

	assert.Equal(t, input.BinaryAndCounterChanged, snap.Classification)
	assert.Equal(t, []uint32{1}, snap.Counts)
}

// A falling edge on a counter line is a binary change, not a count.
func TestFallingEdgeDoesNotCount(t *testing.T) {
	_, cycle, l := newCycle(t, 0, 1)

	l[0] = port.High
	cycle.Run()

	l[0] = port.Low
	snap := cycle.Run()
	assert.Equal(t, input.BinaryChanged, snap.Classification)
	assert.Equal(t, []uint32{1}, snap.Counts)
}

// Unchanged levels stay NoChange over many cycles once sampled.
func TestNoChangeStability(t *testing.T) {
	_, cycle, _ := newCycle(t, 4, 2)

	snap := cycle.Run()
	assert.NotEqual(t, input.NoChange, snap.Classification)

	for i := 2; i <= 10; i++ {
		snap = cycle.Run()
		assert.Equal(t, input.NoChange, snap.Classification, "cycle %d", i)
		assert.Equal(t, uint16(0), snap.Changed, "cycle %d", i)
	}
}

// The reference scenario: 8 binary lines and 4 counter lines, all low.
func TestReferenceScenario(t *testing.T) {
	bank, cycle, l := newCycle(t, 8, 4)

	// Cycle 1: the unsampled to known transition forces a full report,
	// counters still zero.
	snap := cycle.Run()
	assert.Equal(t, input.BinaryAndCounterChanged, snap.Classification)
	assert.Equal(t, []uint32{0, 0, 0, 0}, snap.Counts)
	assert.Equal(t, uint16(0), snap.Levels)

	// Cycle 2: counter line 0 (bank id 8, bit 8) rises.
	l[8] = port.High
	snap = cycle.Run()
	assert.Equal(t, input.BinaryAndCounterChanged, snap.Classification)
	assert.Equal(t, []uint32{1, 0, 0, 0}, snap.Counts)
	assert.Equal(t, uint16(0x0100), snap.Levels)
	assert.Equal(t, uint16(0x0100), snap.Changed)

	// Cycle 3: the line stays high, nothing to report and no re-count.
	snap = cycle.Run()
	assert.Equal(t, input.NoChange, snap.Classification)
	assert.Equal(t, []uint32{1, 0, 0, 0}, bank.Counts())
}

func TestLineAccessors(t *testing.T) {
	bank, cycle, l := newCycle(t, 1, 1)

	lines := bank.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, input.BinaryOnly, lines[0].Role)
	assert.Equal(t, input.BinaryAndCounter, lines[1].Role)
	assert.Equal(t, port.Unknown, lines[0].Level())

	l[1] = port.High
	cycle.Run()
	assert.Equal(t, port.Low, lines[0].Level())
	assert.Equal(t, port.High, lines[1].Level())
	assert.Equal(t, uint32(1), lines[1].Count())
}
