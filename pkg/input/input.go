// Package input implements the sampling core: a bank of monitored digital
// lines, per line edge detection, pulse counting and the sample cycle that
// turns one polling pass into a publishable snapshot.
//
// Counting is level based. A counter line increments once per detected
// low to high transition; it never increments while the line stays high.
// Pulses shorter than one polling interval are not seen. This is a known
// limitation of low rate polling and is intentional.
package input

import (
	"fmt"
	"time"

	"binc/pkg/port"
)

// Role classifies a monitored line.
type Role int

const (
	// BinaryOnly lines report their logic state only.
	BinaryOnly Role = iota
	// BinaryAndCounter lines additionally accumulate rising edges.
	BinaryAndCounter
)

func (r Role) String() string {
	if r == BinaryAndCounter {
		return "counter"
	}
	return "binary"
}

// Capacity of a bank. All levels of one cycle are packed into a 16 bit
// word: binary lines in the low byte, counter lines in the high byte.
const (
	MaxBinaryLines  = 8
	MaxCounterLines = 8
)

var ErrTooManyLines = fmt.Errorf("too many lines for one bank")

// Line is one monitored digital input. A line remembers the last level it
// was sampled at; before the first cycle that level is port.Unknown.
// Only the sample cycle mutates a line.
type Line struct {
	// ID is the index of the line within its bank.
	ID int
	// Role selects whether the line counts rising edges.
	Role Role

	// bit is the position of the line in the packed state word.
	bit   uint
	last  port.Level
	count uint32
}

// Level returns the last sampled level.
func (l *Line) Level() port.Level {
	return l.last
}

// Count returns the pulse accumulator of a counter line.
func (l *Line) Count() uint32 {
	return l.count
}

// detect compares level to the last observed one. If they differ (which
// includes the very first sample of the line), the new level is stored and
// the line is reported as changed. A repeated sample at the same level
// changes nothing.
func (l *Line) detect(level port.Level) bool {
	if level == l.last {
		return false
	}
	l.last = level
	return true
}

// onEdge accumulates a transition that detect already confirmed. Only
// transitions into the high state count. The accumulator wraps at 32 bits
// without notice, matching the 4 byte counter registers of the device.
func (l *Line) onEdge(level port.Level) bool {
	if l.Role != BinaryAndCounter || level != port.High {
		return false
	}
	l.count++
	return true
}

// Bank holds all monitored lines of the device. Binary only lines occupy
// ids 0..binary-1, counter lines follow. The bank is created once at
// startup; afterwards only the sample cycle touches it.
type Bank struct {
	lines    []*Line
	counters []*Line
}

// NewBank creates a bank of binary only and counter lines.
func NewBank(binary, counter int) (*Bank, error) {
	if binary < 0 || counter < 0 || binary > MaxBinaryLines || counter > MaxCounterLines {
		return nil, fmt.Errorf("%w: %d binary, %d counter", ErrTooManyLines, binary, counter)
	}

	b := &Bank{}
	for i := 0; i < binary; i++ {
		b.lines = append(b.lines, &Line{ID: i, Role: BinaryOnly, bit: uint(i), last: port.Unknown})
	}
	for i := 0; i < counter; i++ {
		l := &Line{ID: binary + i, Role: BinaryAndCounter, bit: uint(8 + i), last: port.Unknown}
		b.lines = append(b.lines, l)
		b.counters = append(b.counters, l)
	}
	return b, nil
}

// Lines returns all lines of the bank in id order.
func (b *Bank) Lines() []*Line {
	return b.lines
}

// Size returns the number of monitored lines.
func (b *Bank) Size() int {
	return len(b.lines)
}

// Counts returns a copy of the counter accumulators in line order.
func (b *Bank) Counts() []uint32 {
	counts := make([]uint32, len(b.counters))
	for i, l := range b.counters {
		counts[i] = l.count
	}
	return counts
}

// Classification is the aggregate outcome of one sample cycle. It decides
// which reports a cycle publishes.
type Classification int

const (
	// NoChange means all lines kept their level.
	NoChange Classification = iota
	// BinaryChanged means at least one line changed level but no counter
	// accumulated.
	BinaryChanged
	// BinaryAndCounterChanged means at least one counter accumulated a
	// pulse, or a counter line left its unsampled state. Counter reports
	// imply binary reports.
	BinaryAndCounterChanged
)

func (c Classification) String() string {
	switch c {
	case BinaryChanged:
		return "binary"
	case BinaryAndCounterChanged:
		return "binary+counter"
	}
	return "none"
}

// Snapshot is the transient result of one sampling pass.
type Snapshot struct {
	// Time the pass was taken.
	Time time.Time
	// Levels holds the current level of every line, one bit per line.
	Levels uint16
	// Changed marks the lines whose level differs from the previous pass.
	Changed uint16
	// Counts is a copy of the counter accumulators.
	Counts []uint32
	// Classification is the aggregate outcome of the pass.
	Classification Classification
}

// Reader reads the current physical level of a line. Reads are synchronous
// and always succeed; hardware failures are the driver's concern.
type Reader interface {
	ReadLevel(id int) port.Level
}

// Cycle runs sampling passes over a bank.
type Cycle struct {
	bank   *Bank
	reader Reader
}

// NewCycle creates a sample cycle for bank, reading levels from reader.
func NewCycle(bank *Bank, reader Reader) *Cycle {
	return &Cycle{bank: bank, reader: reader}
}

// Run performs one sampling pass: read every line, run edge detection,
// accumulate counters and classify the result. Edge detection of all lines
// completes before any counting, so counters only ever see a transition
// that is already recorded.
func (c *Cycle) Run() Snapshot {
	snap := Snapshot{Time: time.Now()}
	levels := make([]port.Level, len(c.bank.lines))

	changed := false
	firstCounter := false
	for i, l := range c.bank.lines {
		level := c.reader.ReadLevel(l.ID)
		levels[i] = level

		if level == port.High {
			snap.Levels |= 1 << l.bit
		}
		if l.last == port.Unknown && l.Role == BinaryAndCounter {
			// A counter line leaving the unsampled state forces a
			// counter report even without an accumulated pulse.
			firstCounter = true
		}
		if l.detect(level) {
			snap.Changed |= 1 << l.bit
			changed = true
		}
	}

	counted := false
	for i, l := range c.bank.lines {
		if snap.Changed&(1<<l.bit) == 0 {
			continue
		}
		if l.onEdge(levels[i]) {
			counted = true
		}
	}

	snap.Counts = c.bank.Counts()
	switch {
	case counted || firstCounter:
		snap.Classification = BinaryAndCounterChanged
	case changed:
		snap.Classification = BinaryChanged
	}
	return snap
}
