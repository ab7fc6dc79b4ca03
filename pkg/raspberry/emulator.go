package raspberry

import (
	"fmt"
	"sync"
	"time"

	"binc/pkg/port"
)

// Emulator is an in memory gpio driver. Levels are set programmatically
// with (*EmuPin).Set, which fires the watcher like a hardware edge would.
// It backs tests and development on hosts without gpio.
type Emulator struct {
	opened time.Time

	mu   sync.Mutex
	pins map[int]*EmuPin
}

// EmuPin is a single emulated input pin.
type EmuPin struct {
	gpio *Emulator
	bcm  int

	mu      sync.Mutex
	level   bool
	edge    Edge
	handler Handler
}

// NewEmulator creates an emulated gpio driver. All pins start low.
func NewEmulator() *Emulator {
	return &Emulator{opened: time.Now(), pins: map[int]*EmuPin{}}
}

// NewPin creates a new emulated pin. Pull and bounce are accepted for
// interface compatibility and ignored.
func (g *Emulator) NewPin(bcm int, _ Pull, _ time.Duration) (Pin, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.pins[bcm]; ok {
		return nil, fmt.Errorf("%w: %d", ErrPinInUse, bcm)
	}
	p := &EmuPin{gpio: g, bcm: bcm}
	g.pins[bcm] = p
	return p, nil
}

// Pin returns the emulated pin with the given BCM number, or nil.
func (g *Emulator) Pin(bcm int) *EmuPin {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pins[bcm]
}

// Close releases the driver.
func (g *Emulator) Close() error {
	return nil
}

// Pin returns the BCM number of the pin.
func (p *EmuPin) Pin() int {
	return p.bcm
}

// Read samples the current emulated level.
func (p *EmuPin) Read() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Watch reports level changes on the selected edges to handler.
func (p *EmuPin) Watch(edge Edge, handler Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handler != nil {
		return fmt.Errorf("%w: %d already watched", ErrPinInUse, p.bcm)
	}
	p.handler = handler
	p.edge = edge
	return nil
}

// Unwatch removes any watch from the pin.
func (p *EmuPin) Unwatch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = nil
	p.edge = EdgeNone
}

// Close releases the pin.
func (p *EmuPin) Close() error {
	p.Unwatch()
	p.gpio.mu.Lock()
	delete(p.gpio.pins, p.bcm)
	p.gpio.mu.Unlock()
	return nil
}

// Set drives the emulated level. A level change fires the watcher
// synchronously when it matches the watched edge; setting the same level
// again does nothing.
func (p *EmuPin) Set(high bool) {
	p.mu.Lock()
	if p.level == high {
		p.mu.Unlock()
		return
	}
	p.level = high

	handler := p.handler
	edge := p.edge
	p.mu.Unlock()

	if handler == nil {
		return
	}

	e := port.Event{Timestamp: time.Since(p.gpio.opened), Type: port.FallingEdge}
	if high {
		e.Type = port.RisingEdge
	}
	switch {
	case edge == EdgeBoth,
		edge == EdgeRising && e.Type == port.RisingEdge,
		edge == EdgeFalling && e.Type == port.FallingEdge:
		handler(p, e)
	}
}
