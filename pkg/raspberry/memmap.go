//go:build linux

package raspberry

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/gpio"
	"github.com/womat/debug"

	"binc/pkg/port"
)

// MemGPIO drives pins through the memory mapped gpio register window.
// It needs /dev/gpiomem and therefore only works on the pi itself.
type MemGPIO struct {
	opened time.Time

	mu   sync.Mutex
	pins map[int]*MemPin
}

// MemPin is a single pin of the register window.
type MemPin struct {
	gpio   *MemGPIO
	pin    *gpio.Pin
	bounce time.Duration

	mu         sync.Mutex
	edge       Edge
	handler    Handler
	shadow     bool
	debouncing bool
}

func openMemmap() (*MemGPIO, error) {
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio memory: %w", err)
	}
	return &MemGPIO{opened: time.Now(), pins: map[int]*MemPin{}}, nil
}

// NewPin creates a new input pin. The pin number provided is the BCM
// number.
func (g *MemGPIO) NewPin(bcm int, pull Pull, bounce time.Duration) (Pin, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.pins[bcm]; ok {
		return nil, fmt.Errorf("%w: %d", ErrPinInUse, bcm)
	}

	p := &MemPin{gpio: g, pin: gpio.NewPin(bcm), bounce: bounce}
	p.pin.Input()
	switch pull {
	case PullUp:
		p.pin.PullUp()
	case PullDown:
		p.pin.PullDown()
	}
	p.shadow = bool(p.pin.Read())

	g.pins[bcm] = p
	return p, nil
}

// Close removes the interrupt handlers and unmaps the gpio memory.
func (g *MemGPIO) Close() error {
	return gpio.Close()
}

// Pin returns the BCM number of the pin.
func (p *MemPin) Pin() int {
	return p.pin.Pin()
}

// Read samples the current physical level.
func (p *MemPin) Read() bool {
	return bool(p.pin.Read())
}

// Watch reports debounced level changes to handler.
func (p *MemPin) Watch(edge Edge, handler Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handler != nil {
		return fmt.Errorf("%w: %d already watched", ErrPinInUse, p.pin.Pin())
	}
	p.handler = handler
	p.edge = edge
	return p.pin.Watch(memEdge(edge), p.event)
}

// Unwatch removes any watch from the pin.
func (p *MemPin) Unwatch() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pin.Unwatch()
	p.handler = nil
	p.edge = EdgeNone
}

// Close releases the pin.
func (p *MemPin) Close() error {
	p.Unwatch()
	p.gpio.mu.Lock()
	delete(p.gpio.pins, p.pin.Pin())
	p.gpio.mu.Unlock()
	return nil
}

// event confirms an edge after the bounce time against the shadow level and
// hands it to the watcher.
func (p *MemPin) event(_ *gpio.Pin) {
	p.mu.Lock()
	if p.debouncing || p.handler == nil {
		p.mu.Unlock()
		return
	}
	p.debouncing = true
	edge, handler, bounce := p.edge, p.handler, p.bounce
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			p.debouncing = false
			p.mu.Unlock()
		}()

		if bounce > 0 {
			time.Sleep(bounce)
		}

		v := p.Read()
		p.mu.Lock()
		if bounce > 0 && v == p.shadow {
			p.mu.Unlock()
			debug.TraceLog.Printf("pin %d bounced back, edge dropped", p.pin.Pin())
			return
		}
		p.shadow = v
		p.mu.Unlock()

		e := port.Event{Timestamp: time.Since(p.gpio.opened), Type: port.FallingEdge}
		if v {
			e.Type = port.RisingEdge
		}
		if edge == EdgeRising && e.Type != port.RisingEdge {
			return
		}
		if edge == EdgeFalling && e.Type != port.FallingEdge {
			return
		}
		handler(p, e)
	}()
}

func memEdge(e Edge) gpio.Edge {
	switch e {
	case EdgeRising:
		return gpio.EdgeRising
	case EdgeFalling:
		return gpio.EdgeFalling
	case EdgeBoth:
		return gpio.EdgeBoth
	}
	return gpio.EdgeNone
}
