//go:build linux

package raspberry

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/gpiod"
	"github.com/womat/debug"

	"binc/pkg/port"
)

// CdevGPIO drives pins through the gpio character device.
type CdevGPIO struct {
	chip *gpiod.Chip

	mu   sync.Mutex
	pins map[int]*CdevPin
}

// CdevPin is a single line requested from the character device. Watching a
// pin re-requests the line with an event handler, since the kernel accepts
// edge detection options only at request time.
type CdevPin struct {
	gpio   *CdevGPIO
	bcm    int
	pull   Pull
	bounce time.Duration

	mu         sync.Mutex
	line       *gpiod.Line
	edge       Edge
	handler    Handler
	lastValue  int
	debouncing bool
}

func openChardev() (*CdevGPIO, error) {
	chip, err := gpiod.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &CdevGPIO{chip: chip, pins: map[int]*CdevPin{}}, nil
}

// NewPin requests control of a single input line. If granted, control is
// maintained until the pin is closed.
func (g *CdevGPIO) NewPin(bcm int, pull Pull, bounce time.Duration) (Pin, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.pins[bcm]; ok {
		return nil, fmt.Errorf("%w: %d", ErrPinInUse, bcm)
	}

	p := &CdevPin{gpio: g, bcm: bcm, pull: pull, bounce: bounce}
	line, err := g.chip.RequestLine(bcm, p.requestOptions()...)
	if err != nil {
		return nil, fmt.Errorf("request line %d: %w", bcm, err)
	}
	p.line = line
	p.lastValue, _ = line.Value()

	g.pins[bcm] = p
	return p, nil
}

// Close releases the chip. It does not release requested lines - they must
// be closed independently, and not from an event handler context.
func (g *CdevGPIO) Close() error {
	return g.chip.Close()
}

func (p *CdevPin) requestOptions() []gpiod.LineReqOption {
	opts := []gpiod.LineReqOption{gpiod.AsInput}
	switch p.pull {
	case PullUp:
		opts = append(opts, gpiod.WithPullUp)
	case PullDown:
		opts = append(opts, gpiod.WithPullDown)
	}
	return opts
}

// Pin returns the BCM number of the line.
func (p *CdevPin) Pin() int {
	return p.bcm
}

// Read samples the current physical level.
func (p *CdevPin) Read() bool {
	v, err := p.line.Value()
	if err != nil {
		debug.ErrorLog.Printf("read line %d: %v", p.bcm, err)
		return false
	}
	return v == 1
}

// Watch reports debounced level changes to handler. The line is
// re-requested with edge detection enabled.
func (p *CdevPin) Watch(edge Edge, handler Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handler != nil {
		return fmt.Errorf("%w: %d already watched", ErrPinInUse, p.bcm)
	}

	opts := p.requestOptions()
	switch edge {
	case EdgeRising:
		opts = append(opts, gpiod.WithRisingEdge)
	case EdgeFalling:
		opts = append(opts, gpiod.WithFallingEdge)
	case EdgeBoth:
		opts = append(opts, gpiod.WithBothEdges)
	default:
		return fmt.Errorf("%w: edge %v", ErrInvalidParam, edge)
	}
	opts = append(opts, gpiod.WithEventHandler(p.event))

	if err := p.line.Close(); err != nil {
		return err
	}
	line, err := p.gpio.chip.RequestLine(p.bcm, opts...)
	if err != nil {
		// keep a usable handle for Read and Close
		plain, rerr := p.gpio.chip.RequestLine(p.bcm, p.requestOptions()...)
		if rerr != nil {
			return fmt.Errorf("watch line %d: %w (re-request failed: %v)", p.bcm, err, rerr)
		}
		p.line = plain
		return fmt.Errorf("watch line %d: %w", p.bcm, err)
	}

	p.line = line
	p.edge = edge
	p.handler = handler
	return nil
}

// Unwatch removes the watcher by re-requesting the line without edge
// detection.
func (p *CdevPin) Unwatch() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handler == nil {
		return
	}
	if err := p.line.Close(); err != nil {
		debug.ErrorLog.Printf("unwatch line %d: %v", p.bcm, err)
		return
	}
	line, err := p.gpio.chip.RequestLine(p.bcm, p.requestOptions()...)
	if err != nil {
		debug.ErrorLog.Printf("unwatch line %d: %v", p.bcm, err)
		return
	}
	p.line = line
	p.handler = nil
	p.edge = EdgeNone
}

// Close releases the line. Note that this waits for running event handlers
// to return, so it must not be called from a handler context.
func (p *CdevPin) Close() error {
	p.gpio.mu.Lock()
	delete(p.gpio.pins, p.bcm)
	p.gpio.mu.Unlock()
	return p.line.Close()
}

// event confirms an edge after the bounce time and hands it to the watcher.
// While one edge is being confirmed further kernel events are ignored.
func (p *CdevPin) event(evt gpiod.LineEvent) {
	p.mu.Lock()
	if p.debouncing || p.handler == nil {
		p.mu.Unlock()
		return
	}
	p.debouncing = true
	edge, handler, line, bounce := p.edge, p.handler, p.line, p.bounce
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

		v, err := line.Value()
		if err != nil {
			debug.ErrorLog.Printf("read line %d after edge: %v", p.bcm, err)
			return
		}
		p.mu.Lock()
		if bounce > 0 && v == p.lastValue {
			p.mu.Unlock()
			debug.TraceLog.Printf("line %d bounced back, edge dropped", p.bcm)
			return
		}
		p.lastValue = v
		p.mu.Unlock()

		e := port.Event{Timestamp: evt.Timestamp + bounce, Type: port.FallingEdge}
		if v == 1 {
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
