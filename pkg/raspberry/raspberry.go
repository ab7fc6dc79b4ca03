// Package raspberry samples and watches raspberry pi gpio pins.
//
// Three drivers are available:
//   - gpiochar: the gpio character device (/dev/gpiochip0), the default.
//   - gpiomem:  the memory mapped register window (/dev/gpiomem).
//   - emu:      an in memory emulator for tests and development hosts.
package raspberry

import (
	"fmt"
	"time"

	"binc/pkg/port"
)

var (
	ErrInvalidParam  = fmt.Errorf("invalid parameters")
	ErrPinInUse      = fmt.Errorf("pin already in use")
	ErrUnknownDriver = fmt.Errorf("unknown gpio driver")
)

// Edge selects which level changes a watcher reports.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// Pull selects the bias of an input pin.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// PullOf maps a configuration word to a Pull.
func PullOf(s string) (Pull, error) {
	switch s {
	case "", "none":
		return PullNone, nil
	case "pullup":
		return PullUp, nil
	case "pulldown":
		return PullDown, nil
	}
	return PullNone, fmt.Errorf("%w: pull %q", ErrInvalidParam, s)
}

// Handler is called from the driver's event context after the bounce time
// elapsed. Handlers must stay minimal; substantive work belongs to the
// sampling loop.
type Handler func(Pin, port.Event)

// Pin is a single requested input line.
type Pin interface {
	// Pin returns the BCM number of the line.
	Pin() int
	// Read samples the current physical level.
	Read() bool
	// Watch reports level changes on the selected edges to handler.
	// There can only be one watcher on a pin at a time.
	Watch(Edge, Handler) error
	// Unwatch removes the watcher from the pin.
	Unwatch()
	// Close releases the line.
	Close() error
}

// GPIO is a driver controlling a set of pins.
type GPIO interface {
	// NewPin requests a single input line by its BCM number. The bounce
	// time suppresses watcher events until the level is stable; zero
	// disables debouncing.
	NewPin(bcm int, pull Pull, bounce time.Duration) (Pin, error)
	// Close releases the driver. Requested pins must be closed first.
	Close() error
}

// Driver names accepted by Open. The empty string selects the platform
// default: gpiochar on linux, emu elsewhere.
const (
	DriverChardev  = "gpiochar"
	DriverMemmap   = "gpiomem"
	DriverEmulator = "emu"
)

// Open opens the named gpio driver.
func Open(driver string) (GPIO, error) {
	return open(driver)
}
