//go:build !linux

package raspberry

import "fmt"

// Only the emulator is available away from the pi. This keeps development
// on other hosts possible, in the spirit of the windows pin emulation the
// project started with.
func open(driver string) (GPIO, error) {
	switch driver {
	case "", DriverEmulator:
		return NewEmulator(), nil
	}
	return nil, fmt.Errorf("%w: %q not available on this platform", ErrUnknownDriver, driver)
}
