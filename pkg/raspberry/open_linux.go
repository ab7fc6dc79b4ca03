//go:build linux

package raspberry

import "fmt"

func open(driver string) (GPIO, error) {
	switch driver {
	case "", DriverChardev:
		return openChardev()
	case DriverMemmap:
		return openMemmap()
	case DriverEmulator:
		return NewEmulator(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
