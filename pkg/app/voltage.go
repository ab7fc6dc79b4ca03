package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/womat/debug"
)

// readVoltage returns the supply voltage in millivolt. It reads the
// configured sysfs file; without one, or when the reading fails, the
// configured nominal value is reported.
func (app *App) readVoltage() int {
	cfg := app.config.Voltage
	if cfg.File == "" {
		return cfg.NominalMilliVolt
	}

	b, err := os.ReadFile(cfg.File)
	if err != nil {
		debug.ErrorLog.Printf("read voltage file %q: %v", cfg.File, err)
		return cfg.NominalMilliVolt
	}

	mv, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		debug.ErrorLog.Printf("parse voltage file %q: %v", cfg.File, err)
		return cfg.NominalMilliVolt
	}
	return mv
}
