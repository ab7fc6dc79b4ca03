package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadVoltage(t *testing.T) {
	a, _ := testApp(t)

	// no file configured: nominal value
	assert.Equal(t, 3300, a.readVoltage())

	f := filepath.Join(t.TempDir(), "in_voltage0_raw")
	require.NoError(t, os.WriteFile(f, []byte("4960\n"), 0o644))
	a.config.Voltage.File = f
	assert.Equal(t, 4960, a.readVoltage())

	// unreadable or malformed files fall back to the nominal value
	a.config.Voltage.File = filepath.Join(t.TempDir(), "missing")
	assert.Equal(t, 3300, a.readVoltage())

	require.NoError(t, os.WriteFile(f, []byte("not a number"), 0o644))
	a.config.Voltage.File = f
	assert.Equal(t, 3300, a.readVoltage())
}
