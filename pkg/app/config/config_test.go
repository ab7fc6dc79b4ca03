package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), "binc.yaml")
	require.NoError(t, os.WriteFile(f, []byte(content), 0o644))
	return f
}

func TestDefaults(t *testing.T) {
	c := NewConfig()

	assert.Len(t, c.Gpio.BinaryPins, 8)
	assert.Len(t, c.Gpio.CounterPins, 4)
	assert.Equal(t, "pulldown", c.Gpio.Pull)
	assert.Equal(t, 60, c.MQTT.IntervalInt)
	assert.Equal(t, "binc", c.MQTT.Topic)
	assert.Equal(t, 3300, c.Voltage.NominalMilliVolt)
	assert.True(t, c.Webserver.Webservices["data"])
}

func TestLoadConfig(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, `
gpio:
  driver: emu
  pull: pullup
  bouncetime: 20
  binary: [5, 6]
  counter: [17]
mqtt:
  connection: tcp://broker:1883
  topic: site/binc
  interval: 15
voltage:
  file: /sys/bus/iio/devices/iio:device0/in_voltage0_raw
  nominal: 5000
`)

	require.NoError(t, c.LoadConfig())

	assert.Equal(t, "emu", c.Gpio.Driver)
	assert.Equal(t, []int{5, 6}, c.Gpio.BinaryPins)
	assert.Equal(t, []int{17}, c.Gpio.CounterPins)
	assert.Equal(t, 20*time.Millisecond, c.Gpio.BounceTime)
	assert.Equal(t, 15*time.Second, c.MQTT.Interval)
	assert.Equal(t, "site/binc", c.MQTT.Topic)
	assert.Equal(t, 5000, c.Voltage.NominalMilliVolt)
}

func TestLoadConfigMissingFile(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")

	assert.Error(t, c.LoadConfig())
}

func TestLogLevelFlagOverride(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, `
log:
  flag: standard
`)
	c.Flag.LogLevel = "trace"

	require.NoError(t, c.LoadConfig())
	assert.Equal(t, "trace", c.Log.FlagString)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"too many binary pins", "gpio:\n  binary: [1,2,3,4,5,6,7,8,9]\n"},
		{"too many counter pins", "gpio:\n  counter: [1,2,3,4,5,6,7,8,9]\n"},
		{"duplicate pin", "gpio:\n  binary: [5]\n  counter: [5]\n"},
		{"no pins", "gpio:\n  binary: []\n  counter: []\n"},
		{"bad pull", "gpio:\n  pull: sideways\n"},
		{"bad interval", "mqtt:\n  interval: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			c.Flag.ConfigFile = writeConfig(t, tt.yaml)
			assert.Error(t, c.LoadConfig())
		})
	}
}
