// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"

	"binc/pkg/input"
)

// Config defines the struct of the global configuration and of the
// configuration file.
type Config struct {
	Gpio      GpioConfig      `yaml:"gpio"`
	Flag      FlagConfig      `yaml:"-"`
	Log       LogConfig       `yaml:"log"`
	Webserver WebserverConfig `yaml:"webserver"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Voltage   VoltageConfig   `yaml:"voltage"`
}

// GpioConfig selects the gpio driver and the monitored pins. BinaryPins are
// state only inputs; CounterPins also accumulate rising edges.
type GpioConfig struct {
	Driver        string        `yaml:"driver"`
	Pull          string        `yaml:"pull"`
	BounceTimeInt int           `yaml:"bouncetime"`
	BounceTime    time.Duration `yaml:"-"`
	BinaryPins    []int         `yaml:"binary"`
	CounterPins   []int         `yaml:"counter"`
}

// FlagConfig holds the configured command line flags.
type FlagConfig struct {
	ConfigFile string
	LogLevel   string
}

// WebserverConfig defines the web server address and the enabled services.
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the broker connection, the topic prefix and the
// periodic report interval.
type MQTTConfig struct {
	Connection  string        `yaml:"connection"`
	Topic       string        `yaml:"topic"`
	IntervalInt int           `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`
}

// VoltageConfig locates the supply voltage reading. File names a sysfs
// file holding millivolts (e.g. an iio adc in_voltage_raw); if empty or
// unreadable the nominal value is reported instead.
type VoltageConfig struct {
	File             string `yaml:"file"`
	NominalMilliVolt int    `yaml:"nominal"`
}

// LogConfig defines the log destination and level.
type LogConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

// NewConfig returns the default configuration: the reference device layout
// of 8 binary inputs and 4 pulse counter inputs.
func NewConfig() *Config {
	return &Config{
		Gpio: GpioConfig{
			Driver:      "",
			Pull:        "pulldown",
			BinaryPins:  []int{5, 6, 13, 19, 26, 16, 20, 21},
			CounterPins: []int{17, 27, 22, 23},
		},
		Flag: FlagConfig{},
		Log: LogConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"data":    true,
			},
		},
		MQTT: MQTTConfig{
			Connection:  "tcp://127.0.0.1:1883",
			Topic:       "binc",
			IntervalInt: 60,
		},
		Voltage: VoltageConfig{
			NominalMilliVolt: 3300,
		},
	}
}

// LoadConfig reads the configuration file, applies flag overrides, derives
// durations and validates the result.
func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.LogLevel != "" {
		c.Log.FlagString = c.Flag.LogLevel
	}
	if err := c.setLogConfig(); err != nil {
		return fmt.Errorf("unable to open log file %q: %w", c.Log.FileString, err)
	}

	c.MQTT.Interval = time.Duration(c.MQTT.IntervalInt) * time.Second
	c.Gpio.BounceTime = time.Duration(c.Gpio.BounceTimeInt) * time.Millisecond

	return c.validate()
}

func (c *Config) validate() error {
	if len(c.Gpio.BinaryPins) > input.MaxBinaryLines {
		return fmt.Errorf("at most %d binary pins are supported, got %d", input.MaxBinaryLines, len(c.Gpio.BinaryPins))
	}
	if len(c.Gpio.CounterPins) > input.MaxCounterLines {
		return fmt.Errorf("at most %d counter pins are supported, got %d", input.MaxCounterLines, len(c.Gpio.CounterPins))
	}
	if len(c.Gpio.BinaryPins)+len(c.Gpio.CounterPins) == 0 {
		return fmt.Errorf("no pins configured")
	}

	seen := map[int]bool{}
	for _, p := range append(append([]int{}, c.Gpio.BinaryPins...), c.Gpio.CounterPins...) {
		if seen[p] {
			return fmt.Errorf("pin %d configured twice", p)
		}
		seen[p] = true
	}

	switch c.Gpio.Pull {
	case "", "none", "pullup", "pulldown":
	default:
		return fmt.Errorf("invalid pull %q", c.Gpio.Pull)
	}

	if c.MQTT.Interval <= 0 {
		return fmt.Errorf("report interval must be positive, got %ds", c.MQTT.IntervalInt)
	}

	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	return yaml.NewDecoder(file).Decode(c)
}

func (c *Config) setLogConfig() (err error) {
	switch c.Log.FlagString {
	case "trace", "full":
		c.Log.Flag = debug.Full
	case "debug":
		c.Log.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	default:
		c.Log.Flag = debug.Standard
	}

	switch c.Log.FileString {
	case "stderr":
		c.Log.File = os.Stderr
	case "stdout":
		c.Log.File = os.Stdout
	default:
		if c.Log.File, err = os.OpenFile(c.Log.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
