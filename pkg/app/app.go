package app

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"binc/pkg/app/config"
	"binc/pkg/input"
	"binc/pkg/mqtt"
	"binc/pkg/port"
	"binc/pkg/raspberry"
	"binc/pkg/wake"
)

// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Webserver.URL parameter
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// gpio is the driver for the monitored pins
	gpio raspberry.GPIO

	// pins holds the requested pins, indexed by bank line id
	pins []raspberry.Pin

	// bank holds the monitored lines and their counters
	bank *input.Bank

	// cycle runs one sampling pass over the bank
	cycle *input.Cycle

	// wake suspends the sampling loop between cycles
	wake *wake.Controller

	// last caches the most recent snapshot for the web handlers
	last struct {
		sync.RWMutex
		snapshot  input.Snapshot
		milliVolt int
	}
}

// New checks the web server URL and initializes the main app structure.
func New(cfg *config.Config) (*App, error) {
	u, err := url.Parse(cfg.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", cfg.Webserver.URL, err.Error())
		return &App{}, err
	}

	bank, err := input.NewBank(len(cfg.Gpio.BinaryPins), len(cfg.Gpio.CounterPins))
	if err != nil {
		return &App{}, err
	}

	app := &App{
		config:    cfg,
		urlParsed: u,

		web:  fiber.New(),
		mqtt: mqtt.New(),
		bank: bank,
		wake: wake.New(cfg.MQTT.Interval),
	}
	app.cycle = input.NewCycle(bank, app)

	return app, nil
}

// Run starts the application: the mqtt service, the web server, the
// bootstrap report and the sampling loop.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()

	app.bootstrap()
	go app.service()

	return nil
}

// init opens the gpio driver, requests and watches the configured pins and
// connects to the mqtt broker.
func (app *App) init() (err error) {
	pull, err := raspberry.PullOf(app.config.Gpio.Pull)
	if err != nil {
		return err
	}

	if app.gpio, err = raspberry.Open(app.config.Gpio.Driver); err != nil {
		debug.ErrorLog.Printf("can't open gpio: %v", err)
		return err
	}

	bcm := append(append([]int{}, app.config.Gpio.BinaryPins...), app.config.Gpio.CounterPins...)
	for _, n := range bcm {
		p, err := app.gpio.NewPin(n, pull, app.config.Gpio.BounceTime)
		if err != nil {
			debug.ErrorLog.Printf("can't open pin %d: %v", n, err)
			return err
		}
		if err = p.Watch(raspberry.EdgeBoth, app.handler); err != nil {
			debug.ErrorLog.Printf("can't watch pin %d: %v", n, err)
			return err
		}
		app.pins = append(app.pins, p)
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection, MODULE); err != nil {
		debug.ErrorLog.Printf("can't connect to mqtt broker: %v", err)
		return err
	}

	// initDefaultRoutes should always be called last because it may access
	// things that must be initialized before.
	app.initDefaultRoutes()

	return nil
}

// handler runs in the gpio driver's event context. It only requests a
// wake; all substantive work happens in the sampling loop.
func (app *App) handler(p raspberry.Pin, e port.Event) {
	debug.TraceLog.Printf("pin %d: %v edge", p.Pin(), e.Type)
	app.wake.Wake()
}

// ReadLevel reads the current physical level of a bank line. It implements
// input.Reader on top of the requested pins.
func (app *App) ReadLevel(id int) port.Level {
	return port.LevelOf(app.pins[id].Read())
}

// pinFor returns the BCM number a bank line is wired to.
func (app *App) pinFor(l *input.Line) int {
	return app.pins[l.ID].Pin()
}

func (app *App) storeSnapshot(snap input.Snapshot) {
	app.last.Lock()
	app.last.snapshot = snap
	app.last.Unlock()
}

// Close releases the broker connection, the pins and the gpio driver.
func (app *App) Close() error {
	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}

	var err error
	for _, p := range app.pins {
		p.Unwatch()
		if e := p.Close(); e != nil {
			err = e
		}
	}
	if app.gpio != nil {
		if e := app.gpio.Close(); e != nil {
			err = e
		}
	}
	if err != nil {
		return fmt.Errorf("close gpio: %w", err)
	}
	return nil
}
