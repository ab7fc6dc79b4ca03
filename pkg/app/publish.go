package app

import (
	"encoding/json"
	"time"

	"github.com/womat/debug"

	"binc/pkg/input"
	"binc/pkg/mqtt"
)

// Topic suffixes below the configured topic prefix.
const (
	topicBinary  = "/binary"
	topicCounter = "/counters"
	topicVoltage = "/voltage"
)

// binaryPayload reports the state of all monitored lines. States packs one
// bit per line: binary lines in the low byte, counter lines in the high
// byte.
type binaryPayload struct {
	TimeStamp time.Time     `json:"timestamp"`
	States    uint16        `json:"states"`
	Changed   uint16        `json:"changed"`
	Lines     []linePayload `json:"lines"`
}

// linePayload is the state of one line.
type linePayload struct {
	Pin   int    `json:"pin"`
	Role  string `json:"role"`
	State int    `json:"state"`
}

// countersPayload reports the pulse accumulators of the counter lines.
type countersPayload struct {
	TimeStamp time.Time `json:"timestamp"`
	Counters  []uint32  `json:"counters"`
}

// voltagePayload reports the supply voltage.
type voltagePayload struct {
	TimeStamp time.Time `json:"timestamp"`
	MilliVolt int       `json:"millivolt"`
}

// publishBinaryStates queues the binary state report.
func (app *App) publishBinaryStates(snap input.Snapshot) {
	app.send(app.config.MQTT.Topic+topicBinary, binaryPayload{
		TimeStamp: snap.Time,
		States:    snap.Levels,
		Changed:   snap.Changed,
		Lines:     app.linePayloads(),
	})
}

// publishCounters queues the counter report.
func (app *App) publishCounters(snap input.Snapshot) {
	app.send(app.config.MQTT.Topic+topicCounter, countersPayload{
		TimeStamp: snap.Time,
		Counters:  snap.Counts,
	})
}

// publishVoltageSupply queues the supply voltage report.
func (app *App) publishVoltageSupply(milliVolt int) {
	app.send(app.config.MQTT.Topic+topicVoltage, voltagePayload{
		TimeStamp: time.Now(),
		MilliVolt: milliVolt,
	})
}

func (app *App) linePayloads() []linePayload {
	lines := app.bank.Lines()
	out := make([]linePayload, len(lines))
	for i, l := range lines {
		out[i] = linePayload{
			Pin:   app.pinFor(l),
			Role:  l.Role.String(),
			State: int(l.Level()),
		}
	}
	return out
}

// send queues one report for the mqtt service. The queue is bounded; the
// sampling loop never blocks on the broker, a full queue drops the report.
func (app *App) send(topic string, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		debug.ErrorLog.Printf("marshal %v: %v", topic, err)
		return
	}

	select {
	case app.mqtt.C <- mqtt.Message{Topic: topic, Payload: b, Qos: 0, Retained: true}:
	default:
		debug.ErrorLog.Printf("mqtt queue full, dropping %v", topic)
	}
}
