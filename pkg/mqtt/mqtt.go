// Package mqtt owns the broker connection and the publish queue.
package mqtt

import (
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/womat/debug"
)

const (
	// quiesce is the number of milliseconds to wait for in flight
	// messages when disconnecting.
	quiesce = 250
	// queueSize bounds the publish queue. The sampling loop never blocks
	// on the broker; messages beyond the bound are dropped and logged.
	queueSize = 32
	// connectTimeout bounds the initial connect.
	connectTimeout = 10 * time.Second
)

// Message is one application payload bound for a topic.
type Message struct {
	Topic    string
	Payload  []byte
	Qos      byte
	Retained bool
}

// Handler connects to the mqtt broker and publishes queued messages.
// Sending a Message to channel C publishes it. With no broker configured
// messages are silently discarded.
type Handler struct {
	client mqttlib.Client

	// C is the publish queue serviced by Service.
	C chan Message
}

// New creates a new, unconnected broker handler.
func New() *Handler {
	return &Handler{C: make(chan Message, queueSize)}
}

// Connect connects to the mqtt broker. An empty broker string disables
// publishing.
func (m *Handler) Connect(broker, clientID string) error {
	if broker == "" {
		return nil
	}

	opts := mqttlib.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)

	m.client = mqttlib.NewClient(opts)
	return m.reconnect()
}

// reconnect (re)establishes the broker connection.
func (m *Handler) reconnect() error {
	t := m.client.Connect()
	<-t.Done()
	return t.Error()
}

// Disconnect ends the connection to the broker.
func (m *Handler) Disconnect() error {
	if m.client == nil {
		return nil
	}
	m.client.Disconnect(quiesce)
	return nil
}

// Service publishes messages queued on C until the channel is closed.
// It is designed to run as its own goroutine.
func (m *Handler) Service() {
	for msg := range m.C {
		if m.client == nil || msg.Topic == "" {
			continue
		}
		m.publish(msg)
	}
}

func (m *Handler) publish(msg Message) {
	if !m.client.IsConnected() {
		debug.DebugLog.Print("mqtt broker not connected, reconnecting")
		if err := m.reconnect(); err != nil {
			debug.ErrorLog.Printf("reconnect to mqtt broker: %v", err)
			return
		}
	}

	debug.TraceLog.Printf("publishing %v bytes to topic %v", len(msg.Payload), msg.Topic)
	t := m.client.Publish(msg.Topic, msg.Qos, msg.Retained, msg.Payload)

	// the paho library completes publishes asynchronously; surface errors
	// without stalling the queue.
	go func() {
		<-t.Done()
		if err := t.Error(); err != nil {
			debug.ErrorLog.Printf("publishing topic %v: %v", msg.Topic, err)
		}
	}()
}
