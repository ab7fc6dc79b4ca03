package raspberry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binc/pkg/port"
	"binc/pkg/raspberry"
)

func TestEmulatorPinLifecycle(t *testing.T) {
	g := raspberry.NewEmulator()

	p, err := g.NewPin(17, raspberry.PullDown, 0)
	require.NoError(t, err)
	assert.Equal(t, 17, p.Pin())
	assert.False(t, p.Read())

	_, err = g.NewPin(17, raspberry.PullDown, 0)
	assert.ErrorIs(t, err, raspberry.ErrPinInUse)

	require.NoError(t, p.Close())
	_, err = g.NewPin(17, raspberry.PullDown, 0)
	assert.NoError(t, err)
}

func TestEmulatorWatch(t *testing.T) {
	g := raspberry.NewEmulator()
	p, err := g.NewPin(4, raspberry.PullNone, 0)
	require.NoError(t, err)

	var events []port.EventType
	err = p.Watch(raspberry.EdgeBoth, func(_ raspberry.Pin, e port.Event) {
		events = append(events, e.Type)
	})
	require.NoError(t, err)

	emu := g.Pin(4)
	require.NotNil(t, emu)

	emu.Set(true)
	emu.Set(true) // same level, no edge
	emu.Set(false)

	assert.Equal(t, []port.EventType{port.RisingEdge, port.FallingEdge}, events)
	assert.False(t, p.Read())
}

func TestEmulatorWatchRisingOnly(t *testing.T) {
	g := raspberry.NewEmulator()
	p, err := g.NewPin(4, raspberry.PullNone, 0)
	require.NoError(t, err)

	var events []port.EventType
	require.NoError(t, p.Watch(raspberry.EdgeRising, func(_ raspberry.Pin, e port.Event) {
		events = append(events, e.Type)
	}))

	emu := g.Pin(4)
	emu.Set(true)
	emu.Set(false)
	emu.Set(true)

	assert.Equal(t, []port.EventType{port.RisingEdge, port.RisingEdge}, events)
}

func TestEmulatorUnwatch(t *testing.T) {
	g := raspberry.NewEmulator()
	p, err := g.NewPin(4, raspberry.PullNone, 0)
	require.NoError(t, err)

	fired := false
	require.NoError(t, p.Watch(raspberry.EdgeBoth, func(raspberry.Pin, port.Event) { fired = true }))
	p.Unwatch()

	g.Pin(4).Set(true)
	assert.False(t, fired)
	assert.True(t, p.Read())
}

func TestPullOf(t *testing.T) {
	for word, want := range map[string]raspberry.Pull{
		"":         raspberry.PullNone,
		"none":     raspberry.PullNone,
		"pullup":   raspberry.PullUp,
		"pulldown": raspberry.PullDown,
	} {
		got, err := raspberry.PullOf(word)
		assert.NoError(t, err)
		assert.Equal(t, want, got, word)
	}

	_, err := raspberry.PullOf("sideways")
	assert.ErrorIs(t, err, raspberry.ErrInvalidParam)
}
