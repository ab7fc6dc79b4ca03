package app

import (
	"github.com/womat/debug"

	"binc/pkg/input"
	"binc/pkg/wake"
)

// bootstrap runs the initial unconditional sample pass and reports supply
// voltage, counters and binary states once, before the sampling loop
// starts. The first pass moves every line out of the unsampled state, so
// subsequent cycles only report genuine changes.
func (app *App) bootstrap() {
	mv := app.readVoltage()
	app.last.Lock()
	app.last.milliVolt = mv
	app.last.Unlock()
	app.publishVoltageSupply(mv)

	snap := app.cycle.Run()
	app.storeSnapshot(snap)
	app.publishCounters(snap)
	app.publishBinaryStates(snap)

	debug.InfoLog.Printf("bootstrap report: levels=%#04x voltage=%dmV", snap.Levels, mv)
}

// service is the sampling loop. Between cycles the loop sleeps on the wake
// controller; pin change handlers only latch a wake there. While a cycle
// runs, fresh pin changes stay latched until the next sleep, so line and
// counter state is never touched concurrently.
func (app *App) service() {
	for {
		reason := app.wake.SleepUntilWake()
		snap := app.runCycle(reason)
		debug.DebugLog.Printf("cycle: wake=%v classification=%v levels=%#04x changed=%#04x",
			reason, snap.Classification, snap.Levels, snap.Changed)
		app.wake.Rearm()
	}
}

// runCycle performs one sample pass and publishes according to the wake
// reason and the classification.
func (app *App) runCycle(reason wake.Reason) input.Snapshot {
	snap := app.cycle.Run()
	app.storeSnapshot(snap)

	counters, binary := publishPlan(reason, snap.Classification)
	if counters {
		app.publishCounters(snap)
	}
	if binary {
		app.publishBinaryStates(snap)
	}
	return snap
}

// publishPlan decides which reports one cycle sends. A timer wake reports
// unconditionally. An interrupt wake reports per classification: counter
// changes imply a binary report, a pure binary change reports binary only,
// no change reports nothing.
func publishPlan(reason wake.Reason, c input.Classification) (counters, binary bool) {
	if reason == wake.TimerExpiry {
		return true, true
	}

	switch c {
	case input.BinaryAndCounterChanged:
		return true, true
	case input.BinaryChanged:
		return false, true
	}
	return false, false
}
