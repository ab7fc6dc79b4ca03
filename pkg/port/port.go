// Package port holds the types describing the state of a physical input line.
package port

import "time"

// Level is the logic level of a digital input.
type Level int

const (
	// Unknown indicates that the line has not been sampled yet.
	Unknown Level = -1
	// Low indicates a logical 0.
	Low Level = 0
	// High indicates a logical 1.
	High Level = 1
)

// LevelOf converts a raw pin reading to a Level.
func LevelOf(high bool) Level {
	if high {
		return High
	}
	return Low
}

func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case High:
		return "high"
	}
	return "unknown"
}

// EventType indicates the type of change to the line level.
type EventType int

const (
	_ EventType = iota
	// RisingEdge indicates a low to high transition.
	RisingEdge
	// FallingEdge indicates a high to low transition.
	FallingEdge
)

func (t EventType) String() string {
	switch t {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	}
	return "invalid"
}

// Event describes a single edge reported by a gpio driver.
type Event struct {
	// Timestamp indicates the time the edge was detected, relative to an
	// arbitrary driver epoch. Only differences between events are meaningful.
	Timestamp time.Duration
	// Type is the kind of edge this event represents.
	Type EventType
}
