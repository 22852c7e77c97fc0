package models

import (
	"errors"
	"time"
)

// Direction labels the movement of the decayed activity score between two
// consecutive trend windows.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// TrendPoint is one fixed time window of the trend signal: the decayed
// cluster-density score for that window and its direction relative to the
// immediately preceding window.
type TrendPoint struct {
	Window    time.Time `json:"window"` // bucket start, UTC
	Score     float64   `json:"score"`
	Direction Direction `json:"direction"`
}

// Validate checks trend point field invariants.
func (p *TrendPoint) Validate() error {
	if p.Window.IsZero() {
		return errors.New("trend window timestamp must be set")
	}
	if p.Score < 0 {
		return errors.New("trend score must not be negative")
	}
	switch p.Direction {
	case DirectionUp, DirectionDown, DirectionFlat:
	default:
		return errors.New("trend direction must be 'up', 'down', or 'flat'")
	}
	return nil
}

// TrendSignal is the ordered, contiguous window sequence for one run.
// Windows run from the earliest to the latest article timestamp; windows
// with no cluster activity carry a zero score so the sequence has no gaps.
type TrendSignal []TrendPoint
