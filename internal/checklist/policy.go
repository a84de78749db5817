package checklist

import (
	"fmt"
	"strings"
)

// Policy decides what activating an already completed step does.
type Policy string

const (
	// PolicyToggle flips the step: activating a done step clears it and its date.
	PolicyToggle Policy = "toggle"
	// PolicyStampOnce only ever marks a step done; later activations are no-ops.
	PolicyStampOnce Policy = "stamp_once"
)

// ParsePolicy parses a configured policy name. An empty string selects PolicyToggle.
func ParsePolicy(v string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", string(PolicyToggle):
		return PolicyToggle, nil
	case string(PolicyStampOnce), "stamp-once", "stamponce":
		return PolicyStampOnce, nil
	}
	return "", fmt.Errorf("unknown step policy %q (want %q or %q)", v, PolicyToggle, PolicyStampOnce)
}

// Direction moves a fund within the display order.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection parses "up" or "down".
func ParseDirection(v string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(v))) {
	case Up:
		return Up, true
	case Down:
		return Down, true
	}
	return "", false
}
