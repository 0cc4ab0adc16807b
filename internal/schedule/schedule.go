// Package schedule defines the compiled form of a pulse program: per-bus
// time-ordered event lists, acquisition windows and the hardware repetition
// metadata the result layer needs. A Schedule is a pure value; once the
// compiler returns it nothing mutates it.
package schedule

import "github.com/qforge-dev/qforge/internal/waveform"

// EventKind discriminates the events a bus timeline can carry.
type EventKind int

const (
	EventPulse EventKind = iota
	EventSetFrequency
	EventSetPhase
	EventResetPhase
	EventSetGain
	EventSetOffset
)

func (k EventKind) String() string {
	switch k {
	case EventPulse:
		return "pulse"
	case EventSetFrequency:
		return "set_frequency"
	case EventSetPhase:
		return "set_phase"
	case EventResetPhase:
		return "reset_phase"
	case EventSetGain:
		return "set_gain"
	case EventSetOffset:
		return "set_offset"
	}
	return "unknown"
}

// MarshalJSON renders the kind as its string name in plan output.
func (k EventKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Event is one scheduled action on a bus. Pulse events carry the emitted
// signal; register-write events carry the written value.
type Event struct {
	Kind     EventKind `json:"kind"`
	Start    int64     `json:"start"`
	Duration int64     `json:"duration,omitempty"`
	Value    float64   `json:"value,omitempty"`

	// Wave is the signal a pulse event emits. Excluded from plan output;
	// the plan shows timing and values only.
	Wave waveform.Signal `json:"-"`
}

// End reports the first instant after the event.
func (e Event) End() int64 { return e.Start + e.Duration }

// BusSchedule is the timeline of one bus, events ordered ascending by start
// time.
type BusSchedule struct {
	Bus    string  `json:"bus"`
	Port   int     `json:"port"`
	Events []Event `json:"events"`
}

// Acquisition describes one readout window.
type Acquisition struct {
	Bus               string `json:"bus"`
	Start             int64  `json:"start"`
	IntegrationLength int64  `json:"integration_length"`
	Bins              int    `json:"bins"`
}

// Schedule is the full compiled program.
type Schedule struct {
	Buses        map[string]*BusSchedule `json:"buses"`
	Acquisitions []Acquisition           `json:"acquisitions"`

	// Shots is the hardware repetition count; Bins is how many of those
	// repetitions land in distinct accumulation bins.
	Shots int `json:"shots"`
	Bins  int `json:"bins"`
}

// Duration reports the end of the latest event across all buses.
func (s *Schedule) Duration() int64 {
	var end int64
	for _, bs := range s.Buses {
		for _, e := range bs.Events {
			if e.End() > end {
				end = e.End()
			}
		}
	}
	for _, a := range s.Acquisitions {
		if t := a.Start + a.IntegrationLength; t > end {
			end = t
		}
	}
	return end
}
