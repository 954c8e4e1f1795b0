// Package eventstest has helpers for asserting on emitted events in tests.
package eventstest

import "github.com/DoyleJ11/autobattler-backend/internal/events"

func Contains(evts []events.Event, t events.Type) bool {
	return Count(evts, t) > 0
}

func Count(evts []events.Event, t events.Type) int {
	n := 0
	for _, e := range evts {
		if e.Type == t {
			n++
		}
	}
	return n
}
