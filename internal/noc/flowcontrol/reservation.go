package flowcontrol

// This file implements the per-output-channel reservation state machine
// (: FREE <-> OWNED_BY(input_channel_id)) as a pure function
// over a transition table, so the exclusivity invariant is auditable in one place rather than scattered across
// the draining loop.

// Unowned is the reservation owner value meaning FREE.
const Unowned = -1

// Reservation is the state of one output channel's wormhole reservation.
type Reservation struct {
	Owner int // Unowned when FREE
}

// reservationEvent is the input to the reservation transition table.
type reservationEvent struct {
	kind reservationEventKind
	input int
}

type reservationEventKind uint8

const (
	// evtAcquire requests ownership for input. Rejected (no change) if
	// owned by a different input.
	evtAcquire reservationEventKind = iota
	// evtRelease returns the channel to FREE unconditionally.
	evtRelease
)

// transitionReservation applies event to state and reports the
// resulting state and whether the requesting input now owns the
// channel. No side effects; callers hold the authoritative copy.
func transitionReservation(state Reservation, ev reservationEvent) (next Reservation, owns bool) {
	switch ev.kind {
	case evtAcquire:
		if state.Owner == Unowned {
			return Reservation{Owner: ev.input}, true
		}
		return state, state.Owner == ev.input
	case evtRelease:
		return Reservation{Owner: Unowned}, false
	default:
		return state, false
	}
}
