package business

import (
	"sync"
	"time"
)

// Gate event types pushed to subscribers (websocket feed, queue
// notifications).
const (
	GateEventGated                = "round_success_gated"
	GateEventFinalized            = "round_finalized"
	GateEventTransition           = "round_transition"
	GateEventAllocationsPublished = "allocations_published"
)

// GateEvent describes a finalization transition on a round.
type GateEvent struct {
	RoundID uint       `json:"round_id"`
	Type    string     `json:"type"`
	Status  string     `json:"status,omitempty"`
	Missing []GateName `json:"missing,omitempty"`
	At      time.Time  `json:"at"`
}

type GateEventFunc func(GateEvent)

var (
	gateEventMu   sync.RWMutex
	gateEventSubs []GateEventFunc
)

// SubscribeGateEvents registers a callback for finalization events.
// Callbacks must not block; push work goes through their own buffering.
func SubscribeGateEvents(fn GateEventFunc) {
	gateEventMu.Lock()
	defer gateEventMu.Unlock()
	gateEventSubs = append(gateEventSubs, fn)
}

func publishGateEvent(ev GateEvent) {
	gateEventMu.RLock()
	subs := make([]GateEventFunc, len(gateEventSubs))
	copy(subs, gateEventSubs)
	gateEventMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}
