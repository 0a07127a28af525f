package server

import (
	"sort"
	"sync"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
)

// DeliveryOutcome reports one recipient of a Publish or Send.
type DeliveryOutcome struct {
	ConnID string
	Err    error
}

// -----------------------------------------------------------------------------
// SubscriptionHub
// -----------------------------------------------------------------------------

// SubscriptionHub routes symbol updates to the connections subscribed to them.
// It is the only owner of the connection <-> symbol relation.
type SubscriptionHub struct {
	Logger *logger.Logger

	mu       sync.RWMutex
	sinks    map[string]interfaces.ISubscriber
	bySymbol map[string]map[string]struct{}
	byConn   map[string]map[string]struct{}
}

func NewSubscriptionHub(log *logger.Logger) *SubscriptionHub {
	return &SubscriptionHub{
		Logger:   log,
		sinks:    make(map[string]interfaces.ISubscriber),
		bySymbol: make(map[string]map[string]struct{}),
		byConn:   make(map[string]map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------

// Register makes a connection reachable by Send and Subscribe.
func (h *SubscriptionHub) Register(sink interfaces.ISubscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := sink.ID()
	h.sinks[id] = sink
	if _, ok := h.byConn[id]; !ok {
		h.byConn[id] = make(map[string]struct{})
	}
}

// -----------------------------------------------------------------------------

// Subscribe adds connID to every symbol and returns the symbols that were not
// already subscribed, in request order. A connection that is not registered,
// or whose close was already observed, is refused and nil is returned.
func (h *SubscriptionHub) Subscribe(connID string, symbols []string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sinks[connID]; !ok {
		return nil
	}
	own, ok := h.byConn[connID]
	if !ok {
		own = make(map[string]struct{})
		h.byConn[connID] = own
	}

	var added []string
	for _, sym := range symbols {
		if _, dup := own[sym]; dup {
			continue
		}
		own[sym] = struct{}{}

		subs, ok := h.bySymbol[sym]
		if !ok {
			subs = make(map[string]struct{})
			h.bySymbol[sym] = subs
		}
		subs[connID] = struct{}{}
		added = append(added, sym)
	}
	return added
}

// -----------------------------------------------------------------------------

// UnsubscribeAll forgets connID everywhere and closes its sink. Unknown ids are ignored.
func (h *SubscriptionHub) UnsubscribeAll(connID string) {
	h.mu.Lock()
	sink := h.removeLocked(connID)
	h.mu.Unlock()

	if sink != nil {
		sink.Close()
	}
}

func (h *SubscriptionHub) removeLocked(connID string) interfaces.ISubscriber {
	for sym := range h.byConn[connID] {
		if subs, ok := h.bySymbol[sym]; ok {
			delete(subs, connID)
			if len(subs) == 0 {
				delete(h.bySymbol, sym)
			}
		}
	}
	delete(h.byConn, connID)

	sink := h.sinks[connID]
	delete(h.sinks, connID)
	return sink
}

// CloseAll drops every connection.
func (h *SubscriptionHub) CloseAll() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.byConn))
	for id := range h.byConn {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.UnsubscribeAll(id)
	}
}

// -----------------------------------------------------------------------------

// Publish delivers payload to every subscriber of symbol. A failed delivery
// removes that connection and never stops delivery to the others.
func (h *SubscriptionHub) Publish(symbol string, payload interface{}) []DeliveryOutcome {
	h.mu.RLock()
	targets := make([]interfaces.ISubscriber, 0, len(h.bySymbol[symbol]))
	var orphans []string
	for id := range h.bySymbol[symbol] {
		if sink, ok := h.sinks[id]; ok {
			targets = append(targets, sink)
		} else {
			orphans = append(orphans, id)
		}
	}
	h.mu.RUnlock()

	outcomes := make([]DeliveryOutcome, 0, len(targets)+len(orphans))
	for _, sink := range targets {
		outcomes = append(outcomes, h.deliver(sink, payload))
	}
	for _, id := range orphans {
		// subscribed but never registered: nothing to deliver to
		outcomes = append(outcomes, DeliveryOutcome{ConnID: id, Err: helpers.NewConnectionError(id, errNotRegistered)})
	}

	h.dropFailed(outcomes)
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].ConnID < outcomes[j].ConnID })
	return outcomes
}

// Send delivers payload to one connection with the same failure policy as Publish.
func (h *SubscriptionHub) Send(connID string, payload interface{}) DeliveryOutcome {
	h.mu.RLock()
	sink, ok := h.sinks[connID]
	h.mu.RUnlock()

	if !ok {
		return DeliveryOutcome{ConnID: connID, Err: helpers.NewConnectionError(connID, errNotRegistered)}
	}
	outcome := h.deliver(sink, payload)
	h.dropFailed([]DeliveryOutcome{outcome})
	return outcome
}

func (h *SubscriptionHub) deliver(sink interfaces.ISubscriber, payload interface{}) DeliveryOutcome {
	if err := sink.Deliver(payload); err != nil {
		return DeliveryOutcome{ConnID: sink.ID(), Err: helpers.NewConnectionError(sink.ID(), err)}
	}
	return DeliveryOutcome{ConnID: sink.ID()}
}

func (h *SubscriptionHub) dropFailed(outcomes []DeliveryOutcome) {
	for _, o := range outcomes {
		if o.Err == nil {
			continue
		}
		h.Logger.Info("Dropping connection %s: %v", o.ConnID, o.Err)
		h.UnsubscribeAll(o.ConnID)
	}
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

// Symbols returns every symbol with at least one subscriber, sorted.
func (h *SubscriptionHub) Symbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.bySymbol))
	for sym := range h.bySymbol {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (h *SubscriptionHub) SubscriberCount(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bySymbol[symbol])
}

func (h *SubscriptionHub) IsSubscribed(connID, symbol string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.bySymbol[symbol][connID]
	return ok
}

// ConnectionCount counts registered connections.
func (h *SubscriptionHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}
