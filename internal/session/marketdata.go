package session

import "github.com/ibsim/gateway/internal/gateway"

// isSubscribedTo is the IsSubscribedTo hook gateway.Registry.Broadcast
// consults; it is the authoritative check over this session's own
// market_data_subs table (spec.md §4.5).
func (s *Session) isSubscribedTo(symbol string) bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.marketDataSubs {
		if sub.contract.Symbol == symbol {
			return true
		}
	}
	return false
}

// deliverTicks is the Deliver hook: the broadcast sink of spec.md
// §4.4, emitting only the tick fields present in ticks, in the fixed
// order bid/ask/last price then bid/ask/volume size. It takes the
// same write lock a handler burst does, so a broadcast delivery cannot
// interleave with one (spec.md §5).
func (s *Session) deliverTicks(symbol string, ticks gateway.BroadcastTicks) {
	s.subMu.Lock()
	var reqID int64
	found := false
	for id, sub := range s.marketDataSubs {
		if sub.contract.Symbol == symbol {
			reqID = id
			found = true
			break
		}
	}
	s.subMu.Unlock()
	if !found {
		return
	}

	s.emitTicks(reqID, ticks)
}
