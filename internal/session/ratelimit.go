package session

import "time"

// rateLimited implements spec.md §4.4's one-second sliding window:
// reset the window when it's been open for more than a second,
// increment, and report whether the configured rate has been
// exceeded (in which case the caller must drop the frame).
func (s *Session) rateLimited() bool {
	s.rateMu.Lock()
	defer s.rateMu.Unlock()

	now := time.Now()
	if s.windowStart.IsZero() || now.Sub(s.windowStart) > time.Second {
		s.windowStart = now
		s.windowCount = 0
	}
	s.windowCount++
	return s.windowCount > s.cfg.MessageRateLimit
}
