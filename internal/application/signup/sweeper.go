package signup

import (
	"context"
	"log/slog"
	"time"
)

// Sweep removes pending registrations older than the TTL. The queue is in
// strict issuance order, so it only ever needs to look at the head: the
// moment the head is young enough, everything behind it is too. Entries
// already consumed by a successful confirm are skipped silently.
func (s *service) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) > 0 && now.Sub(s.queue[0].issuedAt) >= s.ttl {
		head := s.queue[0]
		s.queue = s.queue[1:]
		if s.pending.remove(head.kind, head.key) {
			slog.Debug("expired pending registration", "kind", head.kind, "key", head.key)
		}
	}
}

// RunSweeper runs Sweep at the given interval until ctx is cancelled.
// Ticks are serialized by the loop itself, so sweeps never overlap.
func (s *service) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.Sweep(now)
		}
	}
}
