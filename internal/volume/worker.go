package volume

import (
	"context"
	"log"
	"time"
)

// StartRecomputeWorker runs the projection sweep on a fixed interval until
// the context is cancelled. The first sweep runs immediately.
func (s *Service) StartRecomputeWorker(ctx context.Context, interval time.Duration) {
	run := func() {
		n, err := s.RecomputeAll(ctx)
		if err != nil {
			log.Printf("[volume] recompute sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[volume] recomputed %d volume records", n)
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
