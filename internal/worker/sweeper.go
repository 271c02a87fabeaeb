package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpirySweeper is the part of the reservation service the sweeper drives.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper releases expired holds on a fixed interval.
type Sweeper struct {
	service   ExpirySweeper
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

func NewSweeper(service ExpirySweeper, interval time.Duration, batchSize int, log *zap.Logger) *Sweeper {
	return &Sweeper{
		service:   service,
		interval:  interval,
		batchSize: batchSize,
		log:       log.With(zap.String("worker", "sweeper")),
	}
}

// Start runs the sweeper in its own goroutine. The returned channel is closed once it has stopped.
func (s *Sweeper) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return done
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Expiry sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick keeps sweeping while batches come back full, so a backlog drains within one interval.
func (s *Sweeper) tick(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := s.service.SweepExpired(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Error("Expiry sweep failed", zap.Error(err))
			}
			return
		}
		if n < s.batchSize {
			return
		}
	}
}
