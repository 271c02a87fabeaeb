package usecase

import (
	"context"
	"time"

	"cinema-reservation/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Queues receiving ledger events, one per resulting status.
const (
	QueueReservationHeld      = "reservation.held"
	QueueReservationSold      = "reservation.sold"
	QueueReservationCancelled = "reservation.cancelled"
)

func EventQueues() []string {
	return []string{QueueReservationHeld, QueueReservationSold, QueueReservationCancelled}
}

// ReservationEvent is published after a ledger mutation commits.
type ReservationEvent struct {
	ReservationID string                   `json:"reservation_id"`
	Code          string                   `json:"code"`
	ShowtimeID    string                   `json:"showtime_id"`
	CustomerID    string                   `json:"customer_id"`
	Kind          entity.ReservationKind   `json:"kind"`
	Status        entity.ReservationStatus `json:"status"`
	Total         float64                  `json:"total"`
	SeatIDs       []string                 `json:"seat_ids,omitempty"`
	Reason        string                   `json:"reason,omitempty"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

func queueFor(status entity.ReservationStatus) string {
	switch status {
	case entity.ReservationStatusHeld:
		return QueueReservationHeld
	case entity.ReservationStatusSold:
		return QueueReservationSold
	default:
		return QueueReservationCancelled
	}
}

func newReservationEvent(res *entity.Reservation, seatIDs []uuid.UUID, reason string, now time.Time) ReservationEvent {
	ids := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		ids[i] = id.String()
	}
	return ReservationEvent{
		ReservationID: res.ID.String(),
		Code:          res.Code,
		ShowtimeID:    res.ShowtimeID.String(),
		CustomerID:    res.CustomerID.String(),
		Kind:          res.Kind,
		Status:        res.Status,
		Total:         res.Total,
		SeatIDs:       ids,
		Reason:        reason,
		OccurredAt:    now,
	}
}

// afterCommit moves the showtime's availability cache to a new generation and
// announces the transition. Both are best effort: the ledger is already committed.
func (s *reservationService) afterCommit(ctx context.Context, res *entity.Reservation, seatIDs []uuid.UUID, reason string) {
	if _, err := s.cache.Incr(ctx, availabilityGenerationKey(res.ShowtimeID), generationTTL); err != nil {
		s.log.Warn("Failed to invalidate availability cache",
			zap.Error(err),
			zap.String("showtime_id", res.ShowtimeID.String()),
		)
	}

	event := newReservationEvent(res, seatIDs, reason, s.clock.Now())
	if err := s.publisher.Publish(ctx, queueFor(res.Status), event); err != nil {
		s.log.Warn("Failed to publish reservation event",
			zap.Error(err),
			zap.String("reservation_id", res.ID.String()),
			zap.String("status", string(res.Status)),
		)
	}
}
