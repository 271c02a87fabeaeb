package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"

	"github.com/google/uuid"
)

type reservationRepo struct{ view }

func (r reservationRepo) Create(_ context.Context, reservation *entity.Reservation) error {
	var taken bool
	r.read(func(s *Store) {
		for _, existing := range s.reservations {
			if existing.Code == reservation.Code {
				taken = true
				return
			}
		}
	})
	if taken {
		return fmt.Errorf("create reservation %s: %w", reservation.Code, repository.ErrDuplicate)
	}

	res := *reservation
	r.write(func(s *Store) { s.reservations[res.ID] = res })
	return nil
}

func (r reservationRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Reservation, error) {
	var out *entity.Reservation
	r.read(func(s *Store) {
		if res, ok := s.reservations[id]; ok {
			out = &res
		}
	})
	return out, nil
}

func (r reservationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	if err := r.lock(ctx, "reservation:"+id.String()); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r reservationRepo) UpdateState(_ context.Context, reservation *entity.Reservation) error {
	var exists bool
	r.read(func(s *Store) { _, exists = s.reservations[reservation.ID] })
	if !exists {
		return fmt.Errorf("update reservation %s: not found", reservation.ID.String())
	}

	next := *reservation
	r.write(func(s *Store) {
		res := s.reservations[next.ID]
		res.Status = next.Status
		res.ExpiresAt = next.ExpiresAt
		res.ClosedBy = next.ClosedBy
		res.ClosedAt = next.ClosedAt
		res.UpdatedAt = next.UpdatedAt
		s.reservations[next.ID] = res
	})
	return nil
}

func (r reservationRepo) FindExpiredHolds(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var expired []entity.Reservation
	r.read(func(s *Store) {
		for _, res := range s.reservations {
			if res.Status == entity.ReservationStatusHeld && res.ExpiresAt != nil && !res.ExpiresAt.After(now) {
				expired = append(expired, res)
			}
		}
	})
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(*expired[j].ExpiresAt) })

	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	ids := make([]uuid.UUID, len(expired))
	for i, res := range expired {
		ids[i] = res.ID
	}
	return ids, nil
}

func (r reservationRepo) List(_ context.Context, filter entity.ReservationFilter, limit, offset int) ([]*entity.Reservation, error) {
	matched := r.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r reservationRepo) Count(_ context.Context, filter entity.ReservationFilter) (int, error) {
	return len(r.match(filter)), nil
}

func (r reservationRepo) match(f entity.ReservationFilter) []*entity.Reservation {
	var out []*entity.Reservation
	r.read(func(s *Store) {
		for _, res := range s.reservations {
			switch {
			case f.ShowtimeID != nil && res.ShowtimeID != *f.ShowtimeID,
				f.CustomerID != nil && res.CustomerID != *f.CustomerID,
				f.OperatorID != nil && (res.OperatorID == nil || *res.OperatorID != *f.OperatorID),
				f.Status != nil && res.Status != *f.Status,
				f.Kind != nil && res.Kind != *f.Kind,
				f.From != nil && res.CreatedAt.Before(*f.From),
				f.To != nil && !res.CreatedAt.Before(*f.To):
				continue
			}
			out = append(out, &res)
		}
	})
	return out
}

type lineItemRepo struct{ view }

func (r lineItemRepo) CreateBatch(_ context.Context, items []*entity.LineItem) error {
	batch := make([]entity.LineItem, len(items))
	for i, item := range items {
		batch[i] = *item
	}
	r.write(func(s *Store) { s.lineItems = append(s.lineItems, batch...) })
	return nil
}

func (r lineItemRepo) FindByReservationID(_ context.Context, reservationID uuid.UUID) ([]*entity.LineItem, error) {
	var out []*entity.LineItem
	r.read(func(s *Store) {
		for _, item := range s.lineItems {
			if item.ReservationID == reservationID {
				out = append(out, &item)
			}
		}
	})
	return out, nil
}

func (r lineItemRepo) FindActiveBySeats(_ context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) ([]entity.SeatOccupancy, error) {
	wanted := make(map[uuid.UUID]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		wanted[id] = struct{}{}
	}
	return r.occupancy(showtimeID, func(seatID uuid.UUID) bool {
		_, ok := wanted[seatID]
		return ok
	}), nil
}

func (r lineItemRepo) FindActiveByShowtime(_ context.Context, showtimeID uuid.UUID) ([]entity.SeatOccupancy, error) {
	return r.occupancy(showtimeID, func(uuid.UUID) bool { return true }), nil
}

func (r lineItemRepo) occupancy(showtimeID uuid.UUID, keep func(uuid.UUID) bool) []entity.SeatOccupancy {
	var taken []entity.SeatOccupancy
	r.read(func(s *Store) {
		for _, item := range s.lineItems {
			if item.ShowtimeID != showtimeID || !keep(item.SeatID) {
				continue
			}
			res, ok := s.reservations[item.ReservationID]
			if !ok || !res.Status.IsActive() {
				continue
			}
			taken = append(taken, entity.SeatOccupancy{
				SeatID:        item.SeatID,
				ReservationID: res.ID,
				Status:        res.Status,
			})
		}
	})
	return taken
}

func (r lineItemRepo) LockSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) error {
	for _, key := range repository.SeatLockKeys(showtimeID, seatIDs) {
		if err := r.lock(ctx, "seat:"+key); err != nil {
			return err
		}
	}
	return nil
}
