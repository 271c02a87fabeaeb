package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/dto/response"
	"cinema-reservation/pkg/cache"
	"cinema-reservation/pkg/clock"
	"cinema-reservation/pkg/messaging"
	"cinema-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationService interface {
	// Reserve holds seats for the hold duration. operator is nil for self-service.
	Reserve(ctx context.Context, operator *uuid.UUID, req *request.ReserveRequest) (*response.ReservationResponse, error)
	// DirectSale sells seats immediately, applying the VIP discount.
	DirectSale(ctx context.Context, operator *uuid.UUID, req *request.DirectSaleRequest) (*response.ReservationResponse, error)
	Confirm(ctx context.Context, operator *uuid.UUID, reservationID string) (*response.ReservationResponse, error)
	Cancel(ctx context.Context, operator *uuid.UUID, reservationID string) (*response.ReservationResponse, error)
	GetReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error)
	ListReservations(ctx context.Context, req *request.ReservationFilterRequest) (*response.PaginatedResponse[response.ReservationResponse], error)
	// SweepExpired cancels one batch of expired holds and returns how many this call cancelled.
	SweepExpired(ctx context.Context) (int, error)
}

type reservationService struct {
	repo      *repository.Repository
	config    *utils.Config
	cache     cache.Cache
	publisher messaging.Publisher
	clock     clock.Clock
	log       *zap.Logger
}

func NewReservationService(repo *repository.Repository, config *utils.Config, log *zap.Logger, deps Dependencies) ReservationService {
	deps = deps.withDefaults()
	return &reservationService{
		repo:      repo,
		config:    config,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		log:       log.With(zap.String("service", "reservation")),
	}
}

type seatSelection struct {
	customerID uuid.UUID
	showtimeID uuid.UUID
	seatIDs    []uuid.UUID
}

// allocation is what a committed reserve or direct sale produced.
type allocation struct {
	reservation *entity.Reservation
	items       []*entity.LineItem
	seats       []*entity.Seat
	pricing     Pricing
}

func (s *reservationService) Reserve(ctx context.Context, operator *uuid.UUID, req *request.ReserveRequest) (*response.ReservationResponse, error) {
	sel, err := parseSelection(req, req.CustomerID, req.ShowtimeID, req.SeatIDs)
	if err != nil {
		s.log.Warn("Reserve rejected", zap.Error(err))
		return nil, err
	}

	alloc, err := s.allocate(ctx, operator, sel, s.config.Booking.HoldDuration())
	if err != nil {
		return nil, err
	}

	s.log.Info("Seats held",
		zap.String("reservation_id", alloc.reservation.ID.String()),
		zap.String("code", alloc.reservation.Code),
		zap.String("showtime_id", sel.showtimeID.String()),
		zap.Int("seat_count", len(alloc.seats)),
		zap.Timep("expires_at", alloc.reservation.ExpiresAt),
	)
	s.afterCommit(ctx, alloc.reservation, sel.seatIDs, "reserved")

	return allocationResponse(alloc), nil
}

func (s *reservationService) DirectSale(ctx context.Context, operator *uuid.UUID, req *request.DirectSaleRequest) (*response.ReservationResponse, error) {
	sel, err := parseSelection(req, req.CustomerID, req.ShowtimeID, req.SeatIDs)
	if err != nil {
		s.log.Warn("Direct sale rejected", zap.Error(err))
		return nil, err
	}

	alloc, err := s.allocate(ctx, operator, sel, 0)
	if err != nil {
		return nil, err
	}

	s.log.Info("Seats sold",
		zap.String("reservation_id", alloc.reservation.ID.String()),
		zap.String("code", alloc.reservation.Code),
		zap.String("showtime_id", sel.showtimeID.String()),
		zap.Int("seat_count", len(alloc.seats)),
		zap.Float64("total", alloc.reservation.Total),
		zap.Float64("discount", alloc.reservation.Discount),
	)
	s.afterCommit(ctx, alloc.reservation, sel.seatIDs, "direct_sale")

	return allocationResponse(alloc), nil
}

// allocate writes a reservation and its line items in one transaction. hold > 0
// creates a hold, hold == 0 a sold direct sale.
func (s *reservationService) allocate(ctx context.Context, operator *uuid.UUID, sel *seatSelection, hold time.Duration) (*allocation, error) {
	var alloc allocation

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		// 1. Referenced rows
		showtime, err := tx.Showtime.FindByID(ctx, sel.showtimeID)
		if err != nil {
			return fmt.Errorf("find showtime: %w", err)
		}
		if showtime == nil {
			return ErrShowtimeNotFound
		}

		customer, err := tx.Customer.FindByID(ctx, sel.customerID)
		if err != nil {
			return fmt.Errorf("find customer: %w", err)
		}
		if customer == nil {
			return ErrCustomerNotFound
		}

		seats, err := tx.Seat.FindByIDs(ctx, showtime.RoomID, sel.seatIDs)
		if err != nil {
			return fmt.Errorf("find seats: %w", err)
		}
		if missing := missingSeats(sel.seatIDs, seats); len(missing) > 0 {
			return &SeatNotFoundError{SeatIDs: missing}
		}

		// 2. Serialize with every other writer of these seats, then check for conflicts
		if err := tx.LineItem.LockSeats(ctx, showtime.ID, sel.seatIDs); err != nil {
			return err
		}
		taken, err := tx.LineItem.FindActiveBySeats(ctx, showtime.ID, sel.seatIDs)
		if err != nil {
			return fmt.Errorf("check seat availability: %w", err)
		}
		if conflict := seatConflict(seats, taken); conflict != nil {
			return conflict
		}

		// 3. Price and persist
		discountPercent := 0.0
		if hold == 0 && customer.IsVIP() {
			discountPercent = s.config.Booking.VIPDiscountPercent
		}
		pricing := priceSeats(showtime.BasePrice, len(seats), discountPercent)

		now := s.clock.Now()
		res := newReservation(showtime.ID, customer.ID, operator, pricing, now, hold)
		items := newLineItems(res, seats, showtime.BasePrice, now)

		if err := tx.Reservation.Create(ctx, res); err != nil {
			return err
		}
		if err := tx.LineItem.CreateBatch(ctx, items); err != nil {
			return err
		}

		alloc = allocation{reservation: res, items: items, seats: seats, pricing: pricing}
		return nil
	})
	if err != nil {
		var conflict *SeatConflictError
		if errors.As(err, &conflict) {
			s.log.Info("Seat conflict",
				zap.String("showtime_id", sel.showtimeID.String()),
				zap.Strings("seats", conflict.Labels),
			)
		}
		return nil, err
	}

	return &alloc, nil
}

func (s *reservationService) Confirm(ctx context.Context, operator *uuid.UUID, reservationID string) (*response.ReservationResponse, error) {
	id, err := parseID("id", reservationID)
	if err != nil {
		return nil, err
	}

	var (
		res       *entity.Reservation
		expired   bool
		expiredAt time.Time
	)
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		current, err := tx.Reservation.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("find reservation: %w", err)
		}
		if current == nil {
			return ErrReservationNotFound
		}
		if current.ExpiresAt != nil {
			expiredAt = *current.ExpiresAt
		}

		expired, err = confirmReservation(current, operator, s.clock.Now())
		if err != nil {
			return err
		}
		if err := tx.Reservation.UpdateState(ctx, current); err != nil {
			return err
		}

		res = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if expired {
		s.log.Info("Hold expired before confirmation",
			zap.String("reservation_id", res.ID.String()),
			zap.Time("expired_at", expiredAt),
		)
		s.afterCommit(ctx, res, nil, "expired")
		return nil, fmt.Errorf("%w: reservation %s expired at %s", ErrExpired, res.Code, expiredAt.Format(time.RFC3339))
	}

	s.log.Info("Reservation confirmed", zap.String("reservation_id", res.ID.String()))
	s.afterCommit(ctx, res, nil, "confirmed")

	resp := response.ReservationToResponse(res)
	return &resp, nil
}

func (s *reservationService) Cancel(ctx context.Context, operator *uuid.UUID, reservationID string) (*response.ReservationResponse, error) {
	id, err := parseID("id", reservationID)
	if err != nil {
		return nil, err
	}

	res, err := s.cancel(ctx, id, operator, false)
	if err != nil {
		return nil, err
	}

	s.log.Info("Reservation cancelled", zap.String("reservation_id", res.ID.String()))
	s.afterCommit(ctx, res, nil, "cancelled")

	resp := response.ReservationToResponse(res)
	return &resp, nil
}

// cancel moves a hold to cancelled. With onlyExpired it refuses holds that are still valid.
func (s *reservationService) cancel(ctx context.Context, id uuid.UUID, operator *uuid.UUID, onlyExpired bool) (*entity.Reservation, error) {
	var res *entity.Reservation

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		current, err := tx.Reservation.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("find reservation: %w", err)
		}
		if current == nil {
			return ErrReservationNotFound
		}

		now := s.clock.Now()
		if onlyExpired && current.Status == entity.ReservationStatusHeld && !isExpired(current, now) {
			return &InvalidStateError{ReservationID: current.ID, State: current.Status, Action: "expire"}
		}
		if err := cancelReservation(current, operator, now); err != nil {
			return err
		}
		if err := tx.Reservation.UpdateState(ctx, current); err != nil {
			return err
		}

		res = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (s *reservationService) SweepExpired(ctx context.Context) (int, error) {
	ids, err := s.repo.Reservation.FindExpiredHolds(ctx, s.clock.Now(), s.config.Booking.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find expired holds: %w", err)
	}

	cancelled := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return cancelled, err
		}

		res, err := s.cancel(ctx, id, nil, true)
		switch {
		case err == nil:
			cancelled++
			s.afterCommit(ctx, res, nil, "expired")
		case errors.Is(err, ErrInvalidState), errors.Is(err, ErrNotFound):
			// confirmed, cancelled or swept elsewhere since the scan
			s.log.Debug("Skipping hold closed concurrently", zap.String("reservation_id", id.String()))
		default:
			s.log.Error("Failed to release expired hold",
				zap.Error(err),
				zap.String("reservation_id", id.String()),
			)
		}
	}

	if cancelled > 0 {
		s.log.Info("Expired holds released", zap.Int("count", cancelled), zap.Int("scanned", len(ids)))
	}
	return cancelled, nil
}

// GetReservation reads outside a transaction. Line items and seats are never updated once
// written, so only the reservation row can move between the reads and it is read first.
func (s *reservationService) GetReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error) {
	id, err := parseID("id", reservationID)
	if err != nil {
		return nil, err
	}

	res, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}

	items, err := s.repo.LineItem.FindByReservationID(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("find line items: %w", err)
	}

	seatsByID := make(map[uuid.UUID]*entity.Seat, len(items))
	if showtime, err := s.repo.Showtime.FindByID(ctx, res.ShowtimeID); err != nil {
		return nil, fmt.Errorf("find showtime: %w", err)
	} else if showtime != nil {
		seatIDs := make([]uuid.UUID, len(items))
		for i, item := range items {
			seatIDs[i] = item.SeatID
		}
		seats, err := s.repo.Seat.FindByIDs(ctx, showtime.RoomID, seatIDs)
		if err != nil {
			return nil, fmt.Errorf("find seats: %w", err)
		}
		for _, seat := range seats {
			seatsByID[seat.ID] = seat
		}
	}

	resp := response.ReservationToResponse(res)
	resp.Tickets = len(items)
	resp.LineItems = make([]response.LineItemResponse, len(items))
	for i, item := range items {
		resp.LineItems[i] = response.LineItemToResponse(item, seatsByID[item.SeatID])
	}
	return &resp, nil
}

func (s *reservationService) ListReservations(ctx context.Context, req *request.ReservationFilterRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	filter, err := buildFilter(req)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Reservation.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	reservations, err := s.repo.Reservation.List(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	data := make([]response.ReservationResponse, len(reservations))
	for i, res := range reservations {
		data[i] = response.ReservationToResponse(res)
	}

	return response.NewPaginatedResponse(data, req.CurrentPage(), req.Limit(), int64(total)), nil
}

// ==================== HELPERS ====================

func parseSelection(req any, customerID, showtimeID string, seatIDs []string) (*seatSelection, error) {
	if len(seatIDs) == 0 {
		return nil, ErrEmptySelection
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	sel := &seatSelection{seatIDs: make([]uuid.UUID, len(seatIDs))}
	var err error
	if sel.customerID, err = parseID("customer_id", customerID); err != nil {
		return nil, err
	}
	if sel.showtimeID, err = parseID("showtime_id", showtimeID); err != nil {
		return nil, err
	}
	for i, raw := range seatIDs {
		if sel.seatIDs[i], err = parseID("seat_ids", raw); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, newValidationError(map[string]string{field: "Must be a valid UUID"})
	}
	return id, nil
}

const dateLayout = "2006-01-02"

func buildFilter(req *request.ReservationFilterRequest) (entity.ReservationFilter, error) {
	var f entity.ReservationFilter

	for _, opt := range []struct {
		field string
		raw   string
		dst   **uuid.UUID
	}{
		{"showtime_id", req.ShowtimeID, &f.ShowtimeID},
		{"customer_id", req.CustomerID, &f.CustomerID},
		{"operator_id", req.OperatorID, &f.OperatorID},
	} {
		if opt.raw == "" {
			continue
		}
		id, err := parseID(opt.field, opt.raw)
		if err != nil {
			return f, err
		}
		*opt.dst = &id
	}

	if req.Status != "" {
		status := entity.ReservationStatus(req.Status)
		f.Status = &status
	}
	if req.Kind != "" {
		kind := entity.ReservationKind(req.Kind)
		f.Kind = &kind
	}
	if req.From != "" {
		from, err := time.ParseInLocation(dateLayout, req.From, time.UTC)
		if err != nil {
			return f, newValidationError(map[string]string{"from": "Must match layout " + dateLayout})
		}
		f.From = &from
	}
	if req.To != "" {
		to, err := time.ParseInLocation(dateLayout, req.To, time.UTC)
		if err != nil {
			return f, newValidationError(map[string]string{"to": "Must match layout " + dateLayout})
		}
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return f, newValidationError(map[string]string{"to": "Must not be before from"})
	}

	return f, nil
}

func allocationResponse(alloc *allocation) *response.ReservationResponse {
	resp := response.ReservationToResponse(alloc.reservation)
	resp.Tickets = alloc.pricing.Tickets

	seatsByID := make(map[uuid.UUID]*entity.Seat, len(alloc.seats))
	for _, seat := range alloc.seats {
		seatsByID[seat.ID] = seat
	}
	resp.LineItems = make([]response.LineItemResponse, len(alloc.items))
	for i, item := range alloc.items {
		resp.LineItems[i] = response.LineItemToResponse(item, seatsByID[item.SeatID])
	}
	return &resp
}
