package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/dto/response"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve_HoldsSeatsUntilDeadline(t *testing.T) {
	f := newFixture(t)

	res, err := f.reserve(f.normal.ID, "B1-A1", "B1-A2")
	require.NoError(t, err)

	assert.Equal(t, entity.ReservationStatusHeld, res.Status)
	assert.Equal(t, entity.ReservationKindHold, res.Kind)
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, t0.Add(15*time.Minute), *res.ExpiresAt)
	assert.Equal(t, 25.0, res.Total)
	assert.Equal(t, 2, res.Tickets)
	require.Len(t, res.LineItems, 2)
	assert.Equal(t, "B1-A1", res.LineItems[0].SeatLabel)
	assert.Equal(t, 12.50, res.LineItems[0].UnitPrice)

	states := f.seatStates()
	assert.Equal(t, response.SeatStateHeld, states["B1-A1"])
	assert.Equal(t, response.SeatStateHeld, states["B1-A2"])
	assert.Equal(t, response.SeatStateFree, states["B1-B1"])

	assert.Equal(t, 1, f.publisher.count(QueueReservationHeld))
}

func TestReserve_NeverDiscountsVIP(t *testing.T) {
	f := newFixture(t)

	res, err := f.reserve(f.vip.ID, "B1-A1")
	require.NoError(t, err)
	assert.Zero(t, res.Discount)
	assert.Equal(t, 12.50, res.Total)
}

// Showtime with seats {A1, A2}: a second customer cannot take A1, the first
// confirms, availability shows A1 sold and A2 free.
func TestScenario_ConflictThenConfirm(t *testing.T) {
	f := newFixture(t)

	first, err := f.reserve(f.normal.ID, "B1-A1")
	require.NoError(t, err)

	_, err = f.reserve(f.vip.ID, "B1-A1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	var conflict *SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"B1-A1"}, conflict.Labels)
	assert.Equal(t, []uuid.UUID{uuid.MustParse(f.seat("B1-A1"))}, conflict.SeatIDs)

	confirmed, err := f.svc.Reservation.Confirm(f.ctx, nil, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusSold, confirmed.Status)
	assert.Nil(t, confirmed.ExpiresAt)

	states := f.seatStates()
	assert.Equal(t, response.SeatStateSold, states["B1-A1"])
	assert.Equal(t, response.SeatStateFree, states["B1-A2"])
}

// Reserve at t0, confirm at t0+16m: Expired, the hold is cancelled and the seat is free again.
func TestScenario_ConfirmAfterExpiry(t *testing.T) {
	f := newFixture(t)

	res, err := f.reserve(f.normal.ID, "B1-A2")
	require.NoError(t, err)

	f.clock.Advance(16 * time.Minute)

	_, err = f.svc.Reservation.Confirm(f.ctx, nil, res.ID)
	assert.ErrorIs(t, err, ErrExpired)

	got, err := f.svc.Reservation.GetReservation(f.ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusCancelled, got.Status)
	assert.Nil(t, got.ExpiresAt)
	assert.Nil(t, got.ClosedBy)

	assert.Equal(t, response.SeatStateFree, f.seatStates()["B1-A2"])
	assert.Equal(t, 1, f.publisher.count(QueueReservationCancelled))
}

func TestConfirm_ExpiryBoundary(t *testing.T) {
	t.Run("one nanosecond before the deadline confirms", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.reserve(f.normal.ID, "B1-A1")
		require.NoError(t, err)

		f.clock.Advance(15*time.Minute - time.Nanosecond)
		confirmed, err := f.svc.Reservation.Confirm(f.ctx, nil, res.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.ReservationStatusSold, confirmed.Status)
	})

	t.Run("at the deadline expires", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.reserve(f.normal.ID, "B1-A1")
		require.NoError(t, err)

		f.clock.Advance(15 * time.Minute)
		_, err = f.svc.Reservation.Confirm(f.ctx, nil, res.ID)
		assert.ErrorIs(t, err, ErrExpired)
	})
}

func TestConfirm_RecordsOperator(t *testing.T) {
	f := newFixture(t)
	operator := uuid.New()

	res, err := f.svc.Reservation.Reserve(f.ctx, &operator, &request.ReserveRequest{
		CustomerID: f.normal.ID,
		ShowtimeID: f.showtime.ID,
		SeatIDs:    []string{f.seat("B1-B1")},
	})
	require.NoError(t, err)
	require.NotNil(t, res.OperatorID)
	assert.Equal(t, operator.String(), *res.OperatorID)

	confirmed, err := f.svc.Reservation.Confirm(f.ctx, &operator, res.ID)
	require.NoError(t, err)
	require.NotNil(t, confirmed.ClosedBy)
	assert.Equal(t, operator.String(), *confirmed.ClosedBy)
}

func TestConfirm_InvalidStates(t *testing.T) {
	f := newFixture(t)

	res, err := f.reserve(f.normal.ID, "B1-A1")
	require.NoError(t, err)
	_, err = f.svc.Reservation.Confirm(f.ctx, nil, res.ID)
	require.NoError(t, err)

	_, err = f.svc.Reservation.Confirm(f.ctx, nil, res.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	var stateErr *InvalidStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, entity.ReservationStatusSold, stateErr.State)

	_, err = f.svc.Reservation.Cancel(f.ctx, nil, res.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.Reservation.Confirm(f.ctx, nil, uuid.NewString())
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = f.svc.Reservation.Confirm(f.ctx, nil, "not-a-uuid")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancel_FreesSeats(t *testing.T) {
	f := newFixture(t)

	res, err := f.reserve(f.normal.ID, "B1-A1", "B1-B2")
	require.NoError(t, err)

	cancelled, err := f.svc.Reservation.Cancel(f.ctx, nil, res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusCancelled, cancelled.Status)

	states := f.seatStates()
	assert.Equal(t, response.SeatStateFree, states["B1-A1"])
	assert.Equal(t, response.SeatStateFree, states["B1-B2"])

	again, err := f.reserve(f.vip.ID, "B1-A1", "B1-B2")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusHeld, again.Status)

	_, err = f.svc.Reservation.Cancel(f.ctx, nil, res.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReserve_RejectsBadSelections(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		req     *request.ReserveRequest
		wantErr error
	}{
		{
			name:    "empty selection",
			req:     &request.ReserveRequest{CustomerID: f.normal.ID, ShowtimeID: f.showtime.ID},
			wantErr: ErrEmptySelection,
		},
		{
			name: "duplicate seats",
			req: &request.ReserveRequest{
				CustomerID: f.normal.ID,
				ShowtimeID: f.showtime.ID,
				SeatIDs:    []string{f.seat("B1-A1"), f.seat("B1-A1")},
			},
			wantErr: ErrValidation,
		},
		{
			name: "malformed seat id",
			req: &request.ReserveRequest{
				CustomerID: f.normal.ID,
				ShowtimeID: f.showtime.ID,
				SeatIDs:    []string{"A1"},
			},
			wantErr: ErrValidation,
		},
		{
			name: "unknown showtime",
			req: &request.ReserveRequest{
				CustomerID: f.normal.ID,
				ShowtimeID: uuid.NewString(),
				SeatIDs:    []string{f.seat("B1-A1")},
			},
			wantErr: ErrShowtimeNotFound,
		},
		{
			name: "unknown customer",
			req: &request.ReserveRequest{
				CustomerID: uuid.NewString(),
				ShowtimeID: f.showtime.ID,
				SeatIDs:    []string{f.seat("B1-A1")},
			},
			wantErr: ErrCustomerNotFound,
		},
		{
			name: "seat outside the room",
			req: &request.ReserveRequest{
				CustomerID: f.normal.ID,
				ShowtimeID: f.showtime.ID,
				SeatIDs:    []string{f.seat("B1-A1"), uuid.NewString()},
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Reservation.Reserve(f.ctx, nil, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// nothing leaked from the failed attempts
	for label, state := range f.seatStates() {
		assert.Equal(t, response.SeatStateFree, state, label)
	}
}

func TestReserve_SeatNotFoundListsMissingIDs(t *testing.T) {
	f := newFixture(t)
	ghost := uuid.New()

	_, err := f.svc.Reservation.Reserve(f.ctx, nil, &request.ReserveRequest{
		CustomerID: f.normal.ID,
		ShowtimeID: f.showtime.ID,
		SeatIDs:    []string{f.seat("B1-A1"), ghost.String()},
	})

	var notFound *SeatNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, []uuid.UUID{ghost}, notFound.SeatIDs)
}

func TestReserve_ConcurrentRequestsAllocateOnce(t *testing.T) {
	f := newFixture(t)
	const workers = 32

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			// overlapping selections in both orders
			labels := []string{"B1-A1", "B1-A2"}
			if i%2 == 1 {
				labels = []string{"B1-A2", "B1-A1"}
			}
			_, err := f.reserve(f.normal.ID, labels...)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)

	avail, err := f.svc.Availability.GetAvailability(f.ctx, f.showtime.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, avail.HeldCount)
	assert.Equal(t, 2, avail.FreeCount)
}

func TestDirectSale_AppliesVIPDiscount(t *testing.T) {
	f := newFixture(t)

	sale, err := f.sell(f.vip.ID, "B1-A1", "B1-A2", "B1-B1")
	require.NoError(t, err)

	assert.Equal(t, entity.ReservationStatusSold, sale.Status)
	assert.Equal(t, entity.ReservationKindDirectSale, sale.Kind)
	assert.Nil(t, sale.ExpiresAt)
	assert.Equal(t, 37.50, sale.Subtotal)
	assert.Equal(t, 10.0, sale.DiscountPercent)
	assert.Equal(t, 3.75, sale.Discount)
	assert.Equal(t, 33.75, sale.Total)
	assert.Equal(t, 3, sale.Tickets)

	regular, err := f.sell(f.normal.ID, "B1-B2")
	require.NoError(t, err)
	assert.Zero(t, regular.Discount)
	assert.Equal(t, 12.50, regular.Total)

	assert.Equal(t, 2, f.publisher.count(QueueReservationSold))
}

func TestDirectSale_PartialConflictWritesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.reserve(f.normal.ID, "B1-A2")
	require.NoError(t, err)

	_, err = f.sell(f.vip.ID, "B1-A1", "B1-A2")
	assert.ErrorIs(t, err, ErrConflict)

	states := f.seatStates()
	assert.Equal(t, response.SeatStateFree, states["B1-A1"])
	assert.Equal(t, response.SeatStateHeld, states["B1-A2"])

	kind := string(entity.ReservationKindDirectSale)
	history, err := f.svc.Reservation.ListReservations(f.ctx, &request.ReservationFilterRequest{Kind: kind})
	require.NoError(t, err)
	assert.Empty(t, history.Data)
}

func TestSweepExpired_IsIdempotent(t *testing.T) {
	f := newFixture(t)

	expiring, err := f.reserve(f.normal.ID, "B1-A1")
	require.NoError(t, err)
	_, err = f.reserve(f.vip.ID, "B1-A2")
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	fresh, err := f.reserve(f.normal.ID, "B1-B1")
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)

	n, err := f.svc.Reservation.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.Reservation.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := f.svc.Reservation.GetReservation(f.ctx, expiring.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusCancelled, got.Status)

	stillHeld, err := f.svc.Reservation.GetReservation(f.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusHeld, stillHeld.Status)

	states := f.seatStates()
	assert.Equal(t, response.SeatStateFree, states["B1-A1"])
	assert.Equal(t, response.SeatStateFree, states["B1-A2"])
	assert.Equal(t, response.SeatStateHeld, states["B1-B1"])
}

func TestSweepExpired_ConcurrentSweepersCancelOnce(t *testing.T) {
	f := newFixture(t)

	for _, label := range []string{"B1-A1", "B1-A2", "B1-B1", "B1-B2"} {
		_, err := f.reserve(f.normal.ID, label)
		require.NoError(t, err)
	}
	f.clock.Advance(20 * time.Minute)

	const sweepers = 6
	counts := make([]int, sweepers)
	var wg sync.WaitGroup
	for i := 0; i < sweepers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := f.svc.Reservation.SweepExpired(f.ctx)
			assert.NoError(t, err)
			counts[i] = n
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 4, total)
	assert.Equal(t, 4, f.publisher.count(QueueReservationCancelled))
}

func TestSweepExpired_RespectsBatchSize(t *testing.T) {
	f := newFixture(t)
	f.config.Booking.SweepBatchSize = 1

	for _, label := range []string{"B1-A1", "B1-A2"} {
		_, err := f.reserve(f.normal.ID, label)
		require.NoError(t, err)
	}
	f.clock.Advance(time.Hour)

	n, err := f.svc.Reservation.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.Reservation.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListReservations_Filters(t *testing.T) {
	f := newFixture(t)

	_, err := f.reserve(f.normal.ID, "B1-A1")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.sell(f.vip.ID, "B1-A2")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.sell(f.normal.ID, "B1-B1")
	require.NoError(t, err)

	all, err := f.svc.Reservation.ListReservations(f.ctx, &request.ReservationFilterRequest{ShowtimeID: f.showtime.ID})
	require.NoError(t, err)
	require.Len(t, all.Data, 3)
	assert.Equal(t, entity.ReservationKindDirectSale, all.Data[0].Kind, "newest first")

	sold, err := f.svc.Reservation.ListReservations(f.ctx, &request.ReservationFilterRequest{
		CustomerID: f.normal.ID,
		Status:     "sold",
	})
	require.NoError(t, err)
	assert.Len(t, sold.Data, 1)

	day := t0.Format("2006-01-02")
	sameDay, err := f.svc.Reservation.ListReservations(f.ctx, &request.ReservationFilterRequest{From: day, To: day})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sameDay.Pagination.Total)

	paged, err := f.svc.Reservation.ListReservations(f.ctx, &request.ReservationFilterRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 2, PerPage: 2},
	})
	require.NoError(t, err)
	assert.Len(t, paged.Data, 1)
	assert.Equal(t, 2, paged.Pagination.TotalPages)
	assert.False(t, paged.Pagination.HasNext)

	_, err = f.svc.Reservation.ListReservations(f.ctx, &request.ReservationFilterRequest{Status: "pending"})
	assert.ErrorIs(t, err, ErrValidation)
}
