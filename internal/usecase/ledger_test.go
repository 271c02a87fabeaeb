package usecase

import (
	"testing"
	"time"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/dto/response"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceSeats(t *testing.T) {
	tests := []struct {
		name    string
		base    float64
		tickets int
		percent float64
		want    Pricing
	}{
		{"no discount", 12.50, 2, 0, Pricing{Subtotal: 25, Total: 25, Tickets: 2}},
		{"vip ten percent", 12.50, 3, 10, Pricing{Subtotal: 37.5, Discount: 3.75, DiscountPercent: 10, Total: 33.75, Tickets: 3}},
		{"rounds to cents", 3.333, 3, 0, Pricing{Subtotal: 10, Total: 10, Tickets: 3}},
		{"fifteen percent", 10, 1, 15, Pricing{Subtotal: 10, Discount: 1.5, DiscountPercent: 15, Total: 8.5, Tickets: 1}},
		{"free showing", 0, 4, 10, Pricing{DiscountPercent: 10, Tickets: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, priceSeats(tt.base, tt.tickets, tt.percent))
		})
	}
}

func TestNewReservation(t *testing.T) {
	operator := uuid.New()
	pricing := priceSeats(10, 1, 0)

	hold := newReservation(uuid.New(), uuid.New(), &operator, pricing, t0, 15*time.Minute)
	assert.Equal(t, entity.ReservationStatusHeld, hold.Status)
	assert.Equal(t, entity.ReservationKindHold, hold.Kind)
	require.NotNil(t, hold.ExpiresAt)
	assert.Equal(t, t0.Add(15*time.Minute), *hold.ExpiresAt)
	assert.Nil(t, hold.ClosedAt)
	assert.Regexp(t, `^RSV-20260502-180000-[0-9A-F]{8}$`, hold.Code)

	sale := newReservation(uuid.New(), uuid.New(), &operator, pricing, t0, 0)
	assert.Equal(t, entity.ReservationStatusSold, sale.Status)
	assert.Equal(t, entity.ReservationKindDirectSale, sale.Kind)
	assert.Nil(t, sale.ExpiresAt)
	assert.Equal(t, &operator, sale.ClosedBy)
}

func heldAt(now time.Time) *entity.Reservation {
	expires := now.Add(15 * time.Minute)
	return &entity.Reservation{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		Status:       entity.ReservationStatusHeld,
		ExpiresAt:    &expires,
	}
}

func TestConfirmReservation(t *testing.T) {
	operator := uuid.New()

	t.Run("before deadline sells", func(t *testing.T) {
		res := heldAt(t0)
		expired, err := confirmReservation(res, &operator, t0.Add(14*time.Minute))
		require.NoError(t, err)
		assert.False(t, expired)
		assert.Equal(t, entity.ReservationStatusSold, res.Status)
		assert.Nil(t, res.ExpiresAt)
		assert.Equal(t, &operator, res.ClosedBy)
	})

	t.Run("at deadline cancels for the system", func(t *testing.T) {
		res := heldAt(t0)
		expired, err := confirmReservation(res, &operator, t0.Add(15*time.Minute))
		require.NoError(t, err)
		assert.True(t, expired)
		assert.Equal(t, entity.ReservationStatusCancelled, res.Status)
		assert.Nil(t, res.ClosedBy)
	})

	t.Run("terminal states are rejected", func(t *testing.T) {
		for _, status := range []entity.ReservationStatus{entity.ReservationStatusSold, entity.ReservationStatusCancelled} {
			res := heldAt(t0)
			res.Status = status
			_, err := confirmReservation(res, &operator, t0)
			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Equal(t, status, res.Status)
		}
	})
}

func TestCancelReservation(t *testing.T) {
	res := heldAt(t0)
	require.NoError(t, cancelReservation(res, nil, t0.Add(time.Minute)))
	assert.Equal(t, entity.ReservationStatusCancelled, res.Status)
	assert.Nil(t, res.ExpiresAt)
	require.NotNil(t, res.ClosedAt)
	assert.Equal(t, t0.Add(time.Minute), *res.ClosedAt)

	err := cancelReservation(res, nil, t0)
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "cancel", stateErr.Action)
	assert.Contains(t, err.Error(), "cancelled")
}

func seatGrid(labels ...string) []*entity.Seat {
	seats := make([]*entity.Seat, len(labels))
	for i, l := range labels {
		seats[i] = &entity.Seat{
			BaseNoDelete: entity.NewBaseNoDelete(t0),
			Block:        "B1",
			Row:          l[:1],
			Number:       int(l[1] - '0'),
			Class:        entity.SeatClassStandard,
		}
	}
	return seats
}

func TestMissingSeats(t *testing.T) {
	seats := seatGrid("A1", "A2")
	ghost := uuid.New()

	assert.Empty(t, missingSeats([]uuid.UUID{seats[0].ID, seats[1].ID}, seats))
	assert.Equal(t, []uuid.UUID{ghost}, missingSeats([]uuid.UUID{seats[0].ID, ghost}, seats))
}

func TestSeatConflict(t *testing.T) {
	seats := seatGrid("A1", "A2", "A3")

	assert.Nil(t, seatConflict(seats, nil))

	conflict := seatConflict(seats, []entity.SeatOccupancy{
		{SeatID: seats[2].ID, Status: entity.ReservationStatusSold},
		{SeatID: seats[0].ID, Status: entity.ReservationStatusHeld},
	})
	require.NotNil(t, conflict)
	assert.Equal(t, []uuid.UUID{seats[0].ID, seats[2].ID}, conflict.SeatIDs)
	assert.Equal(t, []string{"B1-A1", "B1-A3"}, conflict.Labels)
	assert.ErrorIs(t, conflict, ErrConflict)
}

func TestResolveAvailability(t *testing.T) {
	seats := seatGrid("A2", "A1", "A3", "B1")

	got := resolveAvailability(seats, []entity.SeatOccupancy{
		{SeatID: seats[0].ID, Status: entity.ReservationStatusHeld},
		{SeatID: seats[2].ID, Status: entity.ReservationStatusSold},
	})

	assert.Equal(t, 4, got.TotalCount)
	assert.Equal(t, 2, got.FreeCount)
	assert.Equal(t, 1, got.HeldCount)
	assert.Equal(t, 1, got.SoldCount)
	assert.Equal(t, 2, got.SoldOrHeldCount)

	labels := make([]string, len(got.Seats))
	for i, s := range got.Seats {
		labels[i] = s.Label
	}
	assert.Equal(t, []string{"B1-A1", "B1-A2", "B1-A3", "B1-B1"}, labels)
	assert.Equal(t, response.SeatStateHeld, got.Seats[1].Status)
	assert.False(t, got.Seats[1].Free)
	assert.Equal(t, response.SeatStateSold, got.Seats[2].Status)
	assert.True(t, got.Seats[0].Free)
}
