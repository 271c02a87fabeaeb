package usecase

import (
	"sort"
	"time"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/dto/response"
	"cinema-reservation/pkg/utils"

	"github.com/google/uuid"
)

// Pricing is the money breakdown of one reservation or sale.
type Pricing struct {
	Subtotal        float64
	Discount        float64
	DiscountPercent float64
	Total           float64
	Tickets         int
}

// priceSeats charges basePrice per seat. discountPercent applies to the whole subtotal.
func priceSeats(basePrice float64, tickets int, discountPercent float64) Pricing {
	subtotal := utils.RoundMoney(basePrice * float64(tickets))
	discount := utils.RoundMoney(subtotal * discountPercent / 100)
	return Pricing{
		Subtotal:        subtotal,
		Discount:        discount,
		DiscountPercent: discountPercent,
		Total:           utils.RoundMoney(subtotal - discount),
		Tickets:         tickets,
	}
}

// newReservation builds a held reservation when hold > 0, a sold direct sale otherwise.
func newReservation(showtimeID, customerID uuid.UUID, operator *uuid.UUID, p Pricing, now time.Time, hold time.Duration) *entity.Reservation {
	res := &entity.Reservation{
		BaseNoDelete:    entity.NewBaseNoDelete(now),
		Code:            utils.GenerateReservationCode(now),
		ShowtimeID:      showtimeID,
		CustomerID:      customerID,
		OperatorID:      operator,
		Subtotal:        p.Subtotal,
		Discount:        p.Discount,
		DiscountPercent: p.DiscountPercent,
		Total:           p.Total,
	}

	if hold > 0 {
		expires := now.Add(hold)
		res.Kind = entity.ReservationKindHold
		res.Status = entity.ReservationStatusHeld
		res.ExpiresAt = &expires
		return res
	}

	res.Kind = entity.ReservationKindDirectSale
	res.Status = entity.ReservationStatusSold
	res.ClosedBy = operator
	res.ClosedAt = &now
	return res
}

func newLineItems(res *entity.Reservation, seats []*entity.Seat, unitPrice float64, now time.Time) []*entity.LineItem {
	items := make([]*entity.LineItem, len(seats))
	for i, seat := range seats {
		items[i] = &entity.LineItem{
			BaseSimple:    entity.NewBaseSimple(now),
			ReservationID: res.ID,
			ShowtimeID:    res.ShowtimeID,
			SeatID:        seat.ID,
			UnitPrice:     unitPrice,
		}
	}
	return items
}

// isExpired reports whether a hold has reached its deadline. The deadline itself is expired.
func isExpired(res *entity.Reservation, now time.Time) bool {
	return res.ExpiresAt != nil && !now.Before(*res.ExpiresAt)
}

// confirmReservation moves a hold to sold. A hold past its deadline is
// cancelled on behalf of the system instead and expired is true; the
// caller must persist that transition before reporting ErrExpired.
func confirmReservation(res *entity.Reservation, operator *uuid.UUID, now time.Time) (expired bool, err error) {
	if res.Status != entity.ReservationStatusHeld {
		return false, &InvalidStateError{ReservationID: res.ID, State: res.Status, Action: "confirm"}
	}
	if isExpired(res, now) {
		closeReservation(res, entity.ReservationStatusCancelled, nil, now)
		return true, nil
	}
	closeReservation(res, entity.ReservationStatusSold, operator, now)
	return false, nil
}

func cancelReservation(res *entity.Reservation, operator *uuid.UUID, now time.Time) error {
	if res.Status != entity.ReservationStatusHeld {
		return &InvalidStateError{ReservationID: res.ID, State: res.Status, Action: "cancel"}
	}
	closeReservation(res, entity.ReservationStatusCancelled, operator, now)
	return nil
}

func closeReservation(res *entity.Reservation, status entity.ReservationStatus, operator *uuid.UUID, now time.Time) {
	res.Status = status
	res.ExpiresAt = nil
	res.ClosedBy = operator
	res.ClosedAt = &now
	res.UpdatedAt = now
}

// missingSeats returns the requested ids absent from found, in request order.
func missingSeats(requested []uuid.UUID, found []*entity.Seat) []uuid.UUID {
	present := make(map[uuid.UUID]struct{}, len(found))
	for _, seat := range found {
		present[seat.ID] = struct{}{}
	}

	var missing []uuid.UUID
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// seatConflict returns nil when none of seats is occupied.
func seatConflict(seats []*entity.Seat, taken []entity.SeatOccupancy) *SeatConflictError {
	if len(taken) == 0 {
		return nil
	}

	occupied := make(map[uuid.UUID]struct{}, len(taken))
	for _, occ := range taken {
		occupied[occ.SeatID] = struct{}{}
	}

	var conflict SeatConflictError
	for _, seat := range seats {
		if _, ok := occupied[seat.ID]; ok {
			conflict.SeatIDs = append(conflict.SeatIDs, seat.ID)
			conflict.Labels = append(conflict.Labels, seat.Label())
		}
	}
	if len(conflict.SeatIDs) == 0 {
		return nil
	}
	return &conflict
}

// resolveAvailability derives every seat's state from the active line items of the showtime.
func resolveAvailability(seats []*entity.Seat, taken []entity.SeatOccupancy) response.AvailabilityResponse {
	status := make(map[uuid.UUID]entity.ReservationStatus, len(taken))
	for _, occ := range taken {
		// sold wins if stale data ever shows both
		if status[occ.SeatID] != entity.ReservationStatusSold {
			status[occ.SeatID] = occ.Status
		}
	}

	out := response.AvailabilityResponse{
		Seats:      make([]response.SeatAvailabilityResponse, 0, len(seats)),
		TotalCount: len(seats),
	}
	for _, seat := range seats {
		state := response.SeatStateFree
		switch status[seat.ID] {
		case entity.ReservationStatusHeld:
			state = response.SeatStateHeld
			out.HeldCount++
		case entity.ReservationStatusSold:
			state = response.SeatStateSold
			out.SoldCount++
		default:
			out.FreeCount++
		}
		out.Seats = append(out.Seats, response.SeatAvailabilityResponse{
			SeatID: seat.ID.String(),
			Label:  seat.Label(),
			Block:  seat.Block,
			Row:    seat.Row,
			Number: seat.Number,
			Class:  seat.Class,
			Status: state,
			Free:   state == response.SeatStateFree,
		})
	}
	out.SoldOrHeldCount = out.HeldCount + out.SoldCount

	sort.SliceStable(out.Seats, func(i, j int) bool {
		a, b := out.Seats[i], out.Seats[j]
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Number < b.Number
	})
	return out
}
