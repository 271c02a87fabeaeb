package request

// ReserveRequest places a hold; DirectSaleRequest sells immediately. Both share the seat selection.
type ReserveRequest struct {
	CustomerID string   `json:"customer_id" validate:"required,uuid"`
	ShowtimeID string   `json:"showtime_id" validate:"required,uuid"`
	SeatIDs    []string `json:"seat_ids" validate:"required,min=1,unique,dive,uuid"`
}

type DirectSaleRequest struct {
	CustomerID string   `json:"customer_id" validate:"required,uuid"`
	ShowtimeID string   `json:"showtime_id" validate:"required,uuid"`
	SeatIDs    []string `json:"seat_ids" validate:"required,min=1,unique,dive,uuid"`
}

// ReservationFilterRequest is parsed from the history query string. Dates are YYYY-MM-DD, both inclusive.
type ReservationFilterRequest struct {
	PaginatedRequest
	ShowtimeID string `json:"showtime_id" validate:"omitempty,uuid"`
	CustomerID string `json:"customer_id" validate:"omitempty,uuid"`
	OperatorID string `json:"operator_id" validate:"omitempty,uuid"`
	Status     string `json:"status" validate:"omitempty,oneof=held sold cancelled"`
	Kind       string `json:"kind" validate:"omitempty,oneof=reservation direct_sale"`
	From       string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}
