package entity

import (
	"fmt"

	"github.com/google/uuid"
)

type SeatClass string

const (
	SeatClassStandard   SeatClass = "standard"
	SeatClassPremium    SeatClass = "premium"
	SeatClassAccessible SeatClass = "accessible"
)

// Seat is provisioned with its room and never changes afterwards.
type Seat struct {
	BaseNoDelete
	RoomID uuid.UUID `db:"room_id"`
	Block  string    `db:"block"`       // B1, B2
	Row    string    `db:"seat_row"`    // A..M
	Number int       `db:"seat_number"` // 1..n within the row
	Class  SeatClass `db:"seat_class"`
}

// Label renders the seat as printed on tickets, e.g. B1-A7.
func (s *Seat) Label() string {
	return SeatLabel(s.Block, s.Row, s.Number)
}

func SeatLabel(block, row string, number int) string {
	if block == "" {
		return fmt.Sprintf("%s%d", row, number)
	}
	return fmt.Sprintf("%s-%s%d", block, row, number)
}
