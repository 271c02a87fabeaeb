package entity

type RoomStatus string

const (
	RoomStatusActive      RoomStatus = "active"
	RoomStatusInactive    RoomStatus = "inactive"
	RoomStatusMaintenance RoomStatus = "maintenance"
)

type Room struct {
	Base
	Name     string     `db:"name"`
	Capacity int        `db:"capacity"`
	Status   RoomStatus `db:"status"`
}

func (r *Room) IsActive() bool {
	return r.Status == RoomStatusActive
}
