package entity

import "time"

type Movie struct {
	Base
	Title             string  `db:"title"`
	Description       *string `db:"description"`
	DurationInMinutes int     `db:"duration_in_minutes"`
}

func (m *Movie) Runtime() time.Duration {
	return time.Duration(m.DurationInMinutes) * time.Minute
}
