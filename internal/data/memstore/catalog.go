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

type userRepo struct{ view }

func (r userRepo) Create(_ context.Context, user *entity.User) error {
	var taken bool
	r.read(func(s *Store) {
		for _, u := range s.users {
			if u.Username == user.Username {
				taken = true
				return
			}
		}
	})
	if taken {
		return fmt.Errorf("create user %s: %w", user.Username, repository.ErrDuplicate)
	}

	u := *user
	r.write(func(s *Store) { s.users[u.ID] = u })
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	var out *entity.User
	r.read(func(s *Store) {
		if u, ok := s.users[id]; ok && u.DeletedAt == nil {
			out = &u
		}
	})
	return out, nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	var out *entity.User
	r.read(func(s *Store) {
		for _, u := range s.users {
			if u.Username == username && u.DeletedAt == nil {
				out = &u
				return
			}
		}
	})
	return out, nil
}

type customerRepo struct{ view }

func (r customerRepo) Create(_ context.Context, customer *entity.Customer) error {
	c := *customer
	r.write(func(s *Store) { s.customers[c.ID] = c })
	return nil
}

func (r customerRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	var out *entity.Customer
	r.read(func(s *Store) {
		if c, ok := s.customers[id]; ok && c.DeletedAt == nil {
			out = &c
		}
	})
	return out, nil
}

type movieRepo struct{ view }

func (r movieRepo) Create(_ context.Context, movie *entity.Movie) error {
	m := *movie
	r.write(func(s *Store) { s.movies[m.ID] = m })
	return nil
}

func (r movieRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Movie, error) {
	var out *entity.Movie
	r.read(func(s *Store) {
		if m, ok := s.movies[id]; ok && m.DeletedAt == nil {
			out = &m
		}
	})
	return out, nil
}

type roomRepo struct{ view }

func (r roomRepo) Create(_ context.Context, room *entity.Room) error {
	var taken bool
	r.read(func(s *Store) {
		for _, existing := range s.rooms {
			if existing.Name == room.Name {
				taken = true
				return
			}
		}
	})
	if taken {
		return fmt.Errorf("create room %s: %w", room.Name, repository.ErrDuplicate)
	}

	rm := *room
	r.write(func(s *Store) { s.rooms[rm.ID] = rm })
	return nil
}

func (r roomRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Room, error) {
	var out *entity.Room
	r.read(func(s *Store) {
		if rm, ok := s.rooms[id]; ok && rm.DeletedAt == nil {
			out = &rm
		}
	})
	return out, nil
}

func (r roomRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	if err := r.lock(ctx, "room:"+id.String()); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

type seatRepo struct{ view }

func (r seatRepo) CreateBatch(_ context.Context, seats []*entity.Seat) error {
	batch := make([]entity.Seat, len(seats))
	for i, seat := range seats {
		batch[i] = *seat
	}
	r.write(func(s *Store) {
		for _, seat := range batch {
			s.seats[seat.ID] = seat
		}
	})
	return nil
}

func (r seatRepo) FindByRoomID(_ context.Context, roomID uuid.UUID) ([]*entity.Seat, error) {
	var out []*entity.Seat
	r.read(func(s *Store) {
		for _, seat := range s.seats {
			if seat.RoomID == roomID {
				out = append(out, &seat)
			}
		}
	})
	sortSeats(out)
	return out, nil
}

func (r seatRepo) FindByIDs(_ context.Context, roomID uuid.UUID, ids []uuid.UUID) ([]*entity.Seat, error) {
	out := []*entity.Seat{}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	r.read(func(s *Store) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if seat, ok := s.seats[id]; ok && seat.RoomID == roomID {
				out = append(out, &seat)
			}
		}
	})
	sortSeats(out)
	return out, nil
}

func sortSeats(seats []*entity.Seat) {
	sort.Slice(seats, func(i, j int) bool {
		a, b := seats[i], seats[j]
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Number < b.Number
	})
}

type showtimeRepo struct{ view }

func (r showtimeRepo) Create(_ context.Context, showtime *entity.Showtime) error {
	st := *showtime
	r.write(func(s *Store) { s.showtimes[st.ID] = st })
	return nil
}

func (r showtimeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Showtime, error) {
	var out *entity.Showtime
	r.read(func(s *Store) {
		if st, ok := s.showtimes[id]; ok && st.DeletedAt == nil {
			out = &st
		}
	})
	return out, nil
}

func (r showtimeRepo) FindOverlapping(_ context.Context, roomID uuid.UUID, startsAt, endsAt time.Time) ([]*entity.Showtime, error) {
	var out []*entity.Showtime
	r.read(func(s *Store) {
		for _, st := range s.showtimes {
			if st.RoomID == roomID && st.DeletedAt == nil && st.Overlaps(startsAt, endsAt) {
				out = append(out, &st)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}
