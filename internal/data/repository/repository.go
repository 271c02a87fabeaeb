package repository

import (
	"context"

	"cinema-reservation/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User        UserRepository
	Customer    CustomerRepository
	Movie       MovieRepository
	Room        RoomRepository
	Seat        SeatRepository
	Showtime    ShowtimeRepository
	Reservation ReservationRepository
	LineItem    LineItemRepository

	// Tx runs units of work atomically. Repositories handed to a TxFunc are bound to the transaction.
	Tx Transactor
}

// TxFunc is a unit of work. Returning an error rolls the transaction back.
type TxFunc func(tx *Repository) error

type Transactor interface {
	WithTx(ctx context.Context, fn TxFunc) error
}

// WithTx runs fn in a transaction.
func (r *Repository) WithTx(ctx context.Context, fn TxFunc) error {
	if r.Tx == nil {
		return fn(r)
	}
	return r.Tx.WithTx(ctx, fn)
}

// Joined returns a Transactor for code already inside a transaction: fn runs against repo directly.
func Joined(repo *Repository) Transactor {
	return joined{repo: repo}
}

type joined struct {
	repo *Repository
}

func (j joined) WithTx(_ context.Context, fn TxFunc) error {
	return fn(j.repo)
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = NewPgTransactor(db, log)
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:        NewUserRepository(q, log),
		Customer:    NewCustomerRepository(q, log),
		Movie:       NewMovieRepository(q, log),
		Room:        NewRoomRepository(q, log),
		Seat:        NewSeatRepository(q, log),
		Showtime:    NewShowtimeRepository(q, log),
		Reservation: NewReservationRepository(q, log),
		LineItem:    NewLineItemRepository(q, log),
	}
}
