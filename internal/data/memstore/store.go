// Package memstore is an in-process implementation of the repository
// interfaces. It backs STORAGE_DRIVER=memory and the service tests.
//
// Transactions stage their writes and apply them atomically on commit.
// Row and seat locks are exclusive per key and held until the transaction
// ends, so reserve, confirm and cancel serialize exactly as they do on
// PostgreSQL. Reads inside a transaction see committed data only.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store struct {
	mu sync.RWMutex

	users        map[uuid.UUID]entity.User
	customers    map[uuid.UUID]entity.Customer
	movies       map[uuid.UUID]entity.Movie
	rooms        map[uuid.UUID]entity.Room
	seats        map[uuid.UUID]entity.Seat
	showtimes    map[uuid.UUID]entity.Showtime
	reservations map[uuid.UUID]entity.Reservation
	lineItems    []entity.LineItem

	locks *lockTable
	log   *zap.Logger
}

func New(log *zap.Logger) *Store {
	return &Store{
		users:        make(map[uuid.UUID]entity.User),
		customers:    make(map[uuid.UUID]entity.Customer),
		movies:       make(map[uuid.UUID]entity.Movie),
		rooms:        make(map[uuid.UUID]entity.Room),
		seats:        make(map[uuid.UUID]entity.Seat),
		showtimes:    make(map[uuid.UUID]entity.Showtime),
		reservations: make(map[uuid.UUID]entity.Reservation),
		locks:        newLockTable(),
		log:          log.With(zap.String("repository", "memstore")),
	}
}

// Repository returns repositories over the store. Writes made through it
// outside WithTx are applied immediately.
func (s *Store) Repository() *repository.Repository {
	repo := s.bind(nil)
	repo.Tx = s
	return repo
}

func (s *Store) bind(tx *txn) *repository.Repository {
	v := view{s: s, tx: tx}
	return &repository.Repository{
		User:        userRepo{v},
		Customer:    customerRepo{v},
		Movie:       movieRepo{v},
		Room:        roomRepo{v},
		Seat:        seatRepo{v},
		Showtime:    showtimeRepo{v},
		Reservation: reservationRepo{v},
		LineItem:    lineItemRepo{v},
	}
}

// WithTx implements repository.Transactor.
func (s *Store) WithTx(ctx context.Context, fn repository.TxFunc) (err error) {
	tx := &txn{store: s, held: make(map[string]struct{})}
	defer tx.releaseAll()

	repo := s.bind(tx)
	repo.Tx = repository.Joined(repo)

	if err = fn(repo); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.mu.Lock()
	for _, w := range tx.writes {
		w(s)
	}
	s.mu.Unlock()

	s.log.Debug("Committed transaction", zap.Int("writes", len(tx.writes)), zap.Int("locks", len(tx.order)))
	return nil
}

type txn struct {
	store  *Store
	held   map[string]struct{}
	order  []string
	writes []func(*Store)
}

func (t *txn) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	if err := t.store.locks.acquire(ctx, key); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	t.held[key] = struct{}{}
	t.order = append(t.order, key)
	return nil
}

func (t *txn) releaseAll() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.order = nil
}

// view is what every repository embeds: the store plus the transaction it
// is bound to, nil when running in autocommit mode.
type view struct {
	s  *Store
	tx *txn
}

func (v view) lock(ctx context.Context, key string) error {
	if v.tx == nil {
		return nil
	}
	return v.tx.lock(ctx, key)
}

func (v view) write(fn func(*Store)) {
	if v.tx != nil {
		v.tx.writes = append(v.tx.writes, fn)
		return
	}
	v.s.mu.Lock()
	fn(v.s)
	v.s.mu.Unlock()
}

func (v view) read(fn func(*Store)) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	fn(v.s)
}
