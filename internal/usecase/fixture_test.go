package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"cinema-reservation/internal/data/memstore"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/dto/response"
	"cinema-reservation/pkg/cache"
	"cinema-reservation/pkg/clock"
	"cinema-reservation/pkg/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

func testConfig() *utils.Config {
	return &utils.Config{
		JWT: utils.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
		Redis: utils.RedisConfig{
			AvailabilityTTLSeconds: 30,
		},
		Booking: utils.BookingConfig{
			HoldMinutes:          15,
			VIPDiscountPercent:   10,
			CleanupBufferMinutes: 15,
			SweepIntervalSeconds: 60,
			SweepBatchSize:       500,
		},
		Admin: utils.AdminConfig{Username: "admin", Password: "secret-pass", Email: "admin@example.com"},
	}
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]ReservationEvent
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[string][]ReservationEvent)}
}

func (p *recordingPublisher) Publish(_ context.Context, queue string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[queue] = append(p.events[queue], payload.(ReservationEvent))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(queue string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[queue])
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	repo      *repository.Repository
	clock     *clock.Mock
	config    *utils.Config
	publisher *recordingPublisher
	svc       *Service

	showtime *response.ShowtimeResponse
	room     *response.RoomResponse
	normal   *response.CustomerResponse
	vip      *response.CustomerResponse
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, cache.Noop{})
}

// newFixtureWithCache seeds one room (2x2 grid in block B1), one movie, one
// showtime at 12.50 per seat and two customers.
func newFixtureWithCache(t *testing.T, c cache.Cache) *fixture {
	t.Helper()

	f := &fixture{
		t:         t,
		ctx:       context.Background(),
		repo:      memstore.New(zap.NewNop()).Repository(),
		clock:     clock.NewMock(t0),
		config:    testConfig(),
		publisher: newRecordingPublisher(),
	}
	f.svc = NewService(f.repo, f.config, zap.NewNop(), Dependencies{
		Cache:     c,
		Publisher: f.publisher,
		Clock:     f.clock,
	})

	var err error
	f.room, err = f.svc.Catalog.CreateRoom(f.ctx, &request.CreateRoomRequest{
		Name:        "Sala 1",
		Blocks:      []string{"B1"},
		RowCount:    2,
		SeatsPerRow: 2,
	})
	require.NoError(t, err)

	movie, err := f.svc.Catalog.CreateMovie(f.ctx, &request.CreateMovieRequest{Title: "Arrival", DurationInMinutes: 116})
	require.NoError(t, err)

	f.showtime, err = f.svc.Catalog.CreateShowtime(f.ctx, &request.CreateShowtimeRequest{
		MovieID:   movie.ID,
		RoomID:    f.room.ID,
		StartsAt:  t0.Add(2 * time.Hour),
		BasePrice: 12.50,
	})
	require.NoError(t, err)

	f.normal, err = f.svc.Catalog.CreateCustomer(f.ctx, &request.CreateCustomerRequest{Name: "Ana"})
	require.NoError(t, err)
	f.vip, err = f.svc.Catalog.CreateCustomer(f.ctx, &request.CreateCustomerRequest{Name: "Bruno", Type: "vip"})
	require.NoError(t, err)

	return f
}

// seat returns the seat id for a label such as "B1-A1".
func (f *fixture) seat(label string) string {
	f.t.Helper()
	for _, s := range f.room.Seats {
		if s.Label == label {
			return s.ID
		}
	}
	f.t.Fatalf("no seat %s", label)
	return ""
}

func (f *fixture) reserve(customerID string, labels ...string) (*response.ReservationResponse, error) {
	ids := make([]string, len(labels))
	for i, l := range labels {
		ids[i] = f.seat(l)
	}
	return f.svc.Reservation.Reserve(f.ctx, nil, &request.ReserveRequest{
		CustomerID: customerID,
		ShowtimeID: f.showtime.ID,
		SeatIDs:    ids,
	})
}

func (f *fixture) sell(customerID string, labels ...string) (*response.ReservationResponse, error) {
	ids := make([]string, len(labels))
	for i, l := range labels {
		ids[i] = f.seat(l)
	}
	return f.svc.Reservation.DirectSale(f.ctx, nil, &request.DirectSaleRequest{
		CustomerID: customerID,
		ShowtimeID: f.showtime.ID,
		SeatIDs:    ids,
	})
}

// seatStates maps label -> state from a fresh availability read.
func (f *fixture) seatStates() map[string]response.SeatState {
	f.t.Helper()
	avail, err := f.svc.Availability.GetAvailability(f.ctx, f.showtime.ID)
	require.NoError(f.t, err)

	states := make(map[string]response.SeatState, len(avail.Seats))
	for _, s := range avail.Seats {
		states[s.Label] = s.Status
	}
	return states
}
