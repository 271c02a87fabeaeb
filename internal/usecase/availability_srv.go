package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/dto/response"
	"cinema-reservation/pkg/cache"
	"cinema-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityService interface {
	// GetAvailability derives the state of every seat of the showtime from its active line items.
	GetAvailability(ctx context.Context, showtimeID string) (*response.AvailabilityResponse, error)
}

type availabilityService struct {
	repo   *repository.Repository
	cache  cache.Cache
	config *utils.Config
	log    *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, config *utils.Config, log *zap.Logger, deps Dependencies) AvailabilityService {
	deps = deps.withDefaults()
	return &availabilityService{
		repo:   repo,
		cache:  deps.Cache,
		config: config,
		log:    log.With(zap.String("service", "availability")),
	}
}

// Cached availability is keyed by a per-showtime generation. Every committed ledger
// mutation bumps the generation, so a read computed before the mutation can only
// land under a generation nobody reads anymore.
const generationTTL = 24 * time.Hour

func availabilityGenerationKey(showtimeID uuid.UUID) string {
	return "availability:" + showtimeID.String() + ":gen"
}

func availabilityKey(showtimeID uuid.UUID, generation int64) string {
	return fmt.Sprintf("availability:%s:%d", showtimeID, generation)
}

func (s *availabilityService) GetAvailability(ctx context.Context, showtimeID string) (*response.AvailabilityResponse, error) {
	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, newValidationError(map[string]string{"showtime_id": "Must be a valid UUID"})
	}

	// the generation must be read before any ledger row
	generation, cacheable := s.generation(ctx, id)
	if cacheable {
		if cached, ok := s.cached(ctx, id, generation); ok {
			return cached, nil
		}
	}

	showtime, err := s.repo.Showtime.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find showtime: %w", err)
	}
	if showtime == nil {
		return nil, ErrShowtimeNotFound
	}

	room, err := s.repo.Room.FindByID(ctx, showtime.RoomID)
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	movie, err := s.repo.Movie.FindByID(ctx, showtime.MovieID)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}

	seats, err := s.repo.Seat.FindByRoomID(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("find seats: %w", err)
	}

	taken, err := s.repo.LineItem.FindActiveByShowtime(ctx, showtime.ID)
	if err != nil {
		return nil, fmt.Errorf("find occupied seats: %w", err)
	}

	result := resolveAvailability(seats, taken)
	result.Showtime = response.ShowtimeToResponse(showtime, movie, room)
	result.Room = response.RoomToSummary(room)

	if cacheable {
		s.store(ctx, id, generation, &result)
	}
	return &result, nil
}

// generation returns the showtime's current cache generation, 0 when none was recorded.
// cacheable is false when it cannot be read; the caller then bypasses the cache.
func (s *availabilityService) generation(ctx context.Context, id uuid.UUID) (generation int64, cacheable bool) {
	raw, ok, err := s.cache.Get(ctx, availabilityGenerationKey(id))
	if err != nil {
		s.log.Warn("Availability generation read failed", zap.Error(err), zap.String("showtime_id", id.String()))
		return 0, false
	}
	if !ok {
		return 0, true
	}
	generation, err = strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		s.log.Warn("Corrupt availability generation", zap.Error(err), zap.String("showtime_id", id.String()))
		return 0, false
	}
	return generation, true
}

// cached returns a cache hit. Cache errors degrade to a miss.
func (s *availabilityService) cached(ctx context.Context, id uuid.UUID, generation int64) (*response.AvailabilityResponse, bool) {
	raw, ok, err := s.cache.Get(ctx, availabilityKey(id, generation))
	if err != nil {
		s.log.Warn("Availability cache read failed", zap.Error(err), zap.String("showtime_id", id.String()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var out response.AvailabilityResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		s.log.Warn("Discarding corrupt availability cache entry", zap.Error(err), zap.String("showtime_id", id.String()))
		return nil, false
	}
	return &out, true
}

func (s *availabilityService) store(ctx context.Context, id uuid.UUID, generation int64, result *response.AvailabilityResponse) {
	ttl := s.config.Redis.AvailabilityTTL()
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, availabilityKey(id, generation), raw, ttl); err != nil {
		s.log.Warn("Availability cache write failed", zap.Error(err), zap.String("showtime_id", id.String()))
	}
}
