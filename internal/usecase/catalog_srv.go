package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/dto/response"
	"cinema-reservation/pkg/clock"
	"cinema-reservation/pkg/utils"

	"go.uber.org/zap"
)

var (
	defaultBlocks      = []string{"B1", "B2"}
	defaultRowCount    = 13 // A..M
	defaultSeatsPerRow = 10
)

type CatalogService interface {
	CreateRoom(ctx context.Context, req *request.CreateRoomRequest) (*response.RoomResponse, error)
	CreateMovie(ctx context.Context, req *request.CreateMovieRequest) (*response.MovieResponse, error)
	// CreateShowtime schedules a movie in a room; ends_at includes the cleanup buffer.
	CreateShowtime(ctx context.Context, req *request.CreateShowtimeRequest) (*response.ShowtimeResponse, error)
	GetShowtime(ctx context.Context, showtimeID string) (*response.ShowtimeResponse, error)
	CreateCustomer(ctx context.Context, req *request.CreateCustomerRequest) (*response.CustomerResponse, error)
	GetCustomer(ctx context.Context, customerID string) (*response.CustomerResponse, error)
}

type catalogService struct {
	repo   *repository.Repository
	config *utils.Config
	clock  clock.Clock
	log    *zap.Logger
}

func NewCatalogService(repo *repository.Repository, config *utils.Config, log *zap.Logger, clk clock.Clock) CatalogService {
	return &catalogService{
		repo:   repo,
		config: config,
		clock:  clk,
		log:    log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) CreateRoom(ctx context.Context, req *request.CreateRoomRequest) (*response.RoomResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create room validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	now := s.clock.Now()
	status := entity.RoomStatusActive
	if req.Status != "" {
		status = entity.RoomStatus(req.Status)
	}

	room := &entity.Room{Base: entity.NewBase(now), Name: req.Name, Status: status}
	seats, err := buildLayout(room, req, now)
	if err != nil {
		return nil, err
	}
	room.Capacity = len(seats)

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Room.Create(ctx, room); err != nil {
			return err
		}
		return tx.Seat.CreateBatch(ctx, seats)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%w: room %q already exists", ErrConflict, room.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.log.Info("Room created",
		zap.String("room_id", room.ID.String()),
		zap.String("name", room.Name),
		zap.Int("capacity", room.Capacity),
	)

	resp := &response.RoomResponse{
		RoomSummary: response.RoomToSummary(room),
		Seats:       make([]response.SeatResponse, len(seats)),
	}
	for i, seat := range seats {
		resp.Seats[i] = response.SeatToResponse(seat)
	}
	return resp, nil
}

func (s *catalogService) CreateMovie(ctx context.Context, req *request.CreateMovieRequest) (*response.MovieResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create movie validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	movie := &entity.Movie{
		Base:              entity.NewBase(s.clock.Now()),
		Title:             req.Title,
		Description:       req.Description,
		DurationInMinutes: req.DurationInMinutes,
	}
	if err := s.repo.Movie.Create(ctx, movie); err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}

	s.log.Info("Movie created", zap.String("movie_id", movie.ID.String()), zap.String("title", movie.Title))

	resp := response.MovieToResponse(movie)
	return &resp, nil
}

func (s *catalogService) CreateShowtime(ctx context.Context, req *request.CreateShowtimeRequest) (*response.ShowtimeResponse, error) {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create showtime validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}
	movieID, err := parseID("movie_id", req.MovieID)
	if err != nil {
		return nil, err
	}
	roomID, err := parseID("room_id", req.RoomID)
	if err != nil {
		return nil, err
	}

	// 2. Movie gives the runtime
	movie, err := s.repo.Movie.FindByID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}

	startsAt := req.StartsAt.UTC()
	endsAt := startsAt.Add(movie.Runtime() + s.config.Booking.CleanupBuffer())

	// 3. Overlap check under the room lock
	var (
		showtime *entity.Showtime
		room     *entity.Room
	)
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Room.FindByIDForUpdate(ctx, roomID)
		if err != nil {
			return fmt.Errorf("find room: %w", err)
		}
		if locked == nil {
			return ErrRoomNotFound
		}
		if !locked.IsActive() {
			return newValidationError(map[string]string{"room_id": fmt.Sprintf("Room is %s", locked.Status)})
		}
		room = locked

		overlapping, err := tx.Showtime.FindOverlapping(ctx, room.ID, startsAt, endsAt)
		if err != nil {
			return fmt.Errorf("check overlapping showtimes: %w", err)
		}
		if len(overlapping) > 0 {
			return ErrShowtimeOverlap
		}

		showtime = &entity.Showtime{
			Base:      entity.NewBase(s.clock.Now()),
			MovieID:   movie.ID,
			RoomID:    room.ID,
			StartsAt:  startsAt,
			EndsAt:    endsAt,
			BasePrice: utils.RoundMoney(req.BasePrice),
		}
		return tx.Showtime.Create(ctx, showtime)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Showtime created",
		zap.String("showtime_id", showtime.ID.String()),
		zap.String("room_id", room.ID.String()),
		zap.Time("starts_at", startsAt),
		zap.Time("ends_at", endsAt),
	)

	resp := response.ShowtimeToResponse(showtime, movie, room)
	return &resp, nil
}

func (s *catalogService) GetShowtime(ctx context.Context, showtimeID string) (*response.ShowtimeResponse, error) {
	id, err := parseID("id", showtimeID)
	if err != nil {
		return nil, err
	}

	showtime, err := s.repo.Showtime.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find showtime: %w", err)
	}
	if showtime == nil {
		return nil, ErrShowtimeNotFound
	}

	movie, err := s.repo.Movie.FindByID(ctx, showtime.MovieID)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	room, err := s.repo.Room.FindByID(ctx, showtime.RoomID)
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}

	resp := response.ShowtimeToResponse(showtime, movie, room)
	return &resp, nil
}

func (s *catalogService) CreateCustomer(ctx context.Context, req *request.CreateCustomerRequest) (*response.CustomerResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create customer validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	customerType := entity.CustomerTypeNormal
	if req.Type != "" {
		customerType = entity.CustomerType(req.Type)
	}

	customer := &entity.Customer{
		Base:  entity.NewBase(s.clock.Now()),
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Type:  customerType,
	}
	if err := s.repo.Customer.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.log.Info("Customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("type", string(customer.Type)),
	)

	resp := response.CustomerToResponse(customer)
	return &resp, nil
}

func (s *catalogService) GetCustomer(ctx context.Context, customerID string) (*response.CustomerResponse, error) {
	id, err := parseID("id", customerID)
	if err != nil {
		return nil, err
	}

	customer, err := s.repo.Customer.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	resp := response.CustomerToResponse(customer)
	return &resp, nil
}

// buildLayout expands the grid request into seats ordered by block, row, number.
func buildLayout(room *entity.Room, req *request.CreateRoomRequest, now time.Time) ([]*entity.Seat, error) {
	blocks := req.Blocks
	if len(blocks) == 0 {
		blocks = defaultBlocks
	}
	rowCount := req.RowCount
	if rowCount == 0 {
		rowCount = defaultRowCount
	}
	perRow := req.SeatsPerRow
	if perRow == 0 {
		perRow = defaultSeatsPerRow
	}

	premium := make(map[string]bool, len(req.PremiumRows))
	for _, row := range req.PremiumRows {
		premium[strings.ToUpper(row)] = true
	}
	accessible := make(map[string]bool, len(req.AccessibleSeats))
	for _, label := range req.AccessibleSeats {
		accessible[strings.ToUpper(label)] = true
	}

	seats := make([]*entity.Seat, 0, len(blocks)*rowCount*perRow)
	for _, block := range blocks {
		for r := 0; r < rowCount; r++ {
			row := string(rune('A' + r))
			for n := 1; n <= perRow; n++ {
				seat := &entity.Seat{
					BaseNoDelete: entity.NewBaseNoDelete(now),
					RoomID:       room.ID,
					Block:        block,
					Row:          row,
					Number:       n,
					Class:        entity.SeatClassStandard,
				}
				label := strings.ToUpper(seat.Label())
				switch {
				case accessible[label]:
					seat.Class = entity.SeatClassAccessible
					delete(accessible, label)
				case premium[row]:
					seat.Class = entity.SeatClassPremium
				}
				seats = append(seats, seat)
			}
		}
	}

	if len(accessible) > 0 {
		unknown := make([]string, 0, len(accessible))
		for label := range accessible {
			unknown = append(unknown, label)
		}
		sort.Strings(unknown)
		return nil, newValidationError(map[string]string{
			"accessible_seats": "Unknown seats " + strings.Join(unknown, ", "),
		})
	}
	return seats, nil
}
