package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ShowtimeRepository interface {
	Create(ctx context.Context, showtime *entity.Showtime) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error)
	// FindOverlapping returns showtimes of the room whose window intersects [startsAt, endsAt).
	FindOverlapping(ctx context.Context, roomID uuid.UUID, startsAt, endsAt time.Time) ([]*entity.Showtime, error)
}

type showtimeRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewShowtimeRepository(db database.Querier, log *zap.Logger) ShowtimeRepository {
	return &showtimeRepository{
		db:  db,
		log: log.With(zap.String("repository", "showtime")),
	}
}

const showtimeColumns = `id, movie_id, room_id, starts_at, ends_at, base_price, created_at, updated_at, deleted_at`

func (r *showtimeRepository) Create(ctx context.Context, showtime *entity.Showtime) error {
	query := `
		INSERT INTO showtimes (id, movie_id, room_id, starts_at, ends_at, base_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		showtime.ID,
		showtime.MovieID,
		showtime.RoomID,
		showtime.StartsAt,
		showtime.EndsAt,
		showtime.BasePrice,
		showtime.CreatedAt,
		showtime.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create showtime",
			zap.Error(err),
			zap.String("room_id", showtime.RoomID.String()),
			zap.Time("starts_at", showtime.StartsAt),
		)
		return fmt.Errorf("create showtime %s: %w", showtime.ID.String(), err)
	}

	return nil
}

func (r *showtimeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error) {
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = $1 AND deleted_at IS NULL`

	showtime, err := scanShowtime(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find showtime by ID",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
		)
		return nil, fmt.Errorf("find showtime by ID %s: %w", id.String(), err)
	}

	return showtime, nil
}

func (r *showtimeRepository) FindOverlapping(ctx context.Context, roomID uuid.UUID, startsAt, endsAt time.Time) ([]*entity.Showtime, error) {
	query := `
		SELECT ` + showtimeColumns + `
		FROM showtimes
		WHERE room_id = $1 AND deleted_at IS NULL
		  AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at
	`

	rows, err := r.db.Query(ctx, query, roomID, startsAt, endsAt)
	if err != nil {
		r.log.Error("Failed to find overlapping showtimes",
			zap.Error(err),
			zap.String("room_id", roomID.String()),
		)
		return nil, fmt.Errorf("find overlapping showtimes in room %s: %w", roomID.String(), err)
	}
	defer rows.Close()

	var showtimes []*entity.Showtime
	for rows.Next() {
		showtime, err := scanShowtime(rows)
		if err != nil {
			r.log.Error("Failed to scan showtime row", zap.Error(err))
			return nil, fmt.Errorf("scan showtime row: %w", err)
		}
		showtimes = append(showtimes, showtime)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate showtime rows: %w", err)
	}

	return showtimes, nil
}

func scanShowtime(row pgx.Row) (*entity.Showtime, error) {
	var s entity.Showtime
	err := row.Scan(
		&s.ID,
		&s.MovieID,
		&s.RoomID,
		&s.StartsAt,
		&s.EndsAt,
		&s.BasePrice,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
