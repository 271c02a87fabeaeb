package repository

import (
	"context"
	"fmt"
	"strings"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	// FindByRoomID returns the layout ordered by block, row, number.
	FindByRoomID(ctx context.Context, roomID uuid.UUID) ([]*entity.Seat, error)
	// FindByIDs returns the seats among ids that belong to roomID; unknown ids are omitted.
	FindByIDs(ctx context.Context, roomID uuid.UUID, ids []uuid.UUID) ([]*entity.Seat, error)
}

type seatRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSeatRepository(db database.Querier, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

const seatColumns = `id, room_id, block, seat_row, seat_number, seat_class, created_at, updated_at`

// seatInsertChunk keeps a batch under the 65535 bind parameter limit.
const seatInsertChunk = 500

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	for start := 0; start < len(seats); start += seatInsertChunk {
		end := start + seatInsertChunk
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.insertChunk(ctx, seats[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *seatRepository) insertChunk(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO seats (` + seatColumns + `) VALUES `)
	args := make([]any, 0, len(seats)*8)

	for i, seat := range seats {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*8+1, i*8+2, i*8+3, i*8+4, i*8+5, i*8+6, i*8+7, i*8+8)

		args = append(args,
			seat.ID,
			seat.RoomID,
			seat.Block,
			seat.Row,
			seat.Number,
			seat.Class,
			seat.CreatedAt,
			seat.UpdatedAt,
		)
	}

	if _, err := r.db.Exec(ctx, sb.String(), args...); err != nil {
		r.log.Error("Failed to create seat batch",
			zap.Error(err),
			zap.Int("count", len(seats)),
		)
		return fmt.Errorf("create batch of %d seats: %w", len(seats), err)
	}

	return nil
}

func (r *seatRepository) FindByRoomID(ctx context.Context, roomID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE room_id = $1
		ORDER BY block, seat_row, seat_number
	`

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		r.log.Error("Failed to find seats by room ID",
			zap.Error(err),
			zap.String("room_id", roomID.String()),
		)
		return nil, fmt.Errorf("find seats by room ID %s: %w", roomID.String(), err)
	}

	return r.collect(rows)
}

func (r *seatRepository) FindByIDs(ctx context.Context, roomID uuid.UUID, ids []uuid.UUID) ([]*entity.Seat, error) {
	if len(ids) == 0 {
		return []*entity.Seat{}, nil
	}

	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE room_id = $1 AND id = ANY($2)
		ORDER BY block, seat_row, seat_number
	`

	rows, err := r.db.Query(ctx, query, roomID, ids)
	if err != nil {
		r.log.Error("Failed to find seats by IDs",
			zap.Error(err),
			zap.String("room_id", roomID.String()),
			zap.Int("seat_count", len(ids)),
		)
		return nil, fmt.Errorf("find seats in room %s: %w", roomID.String(), err)
	}

	return r.collect(rows)
}

func (r *seatRepository) collect(rows pgx.Rows) ([]*entity.Seat, error) {
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		var seat entity.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.RoomID,
			&seat.Block,
			&seat.Row,
			&seat.Number,
			&seat.Class,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, &seat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seat rows: %w", err)
	}

	return seats, nil
}
