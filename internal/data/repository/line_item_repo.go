package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LineItemRepository interface {
	CreateBatch(ctx context.Context, items []*entity.LineItem) error
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) ([]*entity.LineItem, error)
	// FindActiveBySeats reports which of seatIDs are occupied by held or sold reservations of the showtime.
	FindActiveBySeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) ([]entity.SeatOccupancy, error)
	FindActiveByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]entity.SeatOccupancy, error)
	// LockSeats serializes writers on each (showtime, seat) pair until the transaction ends.
	// Keys are taken in sorted order so two writers never wait on each other in a cycle.
	LockSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) error
}

type lineItemRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewLineItemRepository(db database.Querier, log *zap.Logger) LineItemRepository {
	return &lineItemRepository{
		db:  db,
		log: log.With(zap.String("repository", "line_item")),
	}
}

func (r *lineItemRepository) CreateBatch(ctx context.Context, items []*entity.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO line_items (id, reservation_id, showtime_id, seat_id, unit_price, created_at) VALUES `)
	args := make([]any, 0, len(items)*6)

	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)",
			i*6+1, i*6+2, i*6+3, i*6+4, i*6+5, i*6+6)

		args = append(args,
			item.ID,
			item.ReservationID,
			item.ShowtimeID,
			item.SeatID,
			item.UnitPrice,
			item.CreatedAt,
		)
	}

	if _, err := r.db.Exec(ctx, sb.String(), args...); err != nil {
		r.log.Error("Failed to create line items",
			zap.Error(err),
			zap.String("reservation_id", items[0].ReservationID.String()),
			zap.Int("count", len(items)),
		)
		return fmt.Errorf("create %d line items: %w", len(items), err)
	}

	return nil
}

func (r *lineItemRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) ([]*entity.LineItem, error) {
	query := `
		SELECT id, reservation_id, showtime_id, seat_id, unit_price, created_at
		FROM line_items
		WHERE reservation_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, reservationID)
	if err != nil {
		r.log.Error("Failed to find line items",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
		)
		return nil, fmt.Errorf("find line items of reservation %s: %w", reservationID.String(), err)
	}
	defer rows.Close()

	var items []*entity.LineItem
	for rows.Next() {
		var item entity.LineItem
		err := rows.Scan(
			&item.ID,
			&item.ReservationID,
			&item.ShowtimeID,
			&item.SeatID,
			&item.UnitPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan line item row: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line item rows: %w", err)
	}

	return items, nil
}

func (r *lineItemRepository) FindActiveBySeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) ([]entity.SeatOccupancy, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT li.seat_id, r.id, r.status
		FROM line_items li
		JOIN reservations r ON r.id = li.reservation_id
		WHERE li.showtime_id = $1 AND li.seat_id = ANY($2)
		  AND r.status IN ('held', 'sold')
	`

	return r.occupancy(ctx, query, showtimeID, seatIDs)
}

func (r *lineItemRepository) FindActiveByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]entity.SeatOccupancy, error) {
	query := `
		SELECT li.seat_id, r.id, r.status
		FROM line_items li
		JOIN reservations r ON r.id = li.reservation_id
		WHERE li.showtime_id = $1 AND r.status IN ('held', 'sold')
	`

	return r.occupancy(ctx, query, showtimeID)
}

func (r *lineItemRepository) occupancy(ctx context.Context, query string, args ...any) ([]entity.SeatOccupancy, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query seat occupancy", zap.Error(err))
		return nil, fmt.Errorf("query seat occupancy: %w", err)
	}
	defer rows.Close()

	var taken []entity.SeatOccupancy
	for rows.Next() {
		var occ entity.SeatOccupancy
		if err := rows.Scan(&occ.SeatID, &occ.ReservationID, &occ.Status); err != nil {
			return nil, fmt.Errorf("scan seat occupancy: %w", err)
		}
		taken = append(taken, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seat occupancy: %w", err)
	}

	return taken, nil
}

func (r *lineItemRepository) LockSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) error {
	for _, key := range SeatLockKeys(showtimeID, seatIDs) {
		if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			r.log.Error("Failed to acquire seat lock",
				zap.Error(err),
				zap.String("key", key),
			)
			return fmt.Errorf("lock seat %s: %w", key, err)
		}
	}
	return nil
}

// SeatLockKeys returns the deduplicated, sorted lock keys "showtime:seat".
func SeatLockKeys(showtimeID uuid.UUID, seatIDs []uuid.UUID) []string {
	seen := make(map[uuid.UUID]struct{}, len(seatIDs))
	keys := make([]string, 0, len(seatIDs))
	for _, id := range seatIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, showtimeID.String()+":"+id.String())
	}
	sort.Strings(keys)
	return keys
}
