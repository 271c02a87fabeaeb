package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	// FindByIDForUpdate locks the reservation row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	// UpdateState persists status, expiry and closing fields.
	UpdateState(ctx context.Context, reservation *entity.Reservation) error
	// FindExpiredHolds returns up to limit held reservations with expires_at <= now, oldest first.
	FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	List(ctx context.Context, filter entity.ReservationFilter, limit, offset int) ([]*entity.Reservation, error)
	Count(ctx context.Context, filter entity.ReservationFilter) (int, error)
}

type reservationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReservationRepository(db database.Querier, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

const reservationColumns = `id, code, showtime_id, customer_id, operator_id, kind, status,
	subtotal, discount, discount_percent, total, expires_at, closed_by, closed_at,
	created_at, updated_at`

func (r *reservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		res.ID,
		res.Code,
		res.ShowtimeID,
		res.CustomerID,
		res.OperatorID,
		res.Kind,
		res.Status,
		res.Subtotal,
		res.Discount,
		res.DiscountPercent,
		res.Total,
		res.ExpiresAt,
		res.ClosedBy,
		res.ClosedAt,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("create reservation %s: %w", res.Code, ErrDuplicate)
		}
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("code", res.Code),
			zap.String("showtime_id", res.ShowtimeID.String()),
		)
		return fmt.Errorf("create reservation %s: %w", res.Code, err)
	}

	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return r.find(ctx, id, false)
}

func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return r.find(ctx, id, true)
}

func (r *reservationRepository) find(ctx context.Context, id uuid.UUID, forUpdate bool) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.Bool("for_update", forUpdate),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id.String(), err)
	}

	return res, nil
}

func (r *reservationRepository) UpdateState(ctx context.Context, res *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET status = $2, expires_at = $3, closed_by = $4, closed_at = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		res.ID,
		res.Status,
		res.ExpiresAt,
		res.ClosedBy,
		res.ClosedAt,
		res.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update reservation state",
			zap.Error(err),
			zap.String("reservation_id", res.ID.String()),
			zap.String("status", string(res.Status)),
		)
		return fmt.Errorf("update reservation %s: %w", res.ID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update reservation %s: %w", res.ID.String(), pgx.ErrNoRows)
	}

	return nil
}

func (r *reservationRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM reservations
		WHERE status = 'held' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to find expired holds", zap.Error(err), zap.Time("now", now))
		return nil, fmt.Errorf("find expired holds: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired hold: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired holds: %w", err)
	}

	return ids, nil
}

func (r *reservationRepository) List(ctx context.Context, filter entity.ReservationFilter, limit, offset int) ([]*entity.Reservation, error) {
	where, args := buildReservationWhere(filter)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, reservationColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list reservations", zap.Error(err))
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservation rows: %w", err)
	}

	return reservations, nil
}

func (r *reservationRepository) Count(ctx context.Context, filter entity.ReservationFilter) (int, error) {
	where, args := buildReservationWhere(filter)
	query := `SELECT COUNT(*) FROM reservations ` + where

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count reservations", zap.Error(err))
		return 0, fmt.Errorf("count reservations: %w", err)
	}

	return total, nil
}

func buildReservationWhere(f entity.ReservationFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ShowtimeID != nil {
		add("showtime_id = $%d", *f.ShowtimeID)
	}
	if f.CustomerID != nil {
		add("customer_id = $%d", *f.CustomerID)
	}
	if f.OperatorID != nil {
		add("operator_id = $%d", *f.OperatorID)
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.Kind != nil {
		add("kind = $%d", string(*f.Kind))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.Code,
		&res.ShowtimeID,
		&res.CustomerID,
		&res.OperatorID,
		&res.Kind,
		&res.Status,
		&res.Subtotal,
		&res.Discount,
		&res.DiscountPercent,
		&res.Total,
		&res.ExpiresAt,
		&res.ClosedBy,
		&res.ClosedAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
