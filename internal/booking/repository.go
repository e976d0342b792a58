package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	ListByBooker(ctx context.Context, bookerID string) ([]*Booking, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Booking, error)
	// ListByItems returns the bookings of the given items having status.
	ListByItems(ctx context.Context, itemIDs []string, status Status) ([]*Booking, error)

	// UpdateStatus moves a booking from one status to another in a single conditional write.
	// Returns ErrAlreadyProcessed when the booking is no longer in status from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (time.Time, error)

	// HasFinished reports whether bookerID holds a booking of itemID with status that ended before t.
	HasFinished(ctx context.Context, bookerID, itemID string, status Status, t time.Time) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.item_id", "i.name", "i.owner_id", "b.booker_id", "u.name",
	"b.start_time", "b.end_time", "b.status", "b.created_at", "b.updated_at",
}

func selectBookings() squirrel.SelectBuilder {
	return psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.items i ON b.item_id = i.id").
		Join("public.users u ON b.booker_id = u.id")
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.ItemID, &b.ItemName, &b.ItemOwnerID, &b.BookerID, &b.BookerName,
		&b.Start, &b.End, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	const query = `
		WITH ins AS (
			INSERT INTO public.bookings (item_id, booker_id, start_time, end_time, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, item_id, booker_id, created_at, updated_at
		)
		SELECT ins.id, ins.created_at, ins.updated_at, i.name, i.owner_id, u.name
		FROM ins
		JOIN public.items i ON ins.item_id = i.id
		JOIN public.users u ON ins.booker_id = u.id
	`

	err := r.pool.QueryRow(ctx, query, b.ItemID, b.BookerID, b.Start, b.End, b.Status).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.ItemName, &b.ItemOwnerID, &b.BookerName)
	if err != nil {
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) ListByBooker(ctx context.Context, bookerID string) ([]*Booking, error) {
	return r.list(ctx, selectBookings().Where(squirrel.Eq{"b.booker_id": bookerID}))
}

func (r *pgxRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Booking, error) {
	return r.list(ctx, selectBookings().Where(squirrel.Eq{"i.owner_id": ownerID}))
}

func (r *pgxRepository) ListByItems(ctx context.Context, itemIDs []string, status Status) ([]*Booking, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, selectBookings().
		Where(squirrel.Eq{"b.item_id": itemIDs}).
		Where(squirrel.Eq{"b.status": status}))
}

func (r *pgxRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]*Booking, error) {
	query, args, err := q.OrderBy("b.start_time DESC", "b.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (time.Time, error) {
	query, args, err := psql.Update("public.bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("build update booking status query failed: %w", err)
	}

	var updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrAlreadyProcessed
		}
		return time.Time{}, fmt.Errorf("update booking status failed: %w", err)
	}
	return updatedAt, nil
}

func (r *pgxRepository) HasFinished(ctx context.Context, bookerID, itemID string, status Status, t time.Time) (bool, error) {
	sub, args, err := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"booker_id": bookerID, "item_id": itemID, "status": status}).
		Where(squirrel.Lt{"end_time": t}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build finished booking query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check finished booking failed: %w", err)
	}
	return exists, nil
}
