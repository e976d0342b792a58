package itemrequest

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type Repository interface {
	Create(ctx context.Context, r *ItemRequest) error
	GetByID(ctx context.Context, id string) (*ItemRequest, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ListByRequestor returns the user's requests, newest first.
	ListByRequestor(ctx context.Context, userID string) ([]*ItemRequest, error)
	// ListOthers returns every request not made by the user, newest first.
	ListOthers(ctx context.Context, userID string) ([]*ItemRequest, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func selectRequests() squirrel.SelectBuilder {
	return psql.Select("id", "description", "requestor_id", "created_at").
		From("public.item_requests")
}

func (r *pgxRepository) Create(ctx context.Context, req *ItemRequest) error {
	query, args, err := psql.Insert("public.item_requests").
		Columns("description", "requestor_id").
		Values(req.Description, req.RequestorID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create item request query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&req.ID, &req.CreatedAt); err != nil {
		return fmt.Errorf("create item request failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*ItemRequest, error) {
	query, args, err := selectRequests().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get item request query failed: %w", err)
	}

	var req ItemRequest
	err = r.pool.QueryRow(ctx, query, args...).
		Scan(&req.ID, &req.Description, &req.RequestorID, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item request failed: %w", err)
	}
	return &req, nil
}

func (r *pgxRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM public.item_requests WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check item request exists failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) ListByRequestor(ctx context.Context, userID string) ([]*ItemRequest, error) {
	return r.list(ctx, selectRequests().Where(squirrel.Eq{"requestor_id": userID}))
}

func (r *pgxRepository) ListOthers(ctx context.Context, userID string) ([]*ItemRequest, error) {
	return r.list(ctx, selectRequests().Where(squirrel.NotEq{"requestor_id": userID}))
}

func (r *pgxRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]*ItemRequest, error) {
	query, args, err := q.OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list item requests query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list item requests failed: %w", err)
	}
	defer rows.Close()

	var out []*ItemRequest
	for rows.Next() {
		var req ItemRequest
		if err := rows.Scan(&req.ID, &req.Description, &req.RequestorID, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item request failed: %w", err)
		}
		out = append(out, &req)
	}
	return out, rows.Err()
}
