package item

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	Update(ctx context.Context, it *Item) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Item, error)
	// Search matches text case-insensitively against name and description of available items.
	Search(ctx context.Context, text string) ([]*Item, error)
	ListByRequestIDs(ctx context.Context, requestIDs []string) ([]*Item, error)
	SetPhoto(ctx context.Context, id, photoPath, thumbnailPath, photoType string) error

	CreateComment(ctx context.Context, c *Comment) error
	// ListComments returns the comments of the given items, oldest first.
	ListComments(ctx context.Context, itemIDs []string) ([]*Comment, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func selectItems() squirrel.SelectBuilder {
	return psql.Select(
		"id", "owner_id", "name", "description", "available", "request_id",
		"photo_path", "thumbnail_path", "photo_type", "created_at", "updated_at",
	).From("public.items")
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(
		&it.ID, &it.OwnerID, &it.Name, &it.Description, &it.Available, &it.RequestID,
		&it.PhotoPath, &it.ThumbnailPath, &it.PhotoType, &it.CreatedAt, &it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *pgxRepository) Create(ctx context.Context, it *Item) error {
	const query = `
		INSERT INTO public.items (owner_id, name, description, available, request_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, it.OwnerID, it.Name, it.Description, it.Available, it.RequestID).
		Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create item failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Item, error) {
	query, args, err := selectItems().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get item query failed: %w", err)
	}

	it, err := scanItem(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item failed: %w", err)
	}
	return it, nil
}

func (r *pgxRepository) Update(ctx context.Context, it *Item) error {
	const query = `
		UPDATE public.items
		SET name = $1, description = $2, available = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, it.Name, it.Description, it.Available, it.ID).Scan(&it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update item failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Item, error) {
	return r.list(ctx, selectItems().
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at", "id"))
}

func (r *pgxRepository) Search(ctx context.Context, text string) ([]*Item, error) {
	pattern := "%" + escapeLike(text) + "%"
	return r.list(ctx, selectItems().
		Where(squirrel.Eq{"available": true}).
		Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"description": pattern},
		}).
		OrderBy("created_at", "id"))
}

func (r *pgxRepository) ListByRequestIDs(ctx context.Context, requestIDs []string) ([]*Item, error) {
	if len(requestIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, selectItems().
		Where(squirrel.Eq{"request_id": requestIDs}).
		OrderBy("created_at", "id"))
}

func (r *pgxRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]*Item, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list items query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items failed: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item failed: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *pgxRepository) SetPhoto(ctx context.Context, id, photoPath, thumbnailPath, photoType string) error {
	query, args, err := psql.Update("public.items").
		Set("photo_path", photoPath).
		Set("thumbnail_path", thumbnailPath).
		Set("photo_type", photoType).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set photo query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set item photo failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) CreateComment(ctx context.Context, c *Comment) error {
	const query = `
		WITH ins AS (
			INSERT INTO public.comments (item_id, author_id, text)
			VALUES ($1, $2, $3)
			RETURNING id, author_id, created_at
		)
		SELECT ins.id, ins.created_at, u.name
		FROM ins
		JOIN public.users u ON ins.author_id = u.id
	`
	err := r.pool.QueryRow(ctx, query, c.ItemID, c.AuthorID, c.Text).
		Scan(&c.ID, &c.CreatedAt, &c.AuthorName)
	if err != nil {
		return fmt.Errorf("create comment failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ListComments(ctx context.Context, itemIDs []string) ([]*Comment, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	query, args, err := psql.Select("c.id", "c.item_id", "c.author_id", "u.name", "c.text", "c.created_at").
		From("public.comments c").
		Join("public.users u ON c.author_id = u.id").
		Where(squirrel.Eq{"c.item_id": itemIDs}).
		OrderBy("c.created_at", "c.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list comments query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments failed: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ItemID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment failed: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
