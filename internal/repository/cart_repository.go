package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/awokou/ecommerce-microservices/internal/domain"
	"github.com/awokou/ecommerce-microservices/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CartRepository interface {
	GetByID(ctx context.Context, cartID string) (*domain.Cart, error)
	Save(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error
	Delete(ctx context.Context, tx pgx.Tx, cartID string) error
	Exists(ctx context.Context, cartID string) (bool, error)
}

type cartRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewCartRepository(pool *pgxpool.Pool, logger *zap.Logger) CartRepository {
	return &cartRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("cart_repository"),
	}
}

func (r *cartRepo) GetByID(ctx context.Context, cartID string) (*domain.Cart, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("cart_id", cartID),
	)

	queryCart := `
		SELECT id, user_id, subtotal, total, created_at, updated_at, expires_at
		FROM carts
		WHERE id = $1
	`

	var cart domain.Cart
	if err := r.pool.QueryRow(ctx, queryCart, cartID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.Subtotal,
		&cart.Total,
		&cart.CreatedAt,
		&cart.UpdatedAt,
		&cart.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query cart",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	queryItems := `
		SELECT id, product_code, name, image_url, quantity, unit_price, available
		FROM cart_items
		WHERE cart_id = $1
	`

	rows, err := r.pool.Query(ctx, queryItems, cartID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query cart items",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.ProductCode,
			&item.Name,
			&item.ImageUrl,
			&item.Quantity,
			&item.UnitPrice,
			&item.Available,
		); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to scan cart item",
				zap.Error(err),
			)

			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}

		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		mylogger.Error(
			ctx,
			r.logger,
			"Rows error",
			zap.Error(err),
		)

		return nil, err
	}

	return &cart, nil
}

// Save upserts the cart row and replaces its lines inside the caller's
// transaction, so the aggregate is persisted as one unit.
func (r *cartRepo) Save(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("cart_id", cart.ID),
		attribute.Int("items_count", len(cart.Items)),
	)

	queryCart := `
		INSERT INTO carts (id, user_id, subtotal, total, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET subtotal = EXCLUDED.subtotal,
			total = EXCLUDED.total,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := tx.Exec(
		ctx,
		queryCart,
		cart.ID,
		cart.UserID,
		cart.Subtotal,
		cart.Total,
		cart.CreatedAt,
		cart.UpdatedAt,
		cart.ExpiresAt,
	); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to upsert cart",
			zap.String("cart_id", cart.ID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to delete cart items",
			zap.String("cart_id", cart.ID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to delete cart items: %w", err)
	}

	queryItem := `
		INSERT INTO cart_items (id, cart_id, product_code, name, image_url, quantity, unit_price, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, item := range cart.Items {
		if _, err := tx.Exec(
			ctx,
			queryItem,
			item.ID,
			cart.ID,
			item.ProductCode,
			item.Name,
			item.ImageUrl,
			item.Quantity,
			item.UnitPrice,
			item.Available,
		); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert cart item",
				zap.String("cart_id", cart.ID),
				zap.String("product_code", item.ProductCode),
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert cart item: %w", err)
		}
	}

	return nil
}

func (r *cartRepo) Delete(ctx context.Context, tx pgx.Tx, cartID string) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("cart_id", cartID),
	)

	commandTag, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to delete cart",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (r *cartRepo) Exists(ctx context.Context, cartID string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Exists")
	defer span.End()

	var exists bool
	if err := r.pool.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)`,
		cartID,
	).Scan(&exists); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to check cart existence",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)

		return false, fmt.Errorf("failed to check cart existence: %w", err)
	}

	return exists, nil
}
