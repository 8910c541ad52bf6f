package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/awokou/ecommerce-microservices/internal/catalog"
	"github.com/awokou/ecommerce-microservices/internal/domain"
	"github.com/awokou/ecommerce-microservices/internal/repository"
	"github.com/awokou/ecommerce-microservices/pkg/mylogger"
	outboxDomain "github.com/awokou/ecommerce-microservices/pkg/outbox/domain"
	"github.com/awokou/ecommerce-microservices/pkg/outbox/worker"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const cartEventsTopic = "cart_events"

// ProductValidator is the slice of the catalog gateway the cart service
// depends on.
type ProductValidator interface {
	ValidateProduct(ctx context.Context, productCode string) catalog.Validation
	CheckAvailability(ctx context.Context, productCode string, quantity int32) bool
}

type CartService interface {
	CreateCart(ctx context.Context, userID string) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productCode string, quantity int32) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, cartID, productCode string, quantity int32) (*domain.Cart, error)
	RemoveItem(ctx context.Context, cartID, productCode string) (*domain.Cart, error)
	ClearCart(ctx context.Context, cartID string) error
	DeleteCart(ctx context.Context, cartID string) error
}

type cartService struct {
	pool       *pgxpool.Pool
	logger     *zap.Logger
	cartRepo   repository.CartRepository
	outboxRepo worker.OutboxRepository
	gateway    ProductValidator
	maxItems   int32
	ttlDays    int
	tracer     trace.Tracer
}

func NewCartService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	cartRepo repository.CartRepository,
	outboxRepo worker.OutboxRepository,
	gateway ProductValidator,
	maxItems int,
	ttlDays int,
) CartService {
	return &cartService{
		pool:       pool,
		logger:     logger,
		cartRepo:   cartRepo,
		outboxRepo: outboxRepo,
		gateway:    gateway,
		maxItems:   int32(maxItems),
		ttlDays:    ttlDays,
		tracer:     otel.Tracer("cart_service"),
	}
}

func (s *cartService) CreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.CreateCart")
	defer span.End()

	cart := domain.NewCart(userID, s.ttlDays)

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.cartRepo.Save(ctx, tx, cart); err != nil {
			return err
		}

		return s.emitEvent(ctx, tx, cart.ID, "CartCreated", &domain.CartCreatedEvent{
			CartID: cart.ID,
			UserID: userID,
		})
	})
	if err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Cart created",
		zap.String("cart_id", cart.ID),
		zap.String("user_id", userID),
	)

	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart")
	defer span.End()

	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			mylogger.Warn(ctx, s.logger, "Cart not found", zap.String("cart_id", cartID))
			return nil, err
		}

		mylogger.Error(ctx, s.logger, "Failed to load cart", zap.String("cart_id", cartID), zap.Error(err))
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, cartID, productCode string, quantity int32) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem")
	defer span.End()

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.validateProduct(ctx, productCode, quantity)
	if err != nil {
		return nil, err
	}

	if cart.TotalItems()+quantity > s.maxItems {
		mylogger.Warn(
			ctx,
			s.logger,
			"Cart limit exceeded",
			zap.String("cart_id", cartID),
			zap.Int32("requested", quantity),
			zap.Int32("current", cart.TotalItems()),
		)

		return nil, ErrCartLimitExceeded
	}

	cart.AddItem(domain.CartItem{
		ID:          domain.GenerateItemID(),
		ProductCode: snapshot.ProductCode,
		Name:        snapshot.Name,
		ImageUrl:    snapshot.ImageUrl,
		Quantity:    quantity,
		UnitPrice:   snapshot.Price,
		Available:   true,
	})

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.cartRepo.Save(ctx, tx, cart); err != nil {
			return err
		}

		return s.emitEvent(ctx, tx, cart.ID, "ItemAdded", &domain.ItemAddedEvent{
			CartID:      cart.ID,
			ProductCode: snapshot.ProductCode,
			Quantity:    quantity,
			UnitPrice:   snapshot.Price,
		})
	})
	if err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Item added to cart",
		zap.String("cart_id", cartID),
		zap.String("product_code", productCode),
		zap.Int32("quantity", quantity),
	)

	return cart, nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID, productCode string, quantity int32) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateItemQuantity")
	defer span.End()

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if !cart.HasItem(productCode) {
		return nil, ErrItemNotInCart
	}

	if _, err := s.validateProduct(ctx, productCode, quantity); err != nil {
		return nil, err
	}

	var current int32
	for _, item := range cart.Items {
		if item.ProductCode == productCode {
			current = item.Quantity
			break
		}
	}

	if cart.TotalItems()-current+quantity > s.maxItems {
		return nil, ErrCartLimitExceeded
	}

	cart.UpdateItemQuantity(productCode, quantity)

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.cartRepo.Save(ctx, tx, cart); err != nil {
			return err
		}

		return s.emitEvent(ctx, tx, cart.ID, "ItemQuantityUpdated", &domain.ItemQuantityUpdatedEvent{
			CartID:      cart.ID,
			ProductCode: productCode,
			Quantity:    quantity,
		})
	})
	if err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Item quantity updated",
		zap.String("cart_id", cartID),
		zap.String("product_code", productCode),
		zap.Int32("quantity", quantity),
	)

	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, cartID, productCode string) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem")
	defer span.End()

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	cart.RemoveItem(productCode)

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.cartRepo.Save(ctx, tx, cart); err != nil {
			return err
		}

		return s.emitEvent(ctx, tx, cart.ID, "ItemRemoved", &domain.ItemRemovedEvent{
			CartID:      cart.ID,
			ProductCode: productCode,
		})
	})
	if err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Item removed from cart",
		zap.String("cart_id", cartID),
		zap.String("product_code", productCode),
	)

	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, cartID string) error {
	ctx, span := s.tracer.Start(ctx, "CartService.ClearCart")
	defer span.End()

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return err
	}

	cart.Clear()

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.cartRepo.Save(ctx, tx, cart); err != nil {
			return err
		}

		return s.emitEvent(ctx, tx, cart.ID, "CartCleared", &domain.CartClearedEvent{
			CartID: cart.ID,
		})
	})
	if err != nil {
		return err
	}

	mylogger.Info(ctx, s.logger, "Cart cleared", zap.String("cart_id", cartID))
	return nil
}

func (s *cartService) DeleteCart(ctx context.Context, cartID string) error {
	ctx, span := s.tracer.Start(ctx, "CartService.DeleteCart")
	defer span.End()

	exists, err := s.cartRepo.Exists(ctx, cartID)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrCartNotFound
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.cartRepo.Delete(ctx, tx, cartID); err != nil {
			return err
		}

		return s.emitEvent(ctx, tx, cartID, "CartDeleted", &domain.CartDeletedEvent{
			CartID: cartID,
		})
	})
	if err != nil {
		return err
	}

	mylogger.Info(ctx, s.logger, "Cart deleted", zap.String("cart_id", cartID))
	return nil
}

// validateProduct resolves existence and availability through the gateway.
// Anything short of a positive answer on both rejects the mutation.
func (s *cartService) validateProduct(ctx context.Context, productCode string, quantity int32) (*catalog.ProductSnapshot, error) {
	validation := s.gateway.ValidateProduct(ctx, productCode)

	switch validation.Verdict {
	case catalog.VerdictValid:
	case catalog.VerdictUnknown:
		mylogger.Warn(
			ctx,
			s.logger,
			"Product validation inconclusive, refusing mutation",
			zap.String("product_code", productCode),
		)

		return nil, ErrCatalogUnavailable
	default:
		mylogger.Warn(
			ctx,
			s.logger,
			"Product rejected by catalog",
			zap.String("product_code", productCode),
			zap.String("verdict", validation.Verdict.String()),
		)

		return nil, ErrProductUnavailable
	}

	if !s.gateway.CheckAvailability(ctx, productCode, quantity) {
		mylogger.Warn(
			ctx,
			s.logger,
			"Product not available in requested quantity",
			zap.String("product_code", productCode),
			zap.Int32("quantity", quantity),
		)

		return nil, ErrProductUnavailable
	}

	return validation.Product, nil
}

func (s *cartService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Error(cleanupCtx, s.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *cartService) emitEvent(ctx context.Context, tx pgx.Tx, cartID, eventType string, payload any) error {
	payloadMap := map[string]any{
		"event":   eventType,
		"payload": payload,
	}

	payloadBytes, err := json.Marshal(payloadMap)
	if err != nil {
		return fmt.Errorf("event payload marshal error: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		Topic:         cartEventsTopic,
		AggregateType: "Cart",
		AggregateID:   cartID,
		EventType:     eventType,
		Payload:       payloadBytes,
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}
