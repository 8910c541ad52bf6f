package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/awokou/ecommerce-microservices/internal/domain"
	"github.com/redis/go-redis/v9"
)

// cachedCartService caches reads so GET stays cheap and unaffected by
// catalog outages; every mutation drops the cached entry.
type cachedCartService struct {
	next        CartService
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedCartService(next CartService, redisClient *redis.Client, cacheTTL time.Duration) CartService {
	return &cachedCartService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

func cartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}

func (s *cachedCartService) CreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.next.CreateCart(ctx, userID)
}

func (s *cachedCartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	key := cartKey(cartID)

	val, err := s.redisClient.Get(ctx, key).Result()
	if err == nil {
		var cart domain.Cart
		if err := json.Unmarshal([]byte(val), &cart); err == nil {
			return &cart, nil
		}
	}

	cart, err := s.next.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cart); err == nil {
		s.redisClient.Set(ctx, key, data, s.cacheTTL)
	}

	return cart, nil
}

func (s *cachedCartService) AddItem(ctx context.Context, cartID, productCode string, quantity int32) (*domain.Cart, error) {
	cart, err := s.next.AddItem(ctx, cartID, productCode, quantity)
	if err != nil {
		return nil, err
	}

	s.redisClient.Del(ctx, cartKey(cartID))
	return cart, nil
}

func (s *cachedCartService) UpdateItemQuantity(ctx context.Context, cartID, productCode string, quantity int32) (*domain.Cart, error) {
	cart, err := s.next.UpdateItemQuantity(ctx, cartID, productCode, quantity)
	if err != nil {
		return nil, err
	}

	s.redisClient.Del(ctx, cartKey(cartID))
	return cart, nil
}

func (s *cachedCartService) RemoveItem(ctx context.Context, cartID, productCode string) (*domain.Cart, error) {
	cart, err := s.next.RemoveItem(ctx, cartID, productCode)
	if err != nil {
		return nil, err
	}

	s.redisClient.Del(ctx, cartKey(cartID))
	return cart, nil
}

func (s *cachedCartService) ClearCart(ctx context.Context, cartID string) error {
	if err := s.next.ClearCart(ctx, cartID); err != nil {
		return err
	}

	s.redisClient.Del(ctx, cartKey(cartID))
	return nil
}

func (s *cachedCartService) DeleteCart(ctx context.Context, cartID string) error {
	if err := s.next.DeleteCart(ctx, cartID); err != nil {
		return err
	}

	s.redisClient.Del(ctx, cartKey(cartID))
	return nil
}
