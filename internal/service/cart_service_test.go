package service_test

import (
	"context"
	"testing"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/awokou/ecommerce-microservices/internal/catalog"
	"github.com/awokou/ecommerce-microservices/internal/repository"
	"github.com/awokou/ecommerce-microservices/internal/service"
	outboxRepository "github.com/awokou/ecommerce-microservices/pkg/outbox/repository"
	"github.com/awokou/ecommerce-microservices/pkg/testsuite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const (
	testMaxItems = 10
	testTTLDays  = 30
)

// fakeGateway scripts the catalog verdict so cart behavior can be tested
// without a catalog service.
type fakeGateway struct {
	validation catalog.Validation
	available  bool
}

func (f *fakeGateway) ValidateProduct(_ context.Context, _ string) catalog.Validation {
	return f.validation
}

func (f *fakeGateway) CheckAvailability(_ context.Context, _ string, _ int32) bool {
	return f.available
}

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	CartService service.CartService
	Gateway     *fakeGateway
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../migrations")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("carts")
	s.BaseSuite.TruncateTable("cart_items")
	s.BaseSuite.TruncateTable("outbox")

	logger := zap.NewNop()
	cartRepo := repository.NewCartRepository(s.DbPool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(s.DbPool, logger)

	s.Gateway = &fakeGateway{
		validation: catalog.Validation{
			Verdict: catalog.VerdictValid,
			Product: &catalog.ProductSnapshot{
				ProductCode: "SKU1",
				Name:        "Kuronami No Yaiba",
				Price:       decimal.RequireFromString("10.00"),
				Available:   true,
			},
		},
		available: true,
	}

	s.CartService = service.NewCartService(
		s.DbPool,
		logger,
		cartRepo,
		outboxRepo,
		s.Gateway,
		testMaxItems,
		testTTLDays,
	)
}

func (s *IntegrationTestSuite) createCart() string {
	cart, err := s.CartService.CreateCart(s.Ctx, "user-999")
	s.Require().NoError(err)
	s.Require().NotEmpty(cart.ID)

	return cart.ID
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) TestCreateAndGetCart() {
	cartID := s.createCart()

	cart, err := s.CartService.GetCart(s.Ctx, cartID)
	s.Require().NoError(err)
	s.Require().Equal(cartID, cart.ID)
	s.Require().Equal("user-999", cart.UserID)
	s.Require().Empty(cart.Items)
	s.Require().True(cart.Total.IsZero())
	s.Require().True(cart.ExpiresAt.After(cart.CreatedAt))
}

func (s *IntegrationTestSuite) TestGetCart_NotFound() {
	_, err := s.CartService.GetCart(s.Ctx, "CART-missing")
	s.Require().ErrorIs(err, repository.ErrCartNotFound)
}

func (s *IntegrationTestSuite) TestAddItem_MergesAndPersists() {
	cartID := s.createCart()

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 2)
	s.Require().NoError(err)

	cart, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 2)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Require().EqualValues(4, cart.Items[0].Quantity)
	s.Require().True(cart.Total.Equal(decimal.RequireFromString("40.00")))

	// reload from storage, not from the in-memory aggregate
	reloaded, err := s.CartService.GetCart(s.Ctx, cartID)
	s.Require().NoError(err)
	s.Require().Len(reloaded.Items, 1)
	s.Require().EqualValues(4, reloaded.Items[0].Quantity)
	s.Require().True(reloaded.Total.Equal(decimal.RequireFromString("40.00")))
}

func (s *IntegrationTestSuite) TestAddItem_CartNotFound() {
	_, err := s.CartService.AddItem(s.Ctx, "CART-missing", "SKU1", 1)
	s.Require().ErrorIs(err, repository.ErrCartNotFound)
}

func (s *IntegrationTestSuite) TestAddItem_FailClosedOnUnknownVerdict() {
	cartID := s.createCart()

	s.Gateway.validation = catalog.Validation{Verdict: catalog.VerdictUnknown}

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 1)
	s.Require().ErrorIs(err, service.ErrCatalogUnavailable)

	cart, err := s.CartService.GetCart(s.Ctx, cartID)
	s.Require().NoError(err)
	s.Require().Empty(cart.Items)
}

func (s *IntegrationTestSuite) TestAddItem_RejectsMissingProduct() {
	cartID := s.createCart()

	s.Gateway.validation = catalog.Validation{Verdict: catalog.VerdictNotFound}

	_, err := s.CartService.AddItem(s.Ctx, cartID, "NOPE", 1)
	s.Require().ErrorIs(err, service.ErrProductUnavailable)
}

func (s *IntegrationTestSuite) TestAddItem_RejectsWhenNotAvailable() {
	cartID := s.createCart()

	s.Gateway.available = false

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 1)
	s.Require().ErrorIs(err, service.ErrProductUnavailable)
}

func (s *IntegrationTestSuite) TestAddItem_RejectsInvalidQuantity() {
	cartID := s.createCart()

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 0)
	s.Require().ErrorIs(err, service.ErrInvalidQuantity)
}

func (s *IntegrationTestSuite) TestAddItem_CapacityExceededLeavesCartUnchanged() {
	cartID := s.createCart()

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 8)
	s.Require().NoError(err)

	_, err = s.CartService.AddItem(s.Ctx, cartID, "SKU1", 3)
	s.Require().ErrorIs(err, service.ErrCartLimitExceeded)

	cart, err := s.CartService.GetCart(s.Ctx, cartID)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Require().EqualValues(8, cart.Items[0].Quantity)
	s.Require().True(cart.Total.Equal(decimal.RequireFromString("80.00")))
}

func (s *IntegrationTestSuite) TestUpdateItemQuantity() {
	cartID := s.createCart()

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 2)
	s.Require().NoError(err)

	cart, err := s.CartService.UpdateItemQuantity(s.Ctx, cartID, "SKU1", 5)
	s.Require().NoError(err)
	s.Require().EqualValues(5, cart.Items[0].Quantity)
	s.Require().True(cart.Total.Equal(decimal.RequireFromString("50.00")))
}

func (s *IntegrationTestSuite) TestUpdateItemQuantity_MissingLineRejected() {
	cartID := s.createCart()

	_, err := s.CartService.UpdateItemQuantity(s.Ctx, cartID, "SKU1", 5)
	s.Require().ErrorIs(err, service.ErrItemNotInCart)
}

func (s *IntegrationTestSuite) TestUpdateItemQuantity_CapacityEnforced() {
	cartID := s.createCart()

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 2)
	s.Require().NoError(err)

	_, err = s.CartService.UpdateItemQuantity(s.Ctx, cartID, "SKU1", testMaxItems+1)
	s.Require().ErrorIs(err, service.ErrCartLimitExceeded)
}

func (s *IntegrationTestSuite) TestRemoveItem_IsIdempotent() {
	cartID := s.createCart()

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 2)
	s.Require().NoError(err)

	cart, err := s.CartService.RemoveItem(s.Ctx, cartID, "SKU1")
	s.Require().NoError(err)
	s.Require().Empty(cart.Items)
	s.Require().True(cart.Total.IsZero())

	cart, err = s.CartService.RemoveItem(s.Ctx, cartID, "SKU1")
	s.Require().NoError(err)
	s.Require().Empty(cart.Items)
}

func (s *IntegrationTestSuite) TestClearCart() {
	cartID := s.createCart()

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 2)
	s.Require().NoError(err)

	s.Require().NoError(s.CartService.ClearCart(s.Ctx, cartID))

	cart, err := s.CartService.GetCart(s.Ctx, cartID)
	s.Require().NoError(err)
	s.Require().Empty(cart.Items)
	s.Require().True(cart.Total.IsZero())
}

func (s *IntegrationTestSuite) TestDeleteCart() {
	cartID := s.createCart()

	s.Require().NoError(s.CartService.DeleteCart(s.Ctx, cartID))

	_, err := s.CartService.GetCart(s.Ctx, cartID)
	s.Require().ErrorIs(err, repository.ErrCartNotFound)

	s.Require().ErrorIs(s.CartService.DeleteCart(s.Ctx, cartID), repository.ErrCartNotFound)
}

func (s *IntegrationTestSuite) TestMutationsWriteOutboxEvents() {
	cartID := s.createCart()

	_, err := s.CartService.AddItem(s.Ctx, cartID, "SKU1", 2)
	s.Require().NoError(err)

	query := `
		SELECT COUNT(*)
		FROM outbox
		WHERE aggregate_id = $1
	`

	var count int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, query, cartID).Scan(&count))

	// CartCreated + ItemAdded
	s.Require().Equal(2, count)
}
