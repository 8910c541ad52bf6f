package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/awokou/ecommerce-microservices/pkg/config"
	"github.com/awokou/ecommerce-microservices/pkg/mylogger"
	"github.com/awokou/ecommerce-microservices/pkg/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Verdict summarizes a remote validation attempt without leaking
// transport-level detail to the cart service.
type Verdict int

const (
	VerdictValid Verdict = iota
	VerdictNotFound
	VerdictUnavailable
	// VerdictUnknown means the catalog could not be reached even after
	// retries, or the circuit is open. Callers must treat it as a refusal.
	VerdictUnknown
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictNotFound:
		return "not_found"
	case VerdictUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

type Validation struct {
	Verdict Verdict
	Product *ProductSnapshot
}

// Gateway wraps catalog calls with a circuit breaker and a bounded retry
// policy. The breaker is shared by every in-flight request against the
// catalog dependency; state transitions are synchronized by gobreaker.
type Gateway struct {
	client      Client
	cb          *gobreaker.CircuitBreaker
	logger      *zap.Logger
	tracer      trace.Tracer
	maxAttempts int
	retryWait   time.Duration
	callTimeout time.Duration
}

func NewGateway(client Client, breakerCfg config.Breaker, retryCfg config.Retry, callTimeout time.Duration, logger *zap.Logger) *Gateway {
	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: breakerCfg.HalfOpenTrials,
		Interval:    breakerCfg.Window,
		Timeout:     breakerCfg.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= breakerCfg.MinRequests && failureRatio >= breakerCfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Gateway{
		client:      client,
		cb:          gobreaker.NewCircuitBreaker(settings),
		logger:      logger,
		tracer:      otel.Tracer("catalog_gateway"),
		maxAttempts: retryCfg.MaxAttempts,
		retryWait:   retryCfg.Backoff,
		callTimeout: callTimeout,
	}
}

// fetchResult carries a definitive "no such product" through the breaker
// as a success, so a semantic absence never counts as a dependency failure.
type fetchResult struct {
	product  *ProductSnapshot
	notFound bool
}

// ValidateProduct resolves a product code to a verdict. It never returns
// an error: every transport failure collapses into VerdictUnknown.
func (g *Gateway) ValidateProduct(ctx context.Context, productCode string) Validation {
	ctx, span := g.tracer.Start(ctx, "CatalogGateway.ValidateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_code", productCode),
	)

	res, err := utils.ExecuteWithBreaker(g.cb, func() (fetchResult, error) {
		return g.fetchProductWithRetry(ctx, productCode)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			mylogger.Warn(
				ctx,
				g.logger,
				"Circuit breaker open, product validation short-circuited",
				zap.String("product_code", productCode),
			)
		} else {
			mylogger.Warn(
				ctx,
				g.logger,
				"Product validation failed after retries",
				zap.String("product_code", productCode),
				zap.Error(err),
			)
		}

		span.SetAttributes(attribute.String("verdict", VerdictUnknown.String()))
		return Validation{Verdict: VerdictUnknown}
	}

	if res.notFound {
		span.SetAttributes(attribute.String("verdict", VerdictNotFound.String()))
		return Validation{Verdict: VerdictNotFound}
	}

	if !res.product.Available {
		span.SetAttributes(attribute.String("verdict", VerdictUnavailable.String()))
		return Validation{Verdict: VerdictUnavailable, Product: res.product}
	}

	span.SetAttributes(attribute.String("verdict", VerdictValid.String()))
	return Validation{Verdict: VerdictValid, Product: res.product}
}

// CheckAvailability answers "is product P available in quantity Q". Every
// non-success path denies: an unconfirmed availability is no availability.
func (g *Gateway) CheckAvailability(ctx context.Context, productCode string, quantity int32) bool {
	ctx, span := g.tracer.Start(ctx, "CatalogGateway.CheckAvailability")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_code", productCode),
		attribute.Int("quantity", int(quantity)),
	)

	available, err := utils.ExecuteWithBreaker(g.cb, func() (bool, error) {
		return g.fetchAvailabilityWithRetry(ctx, productCode, quantity)
	})

	if err != nil {
		mylogger.Warn(
			ctx,
			g.logger,
			"Availability check failed, denying",
			zap.String("product_code", productCode),
			zap.Int32("quantity", quantity),
			zap.Error(err),
		)

		return false
	}

	return available
}

func (g *Gateway) fetchProductWithRetry(ctx context.Context, productCode string) (fetchResult, error) {
	var res fetchResult

	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		defer cancel()

		product, err := g.client.FetchProduct(callCtx, productCode)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				// definitive answer, retrying cannot change it
				res = fetchResult{notFound: true}
				return nil
			}

			if IsTransient(err) {
				return err
			}

			return backoff.Permanent(err)
		}

		res = fetchResult{product: product}
		return nil
	}

	if err := backoff.Retry(op, g.retryPolicy(ctx)); err != nil {
		return fetchResult{}, err
	}

	return res, nil
}

func (g *Gateway) fetchAvailabilityWithRetry(ctx context.Context, productCode string, quantity int32) (bool, error) {
	var available bool

	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		defer cancel()

		ok, err := g.client.FetchAvailability(callCtx, productCode, quantity)
		if err != nil {
			if IsTransient(err) {
				return err
			}

			return backoff.Permanent(err)
		}

		available = ok
		return nil
	}

	if err := backoff.Retry(op, g.retryPolicy(ctx)); err != nil {
		return false, err
	}

	return available, nil
}

func (g *Gateway) retryPolicy(ctx context.Context) backoff.BackOffContext {
	policy := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(g.retryWait),
		uint64(g.maxAttempts-1),
	)

	return backoff.WithContext(policy, ctx)
}

// State reports the current breaker state for the catalog dependency.
func (g *Gateway) State() gobreaker.State {
	return g.cb.State()
}
