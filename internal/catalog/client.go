package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/awokou/ecommerce-microservices/pkg/mylogger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductSnapshot is the catalog's view of a product, captured at
// validation time.
type ProductSnapshot struct {
	ProductCode   string          `json:"productCode"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageUrl      string          `json:"imageUrl"`
	Available     bool            `json:"available"`
	StockQuantity int64           `json:"stockQuantity"`
}

var ErrProductNotFound = errors.New("product not found in catalog")

// TransientError marks outcomes that are worth retrying: timeouts,
// connection errors and 5xx responses. Everything else is definitive.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

type Client interface {
	FetchProduct(ctx context.Context, productCode string) (*ProductSnapshot, error)
	FetchAvailability(ctx context.Context, productCode string, quantity int32) (bool, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) Client {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *httpClient) FetchProduct(ctx context.Context, productCode string) (*ProductSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(productCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("catalog request failed: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrProductNotFound
	case resp.StatusCode >= 500:
		return nil, &TransientError{Err: fmt.Errorf("catalog returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog returned unexpected status %d", resp.StatusCode)
	}

	var snapshot ProductSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		mylogger.Error(
			ctx,
			c.logger,
			"Failed to decode product payload",
			zap.String("product_code", productCode),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to decode product payload: %w", err)
	}

	return &snapshot, nil
}

func (c *httpClient) FetchAvailability(ctx context.Context, productCode string, quantity int32) (bool, error) {
	endpoint := fmt.Sprintf(
		"%s/api/v1/products/%s/availability?quantity=%s",
		c.baseURL,
		url.PathEscape(productCode),
		strconv.Itoa(int(quantity)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build availability request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, &TransientError{Err: fmt.Errorf("availability request failed: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// an unknown product is definitively not available
		return false, nil
	case resp.StatusCode >= 500:
		return false, &TransientError{Err: fmt.Errorf("catalog returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("catalog returned unexpected status %d", resp.StatusCode)
	}

	var available bool
	if err := json.NewDecoder(resp.Body).Decode(&available); err != nil {
		return false, fmt.Errorf("failed to decode availability payload: %w", err)
	}

	return available, nil
}
