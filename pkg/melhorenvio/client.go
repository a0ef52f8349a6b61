package melhorenvio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

const (
	defaultBaseURL            = "https://melhorenvio.com.br/api/v2"
	defaultTimeout            = 10 * time.Second
	errorBodyReadLimit  int64 = 4096
	defaultUserAgent          = "AtelierDoce (contato@atelierdoce.com.br)"
	// Correios service levels: 1=PAC, 2=SEDEX, 17=Mini Envios.
	requestedServices = "1,2,17"
)

var errTokenRequired = errors.New("melhor envio token is required")

// Client wraps the Melhor Envio shipment-calculate API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	logger     *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured carrier base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithUserAgent overrides the User-Agent header the carrier requires.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(userAgent)
		if trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// WithTimeout overrides the per-call timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the carrier client given a bearer token. A missing token is
// a failed precondition: the storefront cannot quote shipping without it.
func NewClient(token string, logg *logger.Logger, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		token:      trimmedToken,
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	client.logger = logg
	return client, nil
}

// ShipmentItem is one parcel line on a calculate request. Insurance value is
// the declared unit price.
type ShipmentItem struct {
	ID             string          `json:"id"`
	Width          decimal.Decimal `json:"width"`
	Height         decimal.Decimal `json:"height"`
	Length         decimal.Decimal `json:"length"`
	Weight         decimal.Decimal `json:"weight"`
	InsuranceValue decimal.Decimal `json:"insurance_value"`
	Quantity       int             `json:"quantity"`
}

// CalculateRequest is the batched quote request covering every cart line.
type CalculateRequest struct {
	FromPostalCode string
	ToPostalCode   string
	Items          []ShipmentItem
}

// QuoteOption is one valid carrier offer, projected from the raw response.
type QuoteOption struct {
	ID           json.Number     `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime int             `json:"delivery_time"`
}

type calculatePayload struct {
	From     postalCode     `json:"from"`
	To       postalCode     `json:"to"`
	Products []ShipmentItem `json:"products"`
	Options  struct {
		Receipt bool `json:"receipt"`
		OwnHand bool `json:"own_hand"`
	} `json:"options"`
	Services string `json:"services"`
}

type postalCode struct {
	PostalCode string `json:"postal_code"`
}

type rawOption struct {
	ID           json.Number     `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime int             `json:"delivery_time"`
	Error        string          `json:"error"`
}

// Calculate requests quotes for all items in one batched call. Carrier entries
// flagged with an error are dropped; the remainder keep the carrier's order.
// The call is a single attempt, callers retry by re-invoking.
func (c *Client) Calculate(ctx context.Context, req CalculateRequest) ([]QuoteOption, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeFailedPrecondition, "shipping carrier client not configured")
	}
	if strings.TrimSpace(req.FromPostalCode) == "" || strings.TrimSpace(req.ToPostalCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "origin and destination postal codes are required")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "at least one shipment item is required")
	}

	payload := calculatePayload{
		From:     postalCode{PostalCode: req.FromPostalCode},
		To:       postalCode{PostalCode: req.ToPostalCode},
		Products: req.Items,
		Services: requestedServices,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal calculate request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("me/shipment/calculate"), bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build calculate request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logError(ctx, err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "execute calculate request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		upstream := strings.TrimSpace(string(raw))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, upstream)
		c.logError(ctx, err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "carrier rejected calculate request").
			WithDetails(map[string]any{"upstream": upstream})
	}

	var rawOptions []rawOption
	if err := json.NewDecoder(resp.Body).Decode(&rawOptions); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "decode calculate response")
	}

	options := make([]QuoteOption, 0, len(rawOptions))
	for _, option := range rawOptions {
		if option.Error != "" {
			continue
		}
		options = append(options, QuoteOption{
			ID:           option.ID,
			Name:         option.Name,
			Price:        option.Price,
			DeliveryTime: option.DeliveryTime,
		})
	}

	if c.logger != nil {
		ctx = c.logger.WithFields(ctx, map[string]any{
			"option_count": len(options),
			"dropped":      len(rawOptions) - len(options),
		})
		c.logger.Info(ctx, "melhorenvio calculate")
	}
	return options, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func (c *Client) logError(ctx context.Context, err error) {
	if c == nil || c.logger == nil {
		return
	}
	c.logger.Error(ctx, "melhorenvio calculate failed", err)
}
