package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

const (
	defaultBaseURL             = "https://api.mercadopago.com"
	defaultTimeout             = 7 * time.Second
	errorBodyReadLimit   int64 = 4096
	paymentBodyReadLimit int64 = 1 << 20
)

var errAccessTokenRequired = errors.New("mercado pago access token is required")

// Client wraps the Mercado Pago checkout-preference and payment APIs.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	logger      *logger.Logger
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

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
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

// NewClient builds the gateway client given an access token.
func NewClient(accessToken string, logg *logger.Logger, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(accessToken)
	if trimmedToken == "" {
		return nil, errAccessTokenRequired
	}

	client := &Client{
		accessToken: trimmedToken,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      logg,
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

	return client, nil
}

// PreferenceItem is one charge line on a checkout preference.
type PreferenceItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CurrencyID  string          `json:"currency_id"`
}

// PreferencePayer identifies the buyer on a checkout preference.
type PreferencePayer struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// PreferenceBackURLs are the browser redirect targets after payment.
type PreferenceBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest is the payload submitted to the preference API.
type PreferenceRequest struct {
	Items             []PreferenceItem   `json:"items"`
	Payer             PreferencePayer    `json:"payer"`
	BackURLs          PreferenceBackURLs `json:"back_urls"`
	AutoReturn        string             `json:"auto_return"`
	ExternalReference string             `json:"external_reference"`
	NotificationURL   string             `json:"notification_url"`
}

// Preference holds the gateway-issued identifiers for a created preference.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// Payment is the subset of a gateway payment the reconciler needs, plus the
// verbatim payload for persistence.
type Payment struct {
	ID                string
	Status            string
	ExternalReference string
	DateLastUpdated   *time.Time
	Raw               json.RawMessage
}

type apiErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Cause   []struct {
		Code        any    `json:"code"`
		Description string `json:"description"`
	} `json:"cause"`
}

// CreatePreference submits a checkout preference. The idempotency key must be
// stable across retries of the same logical submission; callers derive it from
// the order id alone.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest, idempotencyKey string) (*Preference, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeFailedPrecondition, "mercado pago client not configured")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "preference items are required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal preference request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("checkout/preferences"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build preference request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		httpReq.Header.Set("X-Idempotency-Key", key)
	}

	c.log(ctx, "request", "create_preference", map[string]any{
		"external_reference": req.ExternalReference,
		"item_count":         len(req.Items),
	})

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log(ctx, "error", "create_preference", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "execute preference request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.mapAPIError(ctx, resp, "create_preference")
	}

	var pref Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "decode preference response")
	}
	if pref.ID == "" || pref.InitPoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, "preference response missing id or init_point")
	}

	c.log(ctx, "response", "create_preference", map[string]any{"preference_id": pref.ID})
	return &pref, nil
}

// GetPayment fetches the authoritative payment details for a gateway payment id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeFailedPrecondition, "mercado pago client not configured")
	}
	trimmed := strings.TrimSpace(paymentID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "payment id is required")
	}

	endpoint := fmt.Sprintf("%s/v1/payments/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build payment request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "execute payment request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("payment %s not found", trimmed))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.mapAPIError(ctx, resp, "get_payment")
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, paymentBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "read payment response")
	}

	var body struct {
		ID                json.Number `json:"id"`
		Status            string      `json:"status"`
		ExternalReference string      `json:"external_reference"`
		DateLastUpdated   string      `json:"date_last_updated"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "decode payment response")
	}

	payment := &Payment{
		ID:                body.ID.String(),
		Status:            body.Status,
		ExternalReference: body.ExternalReference,
		Raw:               raw,
	}
	if body.DateLastUpdated != "" {
		if parsed, parseErr := time.Parse(time.RFC3339, body.DateLastUpdated); parseErr == nil {
			payment.DateLastUpdated = &parsed
		}
	}

	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
	return payment, nil
}

func (c *Client) mapAPIError(ctx context.Context, resp *http.Response, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var body apiErrorBody
	_ = json.Unmarshal(raw, &body)

	message := strings.TrimSpace(body.Message)
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	causes := make([]string, 0, len(body.Cause))
	for _, cause := range body.Cause {
		if cause.Description != "" {
			causes = append(causes, cause.Description)
		}
	}

	c.log(ctx, "error", op, map[string]any{
		"status": resp.StatusCode,
		"error":  message,
	})

	err := fmt.Errorf("status %d: %s", resp.StatusCode, message)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		typed := pkgerrors.Wrap(pkgerrors.CodeUpstreamRejected, err, fmt.Sprintf("mercado pago %s rejected", op))
		if len(causes) > 0 {
			typed = typed.WithDetails(map[string]any{"cause": causes})
		}
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, fmt.Sprintf("mercado pago %s failed", op))
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mercadopago %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mercadopago %s", phase))
	}
}
