package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierdoce/storefront-backend/internal/catalog"
	"github.com/atelierdoce/storefront-backend/internal/orders"
	"github.com/atelierdoce/storefront-backend/pkg/db/models"
	"github.com/atelierdoce/storefront-backend/pkg/enums"
	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
	"github.com/atelierdoce/storefront-backend/pkg/mercadopago"
	"github.com/atelierdoce/storefront-backend/pkg/metrics"
)

const shippingLineID = "shipping"

type productResolver interface {
	ResolveProduct(ctx context.Context, productID uuid.UUID) (*catalog.ResolvedProduct, error)
}

type preferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest, idempotencyKey string) (*mercadopago.Preference, error)
}

// Service builds gateway payment preferences and composes the full checkout.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	CreatePreference(ctx context.Context, input PreferenceInput) (*PreferenceResult, error)
}

// Config carries the server-side URLs the gateway calls back on.
type Config struct {
	NotificationURL string
}

type service struct {
	catalog    productResolver
	ordersRepo orders.Repository
	gateway    preferenceCreator
	cfg        Config
	logger     *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

// NewService constructs a checkout service instance.
func NewService(catalogSvc productResolver, ordersRepo orders.Repository, gateway preferenceCreator, cfg Config, logg *logger.Logger, m *metrics.CheckoutMetrics) (Service, error) {
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway client required")
	}
	return &service{
		catalog:    catalogSvc,
		ordersRepo: ordersRepo,
		gateway:    gateway,
		cfg:        cfg,
		logger:     logg,
		metrics:    m,
	}, nil
}

// Checkout validates the submission, persists the pending order, then asks
// the gateway for a preference using the order id as external reference. The
// order is written before any gateway call; a gateway failure leaves the
// pending order in place for a client retry.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	start := time.Now()
	result, err := s.checkout(ctx, input)
	s.observe("checkout", start, err)
	return result, err
}

func (s *service) checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	resolved, err := s.resolveItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	if input.Shipping.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "shipping price must not be negative")
	}

	total := input.Shipping.Price
	items := make([]models.OrderItem, 0, len(resolved))
	for _, line := range resolved {
		total = total.Add(line.product.UnitPrice.Mul(decimal.NewFromInt(int64(line.input.Quantity))))
		observation := ""
		if line.input.Observation != nil {
			observation = strings.TrimSpace(*line.input.Observation)
		}
		items = append(items, models.OrderItem{
			ProductID:   line.product.ID,
			Name:        line.product.Name,
			Quantity:    line.input.Quantity,
			UnitPrice:   line.product.UnitPrice,
			Observation: observation,
		})
	}

	order := &models.Order{
		CustomerName:  input.Customer.Name,
		CustomerEmail: input.Customer.Email,
		CustomerPhone: input.Customer.Phone,
		CustomerTaxID: input.Customer.TaxID,
		PostalCode:    input.Address.PostalCode,
		Street:        input.Address.Street,
		Number:        input.Address.Number,
		Complement:    input.Address.Complement,
		District:      input.Address.District,
		City:          input.Address.City,
		State:         input.Address.State,
		Items:         items,
		ShippingName:  input.Shipping.Name,
		ShippingPrice: input.Shipping.Price,
		TotalAmount:   total,
		Status:        enums.OrderStatusPendingPayment,
		PaymentStatus: enums.PaymentStatusPending,
	}

	created, err := s.ordersRepo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
	}

	if s.logger != nil {
		ctx = s.logger.WithOrderID(ctx, created.ID.String())
		s.logger.Info(ctx, "order created, building payment preference")
	}

	firstName, surname := splitName(input.Customer.Name)
	preference, err := s.buildPreference(ctx, resolved, PreferenceInput{
		Payer:             PayerInput{Name: firstName, Surname: surname, Email: input.Customer.Email},
		Shipping:          input.Shipping,
		ExternalReference: created.ID.String(),
		BackURLs:          input.BackURLs,
		NotificationURL:   s.cfg.NotificationURL,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.ordersRepo.Update(ctx, created.ID, map[string]any{"preference_id": preference.ID}); err != nil {
		// The preference exists; losing the link is log-worthy but not fatal.
		if s.logger != nil {
			s.logger.Error(ctx, "recording preference id failed", err)
		}
	}

	return &CheckoutResult{
		OrderID:      created.ID,
		TotalAmount:  total,
		PreferenceID: preference.ID,
		InitPoint:    preference.InitPoint,
	}, nil
}

// CreatePreference builds a gateway preference for an existing external
// reference without creating an order.
func (s *service) CreatePreference(ctx context.Context, input PreferenceInput) (*PreferenceResult, error) {
	start := time.Now()
	result, err := s.createPreference(ctx, input)
	s.observe("create_preference", start, err)
	return result, err
}

func (s *service) createPreference(ctx context.Context, input PreferenceInput) (*PreferenceResult, error) {
	if strings.TrimSpace(input.ExternalReference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "external_reference is required")
	}
	resolved, err := s.resolveItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	return s.buildPreference(ctx, resolved, input)
}

type resolvedLine struct {
	input   ItemInput
	product *catalog.ResolvedProduct
}

// resolveItems re-resolves every line against the catalog. Client-side prices
// do not exist in the schema; whatever the catalog says is what the gateway
// will charge.
func (s *service) resolveItems(ctx context.Context, items []ItemInput) ([]resolvedLine, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "at least one item is required")
	}
	resolved := make([]resolvedLine, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument,
				fmt.Sprintf("product %s has invalid quantity", item.ProductID)).
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		product, err := s.catalog.ResolveProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.ObservationRequired && (item.Observation == nil || strings.TrimSpace(*item.Observation) == "") {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument,
				fmt.Sprintf("product %s requires an observation", item.ProductID)).
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		resolved = append(resolved, resolvedLine{input: item, product: product})
	}
	return resolved, nil
}

func (s *service) buildPreference(ctx context.Context, resolved []resolvedLine, input PreferenceInput) (*PreferenceResult, error) {
	items := make([]mercadopago.PreferenceItem, 0, len(resolved)+1)
	for _, line := range resolved {
		items = append(items, mercadopago.PreferenceItem{
			ID:          line.product.ID.String(),
			Title:       line.product.Name,
			Description: line.product.Description,
			Quantity:    line.input.Quantity,
			UnitPrice:   line.product.UnitPrice,
			CurrencyID:  string(enums.CurrencyBRL),
		})
	}
	if input.Shipping.Price.IsPositive() {
		items = append(items, mercadopago.PreferenceItem{
			ID:         shippingLineID,
			Title:      fmt.Sprintf("Frete - %s", input.Shipping.Name),
			Quantity:   1,
			UnitPrice:  input.Shipping.Price,
			CurrencyID: string(enums.CurrencyBRL),
		})
	}

	backURLs := mercadopago.PreferenceBackURLs{
		Success: input.BackURLs.Success,
		Failure: input.BackURLs.Failure,
		Pending: input.BackURLs.Pending,
	}
	if backURLs.Pending == "" {
		backURLs.Pending = backURLs.Success
	}

	req := mercadopago.PreferenceRequest{
		Items:             items,
		Payer:             mercadopago.PreferencePayer(input.Payer),
		BackURLs:          backURLs,
		AutoReturn:        "approved",
		ExternalReference: input.ExternalReference,
		NotificationURL:   input.NotificationURL,
	}

	// The idempotency key is the external reference alone, so every retry of
	// the same logical submission maps to the same gateway preference.
	preference, err := s.gateway.CreatePreference(ctx, req, input.ExternalReference)
	if err != nil {
		return nil, err
	}
	return &PreferenceResult{ID: preference.ID, InitPoint: preference.InitPoint}, nil
}

func (s *service) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(operation, time.Since(start))
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncFailure(operation, code)
		return
	}
	s.metrics.IncSuccess(operation)
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
