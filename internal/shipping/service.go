package shipping

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
	"github.com/atelierdoce/storefront-backend/pkg/melhorenvio"
)

type carrier interface {
	Calculate(ctx context.Context, req melhorenvio.CalculateRequest) ([]melhorenvio.QuoteOption, error)
}

// Service quotes shipping options for a cart.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) ([]melhorenvio.QuoteOption, error)
}

// QuoteInput is the validated shipping quote request.
type QuoteInput struct {
	FromCEP string
	ToCEP   string
	Lines   []QuoteLine
}

// QuoteLine carries one cart line's parcel data. All four dimensions are
// required; the unit price doubles as the declared insurance value.
type QuoteLine struct {
	ProductID string
	WidthCm   *decimal.Decimal
	HeightCm  *decimal.Decimal
	LengthCm  *decimal.Decimal
	WeightKg  *decimal.Decimal
	UnitPrice decimal.Decimal
	Quantity  int
}

type service struct {
	carrier carrier
	logger  *logger.Logger
}

// NewService constructs a shipping service instance.
func NewService(carrier carrier, logg *logger.Logger) (Service, error) {
	if carrier == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	return &service{carrier: carrier, logger: logg}, nil
}

// Quote validates the cart lines and requests all quotes in one batched
// carrier call. An all-errored carrier response is a success with zero
// options; the storefront renders "no shipping available".
func (s *service) Quote(ctx context.Context, input QuoteInput) ([]melhorenvio.QuoteOption, error) {
	if strings.TrimSpace(input.FromCEP) == "" || strings.TrimSpace(input.ToCEP) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "from_cep and to_cep are required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "at least one product is required")
	}

	items := make([]melhorenvio.ShipmentItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		if err := validateLine(line); err != nil {
			return nil, err
		}
		items = append(items, melhorenvio.ShipmentItem{
			ID:             line.ProductID,
			Width:          *line.WidthCm,
			Height:         *line.HeightCm,
			Length:         *line.LengthCm,
			Weight:         *line.WeightKg,
			InsuranceValue: line.UnitPrice,
			Quantity:       line.Quantity,
		})
	}

	options, err := s.carrier.Calculate(ctx, melhorenvio.CalculateRequest{
		FromPostalCode: strings.TrimSpace(input.FromCEP),
		ToPostalCode:   strings.TrimSpace(input.ToCEP),
		Items:          items,
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		ctx = s.logger.WithFields(ctx, map[string]any{
			"line_count":   len(items),
			"option_count": len(options),
		})
		s.logger.Info(ctx, "shipping quote resolved")
	}
	return options, nil
}

func validateLine(line QuoteLine) error {
	missing := make([]string, 0, 4)
	if line.WidthCm == nil {
		missing = append(missing, "largura")
	}
	if line.HeightCm == nil {
		missing = append(missing, "altura")
	}
	if line.LengthCm == nil {
		missing = append(missing, "comprimento")
	}
	if line.WeightKg == nil {
		missing = append(missing, "peso")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument,
			fmt.Sprintf("product %s is missing shipping dimensions", line.ProductID)).
			WithDetails(map[string]any{"product_id": line.ProductID, "missing": missing})
	}
	if line.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument,
			fmt.Sprintf("product %s has invalid quantity", line.ProductID)).
			WithDetails(map[string]any{"product_id": line.ProductID})
	}
	return nil
}
