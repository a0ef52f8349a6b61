package shipping

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/melhorenvio"
)

type fakeCarrier struct {
	options  []melhorenvio.QuoteOption
	err      error
	requests []melhorenvio.CalculateRequest
}

func (f *fakeCarrier) Calculate(_ context.Context, req melhorenvio.CalculateRequest) ([]melhorenvio.QuoteOption, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.options, nil
}

func dec(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return &d
}

func validLine(t *testing.T, productID string) QuoteLine {
	t.Helper()
	return QuoteLine{
		ProductID: productID,
		WidthCm:   dec(t, "15"),
		HeightCm:  dec(t, "10"),
		LengthCm:  dec(t, "20"),
		WeightKg:  dec(t, "0.4"),
		UnitPrice: *dec(t, "49.90"),
		Quantity:  2,
	}
}

func TestQuoteBatchesAllLines(t *testing.T) {
	carrier := &fakeCarrier{options: []melhorenvio.QuoteOption{
		{Name: "PAC", DeliveryTime: 7},
		{Name: "SEDEX", DeliveryTime: 2},
	}}
	svc, err := NewService(carrier, nil)
	require.NoError(t, err)

	options, err := svc.Quote(context.Background(), QuoteInput{
		FromCEP: "01310-100",
		ToCEP:   "30130-010",
		Lines:   []QuoteLine{validLine(t, "prod-1"), validLine(t, "prod-2")},
	})
	require.NoError(t, err)
	assert.Len(t, options, 2)

	require.Len(t, carrier.requests, 1)
	req := carrier.requests[0]
	assert.Equal(t, "01310-100", req.FromPostalCode)
	assert.Len(t, req.Items, 2)
	assert.True(t, req.Items[0].InsuranceValue.Equal(*dec(t, "49.90")))
}

func TestQuoteRequiresPostalCodes(t *testing.T) {
	svc, err := NewService(&fakeCarrier{}, nil)
	require.NoError(t, err)

	_, err = svc.Quote(context.Background(), QuoteInput{
		ToCEP: "30130-010",
		Lines: []QuoteLine{validLine(t, "prod-1")},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidArgument, typed.Code())
}

func TestQuoteMissingDimensionNamesProduct(t *testing.T) {
	line := validLine(t, "prod-7")
	line.WeightKg = nil

	svc, err := NewService(&fakeCarrier{}, nil)
	require.NoError(t, err)

	_, err = svc.Quote(context.Background(), QuoteInput{
		FromCEP: "01310-100",
		ToCEP:   "30130-010",
		Lines:   []QuoteLine{validLine(t, "prod-1"), line},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidArgument, typed.Code())
	assert.Contains(t, typed.Message(), "prod-7")

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "prod-7", details["product_id"])
	assert.Equal(t, []string{"peso"}, details["missing"])
}

func TestQuoteRejectsZeroQuantity(t *testing.T) {
	line := validLine(t, "prod-3")
	line.Quantity = 0

	svc, err := NewService(&fakeCarrier{}, nil)
	require.NoError(t, err)

	_, err = svc.Quote(context.Background(), QuoteInput{
		FromCEP: "01310-100",
		ToCEP:   "30130-010",
		Lines:   []QuoteLine{line},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidArgument, typed.Code())
	assert.Contains(t, typed.Message(), "prod-3")
}

func TestQuoteEmptyOptionsIsSuccess(t *testing.T) {
	carrier := &fakeCarrier{options: []melhorenvio.QuoteOption{}}
	svc, err := NewService(carrier, nil)
	require.NoError(t, err)

	options, err := svc.Quote(context.Background(), QuoteInput{
		FromCEP: "01310-100",
		ToCEP:   "30130-010",
		Lines:   []QuoteLine{validLine(t, "prod-1")},
	})
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestQuotePropagatesCarrierError(t *testing.T) {
	carrier := &fakeCarrier{err: pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, "carrier down")}
	svc, err := NewService(carrier, nil)
	require.NoError(t, err)

	_, err = svc.Quote(context.Background(), QuoteInput{
		FromCEP: "01310-100",
		ToCEP:   "30130-010",
		Lines:   []QuoteLine{validLine(t, "prod-1")},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUpstreamUnavailable, typed.Code())
}
