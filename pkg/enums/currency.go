package enums

// Currency identifies the charge currency sent to the payment gateway.
type Currency string

// CurrencyBRL is the only currency the storefront sells in.
const CurrencyBRL Currency = "BRL"

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}
