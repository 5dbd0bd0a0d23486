package payment

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Currency is the closed set of accepted cryptocurrencies.
type Currency string

const (
	CurrencyBTC      Currency = "BTC"
	CurrencyETH      Currency = "ETH"
	CurrencyUSDT     Currency = "USDT"
	CurrencySolana   Currency = "SOLANA"
	CurrencyLitecoin Currency = "LITECOIN"
	CurrencyXMR      Currency = "XMR"
)

// Currencies lists the accepted currencies in display order.
func Currencies() []Currency {
	return []Currency{CurrencyBTC, CurrencyETH, CurrencyUSDT, CurrencySolana, CurrencyLitecoin, CurrencyXMR}
}

// Quote is a resolved payment request: the converted amount and the
// destination address for a chosen currency.
type Quote struct {
	Currency       Currency `json:"currency"`
	Amount         string   `json:"amount"` // formatted to 8 decimal places
	Address        string   `json:"address"`
	DisplayAddress string   `json:"display_address"` // first8...last8 truncation
}

// Resolver maps a product price and currency to a pay-amount and
// destination address. Pure lookup and arithmetic, no side effects.
type Resolver struct {
	rates     map[Currency]float64
	addresses map[Currency]string
}

// NewResolver returns a resolver backed by the fixed rate and address tables.
func NewResolver() *Resolver {
	return &Resolver{
		rates: map[Currency]float64{
			CurrencyBTC:      0.000012,
			CurrencyETH:      0.0005,
			CurrencyUSDT:     1,
			CurrencySolana:   0.0078,
			CurrencyLitecoin: 0.011,
			CurrencyXMR:      0.0047,
		},
		addresses: map[Currency]string{
			CurrencyBTC:      "bc1q4h77y69kwdcr558w7ejzyntmjr9xy5wsqp9sys",
			CurrencyETH:      "0x1f2a5b807058c171aa28a19b21ee77a1ab93da06",
			CurrencyUSDT:     "TUZKzK18cp2J1gxK9zNrEBkARBntgcZFEz",
			CurrencySolana:   "B2fBMqSxTRRYpNHVHCKB5vi5iA7y6wXAEs3UkBrvi3Pf",
			CurrencyLitecoin: "LU2KwsLukY2onmTRwtbTfLQserH6StS496",
			CurrencyXMR:      "85XyJpNNE7CFiyqKdgKbLXVrUbtabDrY3dk7QzzTVeETU9zMrTWTrN4WqTHQfvf89EfzoAb1Yd6JMc6W1nBbjSaWBgePuNM",
		},
	}
}

// NewResolverWithTables returns a resolver with injected rate and address
// tables, for deployments sourcing them from configuration.
func NewResolverWithTables(rates map[Currency]float64, addresses map[Currency]string) *Resolver {
	return &Resolver{rates: rates, addresses: addresses}
}

// Quote converts a price into the chosen currency. Returns
// ErrUnsupportedCurrency for anything outside the fixed set.
func (r *Resolver) Quote(price float64, currency Currency) (*Quote, error) {
	rate, ok := r.rates[currency]
	if !ok {
		return nil, ErrUnsupportedCurrency
	}

	address, ok := r.addresses[currency]
	if !ok {
		return nil, ErrUnsupportedCurrency
	}

	return &Quote{
		Currency:       currency,
		Amount:         strconv.FormatFloat(price*rate, 'f', 8, 64),
		Address:        address,
		DisplayAddress: truncateAddress(address),
	}, nil
}

// Rate returns the fixed conversion rate for a currency.
func (r *Resolver) Rate(currency Currency) (float64, error) {
	rate, ok := r.rates[currency]
	if !ok {
		return 0, ErrUnsupportedCurrency
	}
	return rate, nil
}

// PaymentURI formats the wallet URI encoded into the QR code. Currencies
// without a common URI scheme fall back to the bare address.
func (q *Quote) PaymentURI() string {
	switch q.Currency {
	case CurrencyBTC:
		return fmt.Sprintf("bitcoin:%s?amount=%s", q.Address, q.Amount)
	case CurrencyETH:
		return fmt.Sprintf("ethereum:%s", q.Address)
	case CurrencyLitecoin:
		return fmt.Sprintf("litecoin:%s?amount=%s", q.Address, q.Amount)
	default:
		return q.Address
	}
}

func truncateAddress(address string) string {
	if len(address) <= 16 {
		return address
	}
	return address[:8] + "..." + address[len(address)-8:]
}
