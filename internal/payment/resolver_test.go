package payment

import (
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestQuoteKnownAmounts(t *testing.T) {
	resolver := NewResolver()

	quote, err := resolver.Quote(100, CurrencyBTC)
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if quote.Amount != "0.00120000" {
		t.Errorf("Expected amount 0.00120000, got %s", quote.Amount)
	}
	if quote.Address != "bc1q4h77y69kwdcr558w7ejzyntmjr9xy5wsqp9sys" {
		t.Errorf("Unexpected BTC address: %s", quote.Address)
	}
	if quote.DisplayAddress != "bc1q4h77...qp9sys" {
		// first 8 chars + "..." + last 8 chars
		t.Errorf("Unexpected display address: %s", quote.DisplayAddress)
	}
}

func TestQuoteUnsupportedCurrency(t *testing.T) {
	resolver := NewResolver()

	_, err := resolver.Quote(100, Currency("DOGE"))
	if err != ErrUnsupportedCurrency {
		t.Errorf("Expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestProperty_QuoteAmountMatchesRate(t *testing.T) {
	resolver := NewResolver()
	currencies := Currencies()

	properties := gopter.NewProperties(nil)

	properties.Property("quoted amount is price times rate at 8 decimal places", prop.ForAll(
		func(price float64, idx int) bool {
			currency := currencies[idx%len(currencies)]

			quote, err := resolver.Quote(price, currency)
			if err != nil {
				t.Logf("FAIL: Quote failed for %s: %v", currency, err)
				return false
			}

			rate, err := resolver.Rate(currency)
			if err != nil {
				t.Logf("FAIL: Rate failed for %s: %v", currency, err)
				return false
			}

			expected := strconv.FormatFloat(price*rate, 'f', 8, 64)
			if quote.Amount != expected {
				t.Logf("FAIL: Amount mismatch for %s at price %f. Expected %s, got %s",
					currency, price, expected, quote.Amount)
				return false
			}

			// Exactly 8 digits after the decimal point
			parts := strings.Split(quote.Amount, ".")
			if len(parts) != 2 || len(parts[1]) != 8 {
				t.Logf("FAIL: Amount %s is not formatted to 8 decimal places", quote.Amount)
				return false
			}

			return true
		},
		gen.Float64Range(0.01, 99999.99),
		gen.IntRange(0, len(currencies)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_DisplayAddressTruncation(t *testing.T) {
	resolver := NewResolver()

	properties := gopter.NewProperties(nil)

	properties.Property("long addresses show first and last 8 characters", prop.ForAll(
		func(idx int) bool {
			currencies := Currencies()
			currency := currencies[idx%len(currencies)]

			quote, err := resolver.Quote(50, currency)
			if err != nil {
				t.Logf("FAIL: Quote failed for %s: %v", currency, err)
				return false
			}

			if len(quote.Address) <= 16 {
				return quote.DisplayAddress == quote.Address
			}

			expected := quote.Address[:8] + "..." + quote.Address[len(quote.Address)-8:]
			if quote.DisplayAddress != expected {
				t.Logf("FAIL: Display address mismatch for %s. Expected %s, got %s",
					currency, expected, quote.DisplayAddress)
				return false
			}
			return true
		},
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPaymentURISchemes(t *testing.T) {
	resolver := NewResolver()

	tests := []struct {
		currency Currency
		prefix   string
	}{
		{CurrencyBTC, "bitcoin:"},
		{CurrencyETH, "ethereum:"},
		{CurrencyLitecoin, "litecoin:"},
		{CurrencyUSDT, "T"},   // bare address
		{CurrencySolana, "B"}, // bare address
		{CurrencyXMR, "8"},    // bare address
	}

	for _, tt := range tests {
		quote, err := resolver.Quote(100, tt.currency)
		if err != nil {
			t.Fatalf("Quote failed for %s: %v", tt.currency, err)
		}
		uri := quote.PaymentURI()
		if !strings.HasPrefix(uri, tt.prefix) {
			t.Errorf("Expected %s URI to start with %q, got %s", tt.currency, tt.prefix, uri)
		}
	}

	btcQuote, _ := resolver.Quote(100, CurrencyBTC)
	if !strings.Contains(btcQuote.PaymentURI(), "?amount="+btcQuote.Amount) {
		t.Errorf("BTC URI should carry the amount: %s", btcQuote.PaymentURI())
	}

	ethQuote, _ := resolver.Quote(100, CurrencyETH)
	if strings.Contains(ethQuote.PaymentURI(), "amount") {
		t.Errorf("ETH URI should not carry an amount: %s", ethQuote.PaymentURI())
	}
}

func TestResolverWithInjectedTables(t *testing.T) {
	resolver := NewResolverWithTables(
		map[Currency]float64{CurrencyBTC: 0.5},
		map[Currency]string{CurrencyBTC: "short-addr"},
	)

	quote, err := resolver.Quote(10, CurrencyBTC)
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.Amount != "5.00000000" {
		t.Errorf("Expected 5.00000000, got %s", quote.Amount)
	}
	if quote.DisplayAddress != "short-addr" {
		t.Errorf("Short addresses should not be truncated, got %s", quote.DisplayAddress)
	}

	_, err = resolver.Quote(10, CurrencyETH)
	if err != ErrUnsupportedCurrency {
		t.Errorf("Expected ErrUnsupportedCurrency for missing table entry, got %v", err)
	}
}
