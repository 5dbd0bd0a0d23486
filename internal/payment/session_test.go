package payment

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"telenonym/internal/domain"
)

func testProduct() domain.Product {
	return domain.Product{
		ID:    "prod-1",
		Name:  "Test Listing",
		Price: 100,
	}
}

// fakePoller resolves immediately with a fixed result.
type fakePoller struct {
	result Result
}

func (p fakePoller) Poll(ctx context.Context, _ Quote) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return p.result, nil
}

// blockingPoller never resolves until its context is cancelled.
type blockingPoller struct{}

func (blockingPoller) Poll(ctx context.Context, _ Quote) (Result, error) {
	<-ctx.Done()
	return Result{}, ctx.Err()
}

func fastConfig(countdown int) SessionConfig {
	return SessionConfig{
		CountdownSeconds: countdown,
		TickInterval:     time.Millisecond,
	}
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestConfirmWithoutCurrencyDoesNotTransition(t *testing.T) {
	session := NewSession(testProduct(), NewResolver(), fakePoller{}, fastConfig(2), nil)

	snap, err := session.ConfirmPaid(context.Background())
	if err != ErrNoCurrencySelected {
		t.Errorf("Expected ErrNoCurrencySelected, got %v", err)
	}
	if snap.State != StateIdle {
		t.Errorf("Session should stay idle, got %s", snap.State)
	}
}

func TestSelectCurrencyComputesQuote(t *testing.T) {
	session := NewSession(testProduct(), NewResolver(), fakePoller{}, fastConfig(2), nil)

	snap, err := session.SelectCurrency(CurrencyBTC)
	if err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}
	if snap.State != StateCurrencySelected {
		t.Errorf("Expected currency_selected, got %s", snap.State)
	}
	if snap.Quote == nil || snap.Quote.Amount != "0.00120000" {
		t.Errorf("Expected BTC quote of 0.00120000, got %+v", snap.Quote)
	}
}

func TestSelectUnsupportedCurrencyLeavesSessionUntouched(t *testing.T) {
	session := NewSession(testProduct(), NewResolver(), fakePoller{}, fastConfig(2), nil)

	if _, err := session.SelectCurrency(CurrencyETH); err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}

	snap, err := session.SelectCurrency(Currency("DOGE"))
	if err != ErrUnsupportedCurrency {
		t.Errorf("Expected ErrUnsupportedCurrency, got %v", err)
	}
	if snap.State != StateCurrencySelected {
		t.Errorf("Failed selection should not change state, got %s", snap.State)
	}
	if snap.Quote == nil || snap.Quote.Currency != CurrencyETH {
		t.Errorf("Failed selection should not change the quote, got %+v", snap.Quote)
	}
}

func TestConfirmWhileCountingIsNoOp(t *testing.T) {
	session := NewSession(testProduct(), NewResolver(), blockingPoller{}, fastConfig(1000), nil)

	if _, err := session.SelectCurrency(CurrencyBTC); err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}
	if _, err := session.ConfirmPaid(context.Background()); err != nil {
		t.Fatalf("ConfirmPaid failed: %v", err)
	}

	snap, err := session.ConfirmPaid(context.Background())
	if err != ErrCountdownActive {
		t.Errorf("Expected ErrCountdownActive, got %v", err)
	}
	if snap.State != StateCounting {
		t.Errorf("Second confirm should not change state, got %s", snap.State)
	}

	session.Reset()
}

func TestCountdownResolvesNotDetected(t *testing.T) {
	var resolvedCount atomic.Int32
	session := NewSession(testProduct(), NewResolver(),
		fakePoller{result: Result{Outcome: OutcomeNotDetected}},
		fastConfig(3),
		func(snap Snapshot) {
			resolvedCount.Add(1)
		})

	if _, err := session.SelectCurrency(CurrencyBTC); err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}

	snap, err := session.ConfirmPaid(context.Background())
	if err != nil {
		t.Fatalf("ConfirmPaid failed: %v", err)
	}
	if snap.State != StateCounting {
		t.Errorf("Expected counting, got %s", snap.State)
	}
	if snap.Remaining != 3 {
		t.Errorf("Expected 3 seconds remaining, got %d", snap.Remaining)
	}
	if snap.Outcome != OutcomePending {
		t.Errorf("Expected pending outcome while counting, got %q", snap.Outcome)
	}

	waitFor(t, time.Second, func() bool {
		return session.Snapshot().State == StateResolved
	})

	final := session.Snapshot()
	if final.Outcome != OutcomeNotDetected {
		t.Errorf("Expected not-detected, got %q", final.Outcome)
	}
	if final.Remaining != 0 {
		t.Errorf("Expected remaining 0 after resolution, got %d", final.Remaining)
	}
	if got := resolvedCount.Load(); got != 1 {
		t.Errorf("Callback should fire exactly once, fired %d times", got)
	}
}

func TestDetectedOutcomeCarriesTransactionID(t *testing.T) {
	resolved := make(chan Snapshot, 1)
	session := NewSession(testProduct(), NewResolver(),
		fakePoller{result: Result{Outcome: OutcomeDetected, TxID: "tx-abc"}},
		fastConfig(1),
		func(snap Snapshot) {
			resolved <- snap
		})

	if _, err := session.SelectCurrency(CurrencyXMR); err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}
	if _, err := session.ConfirmPaid(context.Background()); err != nil {
		t.Fatalf("ConfirmPaid failed: %v", err)
	}

	select {
	case snap := <-resolved:
		if snap.Outcome != OutcomeDetected {
			t.Errorf("Expected detected, got %q", snap.Outcome)
		}
		if snap.TxID != "tx-abc" {
			t.Errorf("Expected tx-abc, got %q", snap.TxID)
		}
	case <-time.After(time.Second):
		t.Fatal("Resolution callback never fired")
	}
}

func TestReselectDuringCountdownCancelsStaleRun(t *testing.T) {
	var resolvedCount atomic.Int32
	session := NewSession(testProduct(), NewResolver(),
		fakePoller{result: Result{Outcome: OutcomeNotDetected}},
		fastConfig(2),
		func(Snapshot) {
			resolvedCount.Add(1)
		})

	if _, err := session.SelectCurrency(CurrencyBTC); err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}
	if _, err := session.ConfirmPaid(context.Background()); err != nil {
		t.Fatalf("ConfirmPaid failed: %v", err)
	}

	// Re-selecting mid-countdown supersedes the running attempt.
	snap, err := session.SelectCurrency(CurrencyETH)
	if err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}
	if snap.State != StateCurrencySelected {
		t.Errorf("Expected currency_selected, got %s", snap.State)
	}
	if snap.Quote.Currency != CurrencyETH {
		t.Errorf("Expected ETH quote, got %s", snap.Quote.Currency)
	}

	// Give the stale run time to fire if cancellation were broken.
	time.Sleep(50 * time.Millisecond)

	if got := resolvedCount.Load(); got != 0 {
		t.Errorf("Superseded run should never resolve, callback fired %d times", got)
	}
	if state := session.Snapshot().State; state != StateCurrencySelected {
		t.Errorf("Stale run mutated the session, state is %s", state)
	}
}

func TestResetDuringVerificationReturnsToIdle(t *testing.T) {
	var resolvedCount atomic.Int32
	session := NewSession(testProduct(), NewResolver(), blockingPoller{}, fastConfig(1),
		func(Snapshot) {
			resolvedCount.Add(1)
		})

	if _, err := session.SelectCurrency(CurrencyBTC); err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}
	if _, err := session.ConfirmPaid(context.Background()); err != nil {
		t.Fatalf("ConfirmPaid failed: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		return session.Snapshot().State == StateVerifying
	})

	snap := session.Reset()
	if snap.State != StateIdle {
		t.Errorf("Expected idle after reset, got %s", snap.State)
	}
	if snap.Quote != nil {
		t.Errorf("Reset should clear the quote, got %+v", snap.Quote)
	}

	time.Sleep(50 * time.Millisecond)
	if got := resolvedCount.Load(); got != 0 {
		t.Errorf("Cancelled verification should never resolve, callback fired %d times", got)
	}
}

func TestConfirmAfterResolvedRequiresReselect(t *testing.T) {
	session := NewSession(testProduct(), NewResolver(),
		fakePoller{result: Result{Outcome: OutcomeNotDetected}},
		fastConfig(1), nil)

	if _, err := session.SelectCurrency(CurrencyBTC); err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}
	if _, err := session.ConfirmPaid(context.Background()); err != nil {
		t.Fatalf("ConfirmPaid failed: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		return session.Snapshot().State == StateResolved
	})

	snap, err := session.ConfirmPaid(context.Background())
	if err != ErrSessionResolved {
		t.Errorf("Expected ErrSessionResolved from resolved state, got %v", err)
	}
	if snap.State != StateResolved {
		t.Errorf("Rejected confirm should not change state, got %s", snap.State)
	}

	// Selecting again clears the outcome and allows a fresh attempt.
	snap, err = session.SelectCurrency(CurrencyBTC)
	if err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}
	if snap.Outcome != OutcomeNone {
		t.Errorf("Re-selection should clear the outcome, got %q", snap.Outcome)
	}
	if _, err := session.ConfirmPaid(context.Background()); err != nil {
		t.Errorf("Confirm after re-selection should succeed, got %v", err)
	}
}

func TestSessionSurvivesRequestContextCancellation(t *testing.T) {
	session := NewSession(testProduct(), NewResolver(),
		fakePoller{result: Result{Outcome: OutcomeNotDetected}},
		fastConfig(2), nil)

	if _, err := session.SelectCurrency(CurrencyBTC); err != nil {
		t.Fatalf("SelectCurrency failed: %v", err)
	}

	// The countdown must outlive the HTTP request that started it.
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := session.ConfirmPaid(ctx); err != nil {
		t.Fatalf("ConfirmPaid failed: %v", err)
	}
	cancel()

	waitFor(t, time.Second, func() bool {
		return session.Snapshot().State == StateResolved
	})

	if outcome := session.Snapshot().Outcome; outcome != OutcomeNotDetected {
		t.Errorf("Expected not-detected, got %q", outcome)
	}
}
