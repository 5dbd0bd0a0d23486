package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"telenonym/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrNoCurrencySelected = errors.New("no currency selected")
	ErrCountdownActive    = errors.New("countdown already active")
	ErrSessionResolved    = errors.New("session already resolved")
)

// State is the payment session lifecycle position.
type State string

const (
	StateIdle             State = "idle"
	StateCurrencySelected State = "currency_selected"
	StateCounting         State = "counting"
	StateVerifying        State = "verifying"
	StateResolved         State = "resolved"
)

// Outcome is the result of a verification attempt.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomePending     Outcome = "pending"
	OutcomeDetected    Outcome = "detected"
	OutcomeNotDetected Outcome = "not-detected"
	OutcomeTimeout     Outcome = "timeout"
)

// Snapshot is an immutable view of session state for rendering.
type Snapshot struct {
	SessionID string        `json:"session_id"`
	ProductID string        `json:"product_id"`
	State     State         `json:"state"`
	Quote     *Quote        `json:"quote,omitempty"`
	Remaining int           `json:"remaining_seconds"`
	Outcome   Outcome       `json:"outcome,omitempty"`
	TxID      string        `json:"tx_id,omitempty"`
	Product   domain.Product `json:"product"`
}

// SessionConfig carries the timing knobs for a session. Tests inject short
// intervals; production uses one-second ticks.
type SessionConfig struct {
	CountdownSeconds int
	TickInterval     time.Duration
}

// Session is the per-checkout-attempt state machine:
// Idle -> CurrencySelected -> Counting -> Verifying -> Resolved.
//
// The countdown and verification for a given run execute on a single
// goroutine owned by that run. Selecting a currency or resetting bumps the
// generation counter and cancels the run's context, so a superseded run can
// never mutate the session again.
type Session struct {
	mu sync.Mutex

	id       uuid.UUID
	product  domain.Product
	resolver *Resolver
	poller   Poller
	cfg      SessionConfig

	state     State
	quote     *Quote
	remaining int
	outcome   Outcome
	txID      string

	gen    int
	cancel context.CancelFunc

	// onResolved fires once per resolved run, outside the session lock.
	onResolved func(Snapshot)
}

// NewSession creates an idle session for a product.
func NewSession(product domain.Product, resolver *Resolver, poller Poller, cfg SessionConfig, onResolved func(Snapshot)) *Session {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.CountdownSeconds <= 0 {
		cfg.CountdownSeconds = 60
	}
	return &Session{
		id:         uuid.New(),
		product:    product,
		resolver:   resolver,
		poller:     poller,
		cfg:        cfg,
		state:      StateIdle,
		onResolved: onResolved,
	}
}

// SelectCurrency moves the session to CurrencySelected, computing the quote.
// Allowed from any state; an in-flight countdown or verification is
// cancelled. An unsupported currency leaves the session untouched.
func (s *Session) SelectCurrency(currency Currency) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, err := s.resolver.Quote(s.product.Price, currency)
	if err != nil {
		return s.snapshotLocked(), err
	}

	s.cancelRunLocked()
	s.state = StateCurrencySelected
	s.quote = quote
	s.remaining = 0
	s.outcome = OutcomeNone
	s.txID = ""

	return s.snapshotLocked(), nil
}

// ConfirmPaid starts the countdown. Only valid from CurrencySelected: with
// no currency chosen it returns ErrNoCurrencySelected, while a countdown or
// verification is running it is a no-op returning ErrCountdownActive, and a
// resolved session returns ErrSessionResolved until a currency is selected
// again.
func (s *Session) ConfirmPaid(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
		return s.snapshotLocked(), ErrNoCurrencySelected
	case StateCounting, StateVerifying:
		return s.snapshotLocked(), ErrCountdownActive
	case StateResolved:
		return s.snapshotLocked(), ErrSessionResolved
	}

	if s.quote == nil {
		return s.snapshotLocked(), ErrNoCurrencySelected
	}

	s.gen++
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.state = StateCounting
	s.remaining = s.cfg.CountdownSeconds
	s.outcome = OutcomePending

	go s.run(runCtx, s.gen, *s.quote)

	return s.snapshotLocked(), nil
}

// Reset cancels any in-flight run and returns the session to Idle.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelRunLocked()
	s.state = StateIdle
	s.quote = nil
	s.remaining = 0
	s.outcome = OutcomeNone
	s.txID = ""

	return s.snapshotLocked()
}

// Snapshot returns the current state for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Quote returns the active quote, or ErrNoCurrencySelected.
func (s *Session) Quote() (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quote == nil {
		return Quote{}, ErrNoCurrencySelected
	}
	return *s.quote, nil
}

// run drives one countdown-and-verify cycle. Ticks are strictly sequential,
// one per interval; the run aborts silently whenever its generation has been
// superseded.
func (s *Session) run(ctx context.Context, gen int, quote Quote) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.remaining--
		if s.remaining > 0 {
			s.mu.Unlock()
			continue
		}
		s.remaining = 0
		s.state = StateVerifying
		s.mu.Unlock()
		break
	}

	result, err := s.poller.Poll(ctx, quote)
	if err != nil {
		// Cancelled mid-poll; the superseding run owns the session now.
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.state = StateResolved
	s.outcome = result.Outcome
	s.txID = result.TxID
	snap := s.snapshotLocked()
	callback := s.onResolved
	s.mu.Unlock()

	if callback != nil {
		callback(snap)
	}
}

func (s *Session) cancelRunLocked() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.id.String(),
		ProductID: s.product.ID,
		State:     s.state,
		Remaining: s.remaining,
		Outcome:   s.outcome,
		TxID:      s.txID,
		Product:   s.product,
	}
	if s.quote != nil {
		q := *s.quote
		snap.Quote = &q
	}
	return snap
}
