package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telenonym/internal/clock"
	"telenonym/internal/domain"
	"telenonym/internal/events"
	"telenonym/internal/notify"
	"telenonym/internal/payment"
	"telenonym/internal/repository"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// PaymentService drives the checkout flow: one payment session per user,
// moving through currency selection, countdown, and verification.
type PaymentService interface {
	CreateSession(ctx context.Context, userID int64, productID string) (payment.Snapshot, error)
	SelectCurrency(ctx context.Context, userID int64, currency payment.Currency) (payment.Snapshot, error)
	ConfirmPaid(ctx context.Context, userID int64) (payment.Snapshot, error)
	GetSession(userID int64) (payment.Snapshot, error)
	ResetSession(userID int64) (payment.Snapshot, error)
	QRCode(userID int64, size int) ([]byte, error)
}

type paymentService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	manager     *payment.Manager
	resolver    *payment.Resolver
	poller      payment.Poller
	sessionCfg  payment.SessionConfig
	sink        notify.Sink
	producer    *events.Producer
	clock       clock.Clock
	logger      *zap.Logger
}

// NewPaymentService creates a new instance of PaymentService. producer may
// be nil when event publishing is disabled.
func NewPaymentService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	manager *payment.Manager,
	resolver *payment.Resolver,
	poller payment.Poller,
	sessionCfg payment.SessionConfig,
	sink notify.Sink,
	producer *events.Producer,
	clk clock.Clock,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		manager:     manager,
		resolver:    resolver,
		poller:      poller,
		sessionCfg:  sessionCfg,
		sink:        sink,
		producer:    producer,
		clock:       clk,
		logger:      logger,
	}
}

// CreateSession starts a fresh idle session for the product, replacing and
// cancelling any session the user already had.
func (s *paymentService) CreateSession(ctx context.Context, userID int64, productID string) (payment.Snapshot, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return payment.Snapshot{}, err
	}

	session := payment.NewSession(*product, s.resolver, s.poller, s.sessionCfg, func(snap payment.Snapshot) {
		s.handleResolved(userID, snap)
	})
	s.manager.Put(userID, session)

	s.sink.Push(userID, notify.Note{
		Title:      "Proceeding to Payment",
		Body:       "Please select your preferred payment method",
		Severity:   notify.SeverityInfo,
		DurationMS: 2000,
	})

	return session.Snapshot(), nil
}

// SelectCurrency computes the quote for the chosen currency, cancelling any
// in-flight countdown. An unsupported currency leaves the session unchanged.
func (s *paymentService) SelectCurrency(ctx context.Context, userID int64, currency payment.Currency) (payment.Snapshot, error) {
	session, err := s.manager.Get(userID)
	if err != nil {
		return payment.Snapshot{}, err
	}

	snap, err := session.SelectCurrency(currency)
	if err != nil {
		return snap, err
	}

	s.sink.Push(userID, notify.Note{
		Title:      "Payment Method Selected",
		Body:       fmt.Sprintf("You've selected %s as your payment method", currency),
		Severity:   notify.SeverityInfo,
		DurationMS: 2000,
	})

	return snap, nil
}

// ConfirmPaid starts the verification countdown.
func (s *paymentService) ConfirmPaid(ctx context.Context, userID int64) (payment.Snapshot, error) {
	session, err := s.manager.Get(userID)
	if err != nil {
		return payment.Snapshot{}, err
	}

	snap, err := session.ConfirmPaid(ctx)
	if err != nil {
		if err == payment.ErrNoCurrencySelected {
			s.sink.Push(userID, notify.Note{
				Title:      "No Cryptocurrency Selected",
				Body:       "Please select a cryptocurrency first",
				Severity:   notify.SeverityError,
				DurationMS: 2000,
			})
		}
		return snap, err
	}

	s.sink.Push(userID, notify.Note{
		Title:      "Payment Verification Started",
		Body:       "We are now checking for your payment",
		Severity:   notify.SeverityInfo,
		DurationMS: 2000,
	})

	return snap, nil
}

// GetSession returns the user's current session state.
func (s *paymentService) GetSession(userID int64) (payment.Snapshot, error) {
	session, err := s.manager.Get(userID)
	if err != nil {
		return payment.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// ResetSession cancels any in-flight verification and returns to idle.
func (s *paymentService) ResetSession(userID int64) (payment.Snapshot, error) {
	session, err := s.manager.Get(userID)
	if err != nil {
		return payment.Snapshot{}, err
	}
	return session.Reset(), nil
}

// QRCode renders the wallet URI for the active quote as a PNG.
func (s *paymentService) QRCode(userID int64, size int) ([]byte, error) {
	session, err := s.manager.Get(userID)
	if err != nil {
		return nil, err
	}

	quote, err := session.Quote()
	if err != nil {
		return nil, err
	}

	if size <= 0 {
		size = 200
	}

	png, err := qrcode.Encode(quote.PaymentURI(), qrcode.High, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// handleResolved runs once per resolved verification attempt: it notifies
// the user, records an order for detected payments, and publishes the
// session event for downstream fulfillment.
func (s *paymentService) handleResolved(userID int64, snap payment.Snapshot) {
	switch snap.Outcome {
	case payment.OutcomeDetected:
		s.recordOrder(userID, snap)
		s.sink.Push(userID, notify.Note{
			Title:      "Payment Confirmed",
			Body:       "Your payment was detected and your order is being delivered",
			Severity:   notify.SeverityInfo,
			DurationMS: 3000,
		})
	case payment.OutcomeTimeout:
		s.sink.Push(userID, notify.Note{
			Title:      "Verification Timed Out",
			Body:       "We stopped checking for your payment. Please try again",
			Severity:   notify.SeverityError,
			DurationMS: 3000,
		})
	default:
		s.sink.Push(userID, notify.Note{
			Title:      "Payment Not Detected",
			Body:       "Please ensure you've sent the correct amount",
			Severity:   notify.SeverityError,
			DurationMS: 3000,
		})
	}

	if s.producer != nil {
		event := events.SessionResolved{
			SessionID:  snap.SessionID,
			UserID:     userID,
			ProductID:  snap.ProductID,
			Outcome:    string(snap.Outcome),
			TxID:       snap.TxID,
			ResolvedAt: s.clock.Now(),
		}
		if snap.Quote != nil {
			event.Currency = string(snap.Quote.Currency)
			event.Amount = snap.Quote.Amount
		}
		s.producer.PublishResolved(event)
	}
}

func (s *paymentService) recordOrder(userID int64, snap payment.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	order := &domain.Order{
		ID:            "ORD-" + strings.ToUpper(uuid.NewString()[:8]),
		UserID:        userID,
		Product:       snap.Product.Name,
		Amount:        snap.Product.Price,
		Status:        domain.OrderCompleted,
		TransactionID: snap.TxID,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to record order for detected payment",
			zap.Error(err),
			zap.String("session_id", snap.SessionID),
			zap.Int64("user_id", userID),
		)
		return
	}

	s.logger.Info("Order recorded",
		zap.String("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.String("tx_id", snap.TxID),
	)
}
