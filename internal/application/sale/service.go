package sale

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/grocerpos/terminal/internal/domain/cart"
	"github.com/grocerpos/terminal/internal/domain/catalog"
	"github.com/grocerpos/terminal/internal/domain/checkout"
	"github.com/grocerpos/terminal/internal/infrastructure/backend"
	"github.com/grocerpos/terminal/internal/infrastructure/metrics"
	"github.com/grocerpos/terminal/internal/pkg/logging"
)

const tracerName = "grocerpos-terminal"

// Service owns the active sale: the cart ledger and the checkout machine.
// One instance per terminal session.
type Service struct {
	mu       sync.Mutex
	cart     cart.Cart
	machine  *checkout.Machine
	artifact *checkout.PaymentArtifact
	last     *checkout.Result

	backend     Backend
	ids         IDGenerator
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	onCompleted CompletionFunc
}

func NewService(b Backend, ids IDGenerator, m *metrics.Metrics, onCompleted CompletionFunc) *Service {
	return &Service{
		cart:        cart.New(),
		machine:     checkout.NewMachine(),
		backend:     b,
		ids:         ids,
		metrics:     m,
		tracer:      otel.Tracer(tracerName),
		onCompleted: onCompleted,
	}
}

// AddItem merges the product into the cart at its current catalog price.
func (s *Service) AddItem(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = s.cart.Add(p)
}

func (s *Service) Increment(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = s.cart.Increment(productID)
}

func (s *Service) Decrement(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = s.cart.Decrement(productID)
}

func (s *Service) Remove(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = s.cart.Remove(productID)
}

func (s *Service) Lines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Service) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Subtotal()
}

func (s *Service) Status() checkout.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Status()
}

// Failure reports the stage and reason of the last failed checkout, empty
// outside the Failed state.
func (s *Service) Failure() (checkout.Stage, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.FailureStage, s.machine.FailureReason
}

// Artifact returns the held QR payload of the current online sale, if any.
func (s *Service) Artifact() *checkout.PaymentArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifact == nil {
		return nil
	}
	a := *s.artifact
	return &a
}

// Acknowledge dismisses a Completed or Failed outcome, returning to Idle.
// The cart is left as-is: after a failure the operator may edit and retry.
func (s *Service) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Acknowledge()
}

// Reset abandons the sale entirely: empty cart, Idle machine, no artifact.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = cart.New()
	s.artifact = nil
	s.last = nil
	s.machine.Reset()
}

// Checkout submits the current cart exactly once. The submission is a
// snapshot: cart edits made while the request is in flight do not reach it,
// and a retry after a failure re-reads the cart.
//
// Cash: on acceptance the cart is cleared and the completion signal fires.
// Online: on acceptance a QR artifact is requested and held; the cart stays
// intact because settlement is confirmed externally. When the QR request
// itself fails the returned Result is still non-nil — the order exists
// server-side even though no artifact could be produced.
func (s *Service) Checkout(ctx context.Context, method checkout.PaymentMethod) (*checkout.Result, error) {
	s.mu.Lock()
	if s.cart.Empty() {
		s.mu.Unlock()
		return nil, checkout.ErrEmptyCart
	}
	if err := s.machine.Submit(); err != nil {
		status := s.machine.Status()
		s.mu.Unlock()
		return nil, fmt.Errorf("sale: checkout while %s: %w", status, err)
	}
	s.artifact = nil
	s.last = nil
	sub := checkout.NewSubmission(s.cart, method)
	s.mu.Unlock()

	attemptID := s.ids.NewID()
	logger := logging.FromContext(ctx).With(
		zap.String("attempt_id", attemptID),
		zap.String("payment_method", string(method)),
	)

	ctx, span := s.tracer.Start(ctx, "UC.Checkout", trace.WithAttributes(
		attribute.String("checkout.attempt_id", attemptID),
		attribute.String("checkout.method", string(method)),
		attribute.Int("checkout.lines", len(sub.Lines)),
	))
	defer span.End()

	logger.Info("checkout_start", zap.Int("lines", len(sub.Lines)))

	result, err := s.backend.SubmitOrder(ctx, sub)
	if err != nil {
		reason := backend.Reason(err, "checkout failed")
		s.mu.Lock()
		_ = s.machine.Rejected(reason)
		s.mu.Unlock()

		s.observe(method, "rejected")
		span.RecordError(err)
		span.SetStatus(codes.Error, "SUBMISSION_REJECTED")
		logger.Warn("checkout_rejected", zap.String("reason", reason), zap.Error(err))
		return nil, fmt.Errorf("sale: submit order: %w", err)
	}

	span.SetAttributes(attribute.String("checkout.order_id", result.OrderID))

	if method == checkout.MethodCash {
		s.mu.Lock()
		_ = s.machine.AcceptedCash()
		s.cart = cart.New()
		s.last = &result
		s.mu.Unlock()

		s.observe(method, "completed")
		span.SetStatus(codes.Ok, "COMPLETED")
		logger.Info("checkout_completed",
			zap.String("order_id", result.OrderID),
			zap.String("total", result.Total.String()),
		)
		if s.onCompleted != nil {
			s.onCompleted(result)
		}
		return &result, nil
	}

	s.mu.Lock()
	_ = s.machine.AcceptedOnline()
	s.last = &result
	s.mu.Unlock()

	qr, err := s.backend.GenerateQR(ctx, result.OrderID, result.Total)
	if err != nil {
		reason := backend.Reason(err, "qr generation failed")
		s.mu.Lock()
		_ = s.machine.ArtifactFailed(reason)
		s.mu.Unlock()

		s.observe(method, "qr_failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "QR_GENERATION_FAILED")
		logger.Warn("checkout_qr_failed",
			zap.String("order_id", result.OrderID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return &result, fmt.Errorf("sale: generate qr for order %s: %w", result.OrderID, err)
	}

	s.mu.Lock()
	_ = s.machine.ArtifactReady()
	s.artifact = &checkout.PaymentArtifact{OrderID: result.OrderID, QR: qr}
	s.mu.Unlock()

	s.observe(method, "awaiting_payment")
	span.SetStatus(codes.Ok, "AWAITING_ONLINE_PAYMENT")
	logger.Info("checkout_awaiting_payment",
		zap.String("order_id", result.OrderID),
		zap.String("total", result.Total.String()),
	)
	return &result, nil
}

func (s *Service) observe(method checkout.PaymentMethod, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Checkouts.WithLabelValues(string(method), outcome).Inc()
}
