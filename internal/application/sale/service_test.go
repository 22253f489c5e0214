package sale

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerpos/terminal/internal/domain/catalog"
	"github.com/grocerpos/terminal/internal/domain/checkout"
	"github.com/grocerpos/terminal/internal/infrastructure/backend"
)

type mockBackend struct {
	mu          sync.Mutex
	submissions []checkout.Submission
	submitRes   checkout.Result
	submitErr   error
	onSubmit    func()

	qrOrders []string
	qr       string
	qrErr    error
}

func (m *mockBackend) SubmitOrder(_ context.Context, sub checkout.Submission) (checkout.Result, error) {
	m.mu.Lock()
	m.submissions = append(m.submissions, sub)
	hook := m.onSubmit
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if m.submitErr != nil {
		return checkout.Result{}, m.submitErr
	}
	return m.submitRes, nil
}

func (m *mockBackend) GenerateQR(_ context.Context, orderID string, _ decimal.Decimal) (string, error) {
	m.mu.Lock()
	m.qrOrders = append(m.qrOrders, orderID)
	m.mu.Unlock()

	if m.qrErr != nil {
		return "", m.qrErr
	}
	return m.qr, nil
}

func (m *mockBackend) submissionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions)
}

type staticIDs struct{}

func (staticIDs) NewID() string { return "attempt-1" }

func milk() catalog.Product {
	return catalog.Product{ID: 1, Title: "Milk", Price: decimal.RequireFromString("2.50")}
}

func soap() catalog.Product {
	return catalog.Product{ID: 2, Title: "Soap", Price: decimal.RequireFromString("5.00")}
}

func TestCashCheckoutClearsCartAndSignalsOnce(t *testing.T) {
	b := &mockBackend{submitRes: checkout.Result{OrderID: "O1", Total: decimal.RequireFromString("5.00")}}
	completions := 0
	svc := NewService(b, staticIDs{}, nil, func(checkout.Result) { completions++ })

	svc.AddItem(milk())
	svc.AddItem(milk())

	result, err := svc.Checkout(context.Background(), checkout.MethodCash)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "O1", result.OrderID)
	assert.Empty(t, svc.Lines())
	assert.Equal(t, 1, completions)
	assert.Equal(t, checkout.StatusCompleted, svc.Status())

	require.Equal(t, 1, b.submissionCount())
	sub := b.submissions[0]
	require.Len(t, sub.Lines, 1)
	assert.Equal(t, 2, sub.Lines[0].Quantity)
	assert.Equal(t, checkout.MethodCash, sub.Method)
}

func TestOnlineCheckoutKeepsCartAndHoldsArtifact(t *testing.T) {
	b := &mockBackend{
		submitRes: checkout.Result{OrderID: "A1", Total: decimal.RequireFromString("5.00")},
		qr:        "data:image/png;base64,xyz",
	}
	completions := 0
	svc := NewService(b, staticIDs{}, nil, func(checkout.Result) { completions++ })

	svc.AddItem(soap())

	result, err := svc.Checkout(context.Background(), checkout.MethodOnline)

	require.NoError(t, err)
	require.NotNil(t, result)

	// Settlement is unconfirmed, so the cart stays as it was.
	lines := svc.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Soap", lines[0].Title)

	artifact := svc.Artifact()
	require.NotNil(t, artifact)
	assert.Equal(t, "A1", artifact.OrderID)
	assert.Equal(t, "data:image/png;base64,xyz", artifact.QR)

	assert.Equal(t, 0, completions)
	assert.Equal(t, checkout.StatusAwaitingOnlinePayment, svc.Status())
	assert.Equal(t, []string{"A1"}, b.qrOrders)
}

func TestRejectedSubmissionLeavesCartAndReturnsToIdle(t *testing.T) {
	b := &mockBackend{submitErr: &backend.APIError{StatusCode: 400, Detail: "insufficient stock"}}
	svc := NewService(b, staticIDs{}, nil, nil)

	svc.AddItem(milk())

	result, err := svc.Checkout(context.Background(), checkout.MethodCash)

	require.Error(t, err)
	assert.Nil(t, result)
	require.Len(t, svc.Lines(), 1)
	assert.Equal(t, checkout.StatusFailed, svc.Status())

	stage, reason := svc.Failure()
	assert.Equal(t, checkout.StageSubmission, stage)
	assert.Equal(t, "insufficient stock", reason)

	require.NoError(t, svc.Acknowledge())
	assert.Equal(t, checkout.StatusIdle, svc.Status())
	assert.Len(t, svc.Lines(), 1)
}

func TestQRFailureIsReportedSeparately(t *testing.T) {
	b := &mockBackend{
		submitRes: checkout.Result{OrderID: "A2", Total: decimal.RequireFromString("5.00")},
		qrErr:     &backend.APIError{StatusCode: 502, Detail: "qr provider unavailable"},
	}
	svc := NewService(b, staticIDs{}, nil, nil)

	svc.AddItem(soap())

	result, err := svc.Checkout(context.Background(), checkout.MethodOnline)

	require.Error(t, err)
	// The order was accepted; the caller learns its id even though the QR
	// request failed.
	require.NotNil(t, result)
	assert.Equal(t, "A2", result.OrderID)

	stage, reason := svc.Failure()
	assert.Equal(t, checkout.StageQR, stage)
	assert.Equal(t, "qr provider unavailable", reason)
	assert.Nil(t, svc.Artifact())
	assert.Len(t, svc.Lines(), 1)
}

func TestEmptyCartCheckoutMakesNoRequest(t *testing.T) {
	b := &mockBackend{}
	svc := NewService(b, staticIDs{}, nil, nil)

	_, err := svc.Checkout(context.Background(), checkout.MethodCash)

	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.Equal(t, 0, b.submissionCount())
	assert.Equal(t, checkout.StatusIdle, svc.Status())
}

func TestCheckoutWhileAwaitingPaymentIsRejected(t *testing.T) {
	b := &mockBackend{
		submitRes: checkout.Result{OrderID: "A1", Total: decimal.RequireFromString("5.00")},
		qr:        "data:qr",
	}
	svc := NewService(b, staticIDs{}, nil, nil)
	svc.AddItem(soap())

	_, err := svc.Checkout(context.Background(), checkout.MethodOnline)
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), checkout.MethodOnline)

	assert.ErrorIs(t, err, checkout.ErrInvalidTransition)
	assert.Equal(t, 1, b.submissionCount())
}

func TestRetryAfterFailureReReadsTheCart(t *testing.T) {
	b := &mockBackend{submitErr: &backend.APIError{StatusCode: 500, Detail: "try later"}}
	svc := NewService(b, staticIDs{}, nil, nil)

	svc.AddItem(milk())
	_, err := svc.Checkout(context.Background(), checkout.MethodCash)
	require.Error(t, err)
	require.NoError(t, svc.Acknowledge())

	// Operator edits between attempts; the next snapshot must include it.
	svc.AddItem(soap())
	b.submitErr = nil
	b.submitRes = checkout.Result{OrderID: "O2", Total: decimal.RequireFromString("7.50")}

	_, err = svc.Checkout(context.Background(), checkout.MethodCash)

	require.NoError(t, err)
	require.Equal(t, 2, b.submissionCount())
	assert.Len(t, b.submissions[0].Lines, 1)
	assert.Len(t, b.submissions[1].Lines, 2)
}

func TestInFlightSubmissionIsASnapshot(t *testing.T) {
	b := &mockBackend{submitRes: checkout.Result{OrderID: "O3", Total: decimal.RequireFromString("2.50")}}
	var svc *Service
	b.onSubmit = func() {
		// Cart edit racing the in-flight request must not reach the payload.
		svc.AddItem(soap())
	}
	svc = NewService(b, staticIDs{}, nil, nil)

	svc.AddItem(milk())
	_, err := svc.Checkout(context.Background(), checkout.MethodOnline)

	require.NoError(t, err)
	require.Equal(t, 1, b.submissionCount())
	require.Len(t, b.submissions[0].Lines, 1)
	assert.Equal(t, "Milk", b.submissions[0].Lines[0].Title)
}

func TestResetAbandonsTheSale(t *testing.T) {
	b := &mockBackend{
		submitRes: checkout.Result{OrderID: "A1", Total: decimal.RequireFromString("5.00")},
		qr:        "data:qr",
	}
	svc := NewService(b, staticIDs{}, nil, nil)
	svc.AddItem(soap())

	_, err := svc.Checkout(context.Background(), checkout.MethodOnline)
	require.NoError(t, err)
	require.NotNil(t, svc.Artifact())

	svc.Reset()

	assert.Empty(t, svc.Lines())
	assert.Nil(t, svc.Artifact())
	assert.Equal(t, checkout.StatusIdle, svc.Status())
}
