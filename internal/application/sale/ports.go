package sale

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/grocerpos/terminal/internal/domain/checkout"
)

// Backend is the slice of the REST client the orchestrator drives. The QR
// request strictly follows an accepted submission, never runs beside it.
type Backend interface {
	SubmitOrder(ctx context.Context, sub checkout.Submission) (checkout.Result, error)
	GenerateQR(ctx context.Context, orderID string, amount decimal.Decimal) (string, error)
}

// IDGenerator issues the attempt identifier attached to each checkout's
// logs and span.
type IDGenerator interface {
	NewID() string
}

// CompletionFunc is the "sale completed" signal, fired exactly once per
// successful cash checkout. Online sales never fire it; their settlement is
// confirmed out of band.
type CompletionFunc func(result checkout.Result)
