package checkout

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/grocerpos/terminal/internal/domain/cart"
)

var (
	ErrInvalidTransition = errors.New("checkout: invalid state transition")
	ErrEmptyCart         = errors.New("checkout: cart is empty")
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodOnline PaymentMethod = "online"
)

type Status string

const (
	StatusIdle                  Status = "idle"
	StatusSubmitting            Status = "submitting"
	StatusAwaitingOnlinePayment Status = "awaiting_online_payment"
	StatusCompleted             Status = "completed"
	StatusFailed                Status = "failed"
)

// Stage distinguishes the two failure surfaces: the order submission itself
// and the QR generation that follows an accepted online order. A QR failure
// means the order may already exist server-side.
type Stage string

const (
	StageSubmission Stage = "submission"
	StageQR         Stage = "qr"
)

// Submission is the immutable order payload built from the cart at the
// instant checkout begins. Cart edits after that point do not reach it.
type Submission struct {
	Lines  []cart.Line
	Method PaymentMethod
}

// NewSubmission snapshots the given cart.
func NewSubmission(c cart.Cart, method PaymentMethod) Submission {
	return Submission{Lines: c.Lines(), Method: method}
}

// Result is the backend's acknowledgment. Total is authoritative; it may
// differ from the client-side subtotal.
type Result struct {
	OrderID string
	Total   decimal.Decimal
}

// PaymentArtifact is the renderable payload for an online payment, tied to
// exactly one accepted order. The client never observes settlement; the
// artifact has no further lifecycle here.
type PaymentArtifact struct {
	OrderID string
	QR      string
}
