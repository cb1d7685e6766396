package models

// PaymentStatus is the state of a two-phase payment.
//
// A payment starts pending when initiated and settles exactly once:
// completed moves the covered kitchen items to paid, cancelled and failed
// leave every item untouched. The distinction between cancelled and failed
// exists so the caller can tell a guest-abandoned payment from a gateway
// rejection.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentFailed    PaymentStatus = "failed"
)

// Terminal reports whether the payment has settled.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentPending
}

// ItemRef identifies a row by catalog id and guest for subset payments.
// Refs that do not match a kitchen row are ignored, not errors.
type ItemRef struct {
	ID      string `json:"id"`
	GuestID string `json:"guestId,omitempty"`
}

// Payment is a pending or settled two-phase payment.
type Payment struct {
	// ID is the payment handle (UUID) returned by initiate.
	ID string `json:"id"`

	// Method is the payment method chosen at initiation.
	Method string `json:"method,omitempty"`

	// Refs is the kitchen subset covered by this payment; empty means
	// every kitchen item at completion time.
	Refs []ItemRef `json:"refs,omitempty"`

	// Amount is the kitchen total captured when the payment was initiated.
	Amount float64 `json:"amount"`

	// Status is the current phase.
	Status PaymentStatus `json:"status"`

	// CreatedAt is the Unix timestamp when the payment was initiated.
	CreatedAt int64 `json:"createdAt"`
}
