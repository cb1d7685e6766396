package models

// CartState is the full engine snapshot persisted after every mutation.
// The field layout is the persistence contract: the blob is stored verbatim
// under the "cart" key of the key-value store.
//
// TableVerified is persisted for completeness but never trusted on load;
// verification is always reset when a session starts.
type CartState struct {
	Items               []OrderItem  `json:"items"`
	PaymentMethod       string       `json:"paymentMethod,omitempty"`
	SpecialInstructions string       `json:"specialInstructions,omitempty"`
	TableID             string       `json:"tableId,omitempty"`
	TableVerified       bool         `json:"tableVerified"`
	SplitMethod         SplitMethod  `json:"splitMethod"`
	GuestSplits         []GuestSplit `json:"guestSplits,omitempty"`
	TipOption           TipOption    `json:"tipOption"`
	CustomTipAmount     float64      `json:"customTipAmount,omitempty"`
}

// Receipt is the read-only snapshot handed to downstream consumers
// (receipt printing, QR codes, email). It is derived on demand and never
// stored.
type Receipt struct {
	OrderNumber   string      `json:"orderNumber"`
	Items         []OrderItem `json:"items"`
	Subtotal      float64     `json:"subtotal"`
	TipAmount     float64     `json:"tipAmount"`
	Total         float64     `json:"total"`
	Timestamp     int64       `json:"timestamp"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
}
