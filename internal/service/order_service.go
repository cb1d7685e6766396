// Package service exposes the engine surface as a JSON HTTP API, plus the
// kitchen websocket feed. Handlers translate between wire payloads and
// engine calls; all ordering semantics live in internal/engine.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tabsplit/tabsplit/internal/auth"
	"github.com/tabsplit/tabsplit/internal/engine"
	"github.com/tabsplit/tabsplit/internal/middleware"
	"github.com/tabsplit/tabsplit/internal/models"
)

// OrderService wires the engine to the HTTP surface.
type OrderService struct {
	engine   *engine.Engine
	sessions *auth.SessionManager
	pins     *auth.PINVerifier
	hub      *KitchenHub
}

// NewOrderService creates the service and registers it as the engine's
// transition notifier.
func NewOrderService(eng *engine.Engine, sessions *auth.SessionManager, pins *auth.PINVerifier) *OrderService {
	s := &OrderService{
		engine:   eng,
		sessions: sessions,
		pins:     pins,
		hub:      NewKitchenHub(),
	}
	eng.SetNotifier(s.hub.Broadcast)
	return s
}

// Register mounts every route on the mux. Send-to-kitchen requires a
// verified table session; everything else is open to the table's guests.
func (s *OrderService) Register(mux *http.ServeMux) {
	requireSession := middleware.RequireTableSession(s.sessions)

	mux.HandleFunc("POST /v1/items", s.handleAddItem)
	mux.HandleFunc("DELETE /v1/items", s.handleRemoveItem)
	mux.HandleFunc("PATCH /v1/items/quantity", s.handleUpdateQuantity)
	mux.HandleFunc("PATCH /v1/items/notes", s.handleUpdateNotes)
	mux.HandleFunc("PATCH /v1/items/selection", s.handleToggleSelection)
	mux.HandleFunc("POST /v1/items/select-all", s.handleSelectAll)

	mux.HandleFunc("POST /v1/cart/clear", s.handleClearCart)
	mux.HandleFunc("POST /v1/kitchen/clear", s.handleClearKitchen)
	mux.HandleFunc("POST /v1/paid/clear", s.handleClearPaid)
	mux.Handle("POST /v1/kitchen/send", requireSession(http.HandlerFunc(s.handleSendToKitchen)))
	mux.HandleFunc("GET /v1/kitchen/ws", s.hub.Handle)

	mux.HandleFunc("POST /v1/payments", s.handleInitiatePayment)
	mux.HandleFunc("GET /v1/payments/{id}", s.handleGetPayment)
	mux.HandleFunc("POST /v1/payments/{id}/complete", s.handleCompletePayment)
	mux.HandleFunc("POST /v1/payments/{id}/cancel", s.handleCancelPayment)
	mux.HandleFunc("POST /v1/payments/{id}/fail", s.handleFailPayment)

	mux.HandleFunc("POST /v1/split/method", s.handleSetSplitMethod)
	mux.HandleFunc("POST /v1/split/percentage", s.handleUpdatePercentage)
	mux.HandleFunc("POST /v1/split/exclude", s.handleExcludeGuest)
	mux.HandleFunc("POST /v1/split/distribute", s.mutation(s.engine.DistributeRemaining))
	mux.HandleFunc("POST /v1/split/reset", s.mutation(s.engine.ResetSplits))
	mux.HandleFunc("POST /v1/split/equal", s.mutation(s.engine.SplitEqually))
	mux.HandleFunc("POST /v1/split/quick", s.mutation(s.engine.ApplyQuickSplit))

	mux.HandleFunc("POST /v1/tip", s.handleSetTip)
	mux.HandleFunc("POST /v1/tip/custom", s.handleSetCustomTip)

	mux.HandleFunc("POST /v1/payment-method", s.handleSetPaymentMethod)
	mux.HandleFunc("POST /v1/instructions", s.handleSetInstructions)
	mux.HandleFunc("POST /v1/table", s.handleSetTable)
	mux.HandleFunc("POST /v1/table/verify", s.handleVerifyTable)

	mux.HandleFunc("GET /v1/order", s.handleGetOrder)
	mux.HandleFunc("GET /v1/receipt", s.handleGetReceipt)
}

type itemRequest struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	UnitPrice float64           `json:"unitPrice"`
	Quantity  int               `json:"quantity"`
	GuestID   string            `json:"guestId"`
	GuestName string            `json:"guestName"`
	Notes     string            `json:"notes"`
	Status    models.ItemStatus `json:"status"`
}

func (s *OrderService) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.ID == "" {
		s.badRequest(w, errors.New("id is required"))
		return
	}
	err := s.engine.AddItem(r.Context(), models.OrderItem{
		ID:        req.ID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
		GuestID:   req.GuestID,
		GuestName: req.GuestName,
		Notes:     req.Notes,
	})
	s.respondOrder(w, err)
}

func (s *OrderService) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	s.respondOrder(w, s.engine.RemoveItem(r.Context(), req.ID, req.GuestID, req.Status))
}

func (s *OrderService) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	s.respondOrder(w, s.engine.UpdateQuantity(r.Context(), req.ID, req.Quantity, req.GuestID, req.Status))
}

func (s *OrderService) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	s.respondOrder(w, s.engine.UpdateNotes(r.Context(), req.ID, req.Notes, req.GuestID, req.Status))
}

func (s *OrderService) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		itemRequest
		Selected *bool `json:"selected"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	s.respondOrder(w, s.engine.ToggleItemSelection(r.Context(), req.ID, req.GuestID, req.Selected, req.Status))
}

func (s *OrderService) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selected bool              `json:"selected"`
		Status   models.ItemStatus `json:"status"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	s.respondOrder(w, s.engine.SelectAllItems(r.Context(), req.Selected, req.Status))
}

func (s *OrderService) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.respondOrder(w, s.engine.ClearCart(r.Context()))
}

func (s *OrderService) handleClearKitchen(w http.ResponseWriter, r *http.Request) {
	s.respondOrder(w, s.engine.ClearKitchenItems(r.Context()))
}

func (s *OrderService) handleClearPaid(w http.ResponseWriter, r *http.Request) {
	s.respondOrder(w, s.engine.ClearPaidItems(r.Context()))
}

func (s *OrderService) handleSendToKitchen(w http.ResponseWriter, r *http.Request) {
	slog.Info("sending items to kitchen",
		"table_id", middleware.GetTableID(r.Context()),
		"items", s.engine.ItemCount(),
	)
	s.respondOrder(w, s.engine.SendItemsToKitchen(r.Context()))
}

func (s *OrderService) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string           `json:"method"`
		Refs   []models.ItemRef `json:"refs"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	payment, err := s.engine.InitiatePayment(r.Context(), req.Method, req.Refs)
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *OrderService) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.engine.GetPayment(r.PathValue("id"))
	s.respondPayment(w, payment, err)
}

func (s *OrderService) handleCompletePayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.engine.CompletePayment(r.Context(), r.PathValue("id"))
	s.respondPayment(w, payment, err)
}

func (s *OrderService) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.engine.CancelPayment(r.PathValue("id"))
	s.respondPayment(w, payment, err)
}

func (s *OrderService) handleFailPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.engine.FailPayment(r.PathValue("id"))
	s.respondPayment(w, payment, err)
}

func (s *OrderService) handleSetSplitMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method models.SplitMethod `json:"method"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if !req.Method.Valid() {
		s.badRequest(w, fmt.Errorf("unknown split method %q", req.Method))
		return
	}
	s.respondOrder(w, s.engine.SetSplitMethod(r.Context(), req.Method))
}

func (s *OrderService) handleUpdatePercentage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GuestID    string  `json:"guestId"`
		Percentage float64 `json:"percentage"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	// Clamp at the boundary; the engine itself accepts anything.
	pct := req.Percentage
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	s.respondOrder(w, s.engine.UpdateGuestPercentage(r.Context(), req.GuestID, pct))
}

func (s *OrderService) handleExcludeGuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GuestID  string `json:"guestId"`
		Excluded bool   `json:"excluded"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	s.respondOrder(w, s.engine.SetGuestExcluded(r.Context(), req.GuestID, req.Excluded))
}

func (s *OrderService) handleSetTip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Option models.TipOption `json:"option"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.Option != models.TipCustom && !req.Option.IsPreset() {
		s.badRequest(w, fmt.Errorf("unknown tip option %d", req.Option))
		return
	}
	s.respondOrder(w, s.engine.SetTipOption(r.Context(), req.Option))
}

func (s *OrderService) handleSetCustomTip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount     *float64 `json:"amount"`
		Percentage *float64 `json:"percentage"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	switch {
	case req.Amount != nil:
		s.respondOrder(w, s.engine.SetCustomTipAmount(r.Context(), *req.Amount))
	case req.Percentage != nil:
		s.respondOrder(w, s.engine.SetCustomTipPercentage(r.Context(), *req.Percentage))
	default:
		s.badRequest(w, errors.New("amount or percentage is required"))
	}
}

func (s *OrderService) handleSetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	s.respondOrder(w, s.engine.SetPaymentMethod(r.Context(), req.Method))
}

func (s *OrderService) handleSetInstructions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	s.respondOrder(w, s.engine.SetSpecialInstructions(r.Context(), req.Text))
}

func (s *OrderService) handleSetTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableID string `json:"tableId"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	s.respondOrder(w, s.engine.SetTableID(r.Context(), req.TableID))
}

func (s *OrderService) handleVerifyTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if err := s.pins.Verify(req.PIN); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	tableID := s.engine.TableID()
	token, err := s.sessions.Generate(tableID)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if err := s.engine.SetTableVerified(r.Context(), true); err != nil {
		s.serverError(w, err)
		return
	}
	slog.Info("table verified", "table_id", tableID)
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "tableId": tableID})
}

func (s *OrderService) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orderSummary())
}

func (s *OrderService) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Receipt())
}

// guestSummary is one guest's row in the order summary.
type guestSummary struct {
	GuestID    string  `json:"guestId"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Excluded   bool    `json:"excluded,omitempty"`
	Amount     float64 `json:"amount"`
}

// orderSummaryResponse is everything the checkout UI needs to render and to
// decide whether to block (allocation totals, payment method presence).
type orderSummaryResponse struct {
	OrderNumber        string             `json:"orderNumber"`
	TableID            string             `json:"tableId,omitempty"`
	TableVerified      bool               `json:"tableVerified"`
	Items              []models.OrderItem `json:"items"`
	ItemCount          int                `json:"itemCount"`
	KitchenItemCount   int                `json:"kitchenItemCount"`
	PaidItemCount      int                `json:"paidItemCount"`
	TotalPrice         float64            `json:"totalPrice"`
	SelectedTotalPrice float64            `json:"selectedTotalPrice"`
	SelectionRatio     float64            `json:"selectionRatio"`
	SplitMethod        models.SplitMethod `json:"splitMethod"`
	Guests             []guestSummary     `json:"guests"`
	TotalAllocated     float64            `json:"totalAllocated"`
	Remaining          float64            `json:"remaining"`
	TipOption          models.TipOption   `json:"tipOption"`
	TipAmount          float64            `json:"tipAmount"`
	TipPercentage      float64            `json:"tipPercentage"`
	TotalWithTip       float64            `json:"totalWithTip"`
	PaymentMethod      string             `json:"paymentMethod,omitempty"`
}

func (s *OrderService) orderSummary() orderSummaryResponse {
	totals := s.engine.GuestTotals()
	var guests []guestSummary
	for _, split := range s.engine.GuestSplits() {
		guests = append(guests, guestSummary{
			GuestID:    split.GuestID,
			Name:       s.engine.GuestName(split.GuestID),
			Percentage: split.Percentage,
			Excluded:   split.Excluded,
			Amount:     totals[split.GuestID],
		})
	}

	return orderSummaryResponse{
		OrderNumber:        s.engine.OrderNumber(),
		TableID:            s.engine.TableID(),
		TableVerified:      s.engine.TableVerified(),
		Items:              s.engine.Items(),
		ItemCount:          s.engine.ItemCount(),
		KitchenItemCount:   s.engine.KitchenItemCount(),
		PaidItemCount:      s.engine.PaidItemCount(),
		TotalPrice:         s.engine.TotalPrice(),
		SelectedTotalPrice: s.engine.SelectedTotalPrice(),
		SelectionRatio:     s.engine.SelectionRatio(),
		SplitMethod:        s.engine.SplitMethod(),
		Guests:             guests,
		TotalAllocated:     s.engine.TotalAllocated(),
		Remaining:          s.engine.Remaining(),
		TipOption:          s.engine.TipOption(),
		TipAmount:          s.engine.TipAmount(),
		TipPercentage:      s.engine.TipPercentage(),
		TotalWithTip:       s.engine.TotalWithTip(),
		PaymentMethod:      s.engine.PaymentMethod(),
	}
}

// mutation adapts a no-argument engine operation into a handler returning
// the refreshed order summary.
func (s *OrderService) mutation(op func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respondOrder(w, op(r.Context()))
	}
}

func (s *OrderService) respondOrder(w http.ResponseWriter, err error) {
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.orderSummary())
}

func (s *OrderService) respondPayment(w http.ResponseWriter, payment models.Payment, err error) {
	switch {
	case errors.Is(err, engine.ErrPaymentNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrPaymentSettled):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "status": string(payment.Status)})
	case err != nil:
		s.serverError(w, err)
	default:
		writeJSON(w, http.StatusOK, payment)
	}
}

func (s *OrderService) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *OrderService) badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func (s *OrderService) serverError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
