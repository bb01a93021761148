package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Vast-Academy/codeonwork-checkout/internal/cart"
	"github.com/Vast-Academy/codeonwork-checkout/internal/checkout"
	"github.com/Vast-Academy/codeonwork-checkout/internal/session"
)

type CheckoutHandler struct {
	cart     *cart.Service
	checkout *checkout.Service
	state    *session.State
	timeout  time.Duration
}

func NewCheckoutHandler(cartService *cart.Service, checkoutService *checkout.Service, state *session.State, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		cart:     cartService,
		checkout: checkoutService,
		state:    state,
		timeout:  timeout,
	}
}

type checkoutResponse struct {
	AttemptID     string `json:"attemptId"`
	Status        string `json:"status"`
	OrdersCreated int    `json:"ordersCreated"`
}

// Checkout loads the current snapshot and wallet balance and runs the
// payment executor. The checkout timeout is longer than a single upstream
// call's: the flow awaits one request per cart line plus the debit.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())

	snapshot, err := h.cart.Load(ctx, sess)
	if err != nil {
		handleCartError(w, err)
		return
	}

	balance, err := h.state.WalletBalance(ctx, sess)
	if err != nil {
		respondError(w, http.StatusBadGateway, "could not read wallet balance")
		return
	}

	result, err := h.checkout.Checkout(ctx, sess, snapshot, balance)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: checkoutResponse{
			AttemptID:     result.AttemptID,
			Status:        result.Status.String(),
			OrdersCreated: result.OrdersCreated,
		},
	})
}

// SessionCounters serves the wallet balance and cart badge count the
// navigation chrome polls.
func (h *CheckoutHandler) SessionCounters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())

	balance, err := h.state.WalletBalance(ctx, sess)
	if err != nil {
		respondError(w, http.StatusBadGateway, "could not read wallet balance")
		return
	}

	count, err := h.state.CartCount(ctx, sess)
	if err != nil {
		respondError(w, http.StatusBadGateway, "could not read cart count")
		return
	}

	respondJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: map[string]interface{}{
			"walletBalance": balance,
			"cartCount":     count,
		},
	})
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	if errors.Is(err, checkout.ErrEmptyCart) {
		respondError(w, http.StatusBadRequest, "Your Cart is Empty!")
		return
	}

	ce, ok := checkout.AsCheckoutError(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Payment failed!")
		return
	}

	switch ce.Code {
	case checkout.FailureInsufficientBalance:
		respondError(w, http.StatusPaymentRequired, ce.Message)
	case checkout.FailurePaymentRejected:
		respondError(w, http.StatusPaymentRequired, ce.Message)
	case checkout.FailureOrderCreation:
		respondError(w, http.StatusBadGateway, ce.Message)
	default:
		respondError(w, http.StatusBadGateway, ce.Message)
	}
}
