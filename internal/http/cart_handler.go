// Package http exposes the checkout flow's trigger callbacks as an HTTP
// API for the presentation layer: cart view, the three single-flight
// mutations, the session counters and the checkout trigger. Responses use
// the same {success, message, data} envelope the platform itself speaks.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Vast-Academy/codeonwork-checkout/internal/cart"
	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
	"github.com/Vast-Academy/codeonwork-checkout/internal/pricing"
	"github.com/go-chi/chi/v5"
)

// CartView is the cart payload the UI renders: the snapshot plus the
// order-level totals.
type CartView struct {
	Lines   []domain.CartLine `json:"lines"`
	Summary pricing.Summary   `json:"summary"`
}

type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type CartHandler struct {
	cart    *cart.Service
	timeout time.Duration
}

func NewCartHandler(cartService *cart.Service, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cartService,
		timeout: timeout,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snapshot, err := h.cart.Load(ctx, sessionFromContext(r.Context()))
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondSnapshot(w, snapshot)
}

func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.cart.IncreaseQuantity)
}

func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.cart.DecreaseQuantity)
}

func (h *CartHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.cart.DeleteLine)
}

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, platform.Session, string) (*domain.CartSnapshot, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "line_id is required")
		return
	}

	snapshot, err := op(ctx, sessionFromContext(r.Context()), lineID)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondSnapshot(w, snapshot)
}

func respondSnapshot(w http.ResponseWriter, snapshot *domain.CartSnapshot) {
	respondJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: CartView{
			Lines:   snapshot.Lines,
			Summary: pricing.Summarize(snapshot),
		},
	})
}

func handleCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrMutationInFlight):
		respondError(w, http.StatusConflict, "another cart update is still in progress")
	case errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "cart line not found")
	default:
		var remote *platform.RemoteError
		if errors.As(err, &remote) {
			respondError(w, http.StatusBadGateway, remote.Message)
			return
		}
		respondError(w, http.StatusBadGateway, "something went wrong, please try again")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Envelope{
		Success: false,
		Message: message,
	})
}
