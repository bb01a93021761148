// Package platform is the HTTP client for the upstream codeonwork API.
// Every call is same-origin style: JSON body, JSON response, the caller's
// session cookie forwarded verbatim. Responses use the platform envelope
// {success, message, data}; a success=false envelope becomes a RemoteError
// carrying the server-supplied message.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
	"github.com/sony/gobreaker/v2"
)

const (
	pathViewCart      = "/api/view-cart-product"
	pathUpdateCart    = "/api/update-cart-product"
	pathDeleteCart    = "/api/delete-cart-product"
	pathDebitWallet   = "/api/wallet/deduct"
	pathCreateOrder   = "/api/create-order"
	pathWalletBalance = "/api/wallet/balance"
	pathCartCount     = "/api/count-cart-product"
)

// Session is the caller's raw Cookie header, passed through unchanged so
// the upstream sees the same credentials the browser sent.
type Session string

// RemoteError is a well-formed upstream response whose envelope says
// success=false. Its message is user-facing and surfaced verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*envelope]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker[*envelope](gobreaker.Settings{
			Name:    "codeonwork-api",
			Timeout: 30 * time.Second,
		}),
	}
}

func (c *Client) FetchCart(ctx context.Context, session Session) ([]domain.CartLine, error) {
	env, err := c.do(ctx, session, http.MethodGet, pathViewCart, nil)
	if err != nil {
		return nil, err
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(env.Data, &lines); err != nil {
		return nil, fmt.Errorf("decode cart lines: %w", err)
	}
	return lines, nil
}

func (c *Client) UpdateCartLine(ctx context.Context, session Session, lineID string, quantity int) error {
	body := map[string]any{"_id": lineID, "quantity": quantity}
	_, err := c.do(ctx, session, http.MethodPost, pathUpdateCart, body)
	return err
}

func (c *Client) DeleteCartLine(ctx context.Context, session Session, lineID string) error {
	body := map[string]any{"_id": lineID}
	_, err := c.do(ctx, session, http.MethodPost, pathDeleteCart, body)
	return err
}

func (c *Client) DebitWallet(ctx context.Context, session Session, amount float64) error {
	body := map[string]any{"amount": amount}
	_, err := c.do(ctx, session, http.MethodPost, pathDebitWallet, body)
	return err
}

func (c *Client) CreateOrder(ctx context.Context, session Session, draft domain.OrderDraft) error {
	_, err := c.do(ctx, session, http.MethodPost, pathCreateOrder, draft)
	return err
}

func (c *Client) FetchWalletBalance(ctx context.Context, session Session) (float64, error) {
	env, err := c.do(ctx, session, http.MethodGet, pathWalletBalance, nil)
	if err != nil {
		return 0, err
	}

	var data struct {
		Balance float64 `json:"walletBalance"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, fmt.Errorf("decode wallet balance: %w", err)
	}
	return data.Balance, nil
}

func (c *Client) FetchCartCount(ctx context.Context, session Session) (int, error) {
	env, err := c.do(ctx, session, http.MethodGet, pathCartCount, nil)
	if err != nil {
		return 0, err
	}

	var data struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, fmt.Errorf("decode cart count: %w", err)
	}
	return data.Count, nil
}

// do issues one upstream request through the circuit breaker with a
// bounded timeout. A request cannot be retried here; retry policy belongs
// to the caller.
func (c *Client) do(ctx context.Context, session Session, method, path string, body any) (*envelope, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("Cookie", string(session))
	}

	env, err := c.breaker.Execute(func() (*envelope, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", path, err)
		}
		return &env, nil
	})
	if err != nil {
		return nil, err
	}

	if !env.Success {
		return nil, &RemoteError{Message: env.Message}
	}
	return env, nil
}
