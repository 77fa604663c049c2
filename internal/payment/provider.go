// Package payment is a client for the external checkout-session gateway.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
)

var (
	ErrNotConfigured = errors.New("payment gateway not configured")

	errUnavailable = errors.New("gateway unavailable")
)

// consecutiveFailures opens the breaker; it half-opens after openTimeout.
const (
	consecutiveFailures = 5
	openTimeout         = 30 * time.Second
)

type SessionRequest struct {
	CartID      string
	CustomerID  string
	Email       string
	Amount      float64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Description string
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type SessionProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

type HTTPProvider struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Session]
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*Session](gobreaker.Settings{
			Name:    "payment-gateway",
			Timeout: openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= consecutiveFailures
			},
			// Rejections such as 4xx mean the gateway is up.
			IsSuccessful: func(err error) bool {
				return !errors.Is(err, errUnavailable)
			},
		}),
	}
}

type createSessionBody struct {
	ClientReferenceID string `json:"client_reference_id"`
	CustomerID        string `json:"customer_id"`
	CustomerEmail     string `json:"customer_email,omitempty"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	Description       string `json:"description,omitempty"`
	SuccessURL        string `json:"success_url"`
	CancelURL         string `json:"cancel_url"`
}

// CreateSession asks the gateway for a hosted checkout page. Every call carries
// a fresh Idempotency-Key. Repeated transport failures or 5xx answers open the
// breaker and later calls fail fast until it half-opens.
func (p *HTTPProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrPaymentSession, ErrNotConfigured)
	}

	session, err := p.breaker.Execute(func() (*Session, error) {
		return p.createSession(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", domain.ErrPaymentSession, err)
	}
	return session, err
}

func (p *HTTPProvider) createSession(ctx context.Context, req SessionRequest) (*Session, error) {
	body, err := json.Marshal(createSessionBody{
		ClientReferenceID: req.CartID,
		CustomerID:        req.CustomerID,
		CustomerEmail:     req.Email,
		Amount:            pricing.MinorUnits(req.Amount),
		Currency:          req.Currency,
		Description:       req.Description,
		SuccessURL:        req.SuccessURL,
		CancelURL:         req.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrPaymentSession, errUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %w: gateway returned %d", domain.ErrPaymentSession, errUnavailable, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: gateway returned %d: %s", domain.ErrPaymentSession, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrPaymentSession, err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("%w: gateway returned no url", domain.ErrPaymentSession)
	}
	return &session, nil
}
