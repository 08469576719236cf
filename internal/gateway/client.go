// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/stellartours/reservasync/internal/metrics"
	"github.com/stellartours/reservasync/internal/models"
	"github.com/stellartours/reservasync/internal/validation"
)

// maxErrorBodySize limits the maximum amount of response body read for error reporting
// This prevents unbounded memory allocation when reading large error responses
const maxErrorBodySize = 64 * 1024 // 64KB

// API defines the booking platform operations the store depends on.
//
// Implemented by Client for production use, by CircuitBreakerClient for
// protected production use, and by mock implementations in tests.
//
// All methods follow a consistent pattern:
//   - Accept context.Context as first parameter for cancellation/timeout
//   - Return typed structs from internal/models
//   - Return *Error with a classified failure on any fault
//
// List, Get and Create return full reservation records. Cancel and Modify
// return deltas: only the fields the platform actually changed, so the
// commit path can merge them without clobbering concurrent updates.
//
// Thread Safety: All methods are safe for concurrent use.
type API interface {
	Ping(ctx context.Context) error
	List(ctx context.Context, query Query) (*Page, error)
	Get(ctx context.Context, id int64) (*models.Reservation, error)
	Create(ctx context.Context, req models.CreateRequest) (*models.Reservation, error)
	Cancel(ctx context.Context, id int64, reason string) (*models.Delta, error)
	Modify(ctx context.Context, id int64, delta models.Delta) (*models.Delta, error)
}

// Query selects a page of reservations. Zero-valued filter fields are
// inactive. Query doubles as the cache key material for list requests.
type Query struct {
	Page    int `json:"pagina" validate:"gte=0"`
	PerPage int `json:"porPagina" validate:"gte=0,lte=200"`

	Status        models.Status `json:"estado,omitempty"`
	From          time.Time     `json:"fechaInicio,omitempty"`
	To            time.Time     `json:"fechaFin,omitempty"`
	DestinationID int64         `json:"destinoId,omitempty"`
	ShipID        int64         `json:"naveId,omitempty"`
}

// values encodes the query as URL parameters, omitting inactive fields.
func (q Query) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("pagina", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("porPagina", strconv.Itoa(q.PerPage))
	}
	if q.Status != "" {
		v.Set("estado", string(q.Status))
	}
	if !q.From.IsZero() {
		v.Set("fechaInicio", q.From.Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("fechaFin", q.To.Format(time.RFC3339))
	}
	if q.DestinationID > 0 {
		v.Set("destinoId", strconv.FormatInt(q.DestinationID, 10))
	}
	if q.ShipID > 0 {
		v.Set("naveId", strconv.FormatInt(q.ShipID, 10))
	}
	return v
}

// Page is one page of reservations plus the platform's total count, which
// drives pagination math on the store side.
type Page struct {
	Items   []models.Reservation `json:"reservas"`
	Total   int                  `json:"total"`
	Page    int                  `json:"pagina"`
	PerPage int                  `json:"porPagina"`
}

// errorEnvelope is the platform's error response body.
type errorEnvelope struct {
	Message string `json:"message"`
}

// cancelRequest is the payload for the cancel endpoint.
type cancelRequest struct {
	Reason string `json:"motivo,omitempty"`
}

// TokenFunc supplies the bearer token for each request. Returning an
// empty string sends the request unauthenticated.
type TokenFunc func() (string, error)

// Config holds the client's connection settings.
type Config struct {
	// BaseURL is the platform root, e.g. "https://api.stellartours.example".
	BaseURL string

	// Token supplies the session bearer token per request. Optional.
	Token TokenFunc

	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration

	// RateLimit throttles outgoing requests per second; RateBurst is the
	// burst allowance. Defaults: 10 req/s, burst 20.
	RateLimit float64
	RateBurst int

	// MaxRetries bounds retries on HTTP 429. Defaults to 5.
	MaxRetries int

	// RetryBaseDelay is the first backoff step, doubling each retry.
	// Defaults to 1s.
	RetryBaseDelay time.Duration
}

// Client handles communication with the booking platform's REST API.
//
// Features:
//   - Configurable request timeout
//   - Bearer token authentication via TokenFunc
//   - Client-side rate limiting (golang.org/x/time/rate)
//   - Automatic HTTP 429 handling with exponential backoff and
//     Retry-After support
//   - Classified errors preserving the platform's error message
//
// Thread Safety: safe for concurrent use; each call builds its own request.
type Client struct {
	baseURL        string
	token          TokenFunc
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a booking platform client from cfg, applying defaults
// for any zero-valued setting.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 1 * time.Second
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		token:          cfg.Token,
		client:         &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// Ping verifies connectivity to the booking platform.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/salud", nil, nil, nil)
}

// List retrieves one page of reservations matching the query.
func (c *Client) List(ctx context.Context, query Query) (*Page, error) {
	if verr := validation.ValidateStruct(&query); verr != nil {
		return nil, &Error{Class: ClassValidation, Operation: "list", Message: verr.Error(), Err: verr}
	}

	var page Page
	if err := c.do(ctx, http.MethodGet, "/api/reservas", query.values(), nil, &page); err != nil {
		return nil, err
	}
	for i := range page.Items {
		if err := validateReservation("list", &page.Items[i]); err != nil {
			return nil, err
		}
	}
	return &page, nil
}

// Get retrieves a single reservation by ID.
func (c *Client) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	path := fmt.Sprintf("/api/reservas/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &r); err != nil {
		return nil, err
	}
	if err := validateReservation("get", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create submits a new reservation. The platform assigns the ID and
// timestamps and returns the full record.
func (c *Client) Create(ctx context.Context, req models.CreateRequest) (*models.Reservation, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, &Error{Class: ClassValidation, Operation: "create", Message: verr.Error(), Err: verr}
	}

	var r models.Reservation
	if err := c.do(ctx, http.MethodPost, "/api/reservas", nil, req, &r); err != nil {
		return nil, err
	}
	if err := validateReservation("create", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Cancel requests cancellation of a reservation. The response delta
// carries the authoritative status, timestamps and cancellation reason.
func (c *Client) Cancel(ctx context.Context, id int64, reason string) (*models.Delta, error) {
	var d models.Delta
	path := fmt.Sprintf("/api/reservas/%d/cancelar", id)
	if err := c.do(ctx, http.MethodPut, path, nil, cancelRequest{Reason: reason}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Modify submits a partial update and returns the platform's view of what
// changed, which may include fields beyond those requested (UpdatedAt in
// particular).
func (c *Client) Modify(ctx context.Context, id int64, delta models.Delta) (*models.Delta, error) {
	if delta.IsEmpty() {
		return nil, &Error{Class: ClassValidation, Operation: "modify", Message: "empty update", Err: errors.New("empty delta")}
	}

	var d models.Delta
	path := fmt.Sprintf("/api/reservas/%d", id)
	if err := c.do(ctx, http.MethodPatch, path, nil, delta, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// validateReservation rejects reservation payloads missing a usable ID or
// status. A 2xx response with a malformed body is a platform fault and
// must never reach shared state.
func validateReservation(operation string, r *models.Reservation) error {
	if verr := validation.ValidateStruct(r); verr != nil {
		return &Error{
			Class:     ClassServer,
			Operation: operation,
			Err:       fmt.Errorf("invalid response: %w", verr),
		}
	}
	return nil
}

// do performs one API request and records its duration and error class.
// result may be nil when the response body is irrelevant.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	operation := operationName(method, path)
	start := time.Now()
	err := c.roundTrip(ctx, operation, method, path, params, body, result)
	metrics.RecordGatewayRequest(operation, time.Since(start), errorClassLabel(err))
	return err
}

// errorClassLabel maps err to its metric label, empty on success.
func errorClassLabel(err error) string {
	if err == nil {
		return ""
	}
	return string(Classify(err))
}

// roundTrip performs one API request with rate limiting, 429 backoff,
// bearer auth and error classification.
func (c *Client) roundTrip(ctx context.Context, operation, method, path string, params url.Values, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return newError(ClassCanceled, operation, err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return newError(ClassValidation, operation, fmt.Errorf("encode request: %w", err))
		}
	}

	resp, err := c.doWithRateLimit(ctx, method, reqURL, payload, operation)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(resp, operation)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return newError(ClassServer, operation, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// doWithRateLimit performs an HTTP request with automatic HTTP 429
// handling. Implements exponential backoff (1s, 2s, 4s, 8s, 16s) and
// honors the Retry-After header (RFC 6585). The context cancels backoff
// waits.
func (c *Client) doWithRateLimit(ctx context.Context, method, reqURL string, payload []byte, operation string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, newError(ClassCanceled, operation, ctx.Err())
		}

		var bodyReader io.Reader = http.NoBody
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return nil, newError(ClassValidation, operation, fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != nil {
			token, err := c.token()
			if err != nil {
				return nil, newError(ClassValidation, operation, fmt.Errorf("token source: %w", err))
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, newError(ClassCanceled, operation, ctx.Err())
			}
			return nil, newError(ClassNetwork, operation, err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Rate limited - close body and retry with backoff
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = newError(ClassNetwork, operation,
				fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries))
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, newError(ClassCanceled, operation, ctx.Err())
		}
	}

	return nil, lastErr
}

// responseError classifies a non-2xx response, preserving the platform's
// message when the body carries one.
func (c *Client) responseError(resp *http.Response, operation string) error {
	body := readBodyForError(resp.Body)

	var envelope errorEnvelope
	_ = json.Unmarshal(body, &envelope)

	class := ClassServer
	switch {
	case resp.StatusCode == http.StatusNotFound:
		class = ClassNotFound
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		class = ClassValidation
	}

	return &Error{
		Class:      class,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Message:    envelope.Message,
		Err:        fmt.Errorf("%s request failed with status %d", operation, resp.StatusCode),
	}
}

// readBodyForError reads the response body for error reporting (max 64KB).
// Uses io.LimitReader to prevent unbounded memory allocation.
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// operationName maps method+path to the metric label for the operation.
func operationName(method, path string) string {
	switch {
	case method == http.MethodGet && path == "/api/reservas":
		return "list"
	case method == http.MethodPost && path == "/api/reservas":
		return "create"
	case method == http.MethodGet && path == "/api/salud":
		return "ping"
	case method == http.MethodPut:
		return "cancel"
	case method == http.MethodPatch:
		return "modify"
	case method == http.MethodGet:
		return "get"
	}
	return "unknown"
}
