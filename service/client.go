package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"taquilla-cli/logger"
	"taquilla-cli/model"
)

const (
	defaultUserAgent   = "taquilla-cli"
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	AuthToken() string
}

// Client wraps HTTP access to the ticketing backend.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	tokens      TokenSource
	log         *logger.Logger
}

type Option func(*Client)

func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
	// Message is the backend's "message" field when the body is JSON.
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	detail := e.Message
	if detail == "" {
		detail = e.Body
	}
	return fmt.Sprintf("api error: %s: %s", e.Status, detail)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// NewClient creates a new API client. If httpClient is nil, a default client is used.
func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	c := &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   defaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPlaces lists theaters, cinemas or museums.
func (c *Client) GetPlaces(ctx context.Context, venue string) ([]model.Place, error) {
	if venue == "" {
		return nil, errors.New("venue type is required")
	}
	endpoint := fmt.Sprintf("%s/places/type/%s", c.baseURL, url.PathEscape(venue))
	var places model.PlaceList
	if err := c.getJSON(ctx, endpoint, &places); err != nil {
		return nil, err
	}
	return places, nil
}

// GetEvents lists the events of a place. Cinema events are filtered by room type.
func (c *Client) GetEvents(ctx context.Context, venue, placeID, roomType string) ([]model.Event, error) {
	if placeID == "" {
		return nil, errors.New("place id is required")
	}
	var endpoint string
	switch venue {
	case "theater":
		endpoint = fmt.Sprintf("%s/theater/theaterId/%s", c.baseURL, url.PathEscape(placeID))
	case "cinema":
		if roomType == "" {
			return nil, errors.New("room type is required")
		}
		endpoint = fmt.Sprintf("%s/cinema/events/%s/%s", c.baseURL, url.PathEscape(roomType), url.PathEscape(placeID))
	default:
		return nil, fmt.Errorf("events are not listed for venue type %q", venue)
	}
	var events model.EventList
	if err := c.getJSON(ctx, endpoint, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetSeatMap fetches the seat layout and occupancy of an event.
func (c *Client) GetSeatMap(ctx context.Context, venue, eventID string) (model.SeatMap, error) {
	if eventID == "" {
		return model.SeatMap{}, errors.New("event id is required")
	}
	var endpoint string
	switch venue {
	case "theater":
		endpoint = fmt.Sprintf("%s/theater/eventId/%s/seats", c.baseURL, url.PathEscape(eventID))
	case "cinema":
		endpoint = fmt.Sprintf("%s/cinema/event/%s/seats", c.baseURL, url.PathEscape(eventID))
	default:
		return model.SeatMap{}, fmt.Errorf("venue type %q has no seat map", venue)
	}
	var seats model.SeatMap
	if err := c.getJSON(ctx, endpoint, &seats); err != nil {
		return model.SeatMap{}, err
	}
	return seats, nil
}

// GetCategories lists the ticket categories of a venue type.
func (c *Client) GetCategories(ctx context.Context, venue string) ([]model.Category, error) {
	if venue == "" {
		return nil, errors.New("venue type is required")
	}
	endpoint := fmt.Sprintf("%s/%s/categories", c.baseURL, url.PathEscape(venue))
	var categories model.CategoryList
	if err := c.getJSON(ctx, endpoint, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetMuseumAvailability fetches general admission data for a museum.
func (c *Client) GetMuseumAvailability(ctx context.Context, museumID string) (model.MuseumAvailability, error) {
	if museumID == "" {
		return model.MuseumAvailability{}, errors.New("museum id is required")
	}
	endpoint := fmt.Sprintf("%s/museum/availability/%s", c.baseURL, url.PathEscape(museumID))
	var availability model.MuseumAvailability
	if err := c.getJSON(ctx, endpoint, &availability); err != nil {
		return model.MuseumAvailability{}, err
	}
	return availability, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (model.LoginResponse, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return model.LoginResponse{}, errors.New("username and password are required")
	}
	endpoint := c.baseURL + "/auth/login"
	var res model.LoginResponse
	if err := c.postJSON(ctx, endpoint, model.LoginRequest{Username: strings.TrimSpace(username), Password: password}, &res); err != nil {
		return model.LoginResponse{}, err
	}
	if res.Token == "" {
		msg := res.Message
		if msg == "" {
			msg = "credenciales inválidas"
		}
		return model.LoginResponse{}, &APIError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized", Endpoint: endpoint, Message: msg}
	}
	return res, nil
}

// CreateTransaction submits a purchase. It is sent exactly once.
func (c *Client) CreateTransaction(ctx context.Context, req model.TransactionRequest) (model.TransactionResponse, error) {
	endpoint := c.baseURL + "/transaction/create"
	var res model.TransactionResponse
	if err := c.postJSON(ctx, endpoint, req, &res); err != nil {
		return model.TransactionResponse{}, err
	}
	return res, nil
}

// GetTransactionsByUser lists past purchases of a user.
func (c *Client) GetTransactionsByUser(ctx context.Context, userID string) ([]model.TransactionInfo, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	endpoint := fmt.Sprintf("%s/transaction/user/%s", c.baseURL, url.PathEscape(userID))
	var list model.TransactionList
	if err := c.getJSON(ctx, endpoint, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out, c.maxAttempts)
}

// postJSON never retries: a repeated POST could create a second purchase.
func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, payload, out, 1)
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, out any, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokens != nil {
			if token := c.tokens.AuthToken(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		start := time.Now()
		res, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Warn("API", fmt.Sprintf("%s %s: %v", method, req.URL.Path, err))
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}
		c.log.LogAPI(method, req.URL.Path, res.Status, time.Since(start))

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
			_ = res.Body.Close()

			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Endpoint:   endpoint,
				Body:       strings.TrimSpace(string(snippet)),
				Message:    errorMessage(snippet),
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

func errorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.Error
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.retryDelay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryDelay doubles from retryBase up to retryCap.
func (c *Client) retryDelay(attempt int) time.Duration {
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	limit := c.retryCap
	if limit <= 0 {
		limit = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt && delay < limit; i++ {
		delay *= 2
	}
	return min(delay, limit)
}
