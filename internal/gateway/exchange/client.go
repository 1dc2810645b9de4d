package exchange

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

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"predictbot/internal/types"
)

// Client wraps the prediction-market REST API. One Client is built per user
// (credentials differ); the rate limiter is shared across all of a process's
// clients so the bot stays inside the exchange's request budget.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	apiKey     string
	authToken  string
	limiter    *rate.Limiter

	retryMaxElapsed time.Duration
}

// Credentials is the per-user signing material handed to the client. How the
// values are produced (decryption, key derivation) is the credential store's
// business, not the client's.
type Credentials struct {
	APIKey    string
	AuthToken string
}

var (
	// ErrOrderNotFound marks a lookup for an order the exchange does not know.
	ErrOrderNotFound = errors.New("exchange: order not found")
)

// apiError is a non-2xx response. Status is kept so callers can distinguish
// transient server faults from request errors.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("exchange: http %d", e.Status)
	}
	return fmt.Sprintf("exchange: http %d: %s", e.Status, e.Body)
}

// IsTransient reports whether err is worth treating as a temporary failure:
// network errors, timeouts, and 5xx responses. The classifier leans on this to
// keep processing an order when a status probe fails.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// url.Error covers connection resets, DNS failures and client timeouts.
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// NewClient builds a client for one user's credentials.
func NewClient(apiURL string, creds Credentials, timeout time.Duration, limiter *rate.Limiter) (*Client, error) {
	raw := strings.TrimSpace(apiURL)
	if raw == "" {
		return nil, fmt.Errorf("exchange api url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing exchange api url: %w", err)
	}
	if strings.TrimSpace(creds.APIKey) == "" {
		return nil, fmt.Errorf("exchange api key cannot be empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:         parsed,
		httpClient:      &http.Client{Timeout: timeout},
		apiKey:          strings.TrimSpace(creds.APIKey),
		authToken:       strings.TrimSpace(creds.AuthToken),
		limiter:         limiter,
		retryMaxElapsed: 10 * time.Second,
	}, nil
}

// SetHTTPClient swaps the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetOrder fetches one order by hash and normalizes it to OrderState.
func (c *Client) GetOrder(ctx context.Context, hash string) (*OrderState, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, fmt.Errorf("order hash cannot be empty")
	}
	body, err := c.getWithRetry(ctx, "orders/"+hash)
	if err != nil {
		return nil, err
	}
	payload := dataEnvelope(body)
	if !payload.Exists() {
		return nil, fmt.Errorf("exchange: order response missing data")
	}
	state := &OrderState{
		Hash:       firstString(payload, "hash"),
		ExchangeID: firstString(payload, "id", "orderId"),
		Status:     types.NormalizeStatus(payload.Get("status").String()),
		Raw:        []byte(payload.Raw),
	}
	if state.Hash == "" {
		state.Hash = hash
	}
	if v := payload.Get("pricePerShare"); v.Exists() {
		if p, err := decimal.NewFromString(v.String()); err == nil {
			state.Price = p
		}
	}
	if v := payload.Get("amountFilled"); v.Exists() {
		if a, err := decimal.NewFromString(v.String()); err == nil {
			state.AmountFilled = a
		}
	}
	return state, nil
}

// GetOrderBook fetches a market's book. The API quotes levels as
// [[price, size], ...] arrays in arbitrary order; malformed rows are dropped.
func (c *Client) GetOrderBook(ctx context.Context, marketID int64) (types.OrderBook, error) {
	body, err := c.getWithRetry(ctx, fmt.Sprintf("markets/%d/orderbook", marketID))
	if err != nil {
		return types.OrderBook{}, err
	}
	payload := dataEnvelope(body)
	book := types.OrderBook{
		Bids: parseLevels(payload.Get("bids")),
		Asks: parseLevels(payload.Get("asks")),
	}
	return book, nil
}

// CancelOrders removes resting orders from the book. This is a hard call: it
// is not retried, and any error means the whole batch is unaccounted for.
func (c *Client) CancelOrders(ctx context.Context, ids []string) (CancelResult, error) {
	if len(ids) == 0 {
		return CancelResult{}, fmt.Errorf("cancel batch cannot be empty")
	}
	payload := map[string]any{"data": map[string]any{"ids": ids}}
	body, err := c.do(ctx, http.MethodPost, "orders/remove", payload)
	if err != nil {
		return CancelResult{}, err
	}
	root := gjson.ParseBytes(body)
	if data := root.Get("data"); data.Exists() && data.IsObject() {
		root = data
	}
	if s := root.Get("success"); s.Exists() && !s.Bool() {
		cause := root.Get("cause").String()
		if cause == "" {
			cause = "cancellation rejected"
		}
		return CancelResult{}, fmt.Errorf("exchange: %s", cause)
	}
	return CancelResult{
		Removed: stringList(root.Get("removed")),
		Noop:    stringList(root.Get("noop")),
	}, nil
}

// PlaceOrders submits orders one by one (the API has no placement batch) and
// returns one result per request, in order. A failed placement never aborts
// the rest of the batch.
func (c *Client) PlaceOrders(ctx context.Context, reqs []PlacementRequest) ([]PlacementResult, error) {
	results := make([]PlacementResult, 0, len(reqs))
	for _, req := range reqs {
		res := c.placeOne(ctx, req)
		results = append(results, res)
		if err := ctx.Err(); err != nil {
			// Fill in failures for what is left so callers still get one
			// result per request.
			for i := len(results); i < len(reqs); i++ {
				results = append(results, PlacementResult{Success: false, Err: err.Error()})
			}
			return results, nil
		}
	}
	return results, nil
}

func (c *Client) placeOne(ctx context.Context, req PlacementRequest) PlacementResult {
	payload := map[string]any{
		"data": map[string]any{
			"strategy":      "LIMIT",
			"marketId":      req.MarketID,
			"tokenId":       req.TokenID,
			"side":          string(req.Side),
			"pricePerShare": req.Price.String(),
			"amount":        req.Amount.String(),
			"slippageBps":   "0",
		},
	}
	body, err := c.do(ctx, http.MethodPost, "orders", payload)
	if err != nil {
		return PlacementResult{Success: false, Err: err.Error()}
	}
	data := dataEnvelope(body)
	hash := firstString(data, "orderHash", "hash")
	if hash == "" {
		msg := firstString(data, "message", "cause")
		if msg == "" {
			msg = "exchange did not return an order hash"
		}
		return PlacementResult{Success: false, Err: msg}
	}
	return PlacementResult{
		Success:    true,
		Hash:       hash,
		ExchangeID: firstString(data, "orderId", "id"),
	}
}

// getWithRetry runs an idempotent GET with exponential backoff on transient
// failures. Non-transient errors (4xx) abort immediately.
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	deadline := time.Now().Add(c.retryMaxElapsed)
	for {
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err == nil {
			return body, nil
		}
		if !IsTransient(err) || time.Now().After(deadline) {
			return nil, err
		}
		sleep := bo.NextBackOff()
		if sleep == backoff.Stop {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c == nil || c.baseURL == nil {
		return nil, fmt.Errorf("exchange client not initialized")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/" + strings.TrimLeft(path, "/")

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-api-key", c.apiKey)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling exchange: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading exchange response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrOrderNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// dataEnvelope unwraps the API's {"data": ...} envelope when present.
func dataEnvelope(body []byte) gjson.Result {
	root := gjson.ParseBytes(body)
	if data := root.Get("data"); data.Exists() {
		return data
	}
	return root
}

func parseLevels(arr gjson.Result) []types.PriceLevel {
	if !arr.IsArray() {
		return nil
	}
	rows := arr.Array()
	levels := make([]types.PriceLevel, 0, len(rows))
	for _, row := range rows {
		cells := row.Array()
		if len(cells) < 1 {
			continue
		}
		price, err := decimal.NewFromString(cells[0].String())
		if err != nil {
			continue
		}
		lvl := types.PriceLevel{Price: price}
		if len(cells) > 1 {
			if size, err := decimal.NewFromString(cells[1].String()); err == nil {
				lvl.Size = size
			}
		}
		levels = append(levels, lvl)
	}
	return levels
}

func stringList(arr gjson.Result) []string {
	if !arr.IsArray() {
		return nil
	}
	items := arr.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstString(res gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := res.Get(key); v.Exists() {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
