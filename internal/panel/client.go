package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/panelshop/internal/logger"
	"github.com/MrSnakeDoc/panelshop/internal/utils"
)

const (
	ActionServices = "services"
	ActionAdd      = "add"
	ActionStatus   = "status"
	ActionBalance  = "balance"

	// maxBodyBytes caps how much of a panel response is read. Full service
	// lists of large panels run to a few MB.
	maxBodyBytes = 32 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL    string        // single POST endpoint of the panel
	Key        string        // shared secret sent as "key"
	Timeout    time.Duration // per call, defaults to 20s
	FailStatus int           // responses with status >= FailStatus are failures, defaults to 400
	HTTPClient *http.Client  // optional, for tests
	Logger     logger.Logger // optional
}

// Client talks to a social marketing panel over its form-encoded v2 API.
// It never retries.
type Client struct {
	baseURL    string
	key        string
	timeout    time.Duration
	failStatus int
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a panel client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.FailStatus <= 0 {
		opts.FailStatus = http.StatusBadRequest
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Client{
		baseURL:    opts.BaseURL,
		key:        opts.Key,
		timeout:    opts.Timeout,
		failStatus: opts.FailStatus,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// ListServices fetches the full upstream service list.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	body, status, err := c.call(ctx, ActionServices, nil)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &Error{Action: ActionServices, Status: status, Message: "unexpected services response"}
	}
	var services []Service
	if err := json.Unmarshal(trimmed, &services); err != nil {
		return nil, &Error{Action: ActionServices, Status: status, Message: "unexpected services response", Err: err}
	}
	return services, nil
}

// AddOrder places an order upstream.
func (c *Client) AddOrder(ctx context.Context, params AddOrderParams) (*AddOrderResult, error) {
	var out AddOrderResult
	if err := c.do(ctx, ActionAdd, params.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrderStatus fetches the upstream status of a single order.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (*OrderStatus, error) {
	var out OrderStatus
	if err := c.do(ctx, ActionStatus, url.Values{"order": {orderID}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance fetches the account balance held at the panel.
func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	var out Balance
	if err := c.do(ctx, ActionBalance, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, action string, form url.Values, out any) error {
	body, status, err := c.call(ctx, action, form)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Action: action, Status: status, Message: "malformed response", Err: err}
	}
	return nil
}

// call performs the POST and applies the failure rules shared by every action.
func (c *Client) call(ctx context.Context, action string, form url.Values) ([]byte, int, error) {
	if form == nil {
		form = url.Values{}
	}
	form.Set("key", c.key)
	form.Set("action", action)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, &Error{Action: action, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("panel request failed",
			logger.String("action", action),
			logger.Duration("duration", time.Since(start)),
			logger.Error(err))
		return nil, 0, &Error{Action: action, Err: err}
	}
	defer utils.CloseLogged(resp.Body, c.logger, "panel response body")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &Error{Action: action, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("panel call",
		logger.String("action", action),
		logger.Int("status", resp.StatusCode),
		logger.Int("bytes", len(body)),
		logger.Duration("duration", time.Since(start)))

	msg := errorMessage(body)
	if resp.StatusCode >= c.failStatus {
		return nil, resp.StatusCode, &Error{Action: action, Status: resp.StatusCode, Message: msg}
	}
	if msg != "" {
		return nil, resp.StatusCode, &Error{Action: action, Status: resp.StatusCode, Message: msg}
	}
	return body, resp.StatusCode, nil
}

// errorMessage extracts a non-empty "error" field from an object body.
func errorMessage(body []byte) string {
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || len(probe.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(probe.Error, &s); err == nil {
		return strings.TrimSpace(s)
	}
	switch raw := strings.TrimSpace(string(probe.Error)); raw {
	case "null", "false", "0", "{}", "[]":
		return ""
	default:
		return raw
	}
}
