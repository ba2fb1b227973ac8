package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alecbaum/wagl-backend-sub002/internal/resilience"
)

// Config locates the relay service and bounds outbound pressure.
type Config struct {
	BaseURL    string            `mapstructure:"base_url"`
	APIKey     string            `mapstructure:"api_key"`
	RatePerSec float64           `mapstructure:"rate_per_sec"`
	Burst      int               `mapstructure:"burst"`
	RoomPool   []int             `mapstructure:"room_pool"`
	Pipeline   resilience.Config `mapstructure:"pipeline"`
}

// ConnectRequest announces a participant to the relay.
type ConnectRequest struct {
	Username  string `json:"username"`
	UniqueID  string `json:"uniqueId"`
	Room      int    `json:"room"`
	URLParams string `json:"urlParams,omitempty"`
}

// MessageRequest forwards a chat message to a relay room.
type MessageRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	Room    int    `json:"room"`
}

// Client talks HTTP to the relay service. Every call runs through the
// resilience pipeline and the outbound rate limiter.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	pipeline *resilience.Pipeline
}

func NewClient(cfg Config, listener resilience.Listener) *Client {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 50
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		pipeline: resilience.NewPipeline(cfg.Pipeline, listener),
	}
}

func (c *Client) Connect(ctx context.Context, req ConnectRequest) error {
	return c.call(ctx, http.MethodPost, "/user/connect", req)
}

func (c *Client) Disconnect(ctx context.Context, req ConnectRequest) error {
	return c.call(ctx, http.MethodPost, "/user/disconnect", req)
}

func (c *Client) SendMessage(ctx context.Context, req MessageRequest) error {
	return c.call(ctx, http.MethodPost, "/message/send", req)
}

// Health probes the relay. It bypasses the rate limiter so health
// checks stay honest under load, but still runs through the pipeline.
func (c *Client) Health(ctx context.Context) error {
	return c.pipeline.Execute(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/health", nil)
	})
}

// BreakerState reports the circuit state for the health endpoint.
func (c *Client) BreakerState() resilience.State {
	return c.pipeline.BreakerState()
}

func (c *Client) call(ctx context.Context, method, path string, body any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.pipeline.Execute(ctx, func(ctx context.Context) error {
		return c.do(ctx, method, path, body)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal relay request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &resilience.StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
	}
}
