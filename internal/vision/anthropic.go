package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"tradejournal/internal/config"
)

var (
	ErrNotConfigured = errors.New("vision model not configured")
	ErrTimeout       = errors.New("vision model timed out")
	ErrParse         = errors.New("could not parse model output")
)

// UpstreamError wraps a failed call to the model provider.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return "vision upstream: " + e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

const extractPrompt = `Read the trade history table in this image and return ONLY a JSON array.
Each element: {"symbol","side","quantity","openDate","closeDate","entryPrice","exitPrice","fee","swap","pnl"}.
side is BUY or SELL. Dates are ISO 8601 (YYYY-MM-DDTHH:MM:SS). Numbers without currency symbols or separators.
Skip rows where symbol, side, quantity or open date cannot be read. Return [] when nothing is readable.`

// Client extracts trade rows from screenshots with a Claude vision model.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	enabled   bool
}

func New(cfg config.VisionConfig, opts ...option.RequestOption) *Client {
	c := &Client{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		enabled:   strings.TrimSpace(cfg.APIKey) != "",
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 4096
	}
	if c.timeout <= 0 {
		c.timeout = 80 * time.Second
	}
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(1)}, opts...)
	c.api = anthropic.NewClient(opts...)
	return c
}

func (c *Client) Timeout() time.Duration {
	if c == nil {
		return 0
	}
	return c.timeout
}

// Extract sends the base64 image to the model and parses the returned rows.
func (c *Client) Extract(ctx context.Context, mediaType, imageBase64 string) ([]ExtractedTrade, error) {
	if c == nil || !c.enabled {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, imageBase64),
				anthropic.NewTextBlock(extractPrompt),
			),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &UpstreamError{Err: err}
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	rows, err := ParseTrades(text.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return rows, nil
}
