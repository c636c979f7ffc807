package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"StockSentiment/internal/domain"
	"StockSentiment/internal/ports"
)

const defaultTimeout = 30 * time.Second

// Client talks to the remote sentiment model server.
//
// The server expects the request body to be a JSON string whose content is the
// JSON document {"inputs": [...]}, so the payload is encoded twice on the wire.
type Client struct {
	endpoint string
	http     *resty.Client
}

var _ ports.ParagraphScorer = (*Client)(nil)

// NewClient creates a client; timeout <= 0 falls back to 30s.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")

	return &Client{endpoint: endpoint, http: client}
}

type inferenceRequest struct {
	Inputs []string `json:"inputs"`
}

type inferenceResponse struct {
	Outputs *[]float64 `json:"outputs"`
}

// ScoreParagraphs sends all paragraphs in one PUT and returns the per-paragraph outputs.
func (c *Client) ScoreParagraphs(ctx context.Context, paragraphs []string) ([]float64, error) {
	if c == nil || c.endpoint == "" {
		return nil, fmt.Errorf("inference client misconfigured")
	}

	body, err := encodeRequest(paragraphs)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Put(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: inference request: %v", domain.ErrNetwork, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: inference returned %s: %s", domain.ErrNetwork, resp.Status(), truncate(resp.String(), 256))
	}

	outputs, err := decodeResponse(resp.Body())
	if err != nil {
		return nil, err
	}
	if len(outputs) != len(paragraphs) {
		return nil, fmt.Errorf("%w: expected %d outputs, got %d", domain.ErrMalformedResponse, len(paragraphs), len(outputs))
	}
	return outputs, nil
}

func encodeRequest(paragraphs []string) ([]byte, error) {
	if paragraphs == nil {
		paragraphs = []string{}
	}
	inner, err := json.Marshal(inferenceRequest{Inputs: paragraphs})
	if err != nil {
		return nil, fmt.Errorf("marshal inference payload: %w", err)
	}
	outer, err := json.Marshal(string(inner))
	if err != nil {
		return nil, fmt.Errorf("marshal inference envelope: %w", err)
	}
	return outer, nil
}

// decodeResponse accepts {"outputs": [...]} and the same document wrapped in a JSON string.
func decodeResponse(raw []byte) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: decode response envelope: %v", domain.ErrMalformedResponse, err)
		}
		raw = []byte(inner)
	}

	var resp inferenceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrMalformedResponse, err)
	}
	if resp.Outputs == nil {
		return nil, fmt.Errorf("%w: response has no outputs", domain.ErrMalformedResponse)
	}
	return *resp.Outputs, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
