package aigateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxCapturedBody = 2048

// Client calls per-user AI completion endpoints. The response is free
// text; parsing it is the Drafter's concern.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	// token is the server-held credential forwarded with every prompt.
	token string
}

func NewClient(logger *slog.Logger, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		logger:     logger.With("adapter", "aigateway"),
		httpClient: httpClient,
		token:      token,
	}
}

// Complete posts the rendered prompt form-encoded ({prompt, token}) and
// returns the raw response body.
func (c *Client) Complete(ctx context.Context, endpointURL string, prompt string) (string, error) {
	form := url.Values{}
	form.Set("prompt", prompt)
	form.Set("token", c.token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create AI request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.DebugContext(ctx, "Posting prompt to AI endpoint", "url", endpointURL, "prompt_len", len(prompt))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("AI endpoint request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil {
		return "", fmt.Errorf("failed to read AI response body: %w", readErr)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		capture := body
		if len(capture) > maxCapturedBody {
			capture = capture[:maxCapturedBody]
		}
		return "", fmt.Errorf("AI endpoint returned status %d: %s", httpResp.StatusCode, string(capture))
	}

	return string(body), nil
}
