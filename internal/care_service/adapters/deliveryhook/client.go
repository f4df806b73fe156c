package deliveryhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/caredesk/golang_services/internal/care_service/domain"
)

// maxCapturedBody bounds how much of a failed response body is kept for
// diagnostics.
const maxCapturedBody = 2048

// Payload is the JSON body posted to a user's delivery webhook.
// Attachments is omitted entirely when the message has no image.
type Payload struct {
	ThreadID    string      `json:"threadId"`
	Type        string      `json:"type"`
	Message     string      `json:"message"`
	Attachments *Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

// BuildPayload maps a claimed care message onto the webhook wire shape.
func BuildPayload(msg *domain.CareMessage) Payload {
	p := Payload{
		ThreadID: msg.ThreadID,
		Type:     "user",
	}
	if msg.Content.Valid {
		p.Message = msg.Content.String
	}
	if msg.ImageURL.Valid && msg.ImageURL.String != "" {
		p.Attachments = &Attachment{Type: "image_url", ImageURL: msg.ImageURL.String}
	}
	return p
}

// Client posts delivery payloads to per-user webhook URLs.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
}

func NewClient(logger *slog.Logger, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		logger:     logger.With("adapter", "deliveryhook"),
		httpClient: httpClient,
	}
}

// Send posts the payload as JSON. Any non-2xx response, transport error,
// or timeout is returned as an error; the caller treats all of them as a
// terminal delivery failure.
func (c *Client) Send(ctx context.Context, webhookURL string, payload Payload) error {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create delivery request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.DebugContext(ctx, "Posting to delivery webhook", "url", webhookURL, "thread_id", payload.ThreadID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delivery webhook request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(httpResp.Body, maxCapturedBody))
		if readErr != nil {
			body = []byte(fmt.Sprintf("<unreadable body: %v>", readErr))
		}
		return fmt.Errorf("delivery webhook returned status %d: %s", httpResp.StatusCode, string(body))
	}

	return nil
}
