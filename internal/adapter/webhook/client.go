// Package webhook talks to the remote answering service over its two HTTP
// endpoints: a JSON query hook and a multipart summary hook.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"lawgpt/internal/usecase/chat"
)

// ErrStatus wraps every non-2xx response.
var ErrStatus = errors.New("unexpected status")

const maxErrorBody = 512

type Config struct {
	QueryURL   string
	SummaryURL string
	// Timeout of zero means requests are bounded only by their context.
	Timeout time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type queryRequest struct {
	Message string `json:"message"`
}

func (c *Client) Query(ctx context.Context, message string) (chat.Reply, error) {
	body, err := json.Marshal(queryRequest{Message: message})
	if err != nil {
		return chat.Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.QueryURL, bytes.NewReader(body))
	if err != nil {
		return chat.Reply{}, fmt.Errorf("creating query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) Summarize(ctx context.Context, doc chat.Document) (chat.Reply, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	part, err := writer.CreateFormFile("file", doc.Name)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("creating file field: %w", err)
	}
	if _, err := io.Copy(part, doc.Body); err != nil {
		return chat.Reply{}, fmt.Errorf("copying %s: %w", doc.Name, err)
	}
	if err := writer.Close(); err != nil {
		return chat.Reply{}, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SummaryURL, &buffer)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("creating summary request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

func (c *Client) do(req *http.Request) (chat.Reply, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return chat.Reply{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return chat.Reply{}, fmt.Errorf("%w %d from %s: %s",
			ErrStatus, resp.StatusCode, req.URL.Path, truncate(string(respBody), maxErrorBody))
	}

	content, err := ParseContent(respBody)
	if err != nil {
		return chat.Reply{}, err
	}
	return chat.Reply{Content: content}, nil
}

// ParseContent extracts the "content" string from a response body. Bodies
// that are valid JSON but carry no such string yield "". Bodies that are not
// JSON at all are an error.
func ParseContent(body []byte) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return "", nil
	}
	content, _ := obj["content"].(string)
	return content, nil
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
