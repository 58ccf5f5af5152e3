package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"answerhub.dev/scribe/core/config"
)

// httpMessenger talks to the chat gateway's REST API.
type httpMessenger struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTP(cfg config.MessagingConfig) Messenger {
	return &httpMessenger{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *httpMessenger) FetchReplies(ctx context.Context, channel, threadID, sinceID string) ([]Reply, error) {
	path := fmt.Sprintf("/channels/%s/threads/%s/replies?since=%s",
		url.PathEscape(channel), url.PathEscape(threadID), url.QueryEscape(sinceID))

	var out struct {
		Replies []Reply `json:"replies"`
	}
	if err := m.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("fetching replies: %w", err)
	}
	return out.Replies, nil
}

func (m *httpMessenger) PostReply(ctx context.Context, channel, threadID, text string) error {
	path := fmt.Sprintf("/channels/%s/threads/%s/replies",
		url.PathEscape(channel), url.PathEscape(threadID))
	if err := m.do(ctx, http.MethodPost, path, map[string]string{"text": text}, nil); err != nil {
		return fmt.Errorf("posting reply: %w", err)
	}
	return nil
}

func (m *httpMessenger) SendDirect(ctx context.Context, userID, text string) (bool, error) {
	var out struct {
		Delivered bool `json:"delivered"`
	}
	err := m.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/messages",
		map[string]string{"text": text}, &out)
	if err != nil {
		return false, fmt.Errorf("sending direct message: %w", err)
	}
	return out.Delivered, nil
}

func (m *httpMessenger) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("chat gateway %s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
