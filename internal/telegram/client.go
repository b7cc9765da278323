// Package telegram is the Bot API transport: a long-polling client plus
// the adapter that turns raw updates into normalized bot events.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// maxDocumentBytes caps .torrent downloads. Metainfo files are small;
// anything larger is not one.
const maxDocumentBytes = 10 << 20

// Client talks to the Telegram Bot API over HTTPS. Methods are safe for
// concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	token   string

	pollTimeout time.Duration
}

// NewClient builds a client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		http:        &http.Client{Timeout: 60 * time.Second},
		baseURL:     defaultBaseURL,
		token:       token,
		pollTimeout: 30 * time.Second,
	}
}

// newClientAt is the test hook for pointing at an httptest server.
func newClientAt(baseURL, token string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// call posts a JSON body to one Bot API method and decodes the result
// envelope into out (out may be nil for fire-and-forget methods).
func (c *Client) call(ctx context.Context, method string, body, out any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("telegram %s: http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s: %s", method, envelope.Description)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

// getMe identifies the bot. Used at startup to verify the token and to
// learn the username for command mention stripping.
func (c *Client) getMe(ctx context.Context) (user, error) {
	var me user
	err := c.call(ctx, "getMe", nil, &me)
	return me, err
}

// getUpdates long-polls for updates after offset and returns them with
// the next offset to ack everything received.
func (c *Client) getUpdates(ctx context.Context, offset int64) ([]update, int64, error) {
	// The request must outlive the server-side long poll.
	reqCtx, cancel := context.WithTimeout(ctx, c.pollTimeout+10*time.Second)
	defer cancel()

	var updates []update
	req := getUpdatesRequest{Offset: offset, Timeout: int(c.pollTimeout.Seconds())}
	if err := c.call(reqCtx, "getUpdates", req, &updates); err != nil {
		return nil, offset, err
	}

	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

func (c *Client) sendMessage(ctx context.Context, req sendMessageRequest) (int64, error) {
	var msg message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (c *Client) editMessageText(ctx context.Context, req editMessageTextRequest) error {
	return c.call(ctx, "editMessageText", req, nil)
}

func (c *Client) answerCallbackQuery(ctx context.Context, req answerCallbackQueryRequest) error {
	return c.call(ctx, "answerCallbackQuery", req, nil)
}

// downloadFile resolves a file id to its server path, then fetches the
// bytes from the file endpoint.
func (c *Client) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	var f file
	if err := c.call(ctx, "getFile", getFileRequest{FileID: fileID}, &f); err != nil {
		return nil, err
	}
	if f.FilePath == "" {
		return nil, fmt.Errorf("telegram getFile: empty file_path")
	}
	if f.FileSize > maxDocumentBytes {
		return nil, fmt.Errorf("telegram getFile: file too large (%d bytes)", f.FileSize)
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, f.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram download: http %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
}
