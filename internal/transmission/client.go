// Package transmission is a minimal Transmission RPC client covering the
// operations the bot dispatches: list, add, start/stop/verify/remove,
// file selection, and free-space.
package transmission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrAuthFailed indicates the daemon rejected the configured credentials.
var ErrAuthFailed = errors.New("authentication failed")

// ResultError is an RPC-level failure: the daemon answered but reported
// result != "success" (malformed input, unknown id, and so on). Transport
// failures are returned as plain errors instead.
type ResultError struct {
	Result string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("transmission error: %s", e.Result)
}

// Config holds the connection parameters for one daemon.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	HTTPS    bool

	// Timeout bounds every RPC call; defaults to 15s.
	Timeout time.Duration
}

// Client talks to a single Transmission daemon. Safe for concurrent use.
type Client struct {
	config  Config
	client  *http.Client
	baseURL string

	mu        sync.Mutex
	sessionID string // X-Transmission-Session-Id for CSRF protection
}

// New creates a client for the given daemon.
func New(cfg Config) *Client {
	scheme := "http"
	if cfg.HTTPS {
		scheme = "https"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		config:  cfg,
		baseURL: fmt.Sprintf("%s://%s:%d/transmission/rpc", scheme, cfg.Host, cfg.Port),
		client:  &http.Client{Timeout: timeout},
	}
}

// do performs an RPC request with automatic session ID handling.
func (c *Client) do(ctx context.Context, method string, args interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
	if err != nil {
		return err
	}

	// Try up to 2 times: the first attempt may come back 409 with a fresh
	// session id.
	for i := 0; i < 2; i++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return err
		}

		httpReq.Header.Set("Content-Type", "application/json")
		c.mu.Lock()
		if c.sessionID != "" {
			httpReq.Header.Set("X-Transmission-Session-Id", c.sessionID)
		}
		c.mu.Unlock()
		if c.config.Username != "" {
			httpReq.SetBasicAuth(c.config.Username, c.config.Password)
		}

		resp, err := c.client.Do(httpReq)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusConflict {
			newSessionID := resp.Header.Get("X-Transmission-Session-Id")
			resp.Body.Close()
			if newSessionID != "" {
				c.mu.Lock()
				c.sessionID = newSessionID
				c.mu.Unlock()
				continue
			}
			return fmt.Errorf("received 409 but no session ID in response")
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return ErrAuthFailed
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		if readErr != nil {
			return readErr
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			return err
		}
		if rpcResp.Result != "success" {
			return &ResultError{Result: rpcResp.Result}
		}
		if out != nil && len(rpcResp.Arguments) > 0 {
			if err := json.Unmarshal(rpcResp.Arguments, out); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("failed to get valid session ID")
}

// Torrents fetches the summary fields for the given ids, or for all
// torrents when ids is empty.
func (c *Client) Torrents(ctx context.Context, ids ...int64) ([]Torrent, error) {
	args := map[string]interface{}{"fields": torrentFields}
	if len(ids) > 0 {
		args["ids"] = ids
	}

	var result struct {
		Torrents []Torrent `json:"torrents"`
	}
	if err := c.do(ctx, "torrent-get", args, &result); err != nil {
		return nil, err
	}
	return result.Torrents, nil
}

// Files fetches the file list and per-file stats for one torrent. Both
// slices are index-aligned; a missing torrent yields empty slices.
func (c *Client) Files(ctx context.Context, id int64) ([]File, []FileStat, error) {
	args := map[string]interface{}{
		"ids":    []int64{id},
		"fields": []string{"id", "files", "fileStats"},
	}

	var result struct {
		Torrents []struct {
			Files     []File     `json:"files"`
			FileStats []FileStat `json:"fileStats"`
		} `json:"torrents"`
	}
	if err := c.do(ctx, "torrent-get", args, &result); err != nil {
		return nil, nil, err
	}
	if len(result.Torrents) == 0 {
		return nil, nil, nil
	}
	return result.Torrents[0].Files, result.Torrents[0].FileStats, nil
}

// Add submits torrent-add. The second return is true when the daemon
// reported the torrent as a duplicate.
func (c *Client) Add(ctx context.Context, req AddRequest) (Added, bool, error) {
	args := map[string]interface{}{}
	switch {
	case req.MetaInfo != "":
		args["metainfo"] = req.MetaInfo
	case req.Filename != "":
		args["filename"] = req.Filename
	default:
		return Added{}, false, fmt.Errorf("torrent-add requires a filename or metainfo")
	}
	if req.Paused {
		args["paused"] = true
	}

	var result struct {
		TorrentAdded     *Added `json:"torrent-added"`
		TorrentDuplicate *Added `json:"torrent-duplicate"`
	}
	if err := c.do(ctx, "torrent-add", args, &result); err != nil {
		return Added{}, false, err
	}

	if result.TorrentDuplicate != nil {
		return *result.TorrentDuplicate, true, nil
	}
	if result.TorrentAdded != nil {
		return *result.TorrentAdded, false, nil
	}
	return Added{}, false, fmt.Errorf("unexpected response: no torrent info returned")
}

// Start resumes the torrent.
func (c *Client) Start(ctx context.Context, id int64) error {
	return c.do(ctx, "torrent-start", map[string]interface{}{"ids": []int64{id}}, nil)
}

// Stop pauses the torrent.
func (c *Client) Stop(ctx context.Context, id int64) error {
	return c.do(ctx, "torrent-stop", map[string]interface{}{"ids": []int64{id}}, nil)
}

// Verify re-checks the torrent's local data.
func (c *Client) Verify(ctx context.Context, id int64) error {
	return c.do(ctx, "torrent-verify", map[string]interface{}{"ids": []int64{id}}, nil)
}

// Remove deletes the torrent, and its downloaded files when deleteData
// is set.
func (c *Client) Remove(ctx context.Context, id int64, deleteData bool) error {
	args := map[string]interface{}{
		"ids":               []int64{id},
		"delete-local-data": deleteData,
	}
	return c.do(ctx, "torrent-remove", args, nil)
}

// SetFilesWanted updates per-file download selection. Empty index slices
// are skipped: Transmission treats an empty array as "all files".
func (c *Client) SetFilesWanted(ctx context.Context, id int64, wanted, unwanted []int) error {
	args := map[string]interface{}{"ids": []int64{id}}
	if len(wanted) > 0 {
		args["files-wanted"] = wanted
	}
	if len(unwanted) > 0 {
		args["files-unwanted"] = unwanted
	}
	if len(wanted) == 0 && len(unwanted) == 0 {
		return nil
	}
	return c.do(ctx, "torrent-set", args, nil)
}

// Session fetches the daemon's session info.
func (c *Client) Session(ctx context.Context) (SessionInfo, error) {
	var info SessionInfo
	if err := c.do(ctx, "session-get", nil, &info); err != nil {
		return SessionInfo{}, err
	}
	return info, nil
}

// FreeSpace reports the free bytes available at path, typically the
// session's download directory.
func (c *Client) FreeSpace(ctx context.Context, path string) (int64, error) {
	var result struct {
		Path      string `json:"path"`
		SizeBytes int64  `json:"size-bytes"`
	}
	if err := c.do(ctx, "free-space", map[string]interface{}{"path": path}, &result); err != nil {
		return 0, err
	}
	return result.SizeBytes, nil
}
