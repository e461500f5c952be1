// Package devtools drives a running Chromium-family browser over the
// DevTools protocol. Tabs are discovered through the HTTP /json list
// endpoint; scripts run over each tab's WebSocket debugger connection.
package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strata-labs/skimmer/internal/core/domain"
	"github.com/strata-labs/skimmer/internal/core/ports/driven"
)

// Ensure Controller implements the interface.
var _ driven.BrowserController = (*Controller)(nil)

// Default configuration values.
const (
	DefaultEndpoint        = "http://127.0.0.1:9222"
	DefaultEvaluateTimeout = 10 * time.Second

	// scrollScript nudges the page towards the bottom by one viewport.
	scrollScript = "window.scrollBy(0, window.innerHeight); 'ok'"

	// snapshotScript captures the rendered DOM.
	snapshotScript = "document.documentElement.outerHTML"
)

// Config holds configuration for the DevTools controller.
type Config struct {
	// Endpoint is the browser's DevTools HTTP endpoint
	// (default: http://127.0.0.1:9222).
	Endpoint string

	// DialTimeout bounds WebSocket connection establishment.
	DialTimeout time.Duration
}

// Controller talks to a browser's DevTools endpoint. Debugger
// connections are opened per tab on first use and reused.
type Controller struct {
	endpoint string
	client   *http.Client
	dialer   *websocket.Dialer

	mu    sync.Mutex
	conns map[string]*tabConn
}

// tabConn is one tab's debugger connection. Its lock serializes
// request/reply round-trips on the socket without stalling other tabs.
type tabConn struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	nextID int
}

// tabInfo is the /json list entry format.
type tabInfo struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	Title                string `json:"title"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// devtoolsRequest is a protocol command.
type devtoolsRequest struct {
	ID     int            `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// devtoolsResponse is a protocol reply.
type devtoolsResponse struct {
	ID     int `json:"id"`
	Result struct {
		Result struct {
			Type  string `json:"type"`
			Value any    `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewController creates a DevTools controller against the given
// endpoint.
func NewController(cfg Config) *Controller {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	return &Controller{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: 15 * time.Second},
		dialer:   &websocket.Dialer{HandshakeTimeout: cfg.DialTimeout},
		conns:    make(map[string]*tabConn),
	}
}

// ListTabs returns the currently open page tabs. DevTools targets that
// are not pages (extensions, service workers) are filtered out.
func (c *Controller) ListTabs(ctx context.Context) ([]driven.Tab, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/json/list", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrBrowserUnavailable, resp.StatusCode)
	}

	var infos []tabInfo
	if err := json.Unmarshal(body, &infos); err != nil {
		return nil, fmt.Errorf("decode tab list: %w", err)
	}

	var tabs []driven.Tab //nolint:prealloc // pages are a subset of targets
	for _, info := range infos {
		if info.Type != "page" {
			continue
		}
		tabs = append(tabs, driven.Tab{
			ID:    info.ID,
			URL:   info.URL,
			Title: info.Title,
		})
	}

	return tabs, nil
}

// ScrollTab scrolls the tab towards the bottom of the page.
func (c *Controller) ScrollTab(ctx context.Context, tabID string) error {
	_, err := c.Evaluate(ctx, tabID, scrollScript, DefaultEvaluateTimeout)
	return err
}

// SnapshotDOM returns the tab's rendered HTML.
func (c *Controller) SnapshotDOM(ctx context.Context, tabID string) (string, error) {
	return c.Evaluate(ctx, tabID, snapshotScript, DefaultEvaluateTimeout)
}

// Evaluate runs a script in the tab via Runtime.evaluate and returns
// its string result.
func (c *Controller) Evaluate(
	ctx context.Context,
	tabID, script string,
	timeout time.Duration,
) (string, error) {
	if timeout <= 0 {
		timeout = DefaultEvaluateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := c.conn(ctx, tabID)
	if err != nil {
		return "", err
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.nextID++
	req := devtoolsRequest{
		ID:     conn.nextID,
		Method: "Runtime.evaluate",
		Params: map[string]any{
			"expression":    script,
			"returnByValue": true,
		},
	}

	deadline, _ := ctx.Deadline()
	if err := conn.ws.SetWriteDeadline(deadline); err != nil {
		return "", fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.ws.WriteJSON(req); err != nil {
		c.drop(tabID)
		return "", fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, err)
	}

	if err := conn.ws.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("set read deadline: %w", err)
	}

	// Events may interleave with the reply; skip until our ID shows up.
	for {
		var resp devtoolsResponse
		if err := conn.ws.ReadJSON(&resp); err != nil {
			c.drop(tabID)
			return "", fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, err)
		}
		if resp.ID != req.ID {
			continue
		}

		if resp.Error != nil {
			return "", fmt.Errorf("devtools error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		if resp.Result.ExceptionDetails != nil {
			return "", fmt.Errorf("script exception: %s", resp.Result.ExceptionDetails.Text)
		}

		switch v := resp.Result.Result.Value.(type) {
		case string:
			return v, nil
		case nil:
			return "", nil
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("encode result: %w", err)
			}
			return string(encoded), nil
		}
	}
}

// Close releases all debugger connections.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for id, conn := range c.conns {
		if err := conn.ws.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.conns, id)
	}
	return firstErr
}

// conn returns the tab's debugger connection, dialing on first use.
func (c *Controller) conn(ctx context.Context, tabID string) (*tabConn, error) {
	c.mu.Lock()
	if conn, ok := c.conns[tabID]; ok {
		c.mu.Unlock()
		return conn, nil
	}
	c.mu.Unlock()

	wsURL, err := c.debuggerURL(ctx, tabID)
	if err != nil {
		return nil, err
	}

	ws, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing tab %s: %v", domain.ErrBrowserUnavailable, tabID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.conns[tabID]; ok {
		// Lost the race; keep the first connection.
		ws.Close()
		return existing, nil
	}
	conn := &tabConn{ws: ws}
	c.conns[tabID] = conn
	return conn, nil
}

// debuggerURL resolves a tab's WebSocket debugger address.
func (c *Controller) debuggerURL(ctx context.Context, tabID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/json/list", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, err)
	}
	defer resp.Body.Close()

	var infos []tabInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return "", fmt.Errorf("decode tab list: %w", err)
	}

	for _, info := range infos {
		if info.ID == tabID {
			if info.WebSocketDebuggerURL == "" {
				return "", fmt.Errorf("tab %s has no debugger URL (already attached?)", tabID)
			}
			return info.WebSocketDebuggerURL, nil
		}
	}

	return "", fmt.Errorf("%w: tab %s", domain.ErrNotFound, tabID)
}

// drop discards a broken connection so the next call redials.
func (c *Controller) drop(tabID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[tabID]; ok {
		conn.ws.Close()
		delete(c.conns, tabID)
	}
}
