package syncthing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"stfed/internal/logger"
	"stfed/internal/util"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	headerAPIKey = "X-API-Key"
	userAgent    = "stfed"

	DefaultRESTTimeout  = 10 * time.Second
	DefaultEventTimeout = time.Hour
)

// Options configure a Client. RESTTimeout bounds every request except the
// event long poll, whose duration is EventTimeout.
type Options struct {
	URL          string
	APIKey       string
	RESTTimeout  time.Duration
	EventTimeout time.Duration
}

type Client struct {
	baseURL      *url.URL
	apiKey       string
	rest         *http.Client
	stream       *http.Client
	eventTimeout time.Duration
	folders      map[string]string
}

// New connects to Syncthing and fetches its folder list.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.RESTTimeout <= 0 {
		opts.RESTTimeout = DefaultRESTTimeout
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = DefaultEventTimeout
	}

	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fatalf("invalid url %q: %w", opts.URL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fatalf("invalid url %q: scheme and host required", opts.URL)
	}

	// Each connection gets its own pool so a reconnect never reuses a
	// socket from the previous session.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	c := &Client{
		baseURL:      base,
		apiKey:       opts.APIKey,
		rest:         &http.Client{Transport: transport, Timeout: opts.RESTTimeout},
		stream:       &http.Client{Transport: transport, Timeout: opts.EventTimeout + opts.RESTTimeout},
		eventTimeout: opts.EventTimeout,
	}

	if err := c.loadFolders(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// Folders returns the folder id to local path map fetched at connection time.
func (c *Client) Folders() map[string]string {
	return c.folders
}

func (c *Client) URL() string {
	return c.baseURL.String()
}

// Stream starts a new event stream with an empty cursor.
func (c *Client) Stream() *Stream {
	return newStream(c)
}

func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := c.baseURL.JoinPath(segments...)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

func (c *Client) get(ctx context.Context, hc *http.Client, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fatalf("failed to build request: %w", err)
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	logger.Log.Debug("GET", zap.String("url", target))

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transportError(err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fatalf("GET %s: unexpected status %s: %s",
			target, resp.Status, strings.TrimSpace(string(body)))
	}

	logger.Log.Debug("response", zap.ByteString("body", body))
	return body, nil
}

func (c *Client) loadFolders(ctx context.Context) error {
	body, err := c.get(ctx, c.rest, c.endpoint(nil, "rest", "system", "config"))
	if err != nil {
		return err
	}

	var cfg SystemConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return fatalf("failed to decode system config: %w", err)
	}

	folders := make(map[string]string, len(cfg.Folders))
	for _, f := range cfg.Folders {
		path, err := util.NormalizePath(f.Path)
		if err != nil {
			return fatalf("invalid path for folder %s: %w", f.ID, err)
		}
		folders[f.ID] = path
	}

	c.folders = folders
	logger.Log.Info("syncthing folders loaded",
		zap.String("url", c.baseURL.String()),
		zap.Int("folders", len(folders)))

	return nil
}

// event blocks until Syncthing reports one event newer than since.
func (c *Client) event(ctx context.Context, since uint64) (RawEvent, error) {
	query := url.Values{}
	query.Set("since", strconv.FormatUint(since, 10))
	query.Set("limit", "1")
	query.Set("events", strings.Join(subscribedTypes, ","))
	query.Set("timeout", strconv.Itoa(int(c.eventTimeout.Seconds())))
	target := c.endpoint(query, "rest", "events")

	for {
		body, err := c.get(ctx, c.stream, target)
		if err != nil {
			return RawEvent{}, err
		}

		var events []RawEvent
		if err := json.Unmarshal(body, &events); err != nil {
			return RawEvent{}, fatalf("failed to decode events: %w", err)
		}

		switch len(events) {
		case 0:
			// Syncthing timed out with nothing to report.
			continue
		case 1:
			return events[0], nil
		default:
			return RawEvent{}, fatalf("expected at most 1 event, got %d", len(events))
		}
	}
}

func decodeData[T any](evt RawEvent) (T, error) {
	var data T
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return data, fatalf("failed to decode %s event %d: %w", evt.Type, evt.ID, err)
	}

	return data, nil
}

func (c *Client) folderPath(id string) (string, error) {
	path, ok := c.folders[id]
	if !ok {
		return "", fatalf("unknown folder id %q", id)
	}

	return path, nil
}
