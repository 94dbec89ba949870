// Package remote implements the InstrumentDB access contract on top of a
// RESTful server. Every resolution is one or more request/response round
// trips; cross references arrive as URLs and are translated back to UUIDs
// by taking the final path segment. Path-shaped identifiers are resolved
// server side, because the remote index is never held client side.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/instrumentdb/insdb/pkg/insdb"
)

const defaultTimeout = 30 * time.Second

// truncateBody truncates response bodies carried inside errors, so that
// diagnostics never drag a whole payload along.
func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "... (truncated)"
	}
	return s
}

// Client is an authenticated connection to a remote InstrumentDB server.
// The session token obtained at construction time is attached to every
// request and lives for the lifetime of the client. Calls block on network
// I/O; a failed call never affects later ones.
type Client struct {
	serverAddress string
	httpClient    *http.Client
	authHeader    string
	tracker       *insdb.Tracker
	logger        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger installs a structured logger. The default discards all
// output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to change the
// timeout or inject a transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Connect logs into the server and returns a client holding the session
// token. A rejected login is fatal: no client is returned.
func Connect(ctx context.Context, serverAddress, username, password string, opts ...Option) (*Client, error) {
	c := &Client{
		serverAddress: strings.TrimRight(serverAddress, "/"),
		httpClient:    &http.Client{Timeout: defaultTimeout},
		tracker:       insdb.NewTracker(),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	form := url.Values{
		"username": {username},
		"password": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/api/login"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &insdb.ConnectionError{
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
			Message:    "unable to log in",
		}
	}

	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if login.Token == "" {
		return nil, fmt.Errorf("login response carries no token")
	}
	c.authHeader = "Token " + login.Token

	c.logger.Debug("logged in", zap.String("server", c.serverAddress))
	return c, nil
}

// ServerAddress returns the address the client was connected to.
func (c *Client) ServerAddress() string {
	return c.serverAddress
}

// Tracker implements insdb.Database.
func (c *Client) Tracker() *insdb.Tracker {
	return c.tracker
}

func (c *Client) endpoint(path string) string {
	return c.serverAddress + path
}

// get performs an authenticated GET against rawurl, which may be an
// endpoint built from the server address or an absolute URL taken from a
// response. Any status other than 200 becomes a ConnectionError.
func (c *Client) get(ctx context.Context, rawurl string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &insdb.ConnectionError{
			URL:        rawurl,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
			Message:    "request failed",
		}
	}

	c.logger.Debug("fetched", zap.String("url", rawurl), zap.Int("bytes", len(body)))
	return body, nil
}

// getJSON performs an authenticated GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, rawurl string, out any) error {
	body, err := c.get(ctx, rawurl)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawurl, err)
	}
	return nil
}

// postJSON performs an authenticated POST with a JSON payload and decodes
// the response into out. Creation endpoints answer 201.
func (c *Client) postJSON(ctx context.Context, rawurl string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawurl, strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return &insdb.ConnectionError{
			URL:        rawurl,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
			Message:    "creation failed",
		}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", rawurl, err)
		}
	}
	return nil
}

// QueryEntity implements insdb.Database. Path-shaped identifiers are
// resolved in a single round trip through the server's tree endpoint.
func (c *Client) QueryEntity(ctx context.Context, identifier string, track bool) (*insdb.Entity, error) {
	target := ""
	if id, err := uuid.Parse(identifier); err == nil {
		target = c.endpoint(fmt.Sprintf("/api/entities/%s/", id))
	} else {
		target = c.endpoint("/tree" + ensureLeadingSlash(identifier))
	}

	var resp entityResponse
	if err := c.getJSON(ctx, target, &resp); err != nil {
		return nil, err
	}

	entity, err := resp.toEntity()
	if err != nil {
		return nil, fmt.Errorf("invalid entity response for %q: %w", identifier, err)
	}
	c.track(track, insdb.KindEntity, entity.UUID)
	return entity, nil
}

// QueryQuantity implements insdb.Database.
func (c *Client) QueryQuantity(ctx context.Context, identifier string, track bool) (*insdb.Quantity, error) {
	target := ""
	if id, err := uuid.Parse(identifier); err == nil {
		target = c.endpoint(fmt.Sprintf("/api/quantities/%s/", id))
	} else {
		target = c.endpoint("/tree" + ensureLeadingSlash(identifier))
	}

	var resp quantityResponse
	if err := c.getJSON(ctx, target, &resp); err != nil {
		return nil, err
	}

	quantity, err := resp.toQuantity()
	if err != nil {
		return nil, fmt.Errorf("invalid quantity response for %q: %w", identifier, err)
	}
	c.track(track, insdb.KindQuantity, quantity.UUID)
	return quantity, nil
}

// QueryFormatSpec implements insdb.Database.
func (c *Client) QueryFormatSpec(ctx context.Context, id uuid.UUID, track bool) (*insdb.FormatSpecification, error) {
	var resp formatSpecResponse
	if err := c.getJSON(ctx, c.endpoint(fmt.Sprintf("/api/format_specs/%s/", id)), &resp); err != nil {
		return nil, err
	}

	spec, err := resp.toFormatSpec(id)
	if err != nil {
		return nil, fmt.Errorf("invalid format specification response for %s: %w", id, err)
	}
	c.track(track, insdb.KindFormatSpec, id)
	return spec, nil
}

// QueryDataFile implements insdb.Database. A release-scoped path is
// resolved server side: one round trip translates the path directly to the
// data file record.
func (c *Client) QueryDataFile(ctx context.Context, identifier string, track bool) (*insdb.DataFile, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		return c.dataFileByUUID(ctx, id, track)
	}

	// Validate the path shape before touching the network.
	path, err := insdb.ParseReleasePath(insdb.StripReleasesPrefix(identifier))
	if err != nil {
		return nil, err
	}

	var resp dataFileResponse
	if err := c.getJSON(ctx, c.endpoint("/releases"+path.String()+"/"), &resp); err != nil {
		return nil, err
	}

	df, err := resp.toDataFile()
	if err != nil {
		return nil, fmt.Errorf("invalid data file response for %q: %w", identifier, err)
	}
	c.track(track, insdb.KindDataFile, df.UUID)
	return df, nil
}

func (c *Client) dataFileByUUID(ctx context.Context, id uuid.UUID, track bool) (*insdb.DataFile, error) {
	var resp dataFileResponse
	if err := c.getJSON(ctx, c.endpoint(fmt.Sprintf("/api/data_files/%s/", id)), &resp); err != nil {
		return nil, err
	}

	df, err := resp.toDataFile()
	if err != nil {
		return nil, fmt.Errorf("invalid data file response for %s: %w", id, err)
	}
	c.track(track, insdb.KindDataFile, df.UUID)
	return df, nil
}

// QueryRelease implements insdb.Database.
func (c *Client) QueryRelease(ctx context.Context, tag string) (*insdb.Release, error) {
	var resp releaseResponse
	if err := c.getJSON(ctx, c.endpoint(fmt.Sprintf("/api/releases/%s/", tag)), &resp); err != nil {
		return nil, err
	}

	release, err := resp.toRelease()
	if err != nil {
		return nil, fmt.Errorf("invalid release response for %q: %w", tag, err)
	}
	return release, nil
}

// OpenDataFile implements insdb.Database. The whole payload is downloaded
// into memory first; no streaming or partial-read contract is offered.
func (c *Client) OpenDataFile(ctx context.Context, df *insdb.DataFile) (io.ReadCloser, error) {
	if df.DownloadURL == "" {
		return nil, fmt.Errorf("data file %s: %w", df.UUID, insdb.ErrNoDownloadURL)
	}

	body, err := c.get(ctx, df.DownloadURL)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (c *Client) track(track bool, kind insdb.Kind, id uuid.UUID) {
	if track {
		c.tracker.Record(kind, id)
	}
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
