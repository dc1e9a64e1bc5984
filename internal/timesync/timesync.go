// Package timesync estimates the local clock offset from a remote time service.
package timesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultURL serves the current time for a fixed timezone as JSON.
const DefaultURL = "https://worldtimeapi.org/api/timezone/Europe/Istanbul"

// DefaultField is the JSON member that carries the ISO-8601 timestamp.
const DefaultField = "datetime"

const defaultTimeout = 10 * time.Second

// Options configures a query.
type Options struct {
	URL     string
	Field   string
	Timeout time.Duration
	Client  *http.Client

	// now is replaced in tests.
	now func() time.Time
}

// Result is the outcome of a successful query.
type Result struct {
	Remote time.Time
	Offset time.Duration
	RTT    time.Duration
}

// Query fetches the remote time once. The offset is measured against the
// midpoint of the request window. There is no retry.
func Query(ctx context.Context, opts Options) (Result, error) {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Field == "" {
		opts.Field = DefaultField
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}

	sent := now()
	resp, err := httpRequest(ctx, opts)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("unexpected time service status: %s", resp.Status)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("failed to decode time service response: %w", err)
	}
	received := now()

	raw, ok := payload[opts.Field]
	if !ok {
		return Result{}, fmt.Errorf("missing %q in time service response", opts.Field)
	}
	var stamp string
	if err := json.Unmarshal(raw, &stamp); err != nil {
		return Result{}, fmt.Errorf("field %q is not a string: %w", opts.Field, err)
	}
	remote, err := ParseTimestamp(stamp)
	if err != nil {
		return Result{}, err
	}

	rtt := received.Sub(sent)
	midpoint := sent.Add(rtt / 2)
	return Result{
		Remote: remote,
		Offset: remote.Sub(midpoint),
		RTT:    rtt,
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 timestamp. A value without a zone is
// read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp %q", s)
}

func httpRequest(ctx context.Context, opts Options) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
