package timesync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestQueryOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"timezone":"Europe/Istanbul","datetime":"2026-10-14T13:00:10.000000+03:00"}`))
	}))
	t.Cleanup(srv.Close)

	local := []time.Time{
		time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 14, 10, 0, 2, 0, time.UTC),
	}
	calls := 0
	opts := Options{URL: srv.URL, now: func() time.Time {
		v := local[calls]
		calls++
		return v
	}}

	res, err := Query(context.Background(), opts)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.RTT != 2*time.Second {
		t.Fatalf("unexpected rtt %v", res.RTT)
	}
	if res.Offset != 9*time.Second {
		t.Fatalf("expected 9s offset from midpoint, got %v", res.Offset)
	}
	if !res.Remote.Equal(time.Date(2026, 10, 14, 10, 0, 10, 0, time.UTC)) {
		t.Fatalf("unexpected remote time %v", res.Remote)
	}
}

func TestQueryCustomField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"utc":"2026-10-14T10:00:00Z"}`))
	}))
	t.Cleanup(srv.Close)

	if _, err := Query(context.Background(), Options{URL: srv.URL, Field: "utc"}); err != nil {
		t.Fatalf("query: %v", err)
	}
}

func TestQueryFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadGateway)
		},
		"json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
		"missing": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"other":"x"}`))
		},
		"type": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"datetime":42}`))
		},
		"stamp": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"datetime":"yesterday"}`))
		},
	}
	for name, handler := range cases {
		srv := httptest.NewServer(handler)
		_, err := Query(context.Background(), Options{URL: srv.URL})
		srv.Close()
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestQueryCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Query(ctx, Options{URL: srv.URL}); err == nil {
		t.Fatalf("expected cancelled query to fail")
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{
		"2026-10-14T13:00:00+03:00",
		"2026-10-14T13:00:00.123456+03:00",
		"2026-10-14T10:00:00Z",
		"2026-10-14T10:00:00.5",
	} {
		if _, err := ParseTimestamp(s); err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", s, err)
		}
	}
	if _, err := ParseTimestamp("14/10/2026"); err == nil {
		t.Fatalf("expected parse failure")
	}
}
