package osuapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"konbot/internal/ports"
)

func newTokenServer(t *testing.T, exchanges *atomic.Int64, expiresIn int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":%d}`, exchanges.Load(), expiresIn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenSourceCachesAcrossCalls(t *testing.T) {
	var exchanges atomic.Int64
	tokenSrv := newTokenServer(t, &exchanges, 86400)

	source := NewTokenSource(1, "secret", tokenSrv.URL, nil)
	ctx := context.Background()

	first, err := source.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	second, err := source.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if first != second {
		t.Fatalf("Token() = %q then %q, want cached value", first, second)
	}
	if got := exchanges.Load(); got != 1 {
		t.Fatalf("token exchanges = %d, want 1", got)
	}
}

func TestTokenSourceRefreshesNearExpiry(t *testing.T) {
	var exchanges atomic.Int64
	// Expires in 10s, inside the 5 minute refresh margin, so every call
	// finds the cached token stale.
	tokenSrv := newTokenServer(t, &exchanges, 10)

	source := NewTokenSource(1, "secret", tokenSrv.URL, nil)
	ctx := context.Background()

	if _, err := source.Token(ctx); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if _, err := source.Token(ctx); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got := exchanges.Load(); got < 2 {
		t.Fatalf("token exchanges = %d, want per-call refresh near expiry", got)
	}
}

func TestTokenSourceSharesConcurrentExchange(t *testing.T) {
	var exchanges atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","expires_in":86400}`)
	}))
	t.Cleanup(srv.Close)

	source := NewTokenSource(1, "secret", srv.URL, nil)

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := source.Token(context.Background())
			errCh <- err
		}()
	}
	close(release)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
	}
	if got := exchanges.Load(); got != 1 {
		t.Fatalf("token exchanges = %d, want 1 shared exchange", got)
	}
}

func newClient(t *testing.T, apiHandler http.Handler) *Client {
	t.Helper()
	var exchanges atomic.Int64
	tokenSrv := newTokenServer(t, &exchanges, 86400)
	apiSrv := httptest.NewServer(apiHandler)
	t.Cleanup(apiSrv.Close)

	return NewClient(apiSrv.URL, NewTokenSource(1, "secret", tokenSrv.URL, nil), nil)
}

type countingTransport struct {
	calls atomic.Int64
}

func (ct *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ct.calls.Add(1)
	return http.DefaultTransport.RoundTrip(req)
}

func TestSharedHTTPClientCarriesTokenExchange(t *testing.T) {
	var exchanges atomic.Int64
	tokenSrv := newTokenServer(t, &exchanges, 86400)
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 1, "beatmapset": {}}`)
	}))
	t.Cleanup(apiSrv.Close)

	transport := &countingTransport{}
	httpClient := &http.Client{Transport: transport}
	tokens := NewTokenSource(1, "secret", tokenSrv.URL, httpClient)
	client := NewClient(apiSrv.URL, tokens, httpClient)

	if _, err := client.FetchBeatmap(context.Background(), 1); err != nil {
		t.Fatalf("FetchBeatmap() error = %v", err)
	}
	if got := transport.calls.Load(); got != 2 {
		t.Fatalf("shared transport round trips = %d, want token exchange + api call", got)
	}
}

func TestNewHTTPClientProxy(t *testing.T) {
	httpClient, err := NewHTTPClient("http://127.0.0.1:7890")
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	transport, ok := httpClient.Transport.(*http.Transport)
	if !ok || transport.Proxy == nil {
		t.Fatalf("proxy transport not configured: %#v", httpClient.Transport)
	}
	req, _ := http.NewRequest(http.MethodGet, "https://osu.ppy.sh/api/v2/beatmaps/1", nil)
	proxy, err := transport.Proxy(req)
	if err != nil || proxy == nil || proxy.Host != "127.0.0.1:7890" {
		t.Fatalf("proxy = %v, err = %v", proxy, err)
	}

	if _, err := NewHTTPClient("://bad"); err == nil {
		t.Fatalf("NewHTTPClient() expected error for malformed proxy url")
	}
}

func TestFetchBeatmapMapsPayload(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/beatmaps/4141" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": 4141, "status": "ranked", "version": "Extra",
			"difficulty_rating": 6.3, "ar": 9.5, "accuracy": 9, "cs": 4, "drain": 5.5,
			"total_length": 215, "bpm": 190, "url": "https://osu.ppy.sh/beatmaps/4141",
			"beatmapset": {"title": "Song", "artist": "Artist", "creator": "Mapper", "user_id": 9,
				"covers": {"cover": "https://example/cover.jpg"}}
		}`)
	}))

	meta, err := client.FetchBeatmap(context.Background(), 4141)
	if err != nil {
		t.Fatalf("FetchBeatmap() error = %v", err)
	}
	if meta.BID != 4141 || meta.Title != "Song" || meta.CreatorName != "Mapper" {
		t.Fatalf("FetchBeatmap() = %#v", meta)
	}
	if meta.StarRating != 6.3 || meta.OD != 9 || meta.LengthSeconds != 215 {
		t.Fatalf("FetchBeatmap() difficulty fields = %#v", meta)
	}
}

func TestFetchBeatmapNotFound(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.FetchBeatmap(context.Background(), 1)
	if !errors.Is(err, ports.ErrBeatmapNotFound) {
		t.Fatalf("FetchBeatmap() error = %v, want ErrBeatmapNotFound", err)
	}
}

func TestGetJSONRetriesOnceAfterUnauthorized(t *testing.T) {
	var calls atomic.Int64
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 7, "username": "peppy"}`)
	}))

	user, err := client.LookupUser(context.Background(), "peppy")
	if err != nil {
		t.Fatalf("LookupUser() error = %v", err)
	}
	if user.UID != 7 {
		t.Fatalf("LookupUser() uid = %d, want 7", user.UID)
	}
	if calls.Load() != 2 {
		t.Fatalf("api calls = %d, want retry once after 401", calls.Load())
	}
}

func TestRecentBeatmapIDNoPlays(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))

	_, err := client.RecentBeatmapID(context.Background(), 7)
	if !errors.Is(err, ports.ErrNoRecentPlay) {
		t.Fatalf("RecentBeatmapID() error = %v, want ErrNoRecentPlay", err)
	}
}

func TestRecentBeatmapIDReturnsLatest(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("include_fails") != "1" {
			t.Errorf("include_fails not requested: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"beatmap": {"id": 321}}]`)
	}))

	bid, err := client.RecentBeatmapID(context.Background(), 7)
	if err != nil {
		t.Fatalf("RecentBeatmapID() error = %v", err)
	}
	if bid != 321 {
		t.Fatalf("RecentBeatmapID() = %d, want 321", bid)
	}
}
