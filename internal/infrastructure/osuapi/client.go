package osuapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/errs"
	"konbot/internal/ports"
)

const defaultTimeout = 20 * time.Second

// Client talks to the osu! v2 API. It implements ports.BeatmapProvider.
type Client struct {
	baseURL    string
	tokens     *TokenSource
	httpClient *http.Client
}

// NewHTTPClient builds the HTTP client all osu! traffic goes through.
// proxyURL may be empty; when set, the returned client routes through that
// proxy. Hand the same client to NewTokenSource and NewClient so the token
// exchange and the API calls share one transport.
func NewHTTPClient(proxyURL string) (*http.Client, error) {
	httpClient := &http.Client{Timeout: defaultTimeout}
	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return nil, errs.Wrapf(err, "parse proxy url %q", proxyURL)
		}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}
	return httpClient, nil
}

// NewClient builds the API client. httpClient is normally the one from
// NewHTTPClient; nil falls back to a plain client with the default timeout.
func NewClient(baseURL string, tokens *TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: httpClient,
	}
}

type beatmapPayload struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`

	DiffName      string  `json:"version"`
	StarRating    float64 `json:"difficulty_rating"`
	AR            float64 `json:"ar"`
	OD            float64 `json:"accuracy"`
	CS            float64 `json:"cs"`
	HP            float64 `json:"drain"`
	LengthSeconds int     `json:"total_length"`
	BPM           float64 `json:"bpm"`
	URL           string  `json:"url"`

	Beatmapset struct {
		Title     string `json:"title"`
		Artist    string `json:"artist"`
		Creator   string `json:"creator"`
		CreatorID int64  `json:"user_id"`
		Covers    struct {
			Cover string `json:"cover"`
		} `json:"covers"`
	} `json:"beatmapset"`
}

func (c *Client) FetchBeatmap(ctx context.Context, bid int64) (ports.BeatmapMetadata, error) {
	var payload beatmapPayload
	err := c.getJSON(ctx, fmt.Sprintf("/beatmaps/%d", bid), &payload)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return ports.BeatmapMetadata{}, ports.ErrBeatmapNotFound
		}
		return ports.BeatmapMetadata{}, err
	}
	return ports.BeatmapMetadata{
		BID:           payload.ID,
		Title:         payload.Beatmapset.Title,
		Artist:        payload.Beatmapset.Artist,
		CreatorName:   payload.Beatmapset.Creator,
		CreatorID:     payload.Beatmapset.CreatorID,
		DiffName:      payload.DiffName,
		StarRating:    payload.StarRating,
		Status:        payload.Status,
		AR:            payload.AR,
		OD:            payload.OD,
		CS:            payload.CS,
		HP:            payload.HP,
		LengthSeconds: payload.LengthSeconds,
		BPM:           payload.BPM,
		URL:           payload.URL,
		CoverURL:      payload.Beatmapset.Covers.Cover,
	}, nil
}

func (c *Client) LookupUser(ctx context.Context, username string) (ports.OsuUser, error) {
	var payload struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	err := c.getJSON(ctx, "/users/"+url.PathEscape(username)+"/osu?key=username", &payload)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return ports.OsuUser{}, ports.ErrOsuUserNotFound
		}
		return ports.OsuUser{}, err
	}
	return ports.OsuUser{UID: payload.ID, Username: payload.Username}, nil
}

func (c *Client) RecentBeatmapID(ctx context.Context, osuUID int64) (int64, error) {
	var payload []struct {
		Beatmap struct {
			ID int64 `json:"id"`
		} `json:"beatmap"`
	}
	path := fmt.Sprintf("/users/%d/scores/recent?include_fails=1&limit=1", osuUID)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return 0, err
	}
	if len(payload) == 0 {
		return 0, ports.ErrNoRecentPlay
	}
	return payload[0].Beatmap.ID, nil
}

// getJSON performs an authenticated GET. On a 401 it invalidates the cached
// token and retries exactly once with a fresh one.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	status, err := c.doGet(ctx, path, out)
	if err == nil && status == http.StatusUnauthorized {
		logging.Warn(ctx, "osu api rejected token, retrying with fresh exchange",
			slog.String("path", path))
		c.tokens.Invalidate()
		status, err = c.doGet(ctx, path, out)
	}
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return errs.WithKind(fmt.Errorf("osu api: %s returned 404", path), errs.KindNotFound)
	default:
		return errs.WithKind(fmt.Errorf("osu api: %s returned status %d", path, status), errs.KindExternal)
	}
}

func (c *Client) doGet(ctx context.Context, path string, out any) (int, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, errs.WithKind(err, errs.KindExternal)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, errs.Wrapf(err, "build request for %s", path)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errs.WithKind(errs.Wrapf(err, "call osu api %s", path), errs.KindExternal)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return 0, errs.WithKind(errs.Wrapf(err, "decode osu api response for %s", path), errs.KindExternal)
	}
	return resp.StatusCode, nil
}
