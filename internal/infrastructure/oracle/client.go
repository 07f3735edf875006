// Package oracle calls the beatmap classification model service.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"konbot/internal/errs"
)

const defaultTimeout = 30 * time.Second

// Client implements ports.Classifier against the model's HTTP predict
// endpoint. The service takes a batch of beatmap ids and returns per-id
// label probabilities; only single-id requests are issued here.
type Client struct {
	predictURL string
	httpClient *http.Client
}

func NewClient(predictURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		predictURL: predictURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	BeatmapIDs []string `json:"beatmap_ids"`
}

// The service replies with predictions keyed by beatmap id at the top level;
// "error" and "detail" are sibling keys on failure. "detail" is either a
// plain string or a list of {"msg": ...} validation entries.
func decodeDetail(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &entries); err == nil && len(entries) > 0 {
		return entries[0].Msg
	}
	return string(raw)
}

// Classify returns the raw label distribution for one beatmap. Labels are
// whatever the model emits; the caller normalizes them. A response that
// lacks the requested id yields an empty map, not an error.
func (c *Client) Classify(ctx context.Context, bid int64) (map[string]float64, error) {
	body, err := json.Marshal(predictRequest{BeatmapIDs: []string{strconv.FormatInt(bid, 10)}})
	if err != nil {
		return nil, errs.Wrap(err, "encode predict request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(err, "build predict request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.WithKind(errs.Wrap(err, "call classification service"), errs.KindExternal)
	}
	defer resp.Body.Close()

	var payload map[string]json.RawMessage
	if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, errs.WithKind(
				fmt.Errorf("classification service returned status %d", resp.StatusCode), errs.KindExternal)
		}
		return nil, errs.WithKind(errs.Wrap(decodeErr, "decode predict response"), errs.KindExternal)
	}

	var msg string
	if raw, ok := payload["error"]; ok {
		msg = decodeDetail(raw)
	} else if raw, ok := payload["detail"]; ok {
		msg = decodeDetail(raw)
	}
	if resp.StatusCode != http.StatusOK || msg != "" {
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, errs.WithKind(fmt.Errorf("classification service: %s", msg), errs.KindExternal)
	}

	raw, ok := payload[strconv.FormatInt(bid, 10)]
	if !ok {
		return map[string]float64{}, nil
	}
	var probs map[string]float64
	if err := json.Unmarshal(raw, &probs); err != nil {
		return nil, errs.WithKind(errs.Wrap(err, "decode predictions"), errs.KindExternal)
	}
	if probs == nil {
		probs = map[string]float64{}
	}
	return probs, nil
}
