package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"konbot/internal/errs"
)

func TestClassifyReturnsProbabilities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BeatmapIDs []string `json:"beatmap_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.BeatmapIDs) != 1 || req.BeatmapIDs[0] != "4141" {
			t.Errorf("beatmap_ids = %v, want [4141]", req.BeatmapIDs)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"4141": {"Stream": 0.72, "Jump": 0.18}}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, time.Second)
	probs, err := client.Classify(context.Background(), 4141)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if probs["Stream"] != 0.72 || probs["Jump"] != 0.18 {
		t.Fatalf("Classify() = %v", probs)
	}
}

func TestClassifyMissingIDYieldsEmptyMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, time.Second)
	probs, err := client.Classify(context.Background(), 1)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(probs) != 0 {
		t.Fatalf("Classify() = %v, want empty map", probs)
	}
}

func TestClassifyServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"detail": "model not loaded"}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, time.Second)
	_, err := client.Classify(context.Background(), 1)
	if err == nil {
		t.Fatalf("Classify() expected error")
	}
	if errs.KindOf(err) != errs.KindExternal {
		t.Fatalf("Classify() error kind = %v, want KindExternal", errs.KindOf(err))
	}
}

func TestClassifyErrorKeyOnOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"error": "model unavailable"}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, time.Second)
	_, err := client.Classify(context.Background(), 4141)
	if err == nil {
		t.Fatalf("Classify() expected error for error payload")
	}
	if errs.KindOf(err) != errs.KindExternal {
		t.Fatalf("Classify() error kind = %v, want KindExternal", errs.KindOf(err))
	}
}

func TestClassifyValidationDetailList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"detail": [{"msg": "beatmap_ids required"}]}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, time.Second)
	_, err := client.Classify(context.Background(), 1)
	if err == nil {
		t.Fatalf("Classify() expected error for validation detail")
	}
	if got := err.Error(); !strings.Contains(got, "beatmap_ids required") {
		t.Fatalf("Classify() error = %q, want validation message included", got)
	}
}

func TestClassifyUnreachableService(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/predict", 200*time.Millisecond)
	_, err := client.Classify(context.Background(), 1)
	if err == nil {
		t.Fatalf("Classify() expected error for unreachable service")
	}
	if errs.KindOf(err) != errs.KindExternal {
		t.Fatalf("Classify() error kind = %v, want KindExternal", errs.KindOf(err))
	}
}
